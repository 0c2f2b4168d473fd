package preview

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a rendered template split into the parts a page shell needs.
type Page struct {
	// Full reports whether the template carried its own <html> or <body>.
	Full bool
	// Head holds <style> and <link> elements from the template head.
	Head string
	Body string
}

// IsFullDocument reports whether source is a complete HTML document rather
// than a fragment.
func IsFullDocument(source string) bool {
	lower := strings.ToLower(source)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

// SplitPage parses rendered HTML and extracts the head styles and the body
// markup so the result can be embedded in another page.
func SplitPage(rendered string) (Page, error) {
	if !IsFullDocument(rendered) {
		return Page{Body: rendered}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return Page{}, fmt.Errorf("preview: parse document: %w", err)
	}

	var head strings.Builder
	var headErr error
	doc.Find("head style, head link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		if headErr != nil {
			return
		}
		outer, err := goquery.OuterHtml(s)
		if err != nil {
			headErr = err
			return
		}
		head.WriteString(outer)
	})
	if headErr != nil {
		return Page{}, fmt.Errorf("preview: render head: %w", headErr)
	}

	body, err := doc.Find("body").First().Html()
	if err != nil {
		return Page{}, fmt.Errorf("preview: render body: %w", err)
	}
	return Page{Full: true, Head: head.String(), Body: body}, nil
}

// Document returns rendered as a standalone HTML document with css injected
// into its head. Fragments are wrapped in a minimal document first.
func Document(rendered, css string) (string, error) {
	source := rendered
	if !IsFullDocument(source) {
		source = `<!DOCTYPE html><html><head><meta charset="utf-8"></head><body>` + rendered + `</body></html>`
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return "", fmt.Errorf("preview: parse document: %w", err)
	}
	if strings.TrimSpace(css) != "" {
		doc.Find("head").First().AppendHtml(`<style data-docfill="preview">` + css + `</style>`)
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("preview: render document: %w", err)
	}
	return out, nil
}

// StyleSheet is the stylesheet Document injects for highlighted fields.
const StyleSheet = `mark.docfill-active{padding:0 2px;border-radius:2px}` +
	`.docfill-blank{display:inline-block;min-width:4em}`
