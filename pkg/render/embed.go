package render

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// PageTemplate is the template name the page renderer executes.
const PageTemplate = "templates/preview.tmpl"

// TemplatesFS exposes the embedded page templates so callers can extend or
// override them.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
