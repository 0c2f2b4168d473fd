package preview

import (
	"strings"
)

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentToken
)

type segment struct {
	kind segmentKind
	text string
}

// Template is a document template pre-split into literal text and
// {{placeholder}} tokens so rendering is a single linear pass.
type Template struct {
	source   string
	segments []segment
	keys     []string
}

// Compile tokenizes html. Malformed braces are kept as literal text.
func Compile(html string) *Template {
	t := &Template{source: html}
	seen := make(map[string]struct{})

	var literal strings.Builder
	flush := func() {
		if literal.Len() == 0 {
			return
		}
		t.segments = append(t.segments, segment{kind: segmentLiteral, text: literal.String()})
		literal.Reset()
	}

	rest := html
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			literal.WriteString(rest)
			break
		}
		literal.WriteString(rest[:start])
		rest = rest[start:]

		end := strings.Index(rest[2:], "}}")
		if end < 0 {
			literal.WriteString(rest)
			break
		}
		inner := rest[2 : 2+end]
		key := strings.TrimSpace(inner)
		if key == "" || strings.ContainsAny(inner, "{}<>") {
			// not a token; emit the first brace and keep scanning after it
			literal.WriteString(rest[:1])
			rest = rest[1:]
			continue
		}

		flush()
		t.segments = append(t.segments, segment{kind: segmentToken, text: key})
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			t.keys = append(t.keys, key)
		}
		rest = rest[2+end+2:]
	}
	flush()
	return t
}

// Source returns the original template text.
func (t *Template) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// Keys lists distinct token keys in first-seen order.
func (t *Template) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}
