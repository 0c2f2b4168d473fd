// Package placeholder parses the placeholder and alias columns stored on
// template records and converts keys between braced and unbraced forms.
package placeholder

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Option configures a Parser.
type Option func(*Parser)

// WithLogger routes parse diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser decodes the JSON-encoded placeholder and alias columns of a template
// record. It never fails: malformed input degrades to empty values.
type Parser struct {
	logger *zap.Logger
}

// New constructs a Parser.
func New(options ...Option) *Parser {
	p := &Parser{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

var defaultParser = New()

// ParsePlaceholders decodes raw using a parser that discards diagnostics.
func ParsePlaceholders(raw string) []string {
	return defaultParser.Placeholders(raw)
}

// ParseAliases decodes raw using a parser that discards diagnostics.
func ParseAliases(raw string) map[string]string {
	return defaultParser.Aliases(raw)
}

// Placeholders decodes a JSON array of placeholder names. Braces are stripped,
// blanks and duplicates dropped, and order preserved.
func (p *Parser) Placeholders(raw string) []string {
	out := []string{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return out
	}

	var entries []string
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		p.logger.Warn("placeholder: malformed placeholder list", zap.Error(err))
		return out
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		key := Unbrace(entry)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Aliases decodes a JSON object of placeholder key to display label. Keys are
// unbraced; non-string values are ignored.
func (p *Parser) Aliases(raw string) map[string]string {
	out := map[string]string{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return out
	}

	var entries map[string]any
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		p.logger.Warn("placeholder: malformed alias map", zap.Error(err))
		return out
	}

	for key, value := range entries {
		label, ok := value.(string)
		if !ok {
			continue
		}
		name := Unbrace(key)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(label)
	}
	return out
}

// Labels pairs each placeholder with its alias, falling back to the key.
func Labels(placeholders []string, aliases map[string]string) map[string]string {
	out := make(map[string]string, len(placeholders))
	for _, key := range placeholders {
		if label := strings.TrimSpace(aliases[key]); label != "" {
			out[key] = label
			continue
		}
		out[key] = key
	}
	return out
}

// Brace wraps key in template braces.
func Brace(key string) string {
	return "{{" + Unbrace(key) + "}}"
}

// Unbrace strips surrounding braces and whitespace from a token.
func Unbrace(token string) string {
	trimmed := strings.TrimSpace(token)
	trimmed = strings.TrimPrefix(trimmed, "{{")
	trimmed = strings.TrimSuffix(trimmed, "}}")
	return strings.TrimSpace(trimmed)
}

// BraceKeys returns a copy of values keyed by braced placeholders, the shape
// the document backend expects on submission.
func BraceKeys(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[Brace(key)] = value
	}
	return out
}

// Extract lists the distinct tokens found in html in first-seen order.
func Extract(html string) []string {
	matches := tokenPattern.FindAllStringSubmatch(html, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		key := strings.TrimSpace(match[1])
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
