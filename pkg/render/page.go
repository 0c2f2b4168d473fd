// Package render wraps a rendered document preview in a standalone HTML page
// with the wizard steps, a section color legend and the palette exposed as
// CSS custom properties.
package render

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/preview"
	rendertemplate "github.com/goliatone/go-docfill/pkg/render/template"
	"github.com/goliatone/go-docfill/pkg/render/template/gotemplate"
	"github.com/goliatone/go-docfill/pkg/sections"
	"github.com/goliatone/go-docfill/pkg/wizard"
)

// ContentType is the media type of rendered pages.
const ContentType = "text/html; charset=utf-8"

// Option configures a PageRenderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	palette          sections.Palette
	locale           string
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle. It must contain
// PageTemplate.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithPalette overrides the section palette.
func WithPalette(p sections.Palette) Option {
	return func(cfg *config) {
		if len(p) > 0 {
			cfg.palette = p
		}
	}
}

// WithLocale sets the page lang attribute.
func WithLocale(locale string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			cfg.locale = trimmed
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// PageData is the input of one page render.
type PageData struct {
	Title      string
	TemplateID string
	// Rendered is the output of preview.Renderer, either a fragment or a full
	// document.
	Rendered  string
	Sections  []model.Section
	Step      wizard.Step
	Unmatched []string
}

// PageRenderer renders PageData through the template engine.
type PageRenderer struct {
	templates rendertemplate.TemplateRenderer
	palette   sections.Palette
	locale    string
	logger    *zap.Logger
}

// New constructs a PageRenderer backed by the embedded templates unless
// overridden.
func New(options ...Option) (*PageRenderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		palette:    sections.DefaultPalette,
		locale:     "th",
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("render: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &PageRenderer{
		templates: renderer,
		palette:   cfg.palette,
		locale:    cfg.locale,
		logger:    cfg.logger,
	}, nil
}

// Render returns the full HTML page for data.
func (r *PageRenderer) Render(ctx context.Context, data PageData) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, fmt.Errorf("render: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := preview.SplitPage(data.Rendered)
	if err != nil {
		return nil, fmt.Errorf("render: split preview: %w", err)
	}

	title := strings.TrimSpace(data.Title)
	if title == "" {
		title = data.TemplateID
	}

	result, err := r.templates.RenderTemplate(PageTemplate, map[string]any{
		"locale":      r.locale,
		"title":       title,
		"template_id": data.TemplateID,
		"stylesheet":  preview.StyleSheet,
		"head":        page.Head,
		"body":        page.Body,
		"palette":     paletteContext(r.palette),
		"steps":       stepsContext(data.Step),
		"sections":    legendContext(data.Sections, r.palette),
		"unmatched":   stringsContext(data.Unmatched),
	})
	if err != nil {
		return nil, fmt.Errorf("render: render template: %w", err)
	}

	r.logger.Debug("page rendered",
		zap.String("template_id", data.TemplateID),
		zap.Int("sections", len(data.Sections)),
		zap.Int("bytes", len(result)),
	)
	return []byte(result), nil
}

func paletteContext(p sections.Palette) []any {
	out := make([]any, 0, len(p))
	for _, color := range p {
		out = append(out, map[string]any{"bg": color.BG, "text": color.Text})
	}
	return out
}

func stepsContext(current wizard.Step) []any {
	if current == 0 {
		current = wizard.StepFill
	}
	out := make([]any, 0, len(wizard.Steps))
	for _, info := range wizard.Steps {
		out = append(out, map[string]any{
			"step":   int(info.Step),
			"key":    info.Key,
			"label":  info.Label,
			"active": info.Step == current,
		})
	}
	return out
}

func legendContext(list []model.Section, palette sections.Palette) []any {
	out := make([]any, 0, len(list))
	for _, section := range list {
		color := palette.At(section.ColorIndex)
		out = append(out, map[string]any{
			"id":    section.ID,
			"name":  section.Name,
			"count": len(section.Fields),
			"bg":    color.BG,
			"text":  color.Text,
		})
	}
	return out
}

func stringsContext(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
