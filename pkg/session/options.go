package session

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/preview"
	"github.com/goliatone/go-docfill/pkg/sections"
)

type config struct {
	logger     *zap.Logger
	activeOnly bool
	locale     string
	palette    sections.Palette
	renderer   *preview.Renderer
	idFunc     func() string
	drafts     DraftStore
	owner      string
}

// WithLocale selects the locale for generated section names.
func WithLocale(locale string) Option {
	return func(c *config) {
		if locale != "" {
			c.locale = locale
		}
	}
}

// WithPalette overrides the section palette used for previews.
func WithPalette(p sections.Palette) Option {
	return func(c *config) {
		if len(p) > 0 {
			c.palette = p
		}
	}
}

// WithRenderer supplies a preconfigured preview renderer.
func WithRenderer(r *preview.Renderer) Option {
	return func(c *config) {
		if r != nil {
			c.renderer = r
		}
	}
}

// WithIDFunc sets the generator for new section ids.
func WithIDFunc(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.idFunc = fn
		}
	}
}

// WithDrafts persists fill values for owner when a submission fails.
func WithDrafts(store DraftStore, owner string) Option {
	return func(c *config) {
		c.drafts = store
		c.owner = owner
	}
}

func (c config) previewRenderer() *preview.Renderer {
	if c.renderer != nil {
		return c.renderer
	}
	palette := c.palette
	if len(palette) == 0 {
		palette = sections.DefaultPalette
	}
	return preview.NewRenderer(preview.WithPalette(palette), preview.WithLogger(c.logger))
}

func decodeEmbeddedDefinitions(raw string, logger *zap.Logger) model.Definitions {
	defs := model.Definitions{}
	if err := json.Unmarshal([]byte(raw), &defs); err != nil {
		logger.Warn("session: malformed embedded field definitions", zap.Error(err))
		return model.Definitions{}
	}
	return defs
}
