package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/enhance"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
	"github.com/goliatone/go-docfill/pkg/preview"
	"github.com/goliatone/go-docfill/pkg/sections"
)

// Editor is a section editing session for one template. The Board owns
// section state; Save writes the recomputed definitions back in full.
// Catalog defaults only feed the preview and never reach the saved map.
type Editor struct {
	client   apiclient.Client
	bundle   *Bundle
	board    *sections.Board
	html     *preview.Template
	renderer *preview.Renderer
	enhancer *enhance.Enhancer
	palette  sections.Palette
	logger   *zap.Logger

	mu       sync.RWMutex
	defs     model.Definitions
	enhanced model.Definitions
}

// LoadEditor fetches a template bundle and opens an editor on it.
func LoadEditor(ctx context.Context, client apiclient.Client, templateID string, options ...Option) (*Editor, error) {
	bundle, err := Load(ctx, client, templateID, options...)
	if err != nil {
		return nil, err
	}
	return NewEditor(client, bundle, options...), nil
}

// NewEditor opens an editor over an already loaded bundle.
func NewEditor(client apiclient.Client, bundle *Bundle, options ...Option) *Editor {
	cfg := newConfig(options)
	boardOptions := []sections.BoardOption{
		sections.WithBoardLogger(cfg.logger),
		sections.WithBoardLocale(cfg.locale, nil),
	}
	if cfg.idFunc != nil {
		boardOptions = append(boardOptions, sections.WithIDFunc(cfg.idFunc))
	}

	defs := bundle.Raw.Clone()
	if defs == nil {
		defs = bundle.Definitions.Clone()
	}
	enhancer := enhance.New(bundle.Catalog, enhance.WithLogger(cfg.logger))
	palette := cfg.palette
	if len(palette) == 0 {
		palette = sections.DefaultPalette
	}
	return &Editor{
		client:   client,
		bundle:   bundle,
		board:    sections.NewBoard(sections.GroupFields(defs, sections.WithLocale(cfg.locale)), boardOptions...),
		html:     preview.Compile(bundle.HTML),
		renderer: cfg.previewRenderer(),
		enhancer: enhancer,
		palette:  palette,
		logger:   cfg.logger,
		defs:     defs,
		enhanced: enhancer.Apply(defs),
	}
}

// TemplateID returns the edited template id.
func (e *Editor) TemplateID() string {
	return e.bundle.Template.ID
}

// Bundle returns the loaded template bundle.
func (e *Editor) Bundle() *Bundle {
	return e.bundle
}

// Board exposes the section board for drag and drop mutations.
func (e *Editor) Board() *sections.Board {
	return e.board
}

// Definitions returns a copy of the last saved definitions.
func (e *Editor) Definitions() model.Definitions {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defs.Clone()
}

// Unassigned lists visible fields not placed in any section.
func (e *Editor) Unassigned() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.board.Unassigned(e.defs)
}

// Layout positions the current sections for the canvas view.
func (e *Editor) Layout() ([]sections.Node, []sections.Edge) {
	return sections.Layout(e.board.Sections(), e.bundle.Labels, e.palette, sections.DefaultLayoutMetrics)
}

// Pending returns the definitions Save would write.
func (e *Editor) Pending() model.Definitions {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.board.Assign(e.defs)
}

// Save recomputes order and group for every definition and replaces the
// backend map.
func (e *Editor) Save(ctx context.Context) (model.Definitions, error) {
	if e.client == nil {
		return nil, errors.New("session: editor has no api client")
	}
	next := e.Pending()
	if err := e.client.UpdateFieldDefinitions(ctx, e.TemplateID(), next); err != nil {
		return nil, fmt.Errorf("session: save definitions: %w", err)
	}

	enhanced := e.enhancer.Apply(next)
	e.mu.Lock()
	e.defs = next
	e.enhanced = enhanced
	e.mu.Unlock()

	e.logger.Info("field definitions saved",
		zap.String("template", e.TemplateID()),
		zap.Int("fields", len(next)),
		zap.Int("sections", len(e.board.Sections())),
	)
	return next.Clone(), nil
}

// Preview renders the template with the board's current section colors.
// Every known field starts empty so an active field without a value still
// shows as a blank in its section color.
func (e *Editor) Preview(values model.FormValues, active string) preview.Result {
	e.mu.RLock()
	defs := e.enhanced
	e.mu.RUnlock()

	seeded := make(model.FormValues, len(defs)+len(values))
	for _, key := range e.bundle.Keys() {
		seeded[key] = ""
	}
	for key, value := range values {
		seeded[placeholder.Unbrace(key)] = value
	}
	return e.renderer.Render(e.html, preview.Input{
		Values:      seeded,
		Definitions: defs,
		Sections:    e.board.Sections(),
		Active:      active,
	})
}
