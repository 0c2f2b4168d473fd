// Package server exposes docfill sessions over HTTP with a chi router.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/preview"
	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/session"
)

// Server holds the shared state behind the HTTP routes.
type Server struct {
	client   apiclient.Client
	opts     Options
	renderer *preview.Renderer
	pages    *render.PageRenderer
	bundles  *bundleCache
	editors  *editorSessions
	newID    func() string
}

// New builds a Server over client.
func New(client apiclient.Client, fns ...OptionFn) (*Server, error) {
	if client == nil {
		return nil, errors.New("server: api client is required")
	}
	opts := NewOptions(fns...)

	pages := opts.Pages
	if pages == nil {
		p, err := render.New(
			render.WithPalette(opts.Palette),
			render.WithLocale(opts.Locale),
			render.WithLogger(opts.Logger),
		)
		if err != nil {
			return nil, fmt.Errorf("server: page renderer: %w", err)
		}
		pages = p
	}

	newID := opts.IDFunc
	if newID == nil {
		newID = uuid.NewString
	}

	return &Server{
		client:   client,
		opts:     opts,
		renderer: preview.NewRenderer(preview.WithPalette(opts.Palette), preview.WithLogger(opts.Logger)),
		pages:    pages,
		bundles:  newBundleCache(client, opts.BundleTTL, sessionOptions(opts)...),
		editors:  newEditorSessions(opts.EditorTTL),
		newID:    newID,
	}, nil
}

func sessionOptions(opts Options) []session.Option {
	return []session.Option{
		session.WithLogger(opts.Logger),
		session.WithLocale(opts.Locale),
		session.WithPalette(opts.Palette),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.opts.Observer, s.opts.Logger))
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders: []string{
				"Accept",
				"Content-Type",
				HeaderAuthenticated,
				HeaderAdmin,
				HeaderCanGenerate,
				HeaderUser,
			},
			ExposedHeaders: []string{HeaderUnmatched},
			MaxAge:         300,
		}).Handler)
	}

	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates/{id}/preview", s.handlePreview)
		r.Post("/templates/{id}/process", s.handleProcess)

		r.With(guarded(RequireAuthenticated(s.opts.Capabilities))).
			Get("/documents/{docID}/download", s.handleDownload)

		r.Group(func(r chi.Router) {
			r.Use(guarded(s.opts.EditorGuard))
			r.Post("/editor/{id}", s.handleOpenEditor)
			r.Route("/editor/sessions/{sid}", func(r chi.Router) {
				r.Get("/", s.handleGetEditor)
				r.Delete("/", s.handleCloseEditor)
				r.Post("/drop", s.handleDrop)
				r.Post("/sections", s.handleAddSection)
				r.Patch("/sections/{secID}", s.handleUpdateSection)
				r.Delete("/sections/{secID}", s.handleDeleteSection)
				r.Post("/sections/{secID}/move", s.handleMoveSection)
				r.Post("/save", s.handleSave)
				r.Get("/preview", s.handleEditorPreview)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(guarded(s.opts.DraftGuard))
			r.Put("/drafts/{templateID}", s.handlePutDraft)
			r.Get("/drafts/{templateID}", s.handleGetDraft)
			r.Delete("/drafts/{templateID}", s.handleDeleteDraft)
		})
	})
	return r
}
