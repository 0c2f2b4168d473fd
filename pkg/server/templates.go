package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/session"
	"github.com/goliatone/go-docfill/pkg/wizard"
)

// HeaderUnmatched lists template tokens the preview removed.
const HeaderUnmatched = "X-Docfill-Unmatched"

type templateSummary struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	DisplayName  string            `json:"display_name,omitempty"`
	Description  string            `json:"description,omitempty"`
	Category     string            `json:"category,omitempty"`
	Tier         string            `json:"tier,omitempty"`
	Placeholders []string          `json:"placeholders"`
	Labels       map[string]string `json:"labels"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.client.GetAllTemplates(r.Context())
	if err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}

	out := make([]templateSummary, 0, len(templates))
	for _, tpl := range templates {
		keys := placeholder.ParsePlaceholders(string(tpl.Placeholders))
		out = append(out, templateSummary{
			ID:           tpl.ID,
			Name:         tpl.Name,
			DisplayName:  tpl.DisplayName,
			Description:  tpl.Description,
			Category:     tpl.Category,
			Tier:         tpl.Tier,
			Placeholders: keys,
			Labels:       placeholder.Labels(keys, placeholder.ParseAliases(string(tpl.Aliases))),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": out})
}

type previewRequest struct {
	Values model.FormValues `json:"values"`
	Active string           `json:"active"`
	Step   wizard.Step      `json:"step"`
}

// handlePreview renders submitted values into the template. ?page=1 wraps the
// result in the page shell.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	bundle, err := s.bundles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}

	filler := session.NewFiller(nil, bundle, session.Capabilities{},
		session.WithLogger(s.opts.Logger),
		session.WithLocale(s.opts.Locale),
		session.WithRenderer(s.renderer),
	)
	filler.Merge(req.Values)
	filler.SetActive(req.Active)

	start := time.Now()
	result := filler.Preview()
	s.opts.Observer.ObservePreview(time.Since(start), len(result.Unmatched))

	if isTruthy(r.URL.Query().Get("page")) {
		s.writePage(w, r, render.PageData{
			Title:      templateTitle(bundle.Template),
			TemplateID: bundle.Template.ID,
			Rendered:   result.HTML,
			Sections:   filler.Sections(),
			Step:       req.Step,
			Unmatched:  result.Unmatched,
		})
		return
	}

	if len(result.Unmatched) > 0 {
		w.Header().Set(HeaderUnmatched, strings.Join(result.Unmatched, ","))
	}
	w.Header().Set("Content-Type", render.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.HTML))
}

type processRequest struct {
	Values model.FormValues `json:"values"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	bundle, err := s.bundles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}

	filler := session.NewFiller(s.client, bundle, s.opts.Capabilities(r),
		session.WithLogger(s.opts.Logger),
		session.WithLocale(s.opts.Locale),
		session.WithRenderer(s.renderer),
		session.WithDrafts(s.opts.Drafts, s.opts.Owner(r)),
	)
	filler.Merge(req.Values)

	outcome, err := filler.ConfirmAndProcess(r.Context())
	switch {
	case outcome.Redirect != nil:
		status, code := http.StatusForbidden, "QUOTA_EXCEEDED"
		if outcome.Redirect.Reason == "login" {
			status, code = http.StatusUnauthorized, "LOGIN_REQUIRED"
		}
		w.Header().Set("Location", outcome.Redirect.Location)
		writeJSON(w, status, errorResponse{
			Error:    http.StatusText(status),
			Code:     code,
			Redirect: outcome.Redirect,
		})
	case err != nil:
		status := http.StatusBadGateway
		if isBreakerOpen(err) {
			status = http.StatusServiceUnavailable
		}
		message := session.MessageProcessFailed
		if banner := filler.Banner(); banner != nil {
			message = banner.Message
		}
		s.opts.Logger.Warn("process failed", zap.String("template", bundle.Template.ID), zap.Error(err))
		writeError(w, status, "PROCESS_FAILED", message)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"document": outcome.Document,
			"step":     filler.Wizard().Current().Info(),
		})
	}
}

var downloadTypes = map[string]string{
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pdf":  "application/pdf",
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "docx"
	}
	contentType, ok := downloadTypes[format]
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_FORMAT", "format must be docx or pdf")
		return
	}

	docID := chi.URLParam(r, "docID")
	blob, err := s.client.DownloadDocument(r.Context(), docID, format)
	if err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+docID+"."+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, data render.PageData) {
	page, err := s.pages.Render(r.Context(), data)
	if err != nil {
		s.opts.Logger.Error("page render failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "page render failed")
		return
	}
	w.Header().Set("Content-Type", render.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func templateTitle(tpl model.Template) string {
	if tpl.DisplayName != "" {
		return tpl.DisplayName
	}
	if tpl.Name != "" {
		return tpl.Name
	}
	return tpl.ID
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
