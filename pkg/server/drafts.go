package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-docfill/pkg/model"
)

type draftBody struct {
	Values model.FormValues `json:"values"`
}

func (s *Server) draftsEnabled(w http.ResponseWriter) bool {
	if s.opts.Drafts == nil {
		writeError(w, http.StatusNotImplemented, "DRAFTS_DISABLED", "draft storage is not configured")
		return false
	}
	return true
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	if !s.draftsEnabled(w) {
		return
	}
	var body draftBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := s.opts.Drafts.Save(r.Context(), s.opts.Owner(r), chi.URLParam(r, "templateID"), body.Values); err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	if !s.draftsEnabled(w) {
		return
	}
	templateID := chi.URLParam(r, "templateID")
	values, err := s.opts.Drafts.Load(r.Context(), s.opts.Owner(r), templateID)
	if err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}
	if values == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no draft for template "+templateID)
		return
	}
	writeJSON(w, http.StatusOK, draftBody{Values: values})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if !s.draftsEnabled(w) {
		return
	}
	if err := s.opts.Drafts.Delete(r.Context(), s.opts.Owner(r), chi.URLParam(r, "templateID")); err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
