package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/sections"
	"github.com/goliatone/go-docfill/pkg/session"
	"github.com/goliatone/go-docfill/pkg/wizard"
)

type editorView struct {
	SessionID  string            `json:"session_id"`
	TemplateID string            `json:"template_id"`
	Sections   []model.Section   `json:"sections"`
	Unassigned []string          `json:"unassigned"`
	Labels     map[string]string `json:"labels"`
	Nodes      []sections.Node   `json:"nodes,omitempty"`
	Edges      []sections.Edge   `json:"edges,omitempty"`
}

func (s *Server) view(sid string, editor *session.Editor, layout bool) editorView {
	v := editorView{
		SessionID:  sid,
		TemplateID: editor.TemplateID(),
		Sections:   editor.Board().Sections(),
		Unassigned: editor.Unassigned(),
		Labels:     editor.Bundle().Labels,
	}
	if v.Unassigned == nil {
		v.Unassigned = []string{}
	}
	if layout {
		v.Nodes, v.Edges = editor.Layout()
	}
	return v
}

func (s *Server) editor(w http.ResponseWriter, r *http.Request) (string, *session.Editor, bool) {
	sid := chi.URLParam(r, "sid")
	editor, ok := s.editors.get(sid)
	if !ok {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "editor session "+sid+" not found")
		return "", nil, false
	}
	return sid, editor, true
}

// handleOpenEditor always loads fresh definitions; editing from a cached
// bundle could overwrite a newer save.
func (s *Server) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	options := append(sessionOptions(s.opts), session.WithIDFunc(s.newID), session.WithRenderer(s.renderer))
	editor, err := session.LoadEditor(r.Context(), s.client, chi.URLParam(r, "id"), options...)
	if err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}
	sid := s.newID()
	s.editors.put(sid, editor)
	writeJSON(w, http.StatusCreated, s.view(sid, editor, false))
}

func (s *Server) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	sid, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(sid, editor, true))
}

func (s *Server) handleCloseEditor(w http.ResponseWriter, r *http.Request) {
	if !s.editors.remove(chi.URLParam(r, "sid")) {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "editor session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDrop forwards the raw canvas payload. Payloads the board ignores
// still answer 200 with applied=false.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	sid, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	applied := editor.Board().ApplyDrop(raw)
	s.opts.Observer.ObserveDrop(applied)

	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"editor":  s.view(sid, editor, false),
	})
}

type sectionRequest struct {
	Name       *string `json:"name"`
	ColorIndex *int    `json:"colorIndex"`
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	_, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	writeJSON(w, http.StatusCreated, editor.Board().AddSection(name))
}

func findSection(list []model.Section, id string) (model.Section, bool) {
	for _, section := range list {
		if section.ID == id {
			return section, true
		}
	}
	return model.Section{}, false
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	_, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	secID := chi.URLParam(r, "secID")
	board := editor.Board()
	if _, found := findSection(board.Sections(), secID); !found {
		writeError(w, http.StatusNotFound, "SECTION_NOT_FOUND", "section "+secID+" not found")
		return
	}

	var req sectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Name != nil && (strings.TrimSpace(*req.Name) == "" || strings.Contains(*req.Name, "|")) {
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "section name must be non-empty and must not contain |")
		return
	}
	if req.ColorIndex != nil && (*req.ColorIndex < 0 || *req.ColorIndex >= sections.PaletteSize) {
		writeError(w, http.StatusBadRequest, "INVALID_COLOR", "colorIndex out of range")
		return
	}

	if req.Name != nil {
		board.RenameSection(secID, *req.Name)
	}
	if req.ColorIndex != nil {
		board.ChangeSectionColor(secID, *req.ColorIndex)
	}
	section, _ := findSection(board.Sections(), secID)
	writeJSON(w, http.StatusOK, section)
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	_, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	if !editor.Board().DeleteSection(chi.URLParam(r, "secID")) {
		writeError(w, http.StatusNotFound, "SECTION_NOT_FOUND", "section not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveSection(w http.ResponseWriter, r *http.Request) {
	_, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req struct {
		Direction sections.Direction `json:"direction"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Direction != sections.Left && req.Direction != sections.Right {
		writeError(w, http.StatusBadRequest, "INVALID_DIRECTION", "direction must be left or right")
		return
	}
	moved := editor.Board().MoveSection(chi.URLParam(r, "secID"), req.Direction)
	writeJSON(w, http.StatusOK, map[string]any{
		"moved":    moved,
		"sections": editor.Board().Sections(),
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	_, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	defs, err := editor.Save(r.Context())
	if err != nil {
		writeBackendError(w, s.opts.Logger, err)
		return
	}
	s.bundles.Invalidate(editor.TemplateID())
	writeJSON(w, http.StatusOK, map[string]any{"field_definitions": defs})
}

// handleEditorPreview renders the page shell with every field empty. Only
// the field named by ?active= is drawn, as a blank in its section color.
func (s *Server) handleEditorPreview(w http.ResponseWriter, r *http.Request) {
	_, editor, ok := s.editor(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result := editor.Preview(model.FormValues{}, r.URL.Query().Get("active"))
	s.opts.Observer.ObservePreview(time.Since(start), len(result.Unmatched))

	s.writePage(w, r, render.PageData{
		Title:      templateTitle(editor.Bundle().Template),
		TemplateID: editor.TemplateID(),
		Rendered:   result.HTML,
		Sections:   editor.Board().Sections(),
		Step:       wizard.StepFill,
		Unmatched:  result.Unmatched,
	})
}
