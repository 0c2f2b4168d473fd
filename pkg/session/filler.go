package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
	"github.com/goliatone/go-docfill/pkg/preview"
	"github.com/goliatone/go-docfill/pkg/sections"
	"github.com/goliatone/go-docfill/pkg/wizard"
)

// ErrStale is returned when a result arrives after the session moved on.
var ErrStale = errors.New("session: result no longer relevant")

// ErrNoDocument is returned by Download before a document was processed.
var ErrNoDocument = errors.New("session: no processed document")

// Banner messages shown when a submission step fails.
const (
	MessageProcessFailed  = "ไม่สามารถสร้างเอกสารได้ กรุณาลองใหม่อีกครั้ง"
	MessageDownloadFailed = "ไม่สามารถดาวน์โหลดเอกสารได้ กรุณาลองใหม่อีกครั้ง"
)

// DraftStore persists in-progress form values.
type DraftStore interface {
	Save(ctx context.Context, owner, templateID string, values model.FormValues) error
	Load(ctx context.Context, owner, templateID string) (model.FormValues, error)
	Delete(ctx context.Context, owner, templateID string) error
}

// Banner is a dismissible inline error.
type Banner struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Outcome is the result of ConfirmAndProcess. Exactly one of Redirect or
// Document is set on success.
type Outcome struct {
	Redirect *Redirect            `json:"redirect,omitempty"`
	Document *model.DocumentResult `json:"document,omitempty"`
}

// Filler is a fill session: form values, the wizard and submission.
type Filler struct {
	client    apiclient.Client
	caps      Capabilities
	renderer  *preview.Renderer
	wizard    *wizard.Wizard
	relevance Relevance
	drafts    DraftStore
	owner     string
	locale    string
	logger    *zap.Logger

	mu       sync.RWMutex
	bundle   *Bundle
	html     *preview.Template
	sections []model.Section
	values   model.FormValues
	active   string
	document *model.DocumentResult
	banner   *Banner
}

// LoadFiller fetches a template bundle and opens a fill session on it.
func LoadFiller(ctx context.Context, client apiclient.Client, templateID string, caps Capabilities, options ...Option) (*Filler, error) {
	bundle, err := Load(ctx, client, templateID, options...)
	if err != nil {
		return nil, err
	}
	return NewFiller(client, bundle, caps, options...), nil
}

// NewFiller opens a fill session with an empty value for every field.
func NewFiller(client apiclient.Client, bundle *Bundle, caps Capabilities, options ...Option) *Filler {
	cfg := newConfig(options)
	values := make(model.FormValues, len(bundle.Definitions))
	for _, key := range bundle.Keys() {
		values[key] = ""
	}

	f := &Filler{
		client:   client,
		bundle:   bundle,
		caps:     caps,
		html:     preview.Compile(bundle.HTML),
		renderer: cfg.previewRenderer(),
		sections: sections.GroupFields(bundle.Definitions, sections.WithLocale(cfg.locale)),
		wizard:   wizard.New(),
		drafts:   cfg.drafts,
		owner:    cfg.owner,
		locale:   cfg.locale,
		logger:   cfg.logger,
		values:   values,
	}
	f.relevance.Begin(bundle.Template.ID)
	return f
}

// TemplateID returns the template being filled.
func (f *Filler) TemplateID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bundle.Template.ID
}

// Bundle returns the loaded template bundle.
func (f *Filler) Bundle() *Bundle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bundle
}

// Sections returns the form layout.
func (f *Filler) Sections() []model.Section {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return model.CloneSections(f.sections)
}

// Capabilities returns the caller permissions used for processing.
func (f *Filler) Capabilities() Capabilities {
	return f.caps
}

// Wizard exposes step navigation.
func (f *Filler) Wizard() *wizard.Wizard {
	return f.wizard
}

// Values returns a copy of the current form values.
func (f *Filler) Values() model.FormValues {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values.Clone()
}

// Set stores one value.
func (f *Filler) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[placeholder.Unbrace(key)] = value
}

// Merge overlays values such as OCR or address lookups. Empty values do not
// clear existing input.
func (f *Filler) Merge(values map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, value := range values {
		if value == "" {
			continue
		}
		f.values[placeholder.Unbrace(key)] = value
	}
}

// SetActive marks the focused field for preview highlighting.
func (f *Filler) SetActive(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = key
}

// Active returns the focused field key.
func (f *Filler) Active() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

// Input returns the preview input for the current state.
func (f *Filler) Input() preview.Input {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return preview.Input{
		Values:      f.values.Clone(),
		Definitions: f.bundle.Definitions,
		Sections:    f.sections,
		Active:      f.active,
	}
}

// Preview renders the current values.
func (f *Filler) Preview() preview.Result {
	f.mu.RLock()
	tpl := f.html
	f.mu.RUnlock()
	return f.renderer.Render(tpl, f.Input())
}

// Banner returns the current error banner, if any.
func (f *Filler) Banner() *Banner {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.banner == nil {
		return nil
	}
	b := *f.banner
	return &b
}

// DismissBanner clears the error banner.
func (f *Filler) DismissBanner() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banner = nil
}

// Document returns the processed document, if any.
func (f *Filler) Document() *model.DocumentResult {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.document == nil {
		return nil
	}
	d := *f.document
	return &d
}

// RestoreDraft loads saved values for the session owner, if a draft exists.
func (f *Filler) RestoreDraft(ctx context.Context) (bool, error) {
	if f.drafts == nil {
		return false, nil
	}
	values, err := f.drafts.Load(ctx, f.owner, f.TemplateID())
	if err != nil {
		return false, fmt.Errorf("session: restore draft: %w", err)
	}
	if len(values) == 0 {
		return false, nil
	}
	f.Merge(values)
	return true, nil
}

// ConfirmAndProcess submits the form with composite fields expanded the
// same way as the preview. Locked or anonymous callers get a redirect and
// the backend is not called. On failure the banner is set, the
// wizard stays on review and values are kept for a retry.
func (f *Filler) ConfirmAndProcess(ctx context.Context) (Outcome, error) {
	if redirect, ok := f.caps.RedirectFor(f.TemplateID()); ok {
		return Outcome{Redirect: &redirect}, nil
	}
	if f.client == nil {
		return Outcome{}, errors.New("session: filler has no api client")
	}

	ticket := f.relevance.Begin(f.TemplateID())
	values := f.Values()
	payload := preview.SubmissionValues(values, f.Bundle().Definitions)
	result, err := f.client.ProcessDocument(ctx, f.TemplateID(), placeholder.BraceKeys(payload))
	if !f.relevance.Valid(ticket) {
		return Outcome{}, ErrStale
	}
	if err != nil {
		f.fail(MessageProcessFailed, err)
		f.wizard.GoToReview()
		f.saveDraft(ctx, values)
		return Outcome{}, fmt.Errorf("session: process document: %w", err)
	}

	f.mu.Lock()
	f.document = &result
	f.banner = nil
	f.mu.Unlock()
	f.wizard.GoToDownload()
	f.deleteDraft(ctx)

	f.logger.Info("document processed",
		zap.String("template", f.TemplateID()),
		zap.String("document", result.DocumentID),
	)
	return Outcome{Document: &result}, nil
}

// Download fetches the processed document in format (docx or pdf).
func (f *Filler) Download(ctx context.Context, format string) ([]byte, error) {
	doc := f.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}
	ticket := f.relevance.Begin(f.TemplateID())
	blob, err := f.client.DownloadDocument(ctx, doc.DocumentID, format)
	if !f.relevance.Valid(ticket) {
		return nil, ErrStale
	}
	if err != nil {
		f.fail(MessageDownloadFailed, err)
		return nil, fmt.Errorf("session: download document: %w", err)
	}
	return blob, nil
}

// Reset points the session at another bundle. In-flight requests for the
// previous template are discarded when they return.
func (f *Filler) Reset(bundle *Bundle) {
	f.relevance.Begin(bundle.Template.ID)

	values := make(model.FormValues, len(bundle.Definitions))
	for _, key := range bundle.Keys() {
		values[key] = ""
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.bundle = bundle
	f.html = preview.Compile(bundle.HTML)
	f.sections = sections.GroupFields(bundle.Definitions, sections.WithLocale(f.locale))
	f.values = values
	f.active = ""
	f.document = nil
	f.banner = nil
	f.wizard.GoToFill()
}

func (f *Filler) fail(message string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banner = &Banner{Message: message, Detail: err.Error()}
	f.logger.Warn(message, zap.String("template", f.bundle.Template.ID), zap.Error(err))
}

func (f *Filler) saveDraft(ctx context.Context, values model.FormValues) {
	if f.drafts == nil {
		return
	}
	if err := f.drafts.Save(ctx, f.owner, f.TemplateID(), values); err != nil {
		f.logger.Warn("draft save failed", zap.Error(err))
	}
}

func (f *Filler) deleteDraft(ctx context.Context) {
	if f.drafts == nil {
		return
	}
	if err := f.drafts.Delete(ctx, f.owner, f.TemplateID()); err != nil {
		f.logger.Warn("draft delete failed", zap.Error(err))
	}
}
