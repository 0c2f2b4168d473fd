// Package apiclient talks to the document backend that owns templates, field
// definitions and document generation.
package apiclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-docfill/pkg/model"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("apiclient: not found")

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("apiclient: %s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("apiclient: %s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == 404
}

// Client is the contract the editor and fill sessions depend on.
type Client interface {
	GetAllTemplates(ctx context.Context) ([]model.Template, error)
	GetTemplate(ctx context.Context, templateID string) (model.Template, error)
	GetFieldDefinitions(ctx context.Context, templateID string) (model.Definitions, error)
	GetConfigurableDataTypes(ctx context.Context, activeOnly bool) ([]model.ConfigurableDataType, error)
	GetHTMLPreview(ctx context.Context, templateID string) (string, error)
	// UpdateFieldDefinitions replaces the whole definition map.
	UpdateFieldDefinitions(ctx context.Context, templateID string, defs model.Definitions) error
	// ProcessDocument expects data keyed by braced placeholders.
	ProcessDocument(ctx context.Context, templateID string, data map[string]string) (model.DocumentResult, error)
	DownloadDocument(ctx context.Context, documentID, format string) ([]byte, error)
}
