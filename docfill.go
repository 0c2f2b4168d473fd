// Package docfill is the top-level entry point for filling Thai document
// templates: placeholder parsing, field enhancement, section grouping and
// the live preview. The session, server and preview packages hold the full
// APIs; this package covers the common calls.
package docfill

import (
	"context"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/preview"
	"github.com/goliatone/go-docfill/pkg/sections"
	"github.com/goliatone/go-docfill/pkg/session"
)

// FieldDefinition aliases model.FieldDefinition.
type FieldDefinition = model.FieldDefinition

// Definitions aliases model.Definitions.
type Definitions = model.Definitions

// Section aliases model.Section.
type Section = model.Section

// FormValues aliases model.FormValues.
type FormValues = model.FormValues

// Capabilities aliases session.Capabilities.
type Capabilities = session.Capabilities

// OpenFiller loads templateID from the backend and starts a fill session.
func OpenFiller(ctx context.Context, client apiclient.Client, templateID string, caps Capabilities, options ...session.Option) (*session.Filler, error) {
	return session.LoadFiller(ctx, client, templateID, caps, options...)
}

// OpenEditor loads templateID from the backend and starts a section editor
// session.
func OpenEditor(ctx context.Context, client apiclient.Client, templateID string, options ...session.Option) (*session.Editor, error) {
	return session.LoadEditor(ctx, client, templateID, options...)
}

// GroupFields partitions definitions into ordered sections.
func GroupFields(defs Definitions) []Section {
	return sections.GroupFields(defs)
}

// RenderHTML enhances defs with catalog and renders values into html
// without a backend. Keys may be braced or bare.
func RenderHTML(html string, defs Definitions, values FormValues, catalog []model.ConfigurableDataType, options ...session.Option) preview.Result {
	bundle := session.NewBundle(model.Template{ID: "inline"}, defs, catalog, html, options...)
	filler := session.NewFiller(nil, bundle, Capabilities{}, options...)
	filler.Merge(values)
	return filler.Preview()
}
