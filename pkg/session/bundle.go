package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/enhance"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
)

// ErrTemplateNotFound is fatal to both editor and fill sessions.
var ErrTemplateNotFound = errors.New("session: template not found")

// Bundle is everything loaded for one template: the record, enhanced field
// definitions, the data type catalog and the HTML preview.
type Bundle struct {
	Template    model.Template
	Definitions model.Definitions
	// Raw holds the normalized definitions before catalog defaults. It is
	// the base for writes back to the backend.
	Raw          model.Definitions
	Catalog      []model.ConfigurableDataType
	HTML         string
	Placeholders []string
	Labels       map[string]string
	// Warnings collects degraded fetches.
	Warnings []string
}

// Option configures loading and the sessions built on a bundle.
type Option func(*config)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithActiveOnly restricts the catalog to active data types. It defaults to
// true.
func WithActiveOnly(active bool) Option {
	return func(c *config) {
		c.activeOnly = active
	}
}

func newConfig(options []Option) config {
	cfg := config{logger: zap.NewNop(), activeOnly: true, locale: "th"}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Load fetches a template bundle. The template, definitions, catalog and
// preview are requested concurrently. Only a missing template is fatal; the
// other fetches degrade to empty values with a warning.
func Load(ctx context.Context, client apiclient.Client, templateID string, options ...Option) (*Bundle, error) {
	if client == nil {
		return nil, errors.New("session: api client is required")
	}
	cfg := newConfig(options)

	var (
		tpl      model.Template
		defs     model.Definitions
		catalog  []model.ConfigurableDataType
		html     string
		warnings = make([]string, 3)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tpl, err = client.GetTemplate(gctx, templateID)
		if errors.Is(err, apiclient.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
		}
		if err != nil {
			return fmt.Errorf("session: load template %s: %w", templateID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if defs, err = client.GetFieldDefinitions(gctx, templateID); err != nil {
			warnings[0] = "field definitions unavailable"
			cfg.logger.Warn("field definitions unavailable", zap.String("template", templateID), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if catalog, err = client.GetConfigurableDataTypes(gctx, cfg.activeOnly); err != nil {
			warnings[1] = "data type catalog unavailable"
			cfg.logger.Warn("data type catalog unavailable", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if html, err = client.GetHTMLPreview(gctx, templateID); err != nil {
			warnings[2] = "preview unavailable"
			cfg.logger.Warn("preview unavailable", zap.String("template", templateID), zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle := NewBundle(tpl, defs, catalog, html, options...)
	for _, w := range warnings {
		if w != "" {
			bundle.Warnings = append(bundle.Warnings, w)
		}
	}
	return bundle, nil
}

// NewBundle assembles a bundle from already loaded parts. Definition keys
// are unbraced, every placeholder gets at least a text definition, and the
// catalog defaults are applied.
func NewBundle(tpl model.Template, defs model.Definitions, catalog []model.ConfigurableDataType, html string, options ...Option) *Bundle {
	cfg := newConfig(options)
	parser := placeholder.New(placeholder.WithLogger(cfg.logger))

	placeholders := parser.Placeholders(string(tpl.Placeholders))
	if len(placeholders) == 0 && html != "" {
		placeholders = placeholder.Extract(html)
	}
	aliases := parser.Aliases(string(tpl.Aliases))

	if len(defs) == 0 && tpl.FieldDefinitions != "" {
		defs = decodeEmbeddedDefinitions(string(tpl.FieldDefinitions), cfg.logger)
	}

	normalized := make(model.Definitions, len(defs)+len(placeholders))
	for key, def := range defs {
		name := placeholder.Unbrace(key)
		if name == "" {
			continue
		}
		normalized[name] = def.Clone()
	}
	for _, key := range placeholders {
		if _, ok := normalized[key]; !ok {
			normalized[key] = model.FieldDefinition{Placeholder: placeholder.Brace(key), InputType: model.InputTypeText}
		}
	}

	enhanced := enhance.New(catalog, enhance.WithLogger(cfg.logger)).Apply(normalized)

	labels := placeholder.Labels(placeholders, aliases)
	for key, def := range enhanced {
		if def.Label != "" {
			labels[key] = def.Label
		} else if _, ok := labels[key]; !ok {
			labels[key] = key
		}
	}

	return &Bundle{
		Template:     tpl,
		Definitions:  enhanced,
		Raw:          normalized,
		Catalog:      catalog,
		HTML:         html,
		Placeholders: placeholders,
		Labels:       labels,
	}
}

// Keys lists every field key: placeholders first, then remaining
// definitions in key order.
func (b *Bundle) Keys() []string {
	seen := make(map[string]struct{}, len(b.Definitions))
	keys := make([]string, 0, len(b.Definitions))
	for _, key := range b.Placeholders {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	rest := make([]string, 0)
	for key := range b.Definitions {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
