// Package enhance overlays configurable data type catalog entries onto stored
// field definitions. Explicit field values always win over catalog defaults,
// so running the enhancer on its own output changes nothing.
package enhance

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
)

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithLogger routes catalog parse diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Enhancer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Enhancer merges catalog defaults into field definitions.
type Enhancer struct {
	catalog map[string]model.ConfigurableDataType
	logger  *zap.Logger
}

var _ model.Decorator = (*Enhancer)(nil)

// New builds an Enhancer over the supplied catalog. Later entries with the
// same code replace earlier ones.
func New(catalog []model.ConfigurableDataType, options ...Option) *Enhancer {
	e := &Enhancer{
		catalog: make(map[string]model.ConfigurableDataType, len(catalog)),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	for _, entry := range catalog {
		code := strings.TrimSpace(entry.Code)
		if code == "" {
			continue
		}
		e.catalog[code] = entry
	}
	return e
}

// Enhance is a convenience wrapper around New(catalog).Apply(defs).
func Enhance(defs model.Definitions, catalog []model.ConfigurableDataType, options ...Option) model.Definitions {
	return New(catalog, options...).Apply(defs)
}

// Decorate satisfies model.Decorator. It never returns an error.
func (e *Enhancer) Decorate(defs model.Definitions) (model.Definitions, error) {
	return e.Apply(defs), nil
}

// Apply returns enhanced copies of defs. The input map is not modified.
func (e *Enhancer) Apply(defs model.Definitions) model.Definitions {
	if defs == nil {
		return nil
	}
	out := make(model.Definitions, len(defs))
	for key, def := range defs {
		out[key] = e.field(key, def.Clone())
	}
	return out
}

func (e *Enhancer) field(key string, def model.FieldDefinition) model.FieldDefinition {
	entry, ok := e.catalog[strings.TrimSpace(def.DataType)]
	if !ok {
		return def
	}

	if def.InputType == "" && strings.TrimSpace(entry.InputType) != "" {
		def.InputType = model.InputType(strings.TrimSpace(entry.InputType))
	}

	switch def.InputType {
	case model.InputTypeDigit:
		if def.DigitFormat == "" {
			def.DigitFormat = entry.DefaultValue
		}
	case model.InputTypeLocation:
		if def.LocationOutputFormat == "" {
			def.LocationOutputFormat = entry.DefaultValue
		}
	case model.InputTypeSelect:
		options, err := parseOptions(string(entry.Options))
		if err != nil {
			e.logger.Warn("enhance: skip catalog options",
				zap.String("field", key),
				zap.String("code", entry.Code),
				zap.Error(err),
			)
			break
		}
		if len(options) > 0 {
			if def.Validation == nil {
				def.Validation = &model.Validation{}
			}
			def.Validation.Options = mergeOptions(def.Validation.Options, options)
		}
	}

	rules, err := parseValidation(string(entry.Validation))
	if err != nil {
		e.logger.Warn("enhance: skip catalog validation",
			zap.String("field", key),
			zap.String("code", entry.Code),
			zap.Error(err),
		)
	} else if rules != nil {
		def.Validation = mergeValidation(def.Validation, rules)
	}

	if def.DataTypeLabel == "" {
		def.DataTypeLabel = entry.Name
	}
	return def
}

// parseOptions accepts either ["a","b"] or [{"value":"a","label":"A"}].
func parseOptions(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var plain []string
	if err := json.Unmarshal([]byte(trimmed), &plain); err == nil {
		return plain, nil
	}

	var labelled []struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(trimmed), &labelled); err != nil {
		return nil, fmt.Errorf("enhance: parse options: %w", err)
	}
	out := make([]string, 0, len(labelled))
	for _, option := range labelled {
		value := option.Value
		if value == "" {
			value = option.Label
		}
		out = append(out, value)
	}
	return out, nil
}

func parseValidation(raw string) (*model.Validation, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, nil
	}
	var rules model.Validation
	if err := json.Unmarshal([]byte(trimmed), &rules); err != nil {
		return nil, fmt.Errorf("enhance: parse validation: %w", err)
	}
	return &rules, nil
}

func mergeOptions(existing, extra []string) []string {
	out := make([]string, 0, len(existing)+len(extra))
	seen := make(map[string]struct{}, len(existing)+len(extra))
	for _, group := range [][]string{existing, extra} {
		for _, option := range group {
			value := strings.TrimSpace(option)
			if value == "" {
				continue
			}
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}

// mergeValidation fills unset field rules from the catalog.
func mergeValidation(field, catalog *model.Validation) *model.Validation {
	if field == nil {
		return catalog.Clone()
	}
	out := field.Clone()
	if out.Min == nil && catalog.Min != nil {
		min := *catalog.Min
		out.Min = &min
	}
	if out.Max == nil && catalog.Max != nil {
		max := *catalog.Max
		out.Max = &max
	}
	if out.MaxLength == nil && catalog.MaxLength != nil {
		maxLength := *catalog.MaxLength
		out.MaxLength = &maxLength
	}
	if out.Required == nil && catalog.Required != nil {
		required := *catalog.Required
		out.Required = &required
	}
	if out.Pattern == "" {
		out.Pattern = catalog.Pattern
	}
	if len(out.Options) == 0 && len(catalog.Options) > 0 {
		out.Options = append([]string(nil), catalog.Options...)
	}
	return out
}
