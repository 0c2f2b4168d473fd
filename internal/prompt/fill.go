// Package prompt drives a fill session from the terminal: one prompt per
// visible field, section by section.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/preview"
	"github.com/goliatone/go-docfill/pkg/session"
)

const isoDate = "2006-01-02"

// FillOption configures Fill.
type FillOption func(*fillConfig)

type fillConfig struct {
	onAnswer func(key string)
}

// WithOnAnswer registers fn to run after each stored answer, e.g. to
// schedule a preview render.
func WithOnAnswer(fn func(key string)) FillOption {
	return func(cfg *fillConfig) {
		cfg.onAnswer = fn
	}
}

// Fill asks for every field of the session's sections in order and stores
// the answers on filler. Current values are offered as defaults so a
// restored draft can be confirmed quickly.
func Fill(ctx context.Context, driver PromptDriver, filler *session.Filler, options ...FillOption) error {
	var cfg fillConfig
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	bundle := filler.Bundle()
	for _, section := range filler.Sections() {
		if len(section.Fields) == 0 {
			continue
		}
		if err := driver.Info(ctx, fmt.Sprintf("== %s ==", section.Name)); err != nil {
			return err
		}
		for _, key := range section.Fields {
			def, ok := bundle.Definitions[key]
			if !ok || def.Hidden() {
				continue
			}
			filler.SetActive(key)
			value, err := ask(ctx, driver, label(bundle, key), def, filler.Values()[key])
			if err != nil {
				return fmt.Errorf("prompt: %s: %w", key, err)
			}
			filler.Set(key, value)
			if cfg.onAnswer != nil {
				cfg.onAnswer(key)
			}
		}
	}
	filler.SetActive("")
	return nil
}

// Review prints the answers grouped by section and asks for confirmation.
func Review(ctx context.Context, driver PromptDriver, filler *session.Filler) (bool, error) {
	bundle := filler.Bundle()
	values := filler.Values()
	for _, section := range filler.Sections() {
		if len(section.Fields) == 0 {
			continue
		}
		if err := driver.Info(ctx, fmt.Sprintf("== %s ==", section.Name)); err != nil {
			return false, err
		}
		for _, key := range section.Fields {
			if err := driver.Info(ctx, fmt.Sprintf("  %s: %s", label(bundle, key), values[key])); err != nil {
				return false, err
			}
		}
	}
	return driver.Confirm(ctx, ConfirmConfig{Message: "ยืนยันการสร้างเอกสาร?", Default: true})
}

func ask(ctx context.Context, driver PromptDriver, message string, def model.FieldDefinition, current string) (string, error) {
	switch {
	case def.IsRadioGroup || def.InputType == model.InputTypeRadio:
		return askRadio(ctx, driver, message, def, current)
	case def.IsMerged || def.InputType == model.InputTypeMerged:
		return driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   current,
			Help:      mergedHelp(def),
			Validator: validator(def),
		})
	}

	switch def.InputType {
	case model.InputTypeCheckbox:
		checked, err := driver.Confirm(ctx, ConfirmConfig{Message: message, Default: current != ""})
		if err != nil || !checked {
			return "", err
		}
		return preview.CheckMark, nil
	case model.InputTypeSelect:
		if def.Validation == nil || len(def.Validation.Options) == 0 {
			break
		}
		options := def.Validation.Options
		idx, err := driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: indexOf(options, current),
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(options) {
			return "", fmt.Errorf("select index %d out of range", idx)
		}
		return options[idx], nil
	case model.InputTypeTextarea:
		return driver.TextArea(ctx, TextAreaConfig{Message: message, Default: current})
	case model.InputTypeDate:
		return driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   current,
			Help:      "รูปแบบ YYYY-MM-DD",
			Validator: validator(def),
		})
	}
	return driver.Input(ctx, InputConfig{Message: message, Default: current, Validator: validator(def)})
}

func askRadio(ctx context.Context, driver PromptDriver, message string, def model.FieldDefinition, current string) (string, error) {
	if len(def.RadioOptions) == 0 {
		return "", ErrNoOptions
	}
	labels := make([]string, len(def.RadioOptions))
	selected := -1
	for i, opt := range def.RadioOptions {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = opt.Value
		}
		if current != "" && opt.Value == current {
			selected = i
		}
	}
	idx, err := driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: selected})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(def.RadioOptions) {
		return "", fmt.Errorf("radio index %d out of range", idx)
	}
	return def.RadioOptions[idx].Value, nil
}

func mergedHelp(def model.FieldDefinition) string {
	if len(def.MergedFields) == 0 {
		return ""
	}
	sep := def.Separator
	if sep == "" {
		return "กรอกต่อกัน: " + strings.Join(def.MergedFields, ", ")
	}
	return fmt.Sprintf("คั่นด้วย %q: %s", sep, strings.Join(def.MergedFields, ", "))
}

// validator combines the type check with the field's validation rules.
// It returns nil when nothing needs checking.
func validator(def model.FieldDefinition) func(string) error {
	var checks []func(string) error

	rules := def.Validation
	if rules != nil && rules.Required != nil && *rules.Required {
		checks = append(checks, func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("จำเป็นต้องกรอก")
			}
			return nil
		})
	}

	switch def.InputType {
	case model.InputTypeDate:
		if !def.IsMerged {
			checks = append(checks, func(s string) error {
				if s == "" {
					return nil
				}
				if _, err := time.Parse(isoDate, strings.TrimSpace(s)); err != nil {
					return errors.New("วันที่ต้องอยู่ในรูปแบบ YYYY-MM-DD")
				}
				return nil
			})
		}
	case model.InputTypeNumber, model.InputTypeDigit:
		checks = append(checks, numberCheck(rules))
	}

	if rules != nil && rules.MaxLength != nil {
		limit := *rules.MaxLength
		checks = append(checks, func(s string) error {
			if utf8.RuneCountInString(s) > limit {
				return fmt.Errorf("ยาวเกิน %d ตัวอักษร", limit)
			}
			return nil
		})
	}
	if rules != nil && rules.Pattern != "" {
		if re, err := regexp.Compile(rules.Pattern); err == nil {
			checks = append(checks, func(s string) error {
				if s != "" && !re.MatchString(s) {
					return errors.New("รูปแบบไม่ถูกต้อง")
				}
				return nil
			})
		}
	}

	if len(checks) == 0 {
		return nil
	}
	return func(s string) error {
		for _, check := range checks {
			if err := check(s); err != nil {
				return err
			}
		}
		return nil
	}
}

func numberCheck(rules *model.Validation) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("ต้องเป็นตัวเลข")
		}
		if rules == nil {
			return nil
		}
		if rules.Min != nil && n < *rules.Min {
			return fmt.Errorf("ต้องไม่น้อยกว่า %v", *rules.Min)
		}
		if rules.Max != nil && n > *rules.Max {
			return fmt.Errorf("ต้องไม่เกิน %v", *rules.Max)
		}
		return nil
	}
}

func label(bundle *session.Bundle, key string) string {
	if l := bundle.Labels[key]; l != "" {
		return l
	}
	return key
}
