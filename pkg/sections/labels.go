package sections

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-docfill/pkg/model"
)

// DefaultLocale is used when callers do not pick one.
const DefaultLocale = "th"

// ErrMissingTranslation is returned by CatalogTranslator for unknown keys.
var ErrMissingTranslation = errors.New("sections: missing translation")

// Translator resolves display strings for entity and section labels.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// CatalogTranslator is a locale -> key -> format string lookup.
type CatalogTranslator map[string]map[string]string

// Translate formats the message for key, falling back to the base language of
// locale (th-TH -> th).
func (c CatalogTranslator) Translate(locale, key string, args ...any) (string, error) {
	for _, candidate := range localeChain(locale) {
		messages, ok := c[candidate]
		if !ok {
			continue
		}
		if msg, ok := messages[key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(msg, args...), nil
			}
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrMissingTranslation, locale, key)
}

func localeChain(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return []string{DefaultLocale}
	}
	base, _, found := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	if found && base != locale {
		return []string{locale, base}
	}
	return []string{locale}
}

// DefaultTranslator carries the built-in Thai and English labels.
var DefaultTranslator = CatalogTranslator{
	"th": {
		"entity.child":     "ข้อมูลบุตร",
		"entity.mother":    "ข้อมูลมารดา",
		"entity.father":    "ข้อมูลบิดา",
		"entity.informant": "ข้อมูลผู้แจ้ง",
		"entity.registrar": "ข้อมูลนายทะเบียน",
		"entity.general":   "ข้อมูลทั่วไป",
		"section.new":      "ส่วนที่ %d",
	},
	"en": {
		"entity.child":     "Child",
		"entity.mother":    "Mother",
		"entity.father":    "Father",
		"entity.informant": "Informant",
		"entity.registrar": "Registrar",
		"entity.general":   "General",
		"section.new":      "Section %d",
	},
}

// EntityLabel returns the translated display name of entity.
func EntityLabel(t Translator, locale string, entity model.Entity) string {
	return translate(t, locale, "entity."+string(model.NormalizeEntity(entity)), string(entity))
}

func translate(t Translator, locale, key, fallback string, args ...any) string {
	if t == nil {
		t = DefaultTranslator
	}
	msg, err := t.Translate(locale, key, args...)
	if err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	if msg, err := DefaultTranslator.Translate(locale, key, args...); err == nil {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	return key
}
