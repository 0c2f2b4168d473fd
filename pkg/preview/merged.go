package preview

import (
	"sort"
	"strings"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
)

// SplitMerged distributes a composite value across def.MergedFields. With a
// separator the value is split on it and the last sub-field keeps any
// remainder; without one each sub-field receives a single character. Missing
// parts are empty strings so the result always has len(MergedFields) entries.
func SplitMerged(value string, def model.FieldDefinition) []string {
	count := len(def.MergedFields)
	if count == 0 {
		return nil
	}
	out := make([]string, count)
	if value == "" {
		return out
	}

	if def.Separator != "" {
		parts := strings.SplitN(value, def.Separator, count)
		copy(out, parts)
		return out
	}

	runes := []rune(value)
	for i := 0; i < count && i < len(runes); i++ {
		if i == count-1 {
			out[i] = string(runes[i:])
			break
		}
		out[i] = string(runes[i])
	}
	return out
}

// JoinMerged is the inverse of SplitMerged.
func JoinMerged(parts []string, separator string) string {
	return strings.Join(parts, separator)
}

// MergedValues maps each sub-field key of def to its part of value.
func MergedValues(value string, def model.FieldDefinition) map[string]string {
	parts := SplitMerged(value, def)
	out := make(map[string]string, len(parts))
	for i, key := range def.MergedFields {
		out[key] = parts[i]
	}
	return out
}

// SubmissionValues expands composite fields the way Render does, so the
// generated document matches the preview. Merged fields contribute their
// sub-field parts and radio groups put CheckMark on the chosen option's
// placeholder. Composite keys keep their own value and dates stay raw.
func SubmissionValues(values model.FormValues, defs model.Definitions) map[string]string {
	out := make(map[string]string, len(values))
	keys := make([]string, 0, len(values))
	for key, value := range values {
		out[key] = value
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := values[key]
		def, ok := defs[key]
		if !ok {
			continue
		}
		switch {
		case def.IsMerged && len(def.MergedFields) > 0:
			for sub, part := range MergedValues(raw, def) {
				if existing, ok := out[sub]; ok && raw == "" && existing != "" {
					continue
				}
				out[sub] = part
			}
		case def.IsRadioGroup:
			for _, opt := range def.RadioOptions {
				if opt.Placeholder == "" {
					continue
				}
				mark := ""
				if raw != "" && opt.Value == raw {
					mark = CheckMark
				}
				out[placeholder.Unbrace(opt.Placeholder)] = mark
			}
		}
	}
	return out
}
