package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// InputType is the rendering hint derived from a field's data type.
type InputType string

const (
	InputTypeText     InputType = "text"
	InputTypeSelect   InputType = "select"
	InputTypeDate     InputType = "date"
	InputTypeDigit    InputType = "digit"
	InputTypeNumber   InputType = "number"
	InputTypeMerged   InputType = "merged"
	InputTypeLocation InputType = "location"
	InputTypeCheckbox InputType = "checkbox"
	InputTypeRadio    InputType = "radio"
	InputTypeTextarea InputType = "textarea"
)

// Entity names the document role a field belongs to. It is only used when no
// saved group exists.
type Entity string

const (
	EntityChild     Entity = "child"
	EntityMother    Entity = "mother"
	EntityFather    Entity = "father"
	EntityInformant Entity = "informant"
	EntityRegistrar Entity = "registrar"
	EntityGeneral   Entity = "general"
)

// Entities lists the fallback taxonomy in its fixed enumeration order.
var Entities = []Entity{
	EntityChild,
	EntityMother,
	EntityFather,
	EntityInformant,
	EntityRegistrar,
	EntityGeneral,
}

// NormalizeEntity maps unknown or empty values onto EntityGeneral.
func NormalizeEntity(raw Entity) Entity {
	candidate := Entity(strings.ToLower(strings.TrimSpace(string(raw))))
	for _, entity := range Entities {
		if entity == candidate {
			return entity
		}
	}
	return EntityGeneral
}

// Validation carries per-field validation rules. Nil pointers mean "unset" so
// catalog defaults can be layered underneath explicit values.
type Validation struct {
	Options   []string `json:"options,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Required  *bool    `json:"required,omitempty"`
}

// Clone returns a deep copy of the validation rules.
func (v *Validation) Clone() *Validation {
	if v == nil {
		return nil
	}
	out := *v
	if v.Options != nil {
		out.Options = append([]string(nil), v.Options...)
	}
	if v.Min != nil {
		min := *v.Min
		out.Min = &min
	}
	if v.Max != nil {
		max := *v.Max
		out.Max = &max
	}
	if v.MaxLength != nil {
		maxLength := *v.MaxLength
		out.MaxLength = &maxLength
	}
	if v.Required != nil {
		required := *v.Required
		out.Required = &required
	}
	return &out
}

// RadioOption describes one choice of a radio composite field. When selected,
// Placeholder receives a check mark in the rendered document.
type RadioOption struct {
	Value       string `json:"value"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// FieldDefinition is the stored configuration of one placeholder token.
type FieldDefinition struct {
	Placeholder          string        `json:"placeholder"`
	DataType             string        `json:"dataType,omitempty"`
	InputType            InputType     `json:"inputType,omitempty"`
	Entity               Entity        `json:"entity,omitempty"`
	Group                Group         `json:"group"`
	Order                *int          `json:"order,omitempty"`
	IsMerged             bool          `json:"isMerged,omitempty"`
	MergedFields         []string      `json:"mergedFields,omitempty"`
	Separator            string        `json:"separator,omitempty"`
	IsRadioGroup         bool          `json:"isRadioGroup,omitempty"`
	RadioOptions         []RadioOption `json:"radioOptions,omitempty"`
	DateFormat           string        `json:"dateFormat,omitempty"`
	DigitFormat          string        `json:"digitFormat,omitempty"`
	LocationOutputFormat string        `json:"locationOutputFormat,omitempty"`
	Validation           *Validation   `json:"validation,omitempty"`
	DataTypeLabel        string        `json:"dataTypeLabel,omitempty"`
	Label                string        `json:"label,omitempty"`
}

// Hidden reports whether the field is a sub-component of a composite field and
// therefore excluded from sections and direct editing.
func (f FieldDefinition) Hidden() bool {
	return f.Group.Hidden()
}

// OrderOr returns the field order or fallback when unset.
func (f FieldDefinition) OrderOr(fallback int) int {
	if f.Order == nil {
		return fallback
	}
	return *f.Order
}

// Clone returns a deep copy of the definition.
func (f FieldDefinition) Clone() FieldDefinition {
	out := f
	if f.Order != nil {
		order := *f.Order
		out.Order = &order
	}
	if f.MergedFields != nil {
		out.MergedFields = append([]string(nil), f.MergedFields...)
	}
	if f.RadioOptions != nil {
		out.RadioOptions = append([]RadioOption(nil), f.RadioOptions...)
	}
	out.Validation = f.Validation.Clone()
	return out
}

// Definitions maps unbraced placeholder keys onto their definitions.
type Definitions map[string]FieldDefinition

// Clone returns a deep copy of the map.
func (d Definitions) Clone() Definitions {
	if d == nil {
		return nil
	}
	out := make(Definitions, len(d))
	for key, def := range d {
		out[key] = def.Clone()
	}
	return out
}

// Keys returns the map keys in ascending order.
func (d Definitions) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IntPtr is a small helper for populating optional orders.
func IntPtr(v int) *int {
	return &v
}

// Section is a named, colored, ordered bucket of field keys.
type Section struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Fields     []string `json:"fields"`
	ColorIndex int      `json:"colorIndex"`
}

// Clone returns a copy with its own field slice.
func (s Section) Clone() Section {
	out := s
	out.Fields = append([]string{}, s.Fields...)
	return out
}

// CloneSections deep copies a section list.
func CloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for i, section := range sections {
		out[i] = section.Clone()
	}
	return out
}

// ConfigurableDataType is a backend catalog entry describing defaults for a
// semantic field type. Options and Validation hold raw JSON strings.
type ConfigurableDataType struct {
	ID           string     `json:"id,omitempty"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	InputType    string     `json:"input_type,omitempty"`
	DefaultValue string     `json:"default_value,omitempty"`
	Options      JSONString `json:"options,omitempty"`
	Validation   JSONString `json:"validation,omitempty"`
	IsActive     bool       `json:"is_active"`
	Priority     int        `json:"priority,omitempty"`
}

// Template is a document template record as returned by the backend.
type Template struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	DisplayName      string     `json:"display_name,omitempty"`
	Description      string     `json:"description,omitempty"`
	Placeholders     JSONString `json:"placeholders,omitempty"`
	Aliases          JSONString `json:"aliases,omitempty"`
	FieldDefinitions JSONString `json:"field_definitions,omitempty"`
	GCSPathHTML      string     `json:"gcs_path_html,omitempty"`
	Tier             string     `json:"tier,omitempty"`
	Category         string     `json:"category,omitempty"`
	DocumentTypeID   string     `json:"document_type_id,omitempty"`
}

// Title returns the display name, falling back to the raw name and id.
func (t Template) Title() string {
	if name := strings.TrimSpace(t.DisplayName); name != "" {
		return name
	}
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return t.ID
}

// JSONString holds JSON text that the backend sends either as an encoded
// string ("[\"a\"]") or as raw JSON (["a"]).
type JSONString string

// UnmarshalJSON accepts both encodings.
func (s *JSONString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = JSONString(text)
		return nil
	}
	*s = JSONString(trimmed)
	return nil
}

// MarshalJSON always emits the string encoding.
func (s JSONString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// DocumentResult is returned by the backend after a document is generated.
type DocumentResult struct {
	DocumentID     string `json:"document_id"`
	DownloadURL    string `json:"download_url"`
	DownloadPDFURL string `json:"download_pdf_url,omitempty"`
}

// FormValues maps unbraced placeholder keys onto current user input.
type FormValues map[string]string

// Clone returns a copy of the values.
func (v FormValues) Clone() FormValues {
	if v == nil {
		return nil
	}
	out := make(FormValues, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}
