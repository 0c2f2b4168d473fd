// Package bundlefile reads template bundles from YAML or JSON files so a
// template can be filled and previewed without a backend.
package bundlefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/session"
)

// File is the on-disk bundle layout. Keys follow the backend's JSON names.
//
//	template:
//	  id: birth
//	  display_name: สูติบัตร
//	  placeholders: ["{{name}}"]
//	  aliases: {"{{name}}": "ชื่อบุตร"}
//	html: <p>{{name}}</p>
//	field_definitions:
//	  name: {placeholder: "{{name}}", entity: child}
//	data_types: []
//	values: {name: สมชาย}
type File struct {
	Template         model.Template               `json:"template"`
	HTML             string                       `json:"html"`
	FieldDefinitions model.Definitions            `json:"field_definitions"`
	DataTypes        []model.ConfigurableDataType `json:"data_types"`
	Values           map[string]string            `json:"values"`
}

// Read loads and decodes path.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundlefile: read %s: %w", path, err)
	}
	file, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("bundlefile: %s: %w", path, err)
	}
	return file, nil
}

// Decode parses YAML (a superset of JSON). The document is normalized to
// JSON first so the model's JSON tags and decoders apply unchanged.
func Decode(raw []byte) (*File, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty bundle")
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	normalized, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	var file File
	if err := json.Unmarshal(encoded, &file); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if strings.TrimSpace(file.Template.ID) == "" {
		return nil, errors.New("template.id is required")
	}
	return &file, nil
}

// Bundle assembles a session bundle from the file.
func (f *File) Bundle(options ...session.Option) *session.Bundle {
	return session.NewBundle(f.Template, f.FieldDefinitions, f.DataTypes, f.HTML, options...)
}

// normalize converts yaml.v3 maps with non string keys so the tree can be
// JSON encoded.
func normalize(v any) (any, error) {
	switch node := v.(type) {
	case map[string]any:
		for key, value := range node {
			converted, err := normalize(value)
			if err != nil {
				return nil, err
			}
			node[key] = converted
		}
		return node, nil
	case map[any]any:
		out := make(map[string]any, len(node))
		for key, value := range node {
			converted, err := normalize(value)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(key)] = converted
		}
		return out, nil
	case []any:
		for i, value := range node {
			converted, err := normalize(value)
			if err != nil {
				return nil, err
			}
			node[i] = converted
		}
		return node, nil
	default:
		return v, nil
	}
}
