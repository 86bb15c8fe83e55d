package fieldset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-opsforms/pkg/model"
)

// Document is one entity form: its fields plus the option sources they name.
type Document struct {
	Name        string                `yaml:"name" json:"name"`
	Title       string                `yaml:"title,omitempty" json:"title,omitempty"`
	SubmitLabel string                `yaml:"submitLabel,omitempty" json:"submitLabel,omitempty"`
	Fields      []model.FieldConfig   `yaml:"fields" json:"fields"`
	Sources     map[string]SourceSpec `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// SourceSpec describes where a named option source gets its options: an
// inline list, or a reference-data endpoint answering the q/page/pageSize
// wire format.
type SourceSpec struct {
	Options  []model.Option `yaml:"options,omitempty" json:"options,omitempty"`
	Endpoint string         `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	// DataPath, ValuePath and LabelPath are gjson paths for endpoints that
	// do not answer {"data":[{"value","label"}]}.
	DataPath  string `yaml:"dataPath,omitempty" json:"dataPath,omitempty"`
	ValuePath string `yaml:"valuePath,omitempty" json:"valuePath,omitempty"`
	LabelPath string `yaml:"labelPath,omitempty" json:"labelPath,omitempty"`
}

// ErrEmptyDocument is returned when a document declares no fields.
var ErrEmptyDocument = errors.New("fieldset: document has no fields")

// Parse decodes a YAML or JSON document. Unknown keys are rejected and the
// field list must pass model.Validate.
func Parse(data []byte) (*Document, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("fieldset: decode: %w", err)
	}
	if len(doc.Fields) == 0 {
		return nil, ErrEmptyDocument
	}

	doc.Name = strings.TrimSpace(doc.Name)
	doc.Fields = normalizeFields(doc.Fields)
	for name, spec := range doc.Sources {
		spec.Options = normalizeOptions(spec.Options)
		doc.Sources[name] = spec
	}

	if err := model.Validate(doc.Fields); err != nil {
		return nil, fmt.Errorf("fieldset: %s: %w", doc.Name, err)
	}
	return &doc, nil
}

// normalizeFields rewrites YAML scalars into the JSON-shaped values the rest
// of the engine sees: integers become float64.
func normalizeFields(fields []model.FieldConfig) []model.FieldConfig {
	out := make([]model.FieldConfig, len(fields))
	for i, field := range fields {
		field.Kind = field.Kind.Normalize()
		field.Default = normalizeValue(field.Default)
		field.Options = normalizeOptions(field.Options)
		if len(field.Filters) > 0 {
			filters := make(map[string]any, len(field.Filters))
			for key, value := range field.Filters {
				filters[key] = normalizeValue(value)
			}
			field.Filters = filters
		}
		if len(field.Fields) > 0 {
			field.Fields = normalizeFields(field.Fields)
		}
		out[i] = field
	}
	return out
}

func normalizeOptions(options []model.Option) []model.Option {
	if len(options) == 0 {
		return options
	}
	out := make([]model.Option, len(options))
	for i, option := range options {
		out[i] = model.Option{Value: normalizeValue(option.Value), Label: option.Label}
	}
	return out
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint64:
		return float64(typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[key] = normalizeValue(child)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = normalizeValue(child)
		}
		return out
	}
	return value
}
