package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	// ErrSchemaNotFound is returned when a named component schema is absent.
	ErrSchemaNotFound = errors.New("validation: schema not found")
	// ErrEmptyDocument is returned when an OpenAPI payload is empty.
	ErrEmptyDocument = errors.New("validation: openapi document is empty")
)

// LoadOpenAPISchema parses an OpenAPI document and converts the named
// component schema into a Node tree.
func LoadOpenAPISchema(ctx context.Context, data []byte, name string) (*Node, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("validation: load openapi document: %w", err)
	}
	if doc.Components == nil || doc.Components.Schemas == nil {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	return FromOpenAPI(ref.Value), nil
}

// FromOpenAPI converts a kin-openapi schema into a Node tree. A property is
// required when its parent lists it in "required"; constraints such as
// minimum, maxLength or pattern become rules of the same name.
func FromOpenAPI(schema *openapi3.Schema) *Node {
	return convertOpenAPI(schema, 0)
}

const maxOpenAPIDepth = 32

func convertOpenAPI(src *openapi3.Schema, depth int) *Node {
	if src == nil || depth > maxOpenAPIDepth {
		return Mixed()
	}

	node := &Node{Type: openAPINodeType(src.Type, src.Format)}
	addOpenAPIRules(node, src)

	required := make(map[string]struct{}, len(src.Required))
	for _, name := range src.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref := src.Properties[name]
		if ref == nil {
			continue
		}
		node.Field(name, convertOpenAPI(ref.Value, depth+1))
	}

	for _, part := range src.AllOf {
		if part == nil || part.Value == nil {
			continue
		}
		merged := convertOpenAPI(part.Value, depth+1)
		for _, name := range merged.order {
			node.Field(name, merged.fields[name])
		}
	}

	for name := range required {
		if child, ok := node.fields[name]; ok {
			child.Required()
		}
	}

	if src.Items != nil {
		node.items = convertOpenAPI(src.Items.Value, depth+1)
	}
	return node
}

func addOpenAPIRules(node *Node, src *openapi3.Schema) {
	if src.Min != nil {
		node.Rule("min", *src.Min)
	}
	if src.Max != nil {
		node.Rule("max", *src.Max)
	}
	if src.MinLength > 0 {
		node.Rule("minLength", int(src.MinLength))
	}
	if src.MaxLength != nil {
		node.Rule("maxLength", int(*src.MaxLength))
	}
	if src.Pattern != "" {
		node.Matches(src.Pattern)
	}
	if len(src.Enum) > 0 {
		node.OneOf(src.Enum...)
	}
	if src.Nullable {
		node.Rule("nullable")
	}
}

func openAPINodeType(types *openapi3.Types, format string) string {
	if types == nil {
		return TypeMixed
	}
	values := types.Slice()
	if len(values) == 0 {
		return TypeMixed
	}
	switch strings.ToLower(values[0]) {
	case "object":
		return TypeObject
	case "array":
		return TypeArray
	case "integer", "number":
		return TypeNumber
	case "boolean":
		return TypeBoolean
	case "string":
		if format == "date" || format == "date-time" {
			return TypeDate
		}
		return TypeString
	}
	return TypeMixed
}
