package validation

import (
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// FromStruct derives a Node tree from `validate:"..."` struct tags. Field names
// follow the json tag so paths line up with form values. Tags after "dive"
// apply to slice elements. v may be a struct value, a pointer to one, or a
// reflect.Type.
func FromStruct(v any) *Node {
	var typ reflect.Type
	switch typed := v.(type) {
	case nil:
		return Object()
	case reflect.Type:
		typ = typed
	default:
		typ = reflect.TypeOf(v)
	}
	return nodeFromType(typ, "", make(map[reflect.Type]bool))
}

func nodeFromType(typ reflect.Type, tag string, visiting map[reflect.Type]bool) *Node {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	own, elem := splitDive(tag)
	var node *Node

	switch {
	case typ == timeType:
		node = Date()
	case typ.Kind() == reflect.Struct:
		node = Object()
		if visiting[typ] {
			break
		}
		visiting[typ] = true
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name, skip := jsonName(field)
			if skip {
				continue
			}
			node.Field(name, nodeFromType(field.Type, field.Tag.Get("validate"), visiting))
		}
		delete(visiting, typ)
	case typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array:
		node = Array(nodeFromType(typ.Elem(), elem, visiting))
	case typ.Kind() == reflect.Map:
		node = Mixed()
	case typ.Kind() == reflect.Bool:
		node = Boolean()
	case typ.Kind() == reflect.String:
		node = String()
	case isNumberKind(typ.Kind()):
		node = Number()
	default:
		node = Mixed()
	}

	node.rules = append(node.rules, parseTag(own)...)
	return node
}

func splitDive(tag string) (string, string) {
	parts := strings.Split(tag, ",")
	for i, part := range parts {
		if strings.TrimSpace(part) == "dive" {
			return strings.Join(parts[:i], ","), strings.Join(parts[i+1:], ",")
		}
	}
	return tag, ""
}

func parseTag(tag string) []Rule {
	if strings.TrimSpace(tag) == "" || tag == "-" {
		return nil
	}
	var rules []Rule
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "omitempty" {
			continue
		}
		name, param, hasParam := strings.Cut(part, "=")
		rule := Rule{Name: name}
		if hasParam {
			rule.Args = []any{param}
		}
		rules = append(rules, rule)
	}
	return rules
}

func jsonName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false
	}
	name := strings.Split(tag, ",")[0]
	switch name {
	case "-":
		return "", true
	case "":
		return field.Name, false
	}
	return name, false
}

func isNumberKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
