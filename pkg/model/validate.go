package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidName marks a field whose name is not a usable path.
	ErrInvalidName = errors.New("model: invalid field name")
	// ErrDuplicateName marks two fields resolving to the same path.
	ErrDuplicateName = errors.New("model: duplicate field name")
)

// Walk visits every field depth-first in declared order, passing the joined
// path. Sections without a name contribute no prefix.
func Walk(fields []FieldConfig, visit func(path string, field FieldConfig)) {
	walk("", fields, visit)
}

func walk(prefix string, fields []FieldConfig, visit func(string, FieldConfig)) {
	for _, field := range fields {
		path := JoinName(prefix, field.Name)
		visit(path, field)
		if len(field.Fields) > 0 {
			walk(path, field.Fields, visit)
		}
	}
}

// JoinName joins a parent path and a child name.
func JoinName(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	}
	return parent + "." + child
}

// Leaves returns the value-bearing fields (non sections) with their names
// replaced by the joined path.
func Leaves(fields []FieldConfig) []FieldConfig {
	var out []FieldConfig
	Walk(fields, func(path string, field FieldConfig) {
		if field.IsSection() {
			return
		}
		field.Name = path
		out = append(out, field)
	})
	return out
}

// Validate checks that every value-bearing field has a path without empty
// segments and that no two fields share a path. All violations are joined.
func Validate(fields []FieldConfig) error {
	var errs []error
	seen := make(map[string]struct{})
	Walk(fields, func(path string, field FieldConfig) {
		if field.IsSection() && strings.TrimSpace(field.Name) == "" {
			return
		}
		if !validPath(path) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidName, path))
			return
		}
		if field.IsSection() {
			return
		}
		if _, dup := seen[path]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateName, path))
			return
		}
		seen[path] = struct{}{}
	})
	return errors.Join(errs...)
}

func validPath(path string) bool {
	if path == "" {
		return false
	}
	for _, segment := range strings.Split(path, ".") {
		if strings.TrimSpace(segment) == "" {
			return false
		}
	}
	return true
}
