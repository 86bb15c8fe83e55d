// Package values materializes form value trees from field configurations:
// the initial values used by a blank form and the patched values used when an
// existing record is loaded for editing.
package values

import (
	"encoding/json"
	"reflect"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
	"github.com/goliatone/go-opsforms/pkg/model"
)

// InitialValues assigns each field's default at its path inside a fresh tree.
// Fields sharing a prefix merge into the same container. Defaults are deep
// copied so edits to the returned tree never reach the field list.
func InitialValues(fields []model.FieldConfig) map[string]any {
	out := make(map[string]any)
	for _, field := range model.Leaves(fields) {
		assign(out, field.Name, fieldpath.Clone(field.Default))
	}
	return out
}

// Patch returns a function overlaying a persisted record onto the defaults.
// A field whose path resolves against the record takes the record's value,
// including an explicit nil; otherwise the default is kept. Patching is
// idempotent: Patch(f)(Patch(f)(r)) equals Patch(f)(r).
func Patch(fields []model.FieldConfig) func(record any) map[string]any {
	leaves := model.Leaves(fields)
	return func(record any) map[string]any {
		source := normalize(record)
		out := make(map[string]any)
		for _, field := range leaves {
			value, ok := fieldpath.Resolve(source, field.Name)
			if !ok {
				value = field.Default
			}
			assign(out, field.Name, fieldpath.Clone(value))
		}
		return out
	}
}

// assign ignores invalid paths; model.Validate is where they get reported.
func assign(root map[string]any, path string, value any) {
	_ = fieldpath.Set(root, path, value)
}

// normalize turns typed records (structs, typed maps, pointers) into the
// generic tree shape so JSON field names line up with field paths. Generic
// trees pass through untouched.
func normalize(record any) any {
	switch record.(type) {
	case nil:
		return nil
	case map[string]any, []any:
		return record
	}
	kind := reflect.Indirect(reflect.ValueOf(record)).Kind()
	if kind != reflect.Struct && kind != reflect.Map && kind != reflect.Slice {
		return record
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return record
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return record
	}
	return tree
}
