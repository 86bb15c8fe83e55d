// Package fieldpath resolves and writes dot-separated paths ("hub.name",
// "items.0.qty") against loosely typed value trees. The same traversal backs
// form values, errors, touched flags and validation-schema lookups so all four
// agree on what a path means.
//
// Pure-numeric segments index slices. When the current node is a map they are
// looked up as ordinary keys. Resolution never panics: a nil intermediate, an
// empty segment or an out-of-range index all report a miss.
package fieldpath

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Separator joins path segments.
const Separator = "."

// MaxIndex is the largest list index Set will grow a slice to.
const MaxIndex = 9999

var (
	// ErrEmptyPath is returned when writing to an empty path.
	ErrEmptyPath = errors.New("fieldpath: path is empty")
	// ErrEmptySegment is returned when a path contains an empty segment
	// ("a..b", ".a", "a.").
	ErrEmptySegment = errors.New("fieldpath: path contains an empty segment")
	// ErrNilRoot is returned when writing into a nil root map.
	ErrNilRoot = errors.New("fieldpath: root map is nil")
	// ErrIndexOutOfRange is returned when a list index exceeds MaxIndex.
	ErrIndexOutOfRange = errors.New("fieldpath: list index out of range")
)

// Walker lets typed trees (validation schemas, rule sets) participate in path
// resolution without being converted into maps first.
type Walker interface {
	Child(segment string) (any, bool)
}

// Split breaks a path into segments. It reports false when the path is empty
// or contains an empty segment.
func Split(path string) ([]string, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, Separator)
	for _, segment := range segments {
		if segment == "" {
			return nil, false
		}
	}
	return segments, true
}

// Join concatenates non-empty path parts with the separator.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, Separator)
}

// IsIndex reports whether segment addresses a slice element.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolve walks root following path and returns the value found there. The
// boolean is false for any miss.
func Resolve(root any, path string) (any, bool) {
	segments, ok := Split(path)
	if !ok {
		return nil, false
	}
	current := root
	for _, segment := range segments {
		if current == nil {
			return nil, false
		}
		next, found := step(current, segment)
		if !found {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Get is Resolve without the presence flag.
func Get(root any, path string) any {
	value, _ := Resolve(root, path)
	return value
}

// Exists reports whether path resolves against root.
func Exists(root any, path string) bool {
	_, ok := Resolve(root, path)
	return ok
}

func step(node any, segment string) (any, bool) {
	switch typed := node.(type) {
	case map[string]any:
		value, ok := typed[segment]
		return value, ok
	case []any:
		idx, ok := index(segment, len(typed))
		if !ok {
			return nil, false
		}
		return typed[idx], true
	case Walker:
		return typed.Child(segment)
	}
	return reflectStep(reflect.ValueOf(node), segment)
}

func reflectStep(value reflect.Value, segment string) (any, bool) {
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		entry := value.MapIndex(reflect.ValueOf(segment).Convert(value.Type().Key()))
		if !entry.IsValid() {
			return nil, false
		}
		return entry.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, ok := index(segment, value.Len())
		if !ok {
			return nil, false
		}
		return value.Index(idx).Interface(), true
	case reflect.Struct:
		return structField(value, segment)
	}
	return nil, false
}

func structField(value reflect.Value, segment string) (any, bool) {
	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if name == segment {
			return value.Field(i).Interface(), true
		}
	}
	return nil, false
}

func index(segment string, length int) (int, bool) {
	if !IsIndex(segment) {
		return 0, false
	}
	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

// Set writes value at path inside root, creating intermediate containers as
// needed: a slice when the following segment is numeric, a map otherwise.
// Existing containers are reused so siblings sharing a prefix merge.
func Set(root map[string]any, path string, value any) error {
	if root == nil {
		return ErrNilRoot
	}
	if path == "" {
		return ErrEmptyPath
	}
	segments, ok := Split(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrEmptySegment, path)
	}
	_, err := assign(root, segments, value)
	return err
}

// assign writes into container and returns the (possibly grown) container so
// callers can re-link slices that were reallocated.
func assign(container any, segments []string, value any) (any, error) {
	segment := segments[0]
	last := len(segments) == 1

	switch node := container.(type) {
	case map[string]any:
		if last {
			node[segment] = value
			return node, nil
		}
		child, err := assign(ensureChild(node[segment], segments[1]), segments[1:], value)
		if err != nil {
			return nil, err
		}
		node[segment] = child
		return node, nil

	case []any:
		if !IsIndex(segment) {
			return nil, fmt.Errorf("fieldpath: expected numeric segment for list, got %q", segment)
		}
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, fmt.Errorf("fieldpath: index %q: %w", segment, err)
		}
		if idx > MaxIndex {
			return nil, fmt.Errorf("%w: %d > %d", ErrIndexOutOfRange, idx, MaxIndex)
		}
		if len(node) <= idx {
			node = append(node, make([]any, idx+1-len(node))...)
		}
		if last {
			node[idx] = value
			return node, nil
		}
		child, err := assign(ensureChild(node[idx], segments[1]), segments[1:], value)
		if err != nil {
			return nil, err
		}
		node[idx] = child
		return node, nil
	}

	return nil, fmt.Errorf("fieldpath: cannot descend into %T at segment %q", container, segment)
}

func ensureChild(existing any, nextSegment string) any {
	switch typed := existing.(type) {
	case []any:
		if IsIndex(nextSegment) {
			return typed
		}
	case map[string]any:
		// numeric keys on an existing map stay keys
		if typed != nil {
			return typed
		}
	}
	if IsIndex(nextSegment) {
		return []any{}
	}
	return make(map[string]any)
}

// Delete removes the leaf at path. Missing paths are ignored.
func Delete(root map[string]any, path string) {
	segments, ok := Split(path)
	if !ok || root == nil {
		return
	}
	parentPath := strings.Join(segments[:len(segments)-1], Separator)
	leaf := segments[len(segments)-1]

	var parent any = root
	if parentPath != "" {
		resolved, found := Resolve(root, parentPath)
		if !found {
			return
		}
		parent = resolved
	}
	switch node := parent.(type) {
	case map[string]any:
		delete(node, leaf)
	case []any:
		if idx, ok := index(leaf, len(node)); ok {
			node[idx] = nil
		}
	}
}

// Clone deep-copies map/slice trees so defaults and prefills never alias the
// caller's data.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[key] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = Clone(child)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

// CloneMap is Clone specialised for the root map. A nil input yields an empty
// map.
func CloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	return Clone(src).(map[string]any)
}

// Flatten lists every leaf path of a tree in "a.b.0" notation. Empty maps and
// lists are reported as leaves so they survive a Flatten/Set round trip.
func Flatten(root any) map[string]any {
	out := make(map[string]any)
	flatten("", root, out)
	return out
}

func flatten(prefix string, value any, out map[string]any) {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 && prefix != "" {
			out[prefix] = typed
			return
		}
		for key, child := range typed {
			flatten(Join(prefix, key), child, out)
		}
	case []any:
		if len(typed) == 0 && prefix != "" {
			out[prefix] = typed
			return
		}
		for i, child := range typed {
			flatten(Join(prefix, strconv.Itoa(i)), child, out)
		}
	default:
		if prefix != "" {
			out[prefix] = typed
		}
	}
}
