// Package state holds the form-state contract the engine reads and writes
// through, plus an in-process implementation. Widgets never touch another
// field's sub-tree directly: every write goes through an Accessor.
package state

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
)

// ErrEmptyEventName is returned when an event does not name a field.
var ErrEmptyEventName = errors.New("state: event name is empty")

// Event is a change or blur notification for one field path.
type Event struct {
	Name  string
	Value any
}

// Accessor is the six-member surface the engine needs from a form-state
// container. Values, Errors and Touched return trees addressable with
// fieldpath; callers must treat them as read-only snapshots.
type Accessor interface {
	Values() map[string]any
	Errors() map[string]any
	Touched() map[string]any
	SetFieldValue(path string, value any) error
	HandleChange(event Event) error
	HandleBlur(event Event)
}

// ChangeListener observes committed writes.
type ChangeListener func(path string, value any)

// Option configures a Form.
type Option func(*Form)

// WithInitialValues seeds the values tree. The tree is deep copied.
func WithInitialValues(values map[string]any) Option {
	return func(f *Form) {
		f.values = fieldpath.CloneMap(values)
	}
}

// WithListener registers a listener called after every committed write.
func WithListener(listener ChangeListener) Option {
	return func(f *Form) {
		if listener != nil {
			f.listeners = append(f.listeners, listener)
		}
	}
}

// WithClearErrorOnChange drops a field's error when its value changes.
func WithClearErrorOnChange(enabled bool) Option {
	return func(f *Form) {
		f.clearOnChange = enabled
	}
}

// Form is a mutex-guarded Accessor implementation.
type Form struct {
	mu            sync.RWMutex
	values        map[string]any
	errors        map[string]any
	touched       map[string]any
	formErrors    []string
	listeners     []ChangeListener
	clearOnChange bool
}

var _ Accessor = (*Form)(nil)

// New builds an empty form state.
func New(opts ...Option) *Form {
	f := &Form{
		values:  make(map[string]any),
		errors:  make(map[string]any),
		touched: make(map[string]any),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Values returns a deep copy of the values tree.
func (f *Form) Values() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return fieldpath.CloneMap(f.values)
}

// Errors returns a deep copy of the errors tree.
func (f *Form) Errors() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return fieldpath.CloneMap(f.errors)
}

// Touched returns a deep copy of the touched tree.
func (f *Form) Touched() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return fieldpath.CloneMap(f.touched)
}

// FormErrors returns messages that could not be tied to a field.
func (f *Form) FormErrors() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.formErrors...)
}

// SetFieldValue writes value at path.
func (f *Form) SetFieldValue(path string, value any) error {
	f.mu.Lock()
	if err := fieldpath.Set(f.values, path, value); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("state: set %q: %w", path, err)
	}
	if f.clearOnChange {
		fieldpath.Delete(f.errors, path)
	}
	listeners := append([]ChangeListener(nil), f.listeners...)
	f.mu.Unlock()

	for _, listener := range listeners {
		listener(path, value)
	}
	return nil
}

// HandleChange writes the event value at the event name.
func (f *Form) HandleChange(event Event) error {
	name := strings.TrimSpace(event.Name)
	if name == "" {
		return ErrEmptyEventName
	}
	return f.SetFieldValue(name, event.Value)
}

// HandleBlur marks the event's field as touched. Invalid names are ignored.
func (f *Form) HandleBlur(event Event) {
	f.SetTouched(event.Name, true)
}

// SetTouched sets the touched flag at path.
func (f *Form) SetTouched(path string, touched bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = fieldpath.Set(f.touched, strings.TrimSpace(path), touched)
}

// SetError sets one field error. An empty message clears it.
func (f *Form) SetError(path, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(message) == "" {
		fieldpath.Delete(f.errors, path)
		return nil
	}
	if err := fieldpath.Set(f.errors, path, message); err != nil {
		return fmt.Errorf("state: set error %q: %w", path, err)
	}
	return nil
}

// SetErrors replaces the errors tree.
func (f *Form) SetErrors(errs map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = fieldpath.CloneMap(errs)
}

// ApplyErrors replaces the errors with a mapped server payload. Each field
// shows its first message; unmapped messages become form errors.
func (f *Form) ApplyErrors(mapping ErrorMapping) {
	tree := make(map[string]any, len(mapping.Fields))
	for path, messages := range mapping.Fields {
		if len(messages) == 0 {
			continue
		}
		_ = fieldpath.Set(tree, path, messages[0])
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = tree
	f.formErrors = append([]string(nil), mapping.Form...)
}

// Reset replaces the values tree and clears errors and touched flags.
func (f *Form) Reset(values map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = fieldpath.CloneMap(values)
	f.errors = make(map[string]any)
	f.touched = make(map[string]any)
	f.formErrors = nil
}

// ErrorAt returns the error message at path, if any.
func ErrorAt(accessor Accessor, path string) string {
	if accessor == nil {
		return ""
	}
	return ErrorText(fieldpath.Get(accessor.Errors(), path))
}

// ErrorText reads a message from an errors-tree leaf: a string, the first of
// a message list, or an error.
func ErrorText(leaf any) string {
	switch typed := leaf.(type) {
	case string:
		return typed
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
	case []any:
		if len(typed) > 0 {
			if msg, ok := typed[0].(string); ok {
				return msg
			}
		}
	case error:
		return typed.Error()
	}
	return ""
}

// TouchedAt reports whether path has been blurred.
func TouchedAt(accessor Accessor, path string) bool {
	if accessor == nil {
		return false
	}
	touched, _ := fieldpath.Get(accessor.Touched(), path).(bool)
	return touched
}
