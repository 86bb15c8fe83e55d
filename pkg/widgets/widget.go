package widgets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/selectsearch"
	"github.com/goliatone/go-opsforms/pkg/state"
)

// ErrRejected is returned by Change when a kind refuses the input (a number
// keystroke with a second decimal point, too many decimals or out of range).
// Nothing is committed; callers usually ignore it and keep the old display.
var ErrRejected = errors.New("widgets: input rejected")

// ErrNoAccessor is returned by Change when the widget is not bound to state.
var ErrNoAccessor = errors.New("widgets: no state accessor bound")

// Context is the shared per-build input handed to every strategy.
type Context struct {
	// Path is the joined field path the widget reads and writes.
	Path string
	// Accessor receives every committed change.
	Accessor state.Accessor
	// Values, Errors and Touched are the snapshots read for this build.
	Values  map[string]any
	Errors  map[string]any
	Touched map[string]any
	// Required and Visible are resolved by the form factory.
	Required bool
	Visible  bool
	// Locals keeps widget-local state across rebuilds. Nil disables it.
	Locals *Locals
	// Ctx bounds asynchronous work started by widgets (option fetches).
	Ctx context.Context
	// AwaitOptions makes select-search widgets wait for their page-1 fetch
	// before the widget is returned (server-side rendering).
	AwaitOptions bool
	Logger       logrus.FieldLogger
}

// Widget is a fully wired input ready for a renderer.
type Widget struct {
	Kind        model.Kind
	Name        string
	ID          string
	Label       string
	HelpText    string
	Placeholder string
	Value       any
	// Display is the render-only string form of Value.
	Display  string
	Error    string
	Touched  bool
	Required bool
	Visible  bool
	Disabled bool
	Options  []model.Option
	Attrs    map[string]string

	Number *NumberInput
	Search *selectsearch.Field
	File   *FileInput

	accessor state.Accessor
	commit   func(value any) (any, error)
}

// Change coerces value for the widget's kind and writes it through the
// accessor as a change event.
func (w Widget) Change(value any) error {
	if w.accessor == nil {
		return ErrNoAccessor
	}
	committed := value
	if w.commit != nil {
		var err error
		committed, err = w.commit(value)
		if err != nil {
			return err
		}
	}
	if err := w.accessor.HandleChange(state.Event{Name: w.Name, Value: committed}); err != nil {
		return fmt.Errorf("widgets: change %s: %w", w.Name, err)
	}
	if w.Search != nil {
		w.Search.SetValue(committed)
	}
	return nil
}

// Blur marks the field as touched.
func (w Widget) Blur() {
	if w.accessor != nil {
		w.accessor.HandleBlur(state.Event{Name: w.Name})
	}
}

// HasError reports whether an inline error should be shown.
func (w Widget) HasError() bool {
	return strings.TrimSpace(w.Error) != ""
}

// OptionLabel returns the label of the option matching value.
func (w Widget) OptionLabel(value any) string {
	if option, ok := matchOption(w.Options, value); ok {
		return option.Label
	}
	return ""
}

// Selected reports whether option is the current value.
func (w Widget) Selected(option model.Option) bool {
	return sameValue(option.Value, w.Value)
}

// IDFor derives a DOM-safe id from a field path.
func IDFor(path string) string {
	replacer := strings.NewReplacer(".", "-", "[", "-", "]", "", " ", "-")
	return "field-" + replacer.Replace(path)
}

func matchOption(options []model.Option, value any) (model.Option, bool) {
	for _, option := range options {
		if sameValue(option.Value, value) {
			return option, true
		}
	}
	return model.Option{}, false
}

// sameValue compares option values loosely so "7" from an HTML form matches
// the numeric option 7.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
