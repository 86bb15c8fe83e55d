// Package form composes field configurations, a validation schema and form
// state into a grid of wired widgets. A Factory holds no per-form state:
// values live in the state accessor and widget-local state in Props.Locals,
// so rebuilding after the field list changes keeps what the user typed.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/state"
	"github.com/goliatone/go-opsforms/pkg/validation"
	"github.com/goliatone/go-opsforms/pkg/values"
	"github.com/goliatone/go-opsforms/pkg/visibility"
	"github.com/goliatone/go-opsforms/pkg/widgets"
)

// ErrNilAccessor is returned by Build without form state.
var ErrNilAccessor = errors.New("form: state accessor is nil")

// Props are the per-render extras a page passes alongside the field list.
type Props struct {
	// Locals keeps widget-local state across builds. Stale entries are pruned
	// after every build.
	Locals *widgets.Locals
	// Ctx bounds option fetches started by select-search widgets.
	Ctx context.Context
	// Extras are exposed to visibility rules under "extras.".
	Extras map[string]any
	// Disabled disables every field (read-only views).
	Disabled bool
	// AwaitOptions waits for select-search prefetches before returning.
	AwaitOptions bool
}

// Option customises a Factory.
type Option func(*Factory)

// WithRegistry injects the widget registry.
func WithRegistry(registry *widgets.Registry) Option {
	return func(f *Factory) {
		if registry != nil {
			f.registry = registry
		}
	}
}

// WithIntrospector injects the required-rule introspector.
func WithIntrospector(introspector *validation.Introspector) Option {
	return func(f *Factory) {
		if introspector != nil {
			f.introspector = introspector
		}
	}
}

// WithEvaluator replaces the VisibleWhen evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(f *Factory) {
		if evaluator != nil {
			f.evaluator = evaluator
		}
	}
}

// WithColumns overrides the grid width.
func WithColumns(columns int) Option {
	return func(f *Factory) {
		if columns > 0 {
			f.columns = columns
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Factory builds grids. It is safe for concurrent use.
type Factory struct {
	registry     *widgets.Registry
	introspector *validation.Introspector
	evaluator    visibility.Evaluator
	columns      int
	logger       logrus.FieldLogger
}

// New constructs a Factory. Missing collaborators get the built-in ones.
func New(opts ...Option) *Factory {
	f := &Factory{columns: model.GridColumns}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		f.logger = logger
	}
	if f.registry == nil {
		f.registry = widgets.NewRegistry(widgets.WithLogger(f.logger))
	}
	if f.introspector == nil {
		f.introspector = validation.NewIntrospector()
	}
	if f.evaluator == nil {
		f.evaluator = visibility.NewExpression()
	}
	return f
}

// InitialValues delegates to values.InitialValues.
func (f *Factory) InitialValues(fields []model.FieldConfig) map[string]any {
	return values.InitialValues(fields)
}

// Patch delegates to values.Patch.
func (f *Factory) Patch(fields []model.FieldConfig) func(record any) map[string]any {
	return values.Patch(fields)
}

// Build walks fields in declared order and returns the wired grid.
func (f *Factory) Build(fields []model.FieldConfig, accessor state.Accessor, schema validation.Schema, props Props) (Grid, error) {
	if accessor == nil {
		return Grid{}, ErrNilAccessor
	}
	if err := model.Validate(fields); err != nil {
		return Grid{}, fmt.Errorf("form: invalid field list: %w", err)
	}

	ctx := props.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	run := &build{
		factory:  f,
		accessor: accessor,
		schema:   schema,
		props:    props,
		ctx:      ctx,
		values:   accessor.Values(),
		errors:   accessor.Errors(),
		touched:  accessor.Touched(),
		active:   make(map[string]model.Kind),
	}

	slots, err := run.slots("", fields, false)
	if err != nil {
		return Grid{}, err
	}

	pruned := props.Locals.Prune(run.active)
	f.logger.WithFields(logrus.Fields{
		"fields": len(run.active),
		"pruned": pruned,
	}).Debug("form built")

	return Grid{Columns: f.columns, Slots: slots, Accessor: accessor}, nil
}

type build struct {
	factory  *Factory
	accessor state.Accessor
	schema   validation.Schema
	props    Props
	ctx      context.Context

	values  map[string]any
	errors  map[string]any
	touched map[string]any
	active  map[string]model.Kind
}

func (b *build) slots(prefix string, fields []model.FieldConfig, parentHidden bool) ([]Slot, error) {
	out := make([]Slot, 0, len(fields))
	for _, field := range fields {
		path := model.JoinName(prefix, field.Name)

		visible, err := b.visible(path, field)
		if err != nil {
			return nil, err
		}
		hidden := parentHidden || !visible

		slot := Slot{
			Path:   path,
			Layout: field.Layout.Normalized(),
			Hidden: hidden,
		}

		if field.IsSection() {
			slot.Section = true
			slot.Title = field.Label
			if slot.Title == "" && field.Name != "" {
				slot.Title = model.LabelFor(field)
			}
			children, err := b.slots(path, field.Fields, hidden)
			if err != nil {
				return nil, err
			}
			slot.Children = children
			out = append(out, slot)
			continue
		}

		if b.props.Disabled {
			field.Disabled = true
		}
		slot.Widget = b.factory.registry.Dispatch(field, widgets.Context{
			Path:         path,
			Accessor:     b.accessor,
			Values:       b.values,
			Errors:       b.errors,
			Touched:      b.touched,
			Required:     b.required(path, field),
			Visible:      !hidden,
			Locals:       b.props.Locals,
			Ctx:          b.ctx,
			AwaitOptions: b.props.AwaitOptions,
			Logger:       b.factory.logger,
		})
		b.active[path] = slot.Widget.Kind
		out = append(out, slot)
	}
	return out, nil
}

// required prefers the explicit override over the schema.
func (b *build) required(path string, field model.FieldConfig) bool {
	if field.Required != nil {
		return *field.Required
	}
	return b.factory.introspector.IsRequired(b.schema, path)
}

// visible prefers the explicit override over the VisibleWhen rule.
func (b *build) visible(path string, field model.FieldConfig) (bool, error) {
	if field.Visible != nil {
		return *field.Visible, nil
	}
	if field.VisibleWhen == "" {
		return true, nil
	}
	ok, err := b.factory.evaluator.Eval(path, field.VisibleWhen, visibility.Context{
		Values: b.values,
		Extras: b.props.Extras,
	})
	if err != nil {
		return false, fmt.Errorf("form: visibility of %s: %w", path, err)
	}
	return ok, nil
}
