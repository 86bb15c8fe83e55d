package vanilla

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-opsforms/pkg/form"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-opsforms/pkg/selectsearch"
	"github.com/goliatone/go-opsforms/pkg/widgets"
)

// item is one entry of the flattened grid: a section opening, a section
// closing, or a field with its rendered control.
type item struct {
	Open        bool
	Close       bool
	Title       string
	Hidden      bool
	Classes     string
	Field       components.Field
	HTML        string
	InlineLabel bool
}

type flattener struct {
	registry *components.Registry
	data     components.ComponentData
	policy   *bluemonday.Policy

	items     []item
	kinds     []string
	multipart bool
}

func (f *flattener) walk(slots []form.Slot) error {
	for _, slot := range slots {
		if slot.Section {
			f.items = append(f.items, item{
				Open:    true,
				Title:   sanitize(f.policy, slot.Title),
				Hidden:  slot.Hidden,
				Classes: slotClasses(slot),
			})
			if err := f.walk(slot.Children); err != nil {
				return err
			}
			f.items = append(f.items, item{Close: true})
			continue
		}
		if err := f.field(slot); err != nil {
			return err
		}
	}
	return nil
}

func (f *flattener) field(slot form.Slot) error {
	widget := slot.Widget
	kind := string(widget.Kind)
	descriptor, ok := f.registry.Descriptor(kind)
	if !ok {
		descriptor, ok = f.registry.Descriptor(string(model.KindText))
		if !ok {
			return fmt.Errorf("vanilla renderer: no component for kind %q", kind)
		}
	}

	view := fieldView(widget, f.policy)
	var buf bytes.Buffer
	if err := descriptor.Renderer(&buf, view, f.data); err != nil {
		return fmt.Errorf("vanilla renderer: field %s: %w", widget.Name, err)
	}

	classes := slotClasses(slot)
	if view.Invalid {
		classes = strings.TrimSpace(classes + " " + string(ClassInvalid))
	}
	f.items = append(f.items, item{
		Hidden:      slot.Hidden,
		Classes:     classes,
		Field:       view,
		HTML:        buf.String(),
		InlineLabel: descriptor.InlineLabel,
	})
	f.kinds = append(f.kinds, descriptor.Name)
	if widget.Kind == model.KindFile {
		f.multipart = true
	}
	return nil
}

func fieldView(widget widgets.Widget, policy *bluemonday.Policy) components.Field {
	view := components.Field{
		Kind:        string(widget.Kind),
		Name:        widget.Name,
		ID:          widget.ID,
		Label:       sanitize(policy, widget.Label),
		Help:        sanitize(policy, widget.HelpText),
		Placeholder: widget.Placeholder,
		Value:       widget.Display,
		Required:    widget.Required,
		Disabled:    widget.Disabled,
		Invalid:     widget.HasError(),
		Error:       widget.Error,
		Attrs:       sortedAttrs(widget.Attrs),
	}

	switch widget.Kind {
	case model.KindSelect, model.KindSelectSearch:
		view.Value = valueText(widget.Value)
		view.Options = make([]components.Option, 0, len(widget.Options))
		for _, option := range widget.Options {
			view.Options = append(view.Options, components.Option{
				Value:    valueText(option.Value),
				Label:    option.Label,
				Selected: widget.Selected(option),
			})
		}
	case model.KindFile:
		view.Value = ""
		if widget.File != nil {
			view.Preview = widget.File.Preview()
			for _, file := range widget.File.Files() {
				view.Files = append(view.Files, file.Name)
			}
		}
	}

	if widget.Search != nil {
		snap := widget.Search.Snapshot()
		pageSize, _ := strconv.Atoi(widget.Attrs["data-page-size"])
		view.Search = &components.Search{
			Query:    snap.Search,
			Status:   snap.Status.String(),
			PageSize: pageSize,
			HasMore:  snap.HasMore,
			Total:    snap.Total,
			Failed:   snap.Status == selectsearch.StatusFailed,
		}
	}
	return view
}

func sortedAttrs(attrs map[string]string) []components.Attr {
	out := make([]components.Attr, 0, len(attrs))
	for name, value := range attrs {
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, ` "'<>=/`) {
			continue
		}
		out = append(out, components.Attr{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func valueText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

// slotClasses returns the span classes for a slot: the base span plus one
// class per breakpoint override, and the hidden marker.
func slotClasses(slot form.Slot) string {
	layout := slot.Layout.Normalized()
	classes := []string{fmt.Sprintf("opsforms-span-%d", layout.Span)}
	for _, name := range layout.SortedBreakpoints() {
		if name == model.BreakpointXS {
			classes[0] = fmt.Sprintf("opsforms-span-%d", layout.Breakpoints[name])
			continue
		}
		classes = append(classes, fmt.Sprintf("opsforms-%s-span-%d", name, layout.Breakpoints[name]))
	}
	if slot.Hidden {
		classes = append(classes, string(ClassHidden))
	}
	return strings.Join(classes, " ")
}
