package widgets

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/selectsearch"
	"github.com/goliatone/go-opsforms/pkg/state"
)

func build(reg *Registry, field model.FieldConfig, form *state.Form, locals *Locals) Widget {
	return reg.Dispatch(field, Context{
		Path:         field.Name,
		Accessor:     form,
		Values:       form.Values(),
		Errors:       form.Errors(),
		Touched:      form.Touched(),
		Visible:      true,
		Locals:       locals,
		Ctx:          context.Background(),
		AwaitOptions: true,
	})
}

func TestNumberScenarioGroupedDisplay(t *testing.T) {
	reg := NewRegistry()
	locals := NewLocals()
	defer locals.Close()

	field := model.FieldConfig{Name: "amount", Kind: model.KindNumber, Default: 0, DecimalPlaces: 2}
	form := state.New(state.WithInitialValues(map[string]any{"amount": 0}))

	widget := build(reg, field, form, locals)
	if widget.Display != "0.00" {
		t.Fatalf("expected initial display 0.00, got %q", widget.Display)
	}
	if err := widget.Change("1,234.5"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got := form.Values()["amount"]; got != 1234.5 {
		t.Fatalf("expected raw 1234.5 committed, got %#v", got)
	}

	rebuilt := build(reg, field, form, locals)
	if rebuilt.Display != "1,234.50" {
		t.Fatalf("expected display 1,234.50, got %q", rebuilt.Display)
	}
	if rebuilt.Number != widget.Number {
		t.Fatalf("expected number input to survive rebuild")
	}
}

func TestNumberInputRejections(t *testing.T) {
	min, max := 0.0, 1000.0
	cases := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "plain", input: "12.34", ok: true},
		{name: "grouped", input: "1,000", ok: true},
		{name: "intermediate point", input: "12.", ok: true},
		{name: "second point", input: "1.2.3", ok: false},
		{name: "too many decimals", input: "1.234", ok: false},
		{name: "above max", input: "1000.01", ok: false},
		{name: "negative below min", input: "-1", ok: false},
		{name: "letters", input: "12a", ok: false},
		{name: "inner minus", input: "1-2", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := NewNumberInput(2, &min, &max)
			input.Input("5")
			if got := input.Input(tc.input); got != tc.ok {
				t.Fatalf("Input(%q) = %v, want %v", tc.input, got, tc.ok)
			}
			if !tc.ok && input.Value() != 5.0 {
				t.Fatalf("rejected input changed the value to %v", input.Value())
			}
		})
	}
}

func TestNumberInputIntegerOnlyAndClear(t *testing.T) {
	input := NewNumberInput(0, nil, nil)
	if input.Input("3.5") {
		t.Fatalf("expected decimal point to be rejected with zero decimals")
	}
	if !input.Input("-42") || input.Value() != -42.0 {
		t.Fatalf("expected -42, got %v", input.Value())
	}
	if !input.Input("") || input.Value() != nil {
		t.Fatalf("expected clearing to commit nil, got %v", input.Value())
	}
	if !input.Input("-") || input.Value() != nil || input.Text() != "-" {
		t.Fatalf("expected lone minus to stay as text, got %v %q", input.Value(), input.Text())
	}
	input.Sync(nil)
	if input.Text() != "-" {
		t.Fatalf("expected sync(nil) to keep intermediate text, got %q", input.Text())
	}
}

func TestNumberRoundTrip(t *testing.T) {
	values := []struct {
		value    float64
		decimals int
	}{
		{0, 2}, {1234.5, 2}, {-98765.43, 2}, {1000000, 0}, {0.05, 2}, {12345678.125, 3},
	}
	for _, tc := range values {
		formatted := FormatNumber(tc.value, tc.decimals)
		parsed, err := ParseNumber(formatted)
		if err != nil {
			t.Fatalf("parse %q: %v", formatted, err)
		}
		if parsed != tc.value {
			t.Fatalf("round trip of %v via %q gave %v", tc.value, formatted, parsed)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	got := []string{
		FormatNumber(1234.5, 2),
		FormatNumber(-1234567, 0),
		FormatNumber(-0.001, 2),
		FormatNumber(999.999, 2),
	}
	want := []string{"1,234.50", "-1,234,567", "0.00", "1,000.00"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("format mismatch (-want +got):\n%s", diff)
	}
}

func TestNumberWidgetRejectsWithoutCommitting(t *testing.T) {
	reg := NewRegistry()
	form := state.New(state.WithInitialValues(map[string]any{"qty": 4.0}))
	widget := build(reg, model.FieldConfig{Name: "qty", Kind: model.KindNumber, Max: model.Float(10)}, form, nil)

	if err := widget.Change("11"); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if got := form.Values()["qty"]; got != 4.0 {
		t.Fatalf("rejected change committed %v", got)
	}
	if err := widget.Change(7); err != nil {
		t.Fatalf("numeric change: %v", err)
	}
	if got := form.Values()["qty"]; got != 7.0 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestScalarKindCoercion(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name  string
		field model.FieldConfig
		input any
		want  any
	}{
		{name: "checkbox on", field: model.FieldConfig{Name: "active", Kind: model.KindCheckbox}, input: "on", want: true},
		{name: "checkbox zero", field: model.FieldConfig{Name: "active", Kind: model.KindCheckbox}, input: 0, want: false},
		{name: "date iso", field: model.FieldConfig{Name: "period", Kind: model.KindDate}, input: "2026-03-01T10:00:00Z", want: "2026-03-01"},
		{name: "date words", field: model.FieldConfig{Name: "period", Kind: model.KindDate}, input: "Mar 1, 2026", want: "2026-03-01"},
		{name: "date raw", field: model.FieldConfig{Name: "period", Kind: model.KindDate}, input: " Q1 ", want: "Q1"},
		{name: "date time value", field: model.FieldConfig{Name: "period", Kind: model.KindDate}, input: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), want: "2026-03-01"},
		{name: "phone", field: model.FieldConfig{Name: "phone", Kind: model.KindPhone}, input: " +1 (555) 010-9999 ext.", want: "+1 (555) 010-9999"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := state.New()
			widget := build(reg, tc.field, form, nil)
			if err := widget.Change(tc.input); err != nil {
				t.Fatalf("change: %v", err)
			}
			if diff := cmp.Diff(tc.want, form.Values()[tc.field.Name]); diff != "" {
				t.Fatalf("committed mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectMapsSubmittedStrings(t *testing.T) {
	reg := NewRegistry()
	field := model.FieldConfig{
		Name: "grade",
		Kind: model.KindSelect,
		Options: []model.Option{
			{Value: 1, Label: "Grade 1"},
			{Value: 2, Label: "Grade 2"},
		},
	}
	form := state.New(state.WithInitialValues(map[string]any{"grade": 2}))
	widget := build(reg, field, form, nil)

	if widget.Display != "Grade 2" || !widget.Selected(field.Options[1]) {
		t.Fatalf("expected Grade 2 selected, got %+v", widget)
	}
	if err := widget.Change("1"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got := form.Values()["grade"]; got != 1 {
		t.Fatalf("expected option value 1, got %#v", got)
	}
	if err := widget.Change("9"); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected unknown option to be rejected, got %v", err)
	}
	if err := widget.Change(""); err != nil || form.Values()["grade"] != nil {
		t.Fatalf("expected clearing to commit nil, got %v / %v", err, form.Values()["grade"])
	}
}

func TestSelectSearchResolvesBoundLabel(t *testing.T) {
	var calls atomic.Int32
	var lastValue atomic.Value
	fetcher := func(ctx context.Context, req model.FetchRequest) (model.FetchResult, error) {
		calls.Add(1)
		if req.Value != nil {
			lastValue.Store(req.Value)
		}
		return model.FetchResult{
			Data:    []model.Option{{Value: 7, Label: "Central"}, {Value: 9, Label: "North"}},
			HasMore: true,
		}, nil
	}

	reg := NewRegistry()
	locals := NewLocals()
	defer locals.Close()

	field := model.FieldConfig{Name: "hub_id", Kind: model.KindSelectSearch, OptionsFetcher: fetcher, PageSize: 2}
	form := state.New(state.WithInitialValues(map[string]any{"hub_id": 7}))

	widget := build(reg, field, form, locals)
	if widget.Search == nil {
		t.Fatalf("expected select-search machine")
	}
	if widget.Display != "Central" || widget.Label != "Hub" {
		t.Fatalf("unexpected widget %q / %q", widget.Display, widget.Label)
	}
	if lastValue.Load() != 7 {
		t.Fatalf("expected prefetch filtered by bound value, got %v", lastValue.Load())
	}
	if widget.Search.Snapshot().Status != selectsearch.StatusLoaded {
		t.Fatalf("expected loaded status, got %v", widget.Search.Snapshot().Status)
	}

	if err := widget.Change("9"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got := form.Values()["hub_id"]; got != 9 {
		t.Fatalf("expected option value 9 committed, got %#v", got)
	}

	rebuilt := build(reg, field, form, locals)
	if rebuilt.Search != widget.Search {
		t.Fatalf("expected machine to survive rebuild")
	}
	if rebuilt.Display != "North" {
		t.Fatalf("expected North, got %q", rebuilt.Display)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected mount and value-change fetches only, got %d", calls.Load())
	}
}

func TestSelectSearchFallsBackToStaticOptions(t *testing.T) {
	reg := NewRegistry()
	field := model.FieldConfig{
		Name: "grain",
		Kind: model.KindSelectSearch,
		Options: []model.Option{
			{Value: "wht", Label: "Wheat"},
			{Value: "brl", Label: "Barley"},
		},
	}
	form := state.New(state.WithInitialValues(map[string]any{"grain": "brl"}))
	widget := build(reg, field, form, nil)
	defer widget.Search.Close()

	if widget.Display != "Barley" {
		t.Fatalf("expected static fallback to resolve label, got %q", widget.Display)
	}
	if widget.Options[0].Label != "Barley" {
		t.Fatalf("expected bound option first, got %+v", widget.Options)
	}
}

func TestFileWidgetSelectionAndPreview(t *testing.T) {
	reg := NewRegistry()
	locals := NewLocals()
	form := state.New()
	field := model.FieldConfig{Name: "docs", Kind: model.KindFile, Multiple: true, Accept: "image/*,.pdf"}

	widget := build(reg, field, form, locals)
	if widget.Attrs["accept"] != "image/*,.pdf" || widget.Attrs["multiple"] != "multiple" {
		t.Fatalf("unexpected attrs %+v", widget.Attrs)
	}

	files := []File{
		{Name: "weighbridge.pdf", Type: "application/pdf", Size: 3, Data: []byte("pdf")},
		{Name: "ticket.png", Type: "image/png", Size: 2, Data: []byte{0x89, 0x50}},
	}
	if err := widget.Change(files); err != nil {
		t.Fatalf("change: %v", err)
	}

	stored, ok := form.Values()["docs"].([]File)
	if !ok || len(stored) != 2 {
		t.Fatalf("expected []File written at the path, got %#v", form.Values()["docs"])
	}
	if preview := widget.File.Preview(); preview != "data:image/png;base64,iVA=" {
		t.Fatalf("unexpected preview %q", preview)
	}

	rebuilt := build(reg, field, form, locals)
	if rebuilt.Display != "weighbridge.pdf, ticket.png" {
		t.Fatalf("unexpected display %q", rebuilt.Display)
	}

	if err := rebuilt.Change(nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if form.Values()["docs"] != nil || rebuilt.File.Preview() != "" {
		t.Fatalf("expected selection cleared")
	}
}

func TestFileInputSingleKeepsFirst(t *testing.T) {
	input := NewFileInput(false)
	kept := input.Select(File{Name: "a.txt"}, File{Name: "b.txt"})
	if len(kept) != 1 || kept[0].Name != "a.txt" {
		t.Fatalf("expected only first file, got %+v", kept)
	}
	if !strings.HasPrefix(DataURL(File{}), "data:application/octet-stream;base64,") {
		t.Fatalf("expected octet-stream fallback")
	}
}

func TestLocalsPruneClosesSearchMachines(t *testing.T) {
	locals := NewLocals()
	fetcher := func(ctx context.Context, req model.FetchRequest) (model.FetchResult, error) {
		return model.FetchResult{}, nil
	}

	field := Load(locals, "hub_id", model.KindSelectSearch, func() *selectsearch.Field {
		f := selectsearch.New(fetcher)
		f.Mount(context.Background(), nil, false)
		return f
	})
	Load(locals, "amount", model.KindNumber, func() *NumberInput { return NewNumberInput(2, nil, nil) })

	again := Load(locals, "hub_id", model.KindSelectSearch, func() *selectsearch.Field {
		t.Fatalf("expected existing entry to be reused")
		return nil
	})
	if again != field {
		t.Fatalf("expected same machine")
	}

	if removed := locals.Prune(map[string]model.Kind{"amount": model.KindNumber}); removed != 1 {
		t.Fatalf("expected one stale entry, got %d", removed)
	}
	field.Wait()
	if field.LoadMore() {
		t.Fatalf("expected closed machine to refuse load more")
	}
	if locals.Len() != 1 {
		t.Fatalf("expected one live entry, got %d", locals.Len())
	}
}
