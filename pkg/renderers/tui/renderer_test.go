package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-opsforms/pkg/form"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/options"
	"github.com/goliatone/go-opsforms/pkg/render"
	"github.com/goliatone/go-opsforms/pkg/state"
)

type stubDriver struct {
	inputs    []string
	selectIdx []int
	confirm   []bool
	textAreas []string

	inputPos   int
	selectPos  int
	confirmPos int
	textPos    int

	inputConfigs  []InputConfig
	selectConfigs []SelectConfig
	infoMessages  []string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.inputConfigs = append(s.inputConfigs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectConfigs = append(s.selectConfigs, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func buildGrid(t *testing.T, fields []model.FieldConfig) (form.Grid, *state.Form) {
	t.Helper()
	factory := form.New()
	st := state.New(state.WithInitialValues(factory.InitialValues(fields)))
	grid, err := factory.Build(fields, st, nil, form.Props{AwaitOptions: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(grid.Close)
	return grid, st
}

func decode(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	return got
}

func TestRenderPromptsThroughWidgets(t *testing.T) {
	fields := []model.FieldConfig{
		{Name: "hub.name", Kind: model.KindText, Required: model.Bool(true)},
		{Name: "amount", Kind: model.KindNumber, DecimalPlaces: 2, Default: 0},
		{Name: "method", Kind: model.KindSelect, Default: "transfer", Options: []model.Option{
			{Value: "transfer", Label: "Transfer"},
			{Value: "cheque", Label: "Cheque"},
		}},
		{Name: "cheque_number", Kind: model.KindText, VisibleWhen: `method == "cheque"`},
		{Name: "paid", Kind: model.KindCheckbox},
	}
	grid, st := buildGrid(t, fields)

	driver := &stubDriver{
		inputs:    []string{"", "Central", "abc", "1,234.5"},
		selectIdx: []int{2},
		confirm:   []bool{true},
	}
	r, err := New(WithPromptDriver(driver), WithTheme(PlainTheme()))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), grid, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := map[string]any{
		"hub":           map[string]any{"name": "Central"},
		"amount":        1234.5,
		"method":        "cheque",
		"cheque_number": nil,
		"paid":          true,
	}
	if diff := cmp.Diff(want, decode(t, out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != 4 || driver.selectPos != 1 || driver.confirmPos != 1 {
		t.Fatalf("prompts not consumed as expected: %+v", driver)
	}

	wantInfo := []string{"! Name is required", "! Invalid value for Amount"}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if got := driver.inputConfigs[0].Message; got != "Name *" {
		t.Fatalf("expected required marker in prompt, got %q", got)
	}
	if got := driver.inputConfigs[2].Default; got != "0.00" {
		t.Fatalf("expected formatted default, got %q", got)
	}
	if diff := cmp.Diff([]string{"(none)", "Transfer", "Cheque"}, driver.selectConfigs[0].Options); diff != "" {
		t.Fatalf("select options mismatch (-want +got):\n%s", diff)
	}
	if driver.selectConfigs[0].DefaultIndex != 1 {
		t.Fatalf("expected current value preselected, got %d", driver.selectConfigs[0].DefaultIndex)
	}
	if touched, _ := st.Touched()["paid"].(bool); !touched {
		t.Fatalf("expected answered fields to be touched")
	}
}

func TestRenderSelectSearchLoadMoreAndSearch(t *testing.T) {
	hubs := options.Static([]model.Option{
		{Value: "h1", Label: "Central"},
		{Value: "h2", Label: "East"},
		{Value: "h3", Label: "North"},
	})
	fields := []model.FieldConfig{
		{Name: "hub_id", Kind: model.KindSelectSearch, OptionsFetcher: hubs, PageSize: 2},
	}
	grid, _ := buildGrid(t, fields)

	driver := &stubDriver{
		selectIdx: []int{4, 4, 1},
		inputs:    []string{"nor"},
	}
	r, err := New(WithPromptDriver(driver), WithTheme(PlainTheme()))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), grid, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"hub_id": "h3"}, decode(t, out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	want := [][]string{
		{"(none)", "Central", "East", searchChoice, loadMoreChoice},
		{"(none)", "Central", "East", "North", searchChoice},
		{"(none)", "North", searchChoice},
	}
	got := make([][]string, 0, len(driver.selectConfigs))
	for _, cfg := range driver.selectConfigs {
		got = append(got, cfg.Options)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("select rounds mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderChromeDisabledAndFiles(t *testing.T) {
	fields := []model.FieldConfig{
		{Name: "code", Kind: model.KindText, Default: "INV-7", Disabled: true},
		{Label: "<b>Attachments</b>", Fields: []model.FieldConfig{
			{Name: "ticket", Kind: model.KindFile},
		}},
		{Name: "notes", Kind: model.KindTextarea, HelpText: "Shown <em>on</em> the slip"},
	}
	grid, _ := buildGrid(t, fields)

	driver := &stubDriver{
		inputs:    []string{"/tmp/scan.png"},
		textAreas: []string{"first load"},
	}
	var readPath string
	r, err := New(
		WithPromptDriver(driver),
		WithTheme(PlainTheme()),
		WithOutputFormat(OutputFormatPrettyText),
		WithFileReader(func(path string) ([]byte, error) {
			readPath = path
			return []byte{0x89, 0x50}, nil
		}),
	)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), grid, render.RenderOptions{
		Title:      "Invoice",
		FormErrors: []string{"Ledger is closed"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	wantInfo := []string{"Invoice", "! Ledger is closed", "Code: INV-7 (locked)", "Attachments"}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if readPath != "/tmp/scan.png" {
		t.Fatalf("expected file reader to be used, got %q", readPath)
	}
	if diff := cmp.Diff("code=INV-7\nnotes=first load\nticket=scan.png\n", string(out)); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
	if r.ContentType() != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
}

func TestRenderFormEncodedOutput(t *testing.T) {
	grid, _ := buildGrid(t, []model.FieldConfig{{Name: "hub.name", Kind: model.KindText}})
	driver := &stubDriver{inputs: []string{"Central Hub"}}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatFormURLEncoded))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), grid, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "hub.name=Central+Hub" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderErrors(t *testing.T) {
	r, err := New(WithPromptDriver(&stubDriver{}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := r.Render(context.Background(), form.Grid{}, render.RenderOptions{}); !errors.Is(err, ErrNoAccessor) {
		t.Fatalf("expected ErrNoAccessor, got %v", err)
	}

	grid, _ := buildGrid(t, []model.FieldConfig{{Name: "name", Kind: model.KindText}})
	_, err = r.Render(context.Background(), grid, render.RenderOptions{})
	if err == nil || !strings.Contains(err.Error(), "no input scripted") {
		t.Fatalf("expected driver error to propagate, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, grid, render.RenderOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestThemeLabel(t *testing.T) {
	theme := PlainTheme()
	if got := theme.label("Period", true); got != "Period *" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := theme.label("Period", false); got != "Period" {
		t.Fatalf("unexpected label %q", got)
	}
}
