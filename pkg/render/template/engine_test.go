package template_test

import (
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-opsforms/pkg/render/template"
)

func newEngine(t *testing.T, opts ...template.Option) *template.Engine {
	t.Helper()
	files := fstest.MapFS{
		"hello.tpl":      {Data: []byte("Hello {{ name }}!")},
		"use-global.tpl": {Data: []byte("env={{ settings.env }}")},
		"amount.tpl":     {Data: []byte("{{ amount|grouped:2 }}|{{ raw|grouped }}|{{ missing|grouped }}")},
		"escape.tpl":     {Data: []byte("{{ label }}")},
	}
	engine, err := template.New(append([]template.Option{template.WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRenderTemplateWritesToOutputs(t *testing.T) {
	engine := newEngine(t)

	var sb strings.Builder
	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &sb)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada!" || sb.String() != got {
		t.Fatalf("unexpected output %q / %q", got, sb.String())
	}
}

func TestEngineGlobals(t *testing.T) {
	engine := newEngine(t, template.WithGlobals(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))
	got, err := engine.RenderTemplate("use-global.tpl", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "env=staging" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngineGroupedFilter(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("amount", map[string]any{"amount": 1234.5, "raw": "1,000,000"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "1,234.50|1,000,000|" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngineEscapesByDefault(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("escape", map[string]any{"label": "<b>Hub</b>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got, "<b>") {
		t.Fatalf("expected escaped output, got %q", got)
	}
}

func TestEngineRegisterFilterAndStructData(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout_opsforms", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout_opsforms", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	data := struct {
		Name string `json:"name"`
	}{Name: "hub"}
	got, err := engine.RenderString("{{ name|shout_opsforms }}", data)
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "HUB!" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngineRequiresSource(t *testing.T) {
	if _, err := template.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}
