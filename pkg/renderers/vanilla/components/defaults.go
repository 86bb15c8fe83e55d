package components

import (
	"bytes"
	"fmt"
)

// Template names of the built-in partials.
const (
	TemplateInput        = "input"
	TemplateTextarea     = "textarea"
	TemplateCheckbox     = "checkbox"
	TemplateSelect       = "select"
	TemplateSelectSearch = "select_search"
	TemplateFile         = "file"
)

// TemplateRenderer returns a Renderer executing the named partial with
// "field" and "config" in its context.
func TemplateRenderer(name string) Renderer {
	return func(buf *bytes.Buffer, field Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer is nil for %q", name)
		}
		_, err := data.Template.RenderTemplate(name, map[string]any{
			"field":  field,
			"config": data.Config,
		}, buf)
		if err != nil {
			return fmt.Errorf("components: render %q: %w", name, err)
		}
		return nil
	}
}

// Default returns a registry covering every built-in widget kind.
// searchScript is the URL of the select-search runtime; empty omits it.
func Default(searchScript string) *Registry {
	registry := New()
	input := Descriptor{Renderer: TemplateRenderer(TemplateInput)}
	for _, kind := range []string{"text", "number", "phone", "date"} {
		registry.MustRegister(kind, input)
	}
	registry.MustRegister("textarea", Descriptor{Renderer: TemplateRenderer(TemplateTextarea)})
	registry.MustRegister("checkbox", Descriptor{
		Renderer:    TemplateRenderer(TemplateCheckbox),
		InlineLabel: true,
	})
	registry.MustRegister("select", Descriptor{Renderer: TemplateRenderer(TemplateSelect)})
	registry.MustRegister("file", Descriptor{Renderer: TemplateRenderer(TemplateFile)})

	search := Descriptor{Renderer: TemplateRenderer(TemplateSelectSearch)}
	if searchScript != "" {
		search.Scripts = []Script{{Src: searchScript, Defer: true}}
	}
	registry.MustRegister("select-search", search)
	return registry
}
