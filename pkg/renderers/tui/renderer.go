package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
	"github.com/goliatone/go-opsforms/pkg/form"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/render"
	"github.com/goliatone/go-opsforms/pkg/widgets"
)

const (
	noneChoice     = "(none)"
	searchChoice   = "Search..."
	loadMoreChoice = "Load more..."
)

// Renderer walks a grid as a sequence of terminal prompts. Every answer goes
// through the widget's Change, so coercion and number rules match the HTML
// form; the collected state values are serialized as the render output.
type Renderer struct {
	driver            PromptDriver
	messages          io.Writer
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	readFile          FileReader
	logger            logrus.FieldLogger
	plain             *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := &Renderer{
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme(),
		readFile:     defaultFileReader,
		logger:       logger,
		plain:        bluemonday.StrictPolicy(),
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = newSurveyDriver(r.messages)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every visible, enabled widget in declared order and
// returns the resulting values. Hidden slots are skipped; their values pass
// through unchanged.
func (r *Renderer) Render(ctx context.Context, grid form.Grid, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}
	if grid.Accessor == nil {
		return nil, ErrNoAccessor
	}

	if title := strings.TrimSpace(opts.Title); title != "" {
		if err := r.driver.Info(ctx, r.theme.Title.Render(title)); err != nil {
			return nil, err
		}
	}
	for _, message := range opts.FormErrors {
		if err := r.driver.Info(ctx, r.theme.errorLine(message)); err != nil {
			return nil, err
		}
	}

	if err := r.walk(ctx, grid.Slots); err != nil {
		return nil, err
	}

	values := grid.Accessor.Values()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

func (r *Renderer) walk(ctx context.Context, slots []form.Slot) error {
	for _, slot := range slots {
		if slot.Hidden {
			continue
		}
		if slot.Section {
			if title := r.plainText(slot.Title); title != "" {
				if err := r.driver.Info(ctx, r.theme.Section.Render(title)); err != nil {
					return err
				}
			}
			if err := r.walk(ctx, slot.Children); err != nil {
				return err
			}
			continue
		}
		if err := r.promptWidget(ctx, slot.Widget); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptWidget(ctx context.Context, w widgets.Widget) error {
	label := r.plainText(w.Label)
	if w.Disabled {
		return r.driver.Info(ctx, r.theme.Muted.Render(fmt.Sprintf("%s: %s (locked)", label, w.Display)))
	}
	if w.HasError() {
		if err := r.driver.Info(ctx, r.theme.errorLine(fmt.Sprintf("%s: %s", label, w.Error))); err != nil {
			return err
		}
	}

	for {
		err := r.ask(ctx, w)
		switch {
		case err == nil:
			w.Blur()
			return nil
		case errors.Is(err, widgets.ErrRejected):
			r.logger.WithField("field", w.Name).Debug("tui input rejected")
			if err := r.driver.Info(ctx, r.theme.errorLine(fmt.Sprintf("Invalid value for %s", label))); err != nil {
				return err
			}
		case errors.Is(err, errRequired):
			if err := r.driver.Info(ctx, r.theme.errorLine(fmt.Sprintf("%s is required", label))); err != nil {
				return err
			}
		default:
			return err
		}
	}
}

func (r *Renderer) ask(ctx context.Context, w widgets.Widget) error {
	message := r.theme.label(r.plainText(w.Label), w.Required)
	help := r.plainText(w.HelpText)

	switch w.Kind {
	case model.KindCheckbox:
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: widgets.ToBool(w.Value),
			Help:    help,
		})
		if err != nil {
			return err
		}
		return w.Change(answer)

	case model.KindSelect:
		return r.askSelect(ctx, w, message, help, w.Options)

	case model.KindSelectSearch:
		return r.askSearch(ctx, w, message, help)

	case model.KindTextarea:
		answer, err := r.driver.TextArea(ctx, TextAreaConfig{
			Message: message,
			Default: w.Display,
			Help:    help,
		})
		if err != nil {
			return err
		}
		return r.commitText(w, answer)

	case model.KindFile:
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: message,
			Default: "",
			Help:    firstNonEmpty(help, "Path to a file, empty keeps the current one"),
		})
		if err != nil {
			return err
		}
		return r.commitFile(w, answer)
	}

	answer, err := r.driver.Input(ctx, InputConfig{
		Message: message,
		Default: w.Display,
		Help:    firstNonEmpty(help, w.Placeholder),
	})
	if err != nil {
		return err
	}
	return r.commitText(w, answer)
}

func (r *Renderer) commitText(w widgets.Widget, answer string) error {
	if w.Required && strings.TrimSpace(answer) == "" {
		return errRequired
	}
	return w.Change(answer)
}

func (r *Renderer) commitFile(w widgets.Widget, answer string) error {
	path := strings.TrimSpace(answer)
	if path == "" {
		if w.Required && strings.TrimSpace(w.Display) == "" {
			return errRequired
		}
		return nil
	}
	data, err := r.readFile(path)
	if err != nil {
		return fmt.Errorf("tui: read %s: %w", path, err)
	}
	file := widgets.File{
		Name: filepath.Base(path),
		Type: mime.TypeByExtension(filepath.Ext(path)),
		Size: int64(len(data)),
		Data: data,
	}
	return w.Change([]widgets.File{file})
}

func (r *Renderer) askSelect(ctx context.Context, w widgets.Widget, message, help string, options []model.Option) error {
	choices, values := r.choices(w, options)
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      message,
		Options:      choices,
		DefaultIndex: selectedIndex(w, values),
		Help:         help,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(values) {
		return widgets.ErrRejected
	}
	if values[idx] == nil && w.Required {
		return errRequired
	}
	return w.Change(values[idx])
}

// askSearch loops over the option machine: picking "Search..." runs a search
// right away, "Load more..." appends the next page, anything else commits.
func (r *Renderer) askSearch(ctx context.Context, w widgets.Widget, message, help string) error {
	search := w.Search
	if search == nil {
		return r.askSelect(ctx, w, message, help, w.Options)
	}

	for {
		snap := search.Snapshot()
		if snap.Err != nil {
			if err := r.driver.Info(ctx, r.theme.errorLine("Options could not be loaded")); err != nil {
				return err
			}
		}

		choices, values := r.choices(w, snap.Options)
		searchAt := len(choices)
		choices = append(choices, searchChoice)
		moreAt := -1
		if snap.HasMore {
			moreAt = len(choices)
			choices = append(choices, loadMoreChoice)
		}

		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      choices,
			DefaultIndex: selectedIndex(w, values),
			Help:         help,
		})
		if err != nil {
			return err
		}

		switch {
		case idx == searchAt:
			text, err := r.driver.Input(ctx, InputConfig{Message: "Search", Default: snap.Search})
			if err != nil {
				return err
			}
			search.Search(text)
			search.Flush()
			search.Wait()
		case idx == moreAt:
			if search.LoadMore() {
				search.Wait()
			}
		case idx >= 0 && idx < len(values):
			if values[idx] == nil && w.Required {
				return errRequired
			}
			return w.Change(values[idx])
		default:
			return widgets.ErrRejected
		}
	}
}

// choices returns the prompt labels with their option values. Optional
// fields get a leading "(none)" entry mapping to nil.
func (r *Renderer) choices(w widgets.Widget, options []model.Option) ([]string, []any) {
	labels := make([]string, 0, len(options)+1)
	values := make([]any, 0, len(options)+1)
	if !w.Required {
		labels = append(labels, noneChoice)
		values = append(values, nil)
	}
	for _, option := range options {
		labels = append(labels, option.Label)
		values = append(values, option.Value)
	}
	return labels, values
}

func selectedIndex(w widgets.Widget, values []any) int {
	for i, value := range values {
		if value != nil && w.Selected(model.Option{Value: value}) {
			return i
		}
	}
	return 0
}

// plainText strips markup meant for the HTML renderer.
func (r *Renderer) plainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(r.plain.Sanitize(trimmed)))
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func flattenForm(values map[string]any) string {
	out := url.Values{}
	for path, value := range fieldpath.Flatten(values) {
		out.Set(path, scalarText(value))
	}
	return out.Encode()
}

func prettyPrint(values map[string]any) string {
	flat := fieldpath.Flatten(values)
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		fmt.Fprintf(&b, "%s=%s\n", path, scalarText(flat[path]))
	}
	return b.String()
}

func scalarText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case []widgets.File:
		names := make([]string, 0, len(typed))
		for _, file := range typed {
			names = append(names, file.Name)
		}
		return strings.Join(names, ",")
	}
	return fmt.Sprint(value)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
