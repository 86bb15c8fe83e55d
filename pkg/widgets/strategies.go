package widgets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/options"
	"github.com/goliatone/go-opsforms/pkg/selectsearch"
	"github.com/goliatone/go-opsforms/pkg/state"
)

// DateLayout is the committed date format.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// TextStrategy renders a single-line text input.
func TextStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	w.Attrs["type"] = "text"
	return w
}

// TextareaStrategy renders a multi-line text input.
func TextareaStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	rows := field.Rows
	if rows <= 0 {
		rows = 3
	}
	w.Attrs["rows"] = strconv.Itoa(rows)
	return w
}

// PhoneStrategy keeps '+', digits, spaces, dashes and parentheses.
func PhoneStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	w.Attrs["type"] = "tel"
	w.Attrs["inputmode"] = "tel"
	w.commit = func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		return SanitizePhone(fmt.Sprint(value)), nil
	}
	return w
}

// DateStrategy commits parsable dates as YYYY-MM-DD and anything else as the
// raw text.
func DateStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	w.Attrs["type"] = "date"
	if normalized, ok := NormalizeDate(w.Value); ok {
		w.Display = normalized
	}
	w.commit = func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		if normalized, ok := NormalizeDate(value); ok {
			return normalized, nil
		}
		return strings.TrimSpace(fmt.Sprint(value)), nil
	}
	return w
}

// CheckboxStrategy coerces to bool.
func CheckboxStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	w.Attrs["type"] = "checkbox"
	checked := ToBool(w.Value)
	if checked {
		w.Attrs["checked"] = "checked"
	}
	w.Display = strconv.FormatBool(checked)
	w.commit = func(value any) (any, error) {
		return ToBool(value), nil
	}
	return w
}

// NumberStrategy wires a NumberInput kept in Locals.
func NumberStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	input := Load(ctx.Locals, ctx.Path, model.KindNumber, func() *NumberInput {
		return NewNumberInput(field.DecimalPlaces, field.Min, field.Max)
	})
	input.Sync(w.Value)

	w.Number = input
	w.Display = input.Display()
	w.Attrs["inputmode"] = "numeric"
	if field.DecimalPlaces > 0 {
		w.Attrs["inputmode"] = "decimal"
	}
	if field.Min != nil {
		w.Attrs["min"] = strconv.FormatFloat(*field.Min, 'f', -1, 64)
	}
	if field.Max != nil {
		w.Attrs["max"] = strconv.FormatFloat(*field.Max, 'f', -1, 64)
	}
	w.commit = func(value any) (any, error) {
		var text string
		switch typed := value.(type) {
		case nil:
		case string:
			text = typed
		default:
			number, ok := toFloat(value)
			if !ok {
				return nil, ErrRejected
			}
			text = strconv.FormatFloat(number, 'f', -1, 64)
		}
		if !input.Input(text) {
			return nil, ErrRejected
		}
		return input.Value(), nil
	}
	return w
}

// SelectStrategy renders a static option list. String input (from HTML forms
// or prompts) is mapped back to the option's own value.
func SelectStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	w.Options = append([]model.Option(nil), field.Options...)
	if label := w.OptionLabel(w.Value); label != "" {
		w.Display = label
	}
	opts := w.Options
	w.commit = func(value any) (any, error) {
		if isBlankValue(value) {
			return nil, nil
		}
		option, ok := matchOption(opts, value)
		if !ok {
			return nil, ErrRejected
		}
		return option.Value, nil
	}
	return w
}

// SelectSearchStrategy wires a selectsearch.Field kept in Locals. Fields
// without a fetcher search their static options. Without Locals the machine
// belongs to the returned widget and the caller closes it.
func SelectSearchStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)

	fetch := field.OptionsFetcher
	if fetch == nil && len(field.Options) > 0 {
		fetch = options.Static(field.Options)
	}
	parent := ctx.Ctx
	if parent == nil {
		parent = context.Background()
	}

	mounted := false
	search := Load(ctx.Locals, ctx.Path, model.KindSelectSearch, func() *selectsearch.Field {
		opts := []selectsearch.Option{
			selectsearch.WithFilters(field.Filters),
		}
		if field.PageSize > 0 {
			opts = append(opts, selectsearch.WithPageSize(field.PageSize))
		}
		if ctx.Logger != nil {
			opts = append(opts, selectsearch.WithLogger(ctx.Logger.WithField("field", ctx.Path)))
		}
		created := selectsearch.New(fetch, opts...)
		created.Mount(parent, w.Value, field.Disabled)
		mounted = true
		return created
	})
	if !mounted {
		search.SetValue(w.Value)
		search.SetDisabled(field.Disabled)
	}
	if ctx.AwaitOptions {
		search.Wait()
	}

	snap := search.Snapshot()
	w.Search = search
	w.Options = snap.Options
	if label := w.OptionLabel(w.Value); label != "" {
		w.Display = label
	}
	w.Attrs["data-page-size"] = strconv.Itoa(pageSizeOf(field))

	current := w.Options
	w.commit = func(value any) (any, error) {
		if isBlankValue(value) {
			return nil, nil
		}
		if option, ok := matchOption(search.Snapshot().Options, value); ok {
			return option.Value, nil
		}
		if option, ok := matchOption(current, value); ok {
			return option.Value, nil
		}
		return value, nil
	}
	return w
}

// FileStrategy wires a FileInput kept in Locals and writes []File at the
// field path.
func FileStrategy(field model.FieldConfig, ctx Context) Widget {
	w := base(field, ctx)
	input := Load(ctx.Locals, ctx.Path, model.KindFile, func() *FileInput {
		in := NewFileInput(field.Multiple)
		if files := toFiles(w.Value); len(files) > 0 {
			in.Select(files...)
		}
		return in
	})

	w.File = input
	w.Attrs["type"] = "file"
	if accept := strings.TrimSpace(field.Accept); accept != "" {
		w.Attrs["accept"] = accept
	}
	if field.Multiple {
		w.Attrs["multiple"] = "multiple"
	}
	names := make([]string, 0)
	for _, file := range toFiles(w.Value) {
		names = append(names, file.Name)
	}
	w.Display = strings.Join(names, ", ")

	w.commit = func(value any) (any, error) {
		files := toFiles(value)
		if len(files) == 0 {
			input.Clear()
			return nil, nil
		}
		return input.Select(files...), nil
	}
	return w
}

// SanitizePhone trims text and drops characters outside the phone alphabet.
func SanitizePhone(text string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r >= '0' && r <= '9', r == '+', r == ' ', r == '-', r == '(', r == ')':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizeDate formats time values and parsable date strings as YYYY-MM-DD.
func NormalizeDate(value any) (string, bool) {
	switch typed := value.(type) {
	case time.Time:
		if typed.IsZero() {
			return "", false
		}
		return typed.Format(DateLayout), true
	case *time.Time:
		if typed == nil || typed.IsZero() {
			return "", false
		}
		return typed.Format(DateLayout), true
	case string:
		text := strings.TrimSpace(typed)
		if text == "" {
			return "", false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, text); err == nil {
				return parsed.Format(DateLayout), true
			}
		}
	}
	return "", false
}

// ToBool coerces checkbox input.
func ToBool(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "on", "yes", "y", "1", "checked":
			return true
		}
		return false
	}
	if number, ok := toFloat(value); ok {
		return number != 0
	}
	return false
}

func base(field model.FieldConfig, ctx Context) Widget {
	value := fieldpath.Get(ctx.Values, ctx.Path)
	touched, _ := fieldpath.Get(ctx.Touched, ctx.Path).(bool)

	attrs := make(map[string]string)
	for key, value := range field.Metadata {
		if strings.HasPrefix(key, "data-") {
			attrs[key] = value
		}
	}

	return Widget{
		Name:        ctx.Path,
		ID:          IDFor(ctx.Path),
		Label:       model.LabelFor(field),
		HelpText:    field.HelpText,
		Placeholder: field.Placeholder,
		Value:       value,
		Display:     displayOf(value),
		Error:       state.ErrorText(fieldpath.Get(ctx.Errors, ctx.Path)),
		Touched:     touched,
		Required:    ctx.Required,
		Visible:     ctx.Visible,
		Disabled:    field.Disabled,
		Attrs:       attrs,
		accessor:    ctx.Accessor,
	}
}

func displayOf(value any) string {
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

func isBlankValue(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	}
	return false
}

func pageSizeOf(field model.FieldConfig) int {
	if field.PageSize > 0 {
		return field.PageSize
	}
	return selectsearch.DefaultPageSize
}
