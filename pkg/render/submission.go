package render

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-opsforms/pkg/form"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/widgets"
)

// MaxUploadBytes bounds how much of each uploaded file is kept in memory.
const MaxUploadBytes = 10 << 20

// ErrUploadTooLarge reports an uploaded file larger than MaxUploadBytes.
var ErrUploadTooLarge = errors.New("render: upload too large")

// HiddenField is a hidden input emitted alongside the grid.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken carries a CSRF token under the backend's expected input name.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField carries a record version for optimistic locking.
func VersionField(name string, version any) HiddenField {
	return Hidden(name, version)
}

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored; later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out[field.Name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields orders hidden fields by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	result := make([]HiddenField, 0, len(fields))
	for name, value := range fields {
		if key := strings.TrimSpace(name); key != "" {
			result = append(result, HiddenField{Name: key, Value: value})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if len(result) == 0 {
		return nil
	}
	return result
}

// ApplySubmission feeds posted form data through each widget's Change so
// every value is coerced exactly as interactive edits are. Disabled widgets
// are skipped; an absent checkbox means false. Paths whose input a widget
// rejected are returned; other failures are joined into the error.
func ApplySubmission(grid form.Grid, posted url.Values, files map[string][]*multipart.FileHeader) ([]string, error) {
	var (
		rejected []string
		errs     []error
	)
	for _, widget := range grid.Widgets() {
		if widget.Disabled {
			continue
		}

		var (
			value   any
			present bool
		)
		switch widget.Kind {
		case model.KindCheckbox:
			value, present = posted.Get(widget.Name), true
		case model.KindFile:
			headers, ok := files[widget.Name]
			if !ok {
				continue
			}
			uploaded, err := readUploads(headers)
			if err != nil {
				errs = append(errs, fmt.Errorf("render: %s: %w", widget.Name, err))
				continue
			}
			value, present = uploaded, true
		default:
			if _, ok := posted[widget.Name]; ok {
				value, present = posted.Get(widget.Name), true
			}
		}
		if !present {
			continue
		}

		if err := widget.Change(value); err != nil {
			if errors.Is(err, widgets.ErrRejected) {
				rejected = append(rejected, widget.Name)
				continue
			}
			errs = append(errs, err)
		}
	}
	return rejected, errors.Join(errs...)
}

func readUploads(headers []*multipart.FileHeader) ([]widgets.File, error) {
	out := make([]widgets.File, 0, len(headers))
	for _, header := range headers {
		if header == nil {
			continue
		}
		if header.Size > MaxUploadBytes {
			return nil, fmt.Errorf("%w: %q is %d bytes", ErrUploadTooLarge, header.Filename, header.Size)
		}
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", header.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", header.Filename, err)
		}
		if len(data) > MaxUploadBytes {
			return nil, fmt.Errorf("%w: %q", ErrUploadTooLarge, header.Filename)
		}
		out = append(out, widgets.File{
			Name: header.Filename,
			Type: header.Header.Get("Content-Type"),
			Size: header.Size,
			Data: data,
		})
	}
	return out, nil
}
