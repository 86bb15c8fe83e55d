package fieldset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/options"
)

// ErrUnknownSource is returned when a field names an options source that is
// neither registered on the Binder nor declared by the document.
var ErrUnknownSource = errors.New("fieldset: unknown options source")

// EndpointMetadataKey is the field metadata key carrying a source endpoint so
// the HTML renderer can search it from the browser.
const EndpointMetadataKey = "data-endpoint"

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithBaseURL resolves relative source endpoints against base for
// server-side fetches.
func WithBaseURL(base string) BinderOption {
	return func(b *Binder) {
		b.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithFetcher registers a fetcher for a source name. Registered fetchers win
// over the document's own source declarations.
func WithFetcher(name string, fetcher model.OptionsFetcher) BinderOption {
	return func(b *Binder) {
		if name = strings.TrimSpace(name); name != "" && fetcher != nil {
			b.fetchers[name] = fetcher
		}
	}
}

// WithHTTPOptions applies options to every HTTP fetcher the Binder creates.
func WithHTTPOptions(opts ...options.HTTPOption) BinderOption {
	return func(b *Binder) {
		b.httpOpts = append(b.httpOpts, opts...)
	}
}

// Binder resolves OptionsSource names to fetchers or option lists.
type Binder struct {
	baseURL  string
	fetchers map[string]model.OptionsFetcher
	httpOpts []options.HTTPOption
}

// NewBinder constructs a Binder.
func NewBinder(opts ...BinderOption) *Binder {
	b := &Binder{fetchers: make(map[string]model.OptionsFetcher)}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Bind returns a copy of the document's fields with every OptionsSource
// resolved. Select fields bound to an inline list get it as Options;
// everything else gets an OptionsFetcher. All unresolved names are reported.
func (b *Binder) Bind(doc *Document) ([]model.FieldConfig, error) {
	if doc == nil {
		return nil, errors.New("fieldset: document is nil")
	}
	var errs []error
	fields := b.bindFields(doc, "", doc.Fields, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return fields, nil
}

func (b *Binder) bindFields(doc *Document, prefix string, fields []model.FieldConfig, errs *[]error) []model.FieldConfig {
	out := make([]model.FieldConfig, len(fields))
	for i, field := range fields {
		path := model.JoinName(prefix, field.Name)
		if len(field.Fields) > 0 {
			field.Fields = b.bindFields(doc, path, field.Fields, errs)
		}
		if name := strings.TrimSpace(field.OptionsSource); name != "" {
			if err := b.bindField(doc, name, &field); err != nil {
				*errs = append(*errs, fmt.Errorf("%w: %q (field %s)", err, name, path))
			}
		}
		out[i] = field
	}
	return out
}

func (b *Binder) bindField(doc *Document, name string, field *model.FieldConfig) error {
	spec, declared := doc.Sources[name]
	if declared && spec.Endpoint != "" {
		metadata := make(map[string]string, len(field.Metadata)+1)
		for key, value := range field.Metadata {
			metadata[key] = value
		}
		metadata[EndpointMetadataKey] = spec.Endpoint
		field.Metadata = metadata
	}

	if fetcher, ok := b.fetchers[name]; ok {
		field.OptionsFetcher = fetcher
		return nil
	}
	if !declared {
		return ErrUnknownSource
	}

	if len(spec.Options) > 0 {
		if field.Kind.Normalize() == model.KindSelect {
			field.Options = append([]model.Option(nil), spec.Options...)
			return nil
		}
		field.OptionsFetcher = options.Static(spec.Options)
		return nil
	}

	endpoint := b.resolve(spec.Endpoint)
	if endpoint == "" {
		return ErrUnknownSource
	}
	opts := append([]options.HTTPOption(nil), b.httpOpts...)
	if spec.DataPath != "" || spec.ValuePath != "" || spec.LabelPath != "" {
		opts = append(opts, options.WithResultPaths(spec.DataPath, spec.ValuePath, spec.LabelPath))
	}
	field.OptionsFetcher = options.NewHTTPFetcher(endpoint, opts...).Fetcher()
	return nil
}

// resolve returns an absolute endpoint, or "" when a relative endpoint has
// no base URL to resolve against.
func (b *Binder) resolve(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case endpoint == "":
		return ""
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint
	case b.baseURL == "":
		return ""
	}
	return b.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}
