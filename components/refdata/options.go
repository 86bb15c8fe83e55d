package refdata

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePrefix     string
	SearchParam     string
	PageParam       string
	PageSizeParam   string
	ValueParam      string
	DefaultPageSize int
	MaxPageSize     int
	Guard           GuardFunc

	// Catalogs replaces the embedded catalogs when non-nil.
	Catalogs []Catalog
	Metrics  *Metrics
	Logger   logrus.FieldLogger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePrefix:     "/refdata",
		SearchParam:     "q",
		PageParam:       "page",
		PageSizeParam:   "pageSize",
		ValueParam:      "value",
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	if opts.RoutePrefix == "" {
		opts.RoutePrefix = "/refdata"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.PageParam == "" {
		opts.PageParam = "page"
	}
	if opts.PageSizeParam == "" {
		opts.PageSizeParam = "pageSize"
	}
	if opts.ValueParam == "" {
		opts.ValueParam = "value"
	}
	opts.Catalogs = cloneCatalogs(opts.Catalogs)
	return opts
}

func WithRoutePrefix(prefix string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePrefix = prefix
	}
}

// WithQueryParams renames the search, page, page size and value parameters.
// Empty names keep the defaults.
func WithQueryParams(search, page, pageSize, value string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = search
		o.PageParam = page
		o.PageSizeParam = pageSize
		o.ValueParam = value
	}
}

func WithDefaultPageSize(size int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultPageSize = size
	}
}

func WithMaxPageSize(size int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxPageSize = size
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithCatalogs serves catalogs instead of the embedded defaults.
func WithCatalogs(catalogs ...Catalog) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Catalogs = append([]Catalog{}, catalogs...)
	}
}

func WithMetrics(metrics *Metrics) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Metrics = metrics
	}
}

func WithLogger(logger logrus.FieldLogger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func clampPageSize(size int, opts Options) int {
	if size <= 0 {
		size = opts.DefaultPageSize
	}
	if opts.MaxPageSize > 0 && size > opts.MaxPageSize {
		return opts.MaxPageSize
	}
	return size
}
