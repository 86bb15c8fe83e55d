package refdata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/options"
)

// Component bundles the catalogs, their fetchers and routing helpers. The
// same fetchers back the HTTP routes and in-process field binding.
type Component struct {
	opts     Options
	catalogs []Catalog
	fetchers map[string]model.OptionsFetcher
}

// New constructs a component with default options plus any overrides. The
// embedded catalogs are used unless WithCatalogs is given.
func New(fns ...OptionFn) (*Component, error) {
	opts := NewOptions(fns...)
	catalogs := opts.Catalogs
	if catalogs == nil {
		loaded, err := DefaultCatalogs()
		if err != nil {
			return nil, err
		}
		catalogs = loaded
	}

	c := &Component{
		opts:     opts,
		catalogs: make([]Catalog, 0, len(catalogs)),
		fetchers: make(map[string]model.OptionsFetcher, len(catalogs)),
	}
	for _, catalog := range catalogs {
		name := strings.TrimSpace(catalog.Name)
		if name == "" {
			return nil, fmt.Errorf("refdata: catalog name is required")
		}
		if _, dup := c.fetchers[name]; dup {
			return nil, fmt.Errorf("refdata: duplicate catalog %q", name)
		}
		catalog.Name = name
		c.catalogs = append(c.catalogs, catalog)
		c.fetchers[name] = options.Static(catalog.Options)
	}
	return c, nil
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Names lists the served catalogs in order.
func (c *Component) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.catalogs))
	for _, catalog := range c.catalogs {
		names = append(names, catalog.Name)
	}
	return names
}

// Fetcher returns the in-process fetcher for a catalog.
func (c *Component) Fetcher(name string) (model.OptionsFetcher, bool) {
	if c == nil {
		return nil, false
	}
	fetcher, ok := c.fetchers[strings.TrimSpace(name)]
	return fetcher, ok
}

// FetcherForEndpoint maps an endpoint such as "/refdata/hubs" back to the
// catalog it names, so field lists pointing at this component can be bound
// without a network round trip.
func (c *Component) FetcherForEndpoint(endpoint string) (model.OptionsFetcher, bool) {
	if c == nil {
		return nil, false
	}
	prefix := strings.TrimRight(c.opts.RoutePrefix, "/") + "/"
	endpoint = strings.TrimSpace(endpoint)
	if !strings.HasPrefix(endpoint, prefix) {
		return nil, false
	}
	return c.Fetcher(strings.Trim(strings.TrimPrefix(endpoint, prefix), "/"))
}

// Handler returns the handler for one catalog.
func (c *Component) Handler(name string) (http.Handler, bool) {
	fetcher, ok := c.Fetcher(name)
	if !ok {
		return nil, false
	}
	return FetcherHandler(strings.TrimSpace(name), fetcher, c.opts), true
}

// RegisterRoutes registers every catalog under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) ([]string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return registerCatalogs(mux, basePath, c)
}
