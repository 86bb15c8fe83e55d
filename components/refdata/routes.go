package refdata

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux and chi routers.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the route of catalog name under basePath.
func MountPath(basePath, name string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, catalogRoute(opts.RoutePrefix, name))
}

// RegisterRoutes registers one handler per catalog under basePath on mux and
// returns the registered patterns.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) ([]string, error) {
	c, err := New(fns...)
	if err != nil {
		return nil, err
	}
	return c.RegisterRoutes(mux, basePath)
}

func catalogRoute(prefix, name string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	return prefix + "/" + strings.Trim(strings.TrimSpace(name), "/")
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}

func registerCatalogs(mux Mux, basePath string, c *Component) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("refdata: missing mux")
	}
	patterns := make([]string, 0, len(c.catalogs))
	for _, catalog := range c.catalogs {
		pattern := mountPath(basePath, catalogRoute(c.opts.RoutePrefix, catalog.Name))
		mux.Handle(pattern, FetcherHandler(catalog.Name, c.fetchers[catalog.Name], c.opts))
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}
