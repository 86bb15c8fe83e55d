package refdata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-opsforms/pkg/model"
)

func TestLoadCatalog_DedupesSortsAndSkipsBlank(t *testing.T) {
	input := strings.NewReader(`
- {value: soy, label: Soybeans}
- {value: barley, label: barley}
- {value: soy, label: Duplicate}
- {value: "", label: Blank}
- {value: 7}
`)

	catalog, err := LoadCatalog("grain-types", input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := Catalog{Name: "grain-types", Options: []model.Option{
		{Value: 7, Label: "7"},
		{Value: "barley", Label: "barley"},
		{Value: "soy", Label: "Soybeans"},
	}}
	if diff := cmp.Diff(want, catalog); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadCatalog("", strings.NewReader("[]")); err == nil {
		t.Fatalf("expected an error for an unnamed catalog")
	}
	if _, err := LoadCatalog("x", strings.NewReader("{not: [a list")); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestDefaultCatalogs_ContainsEmbeddedLists(t *testing.T) {
	catalogs, err := DefaultCatalogs()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	names := make([]string, 0, len(catalogs))
	for _, catalog := range catalogs {
		names = append(names, catalog.Name)
		if len(catalog.Options) < 10 {
			t.Fatalf("expected a reasonably sized %s catalog, got %d", catalog.Name, len(catalog.Options))
		}
	}
	if diff := cmp.Diff([]string{"grain-types", "hubs"}, names); diff != "" {
		t.Fatalf("catalog names mismatch (-want +got):\n%s", diff)
	}

	catalogs[0].Options[0].Label = "mutated"
	again, _ := DefaultCatalogs()
	if again[0].Options[0].Label == "mutated" {
		t.Fatalf("expected DefaultCatalogs to return copies")
	}
}

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := MountPath("/ops", "hubs"); got != "/ops/refdata/hubs" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("", "hubs"); got != "/refdata/hubs" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("ops/", "grain-types", WithRoutePrefix("api/ref/")); got != "/ops/api/ref/grain-types" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func TestRegisterRoutes_ChiRouter(t *testing.T) {
	router := chi.NewRouter()
	patterns, err := RegisterRoutes(router, "/ops")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff([]string{"/ops/refdata/grain-types", "/ops/refdata/hubs"}, patterns); diff != "" {
		t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
	}

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ops/refdata/grain-types?q=maize")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	const want = `{"data":[{"value":"maize-white","label":"White maize"},{"value":"maize-yellow","label":"Yellow maize"}],"hasMore":false,"total":2}`
	if got := strings.TrimSpace(string(body)); got != want {
		t.Fatalf("unexpected body:\n%s", got)
	}

	if _, err := RegisterRoutes(nil, "/ops"); err == nil {
		t.Fatalf("expected an error for a nil mux")
	}
}

func TestComponent_FetchersAndEndpoints(t *testing.T) {
	c, err := New(WithCatalogs(testCatalog()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff([]string{"hubs"}, c.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	fetcher, ok := c.FetcherForEndpoint("/refdata/hubs")
	if !ok {
		t.Fatalf("expected endpoint to resolve to the hubs catalog")
	}
	res, err := fetcher(context.Background(), model.FetchRequest{Search: "lus", Page: 1})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].Value != "hub-lsk" {
		t.Fatalf("unexpected fetch result: %#v", res)
	}

	if _, ok := c.FetcherForEndpoint("/other/hubs"); ok {
		t.Fatalf("expected foreign endpoints to miss")
	}
	if _, ok := c.Handler("grain-types"); ok {
		t.Fatalf("expected unknown catalog handler to miss")
	}
	if _, err := New(WithCatalogs(testCatalog(), testCatalog())); err == nil {
		t.Fatalf("expected duplicate catalogs to fail")
	}
}

func TestMetrics_CountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	c, err := New(WithCatalogs(testCatalog()), WithMetrics(metrics))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	h, ok := c.Handler("hubs")
	if !ok {
		t.Fatalf("expected hubs handler")
	}
	serveRequest(t, h, http.MethodGet, "/refdata/hubs?q=lu")
	serveRequest(t, h, http.MethodGet, "/refdata/hubs")
	serveRequest(t, h, http.MethodPost, "/refdata/hubs")

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	exposition := rec.Body.String()

	for _, line := range []string{
		`opsforms_refdata_requests_total{catalog="hubs",status="200"} 2`,
		`opsforms_refdata_requests_total{catalog="hubs",status="405"} 1`,
		`opsforms_refdata_request_duration_seconds_count{catalog="hubs"} 3`,
	} {
		if !strings.Contains(exposition, line) {
			t.Fatalf("expected %q in exposition:\n%s", line, exposition)
		}
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
