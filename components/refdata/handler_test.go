package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-opsforms/pkg/model"
)

type handlerResponse struct {
	Data    []model.Option `json:"data"`
	HasMore bool           `json:"hasMore"`
	Total   int            `json:"total"`
}

func testCatalog() Catalog {
	return Catalog{Name: "hubs", Options: []model.Option{
		{Value: "hub-chp", Label: "Chipata Depot"},
		{Value: "hub-lil", Label: "Lilongwe Central"},
		{Value: "hub-lsk", Label: "Lusaka Central"},
		{Value: "hub-ndl", Label: "Ndola East"},
	}}
}

func serveRequest(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, handlerResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload handlerResponse
	if rec.Code == http.StatusOK && method == http.MethodGet {
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, payload
}

func TestCatalogHandler_EmptyQueryReturnsFirstPage(t *testing.T) {
	h := CatalogHandler(testCatalog())

	rec, payload := serveRequest(t, h, http.MethodGet, "/refdata/hubs?pageSize=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}

	want := handlerResponse{
		Data: []model.Option{
			{Value: "hub-chp", Label: "Chipata Depot"},
			{Value: "hub-lil", Label: "Lilongwe Central"},
		},
		HasMore: true,
		Total:   4,
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogHandler_SearchAndPagination(t *testing.T) {
	h := CatalogHandler(testCatalog())

	_, payload := serveRequest(t, h, http.MethodGet, "/refdata/hubs?q=central&page=2&pageSize=1")
	want := handlerResponse{
		Data:  []model.Option{{Value: "hub-lsk", Label: "Lusaka Central"}},
		Total: 2,
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}

	_, payload = serveRequest(t, h, http.MethodGet, "/refdata/hubs?q=zzz")
	if payload.Data == nil || len(payload.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", payload.Data)
	}
}

func TestCatalogHandler_ValuePinsSelectedOption(t *testing.T) {
	h := CatalogHandler(testCatalog())

	_, payload := serveRequest(t, h, http.MethodGet, "/refdata/hubs?value=hub-ndl&pageSize=2")
	if len(payload.Data) != 2 || payload.Data[0].Value != "hub-ndl" {
		t.Fatalf("expected bound value first, got %#v", payload.Data)
	}
}

func TestCatalogHandler_PageSizeClamped(t *testing.T) {
	h := CatalogHandler(testCatalog(), WithMaxPageSize(3))

	_, payload := serveRequest(t, h, http.MethodGet, "/refdata/hubs?pageSize=50")
	if len(payload.Data) != 3 || !payload.HasMore {
		t.Fatalf("expected clamped page of 3 with more, got %#v", payload)
	}
}

func TestCatalogHandler_CustomQueryParams(t *testing.T) {
	h := CatalogHandler(testCatalog(), WithQueryParams("search", "p", "size", ""))

	_, payload := serveRequest(t, h, http.MethodGet, "/refdata/hubs?search=ndola&p=1&size=5")
	if len(payload.Data) != 1 || payload.Data[0].Value != "hub-ndl" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestCatalogHandler_GuardRejects(t *testing.T) {
	h := CatalogHandler(testCatalog(), WithGuard(func(r *http.Request) error {
		return StatusError{Code: http.StatusUnauthorized}
	}))

	rec, _ := serveRequest(t, h, http.MethodGet, "/refdata/hubs?q=lu")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestCatalogHandler_MethodNotAllowed(t *testing.T) {
	h := CatalogHandler(testCatalog())

	rec, _ := serveRequest(t, h, http.MethodPost, "/refdata/hubs")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("unexpected Allow header %q", allow)
	}

	rec, _ = serveRequest(t, h, http.MethodHead, "/refdata/hubs")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200 for HEAD, got %d with %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestFetcherHandler_FetchErrors(t *testing.T) {
	failing := func(context.Context, model.FetchRequest) (model.FetchResult, error) {
		return model.FetchResult{}, errors.New("upstream down")
	}
	rec, _ := serveRequest(t, FetcherHandler("hubs", failing, NewOptions()), http.MethodGet, "/refdata/hubs")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}

	teapot := func(context.Context, model.FetchRequest) (model.FetchResult, error) {
		return model.FetchResult{}, StatusError{Code: http.StatusTeapot}
	}
	rec, _ = serveRequest(t, FetcherHandler("hubs", teapot, NewOptions()), http.MethodGet, "/refdata/hubs")
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", rec.Code)
	}

	rec, _ = serveRequest(t, FetcherHandler("hubs", nil, NewOptions()), http.MethodGet, "/refdata/hubs")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
