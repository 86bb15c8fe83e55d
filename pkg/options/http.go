package options

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-opsforms/pkg/model"
)

// ErrInvalidResponse is returned when the endpoint body is not JSON.
var ErrInvalidResponse = errors.New("options: invalid response body")

// ErrResponseTooLarge is returned when the endpoint body exceeds MaxResponseBytes.
var ErrResponseTooLarge = errors.New("options: response body too large")

// MaxResponseBytes bounds how much of an options response is read.
const MaxResponseBytes = 4 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("options: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

func (e StatusError) Unwrap() error { return e.Err }

// StatusCode returns the response status.
func (e StatusError) StatusCode() int {
	return e.Code
}

// HTTPFetcher reads paginated options from a REST endpoint speaking
// `GET endpoint?q=&page=&pageSize=&value=` and answering with a JSON body.
// Response fields are located with gjson paths so existing entity services
// (e.g. `{"result":{"items":[{"id":..,"name":..}]}}`) can be consumed
// without an adapter.
type HTTPFetcher struct {
	endpoint string
	client   *http.Client
	header   http.Header
	logger   logrus.FieldLogger

	searchParam   string
	pageParam     string
	pageSizeParam string
	valueParam    string

	dataPath    string
	valuePath   string
	labelPath   string
	hasMorePath string
	totalPath   string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient overrides the client (default 15s timeout).
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithHeader adds a request header, e.g. Authorization.
func WithHeader(key, value string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.header.Add(key, value)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger logrus.FieldLogger) HTTPOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithQueryParams renames the search, page, page size and value parameters.
// Empty names keep the defaults.
func WithQueryParams(search, page, pageSize, value string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.searchParam = firstNonEmpty(search, f.searchParam)
		f.pageParam = firstNonEmpty(page, f.pageParam)
		f.pageSizeParam = firstNonEmpty(pageSize, f.pageSizeParam)
		f.valueParam = firstNonEmpty(value, f.valueParam)
	}
}

// WithResultPaths sets the gjson paths of the option array and, relative to
// each element, of the value and label. Empty paths keep the defaults.
func WithResultPaths(data, value, label string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.dataPath = firstNonEmpty(data, f.dataPath)
		f.valuePath = firstNonEmpty(value, f.valuePath)
		f.labelPath = firstNonEmpty(label, f.labelPath)
	}
}

// WithPaginationPaths sets the gjson paths of the hasMore flag and total.
func WithPaginationPaths(hasMore, total string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.hasMorePath = firstNonEmpty(hasMore, f.hasMorePath)
		f.totalPath = firstNonEmpty(total, f.totalPath)
	}
}

// NewHTTPFetcher builds a fetcher for endpoint.
func NewHTTPFetcher(endpoint string, opts ...HTTPOption) *HTTPFetcher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &HTTPFetcher{
		endpoint:      strings.TrimSpace(endpoint),
		client:        &http.Client{Timeout: 15 * time.Second},
		header:        make(http.Header),
		logger:        logger,
		searchParam:   "q",
		pageParam:     "page",
		pageSizeParam: "pageSize",
		valueParam:    "value",
		dataPath:      "data",
		valuePath:     "value",
		labelPath:     "label",
		hasMorePath:   "hasMore",
		totalPath:     "total",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetcher exposes the fetcher through the model contract.
func (f *HTTPFetcher) Fetcher() model.OptionsFetcher {
	return f.Fetch
}

// Fetch loads one page.
func (f *HTTPFetcher) Fetch(ctx context.Context, req model.FetchRequest) (model.FetchResult, error) {
	target, err := f.requestURL(req)
	if err != nil {
		return model.FetchResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return model.FetchResult{}, fmt.Errorf("options: create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, values := range f.header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	started := time.Now()
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return model.FetchResult{}, fmt.Errorf("options: request %s: %w", f.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return model.FetchResult{}, fmt.Errorf("options: read response: %w", err)
	}
	f.logger.WithFields(logrus.Fields{
		"endpoint": f.endpoint,
		"page":     req.Page,
		"status":   resp.StatusCode,
		"elapsed":  time.Since(started),
	}).Debug("options fetched")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.FetchResult{}, StatusError{Code: resp.StatusCode}
	}
	if len(body) > MaxResponseBytes {
		return model.FetchResult{}, fmt.Errorf("%w: %s", ErrResponseTooLarge, f.endpoint)
	}

	result, err := f.decode(body)
	if err != nil {
		return model.FetchResult{}, err
	}
	if req.OnPartial != nil && len(result.Data) > 0 {
		req.OnPartial(result.Data)
	}
	return result, nil
}

func (f *HTTPFetcher) requestURL(req model.FetchRequest) (string, error) {
	if f.endpoint == "" {
		return "", errors.New("options: endpoint is empty")
	}
	parsed, err := url.Parse(f.endpoint)
	if err != nil {
		return "", fmt.Errorf("options: parse endpoint: %w", err)
	}

	query := parsed.Query()
	if search := strings.TrimSpace(req.Search); search != "" {
		query.Set(f.searchParam, search)
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	query.Set(f.pageParam, strconv.Itoa(page))
	if req.PageSize > 0 {
		query.Set(f.pageSizeParam, strconv.Itoa(req.PageSize))
	}
	if !isBlank(req.Value) {
		query.Set(f.valueParam, fmt.Sprint(req.Value))
	}

	keys := make([]string, 0, len(req.Filters))
	for key := range req.Filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value := req.Filters[key]; value != nil {
			query.Set(key, fmt.Sprint(value))
		}
	}

	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (f *HTTPFetcher) decode(body []byte) (model.FetchResult, error) {
	if !gjson.ValidBytes(body) {
		return model.FetchResult{}, ErrInvalidResponse
	}
	doc := gjson.ParseBytes(body)

	items := doc.Get(f.dataPath)
	if !items.Exists() && doc.IsArray() {
		items = doc
	}

	result := model.FetchResult{Data: []model.Option{}}
	for _, item := range items.Array() {
		value := item.Get(f.valuePath)
		if !value.Exists() {
			continue
		}
		label := item.Get(f.labelPath).String()
		if label == "" {
			label = value.String()
		}
		result.Data = append(result.Data, model.Option{Value: value.Value(), Label: label})
	}

	result.HasMore = doc.Get(f.hasMorePath).Bool()
	if total := doc.Get(f.totalPath); total.Exists() {
		result.Total = int(total.Int())
	}
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
