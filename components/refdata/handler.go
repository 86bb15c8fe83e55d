package refdata

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/options"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type optionsResponse struct {
	Data    []model.Option `json:"data"`
	HasMore bool           `json:"hasMore"`
	Total   int            `json:"total"`
}

// CatalogHandler serves one catalog through a static option search.
func CatalogHandler(catalog Catalog, fns ...OptionFn) http.Handler {
	return FetcherHandler(catalog.Name, options.Static(catalog.Options), NewOptions(fns...))
}

// FetcherHandler exposes any options fetcher over the reference-data wire
// format. Callers are expected to pass an Options value produced by
// NewOptions so defaults and clamps apply.
func FetcherHandler(name string, fetcher model.OptionsFetcher, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		status := serve(w, r, fetcher, opts)
		opts.Metrics.observe(name, status, time.Since(started))
		if r != nil {
			logger.WithFields(logrus.Fields{
				"catalog": name,
				"status":  status,
				"query":   r.URL.RawQuery,
			}).Debug("refdata request")
		}
	})
}

func serve(w http.ResponseWriter, r *http.Request, fetcher model.OptionsFetcher, opts Options) int {
	if r == nil {
		return writeStatus(w, http.StatusBadRequest)
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		return writeStatus(w, http.StatusMethodNotAllowed)
	}
	if opts.Guard != nil {
		if err := opts.Guard(r); err != nil {
			return writeStatus(w, errorStatus(err, http.StatusForbidden))
		}
	}
	if fetcher == nil {
		return writeStatus(w, http.StatusNotFound)
	}

	query := r.URL.Query()
	req := model.FetchRequest{
		Search:   strings.TrimSpace(query.Get(opts.SearchParam)),
		Page:     parseInt(query.Get(opts.PageParam)),
		PageSize: clampPageSize(parseInt(query.Get(opts.PageSizeParam)), opts),
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if value := strings.TrimSpace(query.Get(opts.ValueParam)); value != "" {
		req.Value = value
	}

	result, err := fetcher(r.Context(), req)
	if err != nil {
		return writeStatus(w, errorStatus(err, http.StatusBadGateway))
	}
	if result.Data == nil {
		result.Data = []model.Option{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return http.StatusOK
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(optionsResponse{Data: result.Data, HasMore: result.HasMore, Total: result.Total})
	return http.StatusOK
}

func writeStatus(w http.ResponseWriter, code int) int {
	if w != nil {
		http.Error(w, http.StatusText(code), code)
	}
	return code
}

func errorStatus(err error, fallback int) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if code := httpErr.StatusCode(); code > 0 {
			return code
		}
	}
	return fallback
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
