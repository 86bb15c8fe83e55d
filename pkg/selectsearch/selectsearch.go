// Package selectsearch implements the option lifecycle of a searchable select:
// a page-1 prefetch whenever the bound value or the disabled flag changes, a
// debounced page-1 search when the search text changes, and load-more paging.
//
// Every page-1 fetch takes a new generation and cancels the previous request,
// so responses from superseded searches (page 1 or later pages) are dropped
// instead of overwriting newer option state.
package selectsearch

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/pkg/model"
)

// DefaultDebounce is the quiet period before a search text change fetches.
const DefaultDebounce = 500 * time.Millisecond

// DefaultPageSize is used when neither the field nor the options set one.
const DefaultPageSize = 10

// Status is the state of the option machine.
type Status int

const (
	StatusIdle Status = iota
	StatusSearching
	StatusLoaded
	StatusFailed
	StatusLoadingMore
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSearching:
		return "searching"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	case StatusLoadingMore:
		return "loading-more"
	}
	return "unknown"
}

// ErrNoFetcher is reported in the snapshot when the field has no fetcher.
var ErrNoFetcher = errors.New("selectsearch: options fetcher is nil")

// Scheduler runs fn after d and returns a function cancelling the pending run.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// AfterFunc is the default Scheduler backed by time.AfterFunc.
func AfterFunc(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() { timer.Stop() }
}

// Snapshot is a copy of the field's option state.
type Snapshot struct {
	Status   Status
	Options  []model.Option
	Search   string
	Value    any
	Page     int
	HasMore  bool
	Total    int
	Loading  bool
	Disabled bool
	Err      error
}

// Option configures a Field.
type Option func(*Field)

// WithDebounce overrides the search debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(f *Field) {
		if d >= 0 {
			f.debounce = d
		}
	}
}

// WithPageSize sets the page size sent to the fetcher.
func WithPageSize(size int) Option {
	return func(f *Field) {
		if size > 0 {
			f.pageSize = size
		}
	}
}

// WithFilters sets extra filters forwarded to every fetch.
func WithFilters(filters map[string]any) Option {
	return func(f *Field) {
		f.filters = filters
	}
}

// WithScheduler replaces the debounce scheduler.
func WithScheduler(s Scheduler) Option {
	return func(f *Field) {
		if s != nil {
			f.schedule = s
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Field) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithOnChange registers a callback receiving a snapshot after every state
// transition. It runs outside the field's lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(f *Field) {
		f.onChange = fn
	}
}

// Field is the option state machine of one select-search input. It is safe
// for concurrent use.
type Field struct {
	fetch    model.OptionsFetcher
	debounce time.Duration
	pageSize int
	filters  map[string]any
	schedule Scheduler
	logger   logrus.FieldLogger
	onChange func(Snapshot)

	mu             sync.Mutex
	base           context.Context
	cancelBase     context.CancelFunc
	generation     uint64
	cancelFirst    context.CancelFunc
	cancelMore     context.CancelFunc
	cancelDebounce func()
	firstInFlight  bool
	moreInFlight   bool
	closed         bool

	// query of the current generation; later pages repeat it
	querySearch string
	queryValue  any

	status   Status
	options  []model.Option
	search   string
	value    any
	page     int
	hasMore  bool
	total    int
	disabled bool
	err      error

	wg sync.WaitGroup
}

// New builds a Field around fetch.
func New(fetch model.OptionsFetcher, opts ...Option) *Field {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	f := &Field{
		fetch:    fetch,
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		schedule: AfterFunc,
		logger:   discard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Mount binds the field to ctx and prefetches page 1 for value.
func (f *Field) Mount(ctx context.Context, value any, disabled bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	f.mu.Lock()
	if f.cancelBase != nil {
		f.cancelBase()
	}
	f.base, f.cancelBase = context.WithCancel(ctx)
	f.closed = false
	f.value = value
	f.disabled = disabled
	f.startFirstPageLocked("", value)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// SetValue rebinds the field. A changed value refetches page 1 filtered by it;
// clearing the value also clears the search text.
func (f *Field) SetValue(value any) {
	f.mu.Lock()
	if f.closed || reflect.DeepEqual(f.value, value) {
		f.mu.Unlock()
		return
	}
	f.value = value
	if isEmpty(value) {
		f.search = ""
		f.stopDebounceLocked()
	}
	f.startFirstPageLocked("", value)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// SetDisabled toggles the disabled flag, refetching page 1 on change.
func (f *Field) SetDisabled(disabled bool) {
	f.mu.Lock()
	if f.closed || f.disabled == disabled {
		f.mu.Unlock()
		return
	}
	f.disabled = disabled
	f.startFirstPageLocked("", f.value)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// Search records the search text and schedules a page-1 fetch after the
// debounce interval. A later call cancels the pending one.
func (f *Field) Search(text string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.search = text
	f.stopDebounceLocked()
	f.cancelDebounce = f.schedule(f.debounce, func() {
		f.fireSearch(text)
	})
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// Flush fires a pending debounced search immediately, as when the user
// submits the search text. It reports false when nothing was pending.
func (f *Field) Flush() bool {
	f.mu.Lock()
	if f.closed || f.cancelDebounce == nil {
		f.mu.Unlock()
		return false
	}
	f.stopDebounceLocked()
	text := f.search
	f.mu.Unlock()
	f.fireSearch(text)
	return true
}

func (f *Field) fireSearch(text string) {
	f.mu.Lock()
	if f.closed || f.search != text {
		f.mu.Unlock()
		return
	}
	f.cancelDebounce = nil
	f.startFirstPageLocked(text, nil)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// LoadMore fetches the next page and appends it. It reports false when the
// request is refused: no further pages, page 1 still in flight, a load-more
// already running, or the field closed.
func (f *Field) LoadMore() bool {
	f.mu.Lock()
	if f.closed || !f.hasMore || f.firstInFlight || f.moreInFlight || f.fetch == nil {
		f.mu.Unlock()
		return false
	}

	gen := f.generation
	nextPage := f.page + 1
	ctx, cancel := context.WithCancel(f.baseLocked())
	f.cancelMore = cancel
	f.moreInFlight = true
	f.status = StatusLoadingMore
	f.err = nil
	req := model.FetchRequest{
		Search:   f.querySearch,
		Filters:  f.filters,
		Page:     nextPage,
		PageSize: f.pageSize,
		Value:    f.queryValue,
	}
	existing := append([]model.Option(nil), f.options...)
	req.OnPartial = func(partial []model.Option) {
		f.apply(gen, func() {
			f.options = append(append([]model.Option(nil), existing...), partial...)
		})
	}
	snap := f.snapshotLocked()
	f.wg.Add(1)
	f.mu.Unlock()
	f.notify(snap)

	go func() {
		defer f.wg.Done()
		defer cancel()
		result, err := f.fetch(ctx, req)
		f.finishMore(gen, nextPage, existing, result, err)
	}()
	return true
}

// Close cancels the pending debounce and every in-flight request. Responses
// arriving afterwards are dropped.
func (f *Field) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.stopDebounceLocked()
	if f.cancelFirst != nil {
		f.cancelFirst()
	}
	if f.cancelMore != nil {
		f.cancelMore()
	}
	if f.cancelBase != nil {
		f.cancelBase()
	}
}

// Wait blocks until every started fetch goroutine has returned.
func (f *Field) Wait() {
	f.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (f *Field) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Field) startFirstPageLocked(search string, value any) {
	f.generation++
	gen := f.generation
	f.querySearch = search
	f.queryValue = value

	if f.cancelFirst != nil {
		f.cancelFirst()
		f.cancelFirst = nil
	}
	if f.cancelMore != nil {
		f.cancelMore()
		f.cancelMore = nil
	}
	f.moreInFlight = false
	// Pagination belongs to the previous query until this page 1 lands.
	f.page = 0
	f.hasMore = false

	if f.fetch == nil {
		f.status = StatusFailed
		f.err = ErrNoFetcher
		f.firstInFlight = false
		return
	}

	ctx, cancel := context.WithCancel(f.baseLocked())
	f.cancelFirst = cancel
	f.firstInFlight = true
	f.status = StatusSearching
	f.err = nil

	req := model.FetchRequest{
		Search:   search,
		Filters:  f.filters,
		Page:     1,
		PageSize: f.pageSize,
		Value:    value,
		OnPartial: func(partial []model.Option) {
			f.apply(gen, func() {
				f.options = append([]model.Option(nil), partial...)
			})
		},
	}

	f.logger.WithFields(logrus.Fields{
		"generation": gen,
		"search":     search,
	}).Debug("selectsearch: fetching page 1")

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer cancel()
		result, err := f.fetch(ctx, req)
		f.finishFirst(gen, result, err)
	}()
}

func (f *Field) finishFirst(gen uint64, result model.FetchResult, err error) {
	f.mu.Lock()
	if f.closed || gen != f.generation {
		f.mu.Unlock()
		f.logger.WithField("generation", gen).Debug("selectsearch: dropping stale page 1")
		return
	}
	f.firstInFlight = false
	f.cancelFirst = nil
	if err != nil {
		f.status = StatusFailed
		f.err = err
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.logger.WithError(err).Warn("selectsearch: page 1 fetch failed")
		f.notify(snap)
		return
	}
	f.options = append([]model.Option(nil), result.Data...)
	f.page = 1
	f.hasMore = result.HasMore
	f.total = result.Total
	f.status = StatusLoaded
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// finishMore replaces any partial page with the final one: existing holds the
// options as they were when the request started.
func (f *Field) finishMore(gen uint64, page int, existing []model.Option, result model.FetchResult, err error) {
	f.mu.Lock()
	if f.closed || gen != f.generation || !f.moreInFlight {
		f.mu.Unlock()
		f.logger.WithFields(logrus.Fields{"generation": gen, "page": page}).Debug("selectsearch: dropping stale page")
		return
	}
	f.moreInFlight = false
	f.cancelMore = nil
	if err != nil {
		f.status = StatusFailed
		f.err = err
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.logger.WithError(err).WithField("page", page).Warn("selectsearch: load more failed")
		f.notify(snap)
		return
	}
	f.options = append(existing, result.Data...)
	f.page = page
	f.hasMore = result.HasMore
	if result.Total > 0 {
		f.total = result.Total
	}
	f.status = StatusLoaded
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// apply runs mutate when gen is still current.
func (f *Field) apply(gen uint64, mutate func()) {
	f.mu.Lock()
	if f.closed || gen != f.generation {
		f.mu.Unlock()
		return
	}
	mutate()
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

func (f *Field) baseLocked() context.Context {
	if f.base == nil {
		f.base, f.cancelBase = context.WithCancel(context.Background())
	}
	return f.base
}

func (f *Field) stopDebounceLocked() {
	if f.cancelDebounce != nil {
		f.cancelDebounce()
		f.cancelDebounce = nil
	}
}

func (f *Field) snapshotLocked() Snapshot {
	return Snapshot{
		Status:   f.status,
		Options:  append([]model.Option(nil), f.options...),
		Search:   f.search,
		Value:    f.value,
		Page:     f.page,
		HasMore:  f.hasMore,
		Total:    f.total,
		Loading:  f.firstInFlight || f.moreInFlight,
		Disabled: f.disabled,
		Err:      f.err,
	}
}

func (f *Field) notify(snap Snapshot) {
	if f.onChange != nil {
		f.onChange(snap)
	}
}

// Label returns the label of the option whose value equals value.
func (s Snapshot) Label(value any) (string, bool) {
	for _, option := range s.Options {
		if reflect.DeepEqual(option.Value, value) {
			return option.Label, true
		}
	}
	return "", false
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	}
	return false
}
