package widgets

import (
	"sync"

	"github.com/goliatone/go-opsforms/pkg/model"
)

type closer interface {
	Close()
}

// Locals holds widget-local state (number edit text, selected files,
// select-search machines) across rebuilds of the same form. Entries are keyed
// by field path and kind so a kind change starts fresh.
type Locals struct {
	mu      sync.Mutex
	entries map[string]any
}

// NewLocals returns an empty store.
func NewLocals() *Locals {
	return &Locals{entries: make(map[string]any)}
}

// Load returns the entry for (path, kind), creating it with create on first
// use. A nil store always creates.
func Load[T any](l *Locals, path string, kind model.Kind, create func() T) T {
	if l == nil {
		return create()
	}
	key := localKey(path, kind)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries == nil {
		l.entries = make(map[string]any)
	}
	if existing, ok := l.entries[key].(T); ok {
		return existing
	}
	if previous, ok := l.entries[key].(closer); ok {
		previous.Close()
	}
	created := create()
	l.entries[key] = created
	return created
}

// Prune drops entries whose path is not in active, closing those that hold
// background work. Call it after a rebuild with the paths just built.
func (l *Locals) Prune(active map[string]model.Kind) int {
	if l == nil {
		return 0
	}
	keep := make(map[string]struct{}, len(active))
	for path, kind := range active {
		keep[localKey(path, kind)] = struct{}{}
	}

	l.mu.Lock()
	var stale []any
	for key, entry := range l.entries {
		if _, ok := keep[key]; ok {
			continue
		}
		stale = append(stale, entry)
		delete(l.entries, key)
	}
	l.mu.Unlock()

	closeAll(stale)
	return len(stale)
}

// Len returns the number of live entries.
func (l *Locals) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close releases every entry.
func (l *Locals) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	entries := make([]any, 0, len(l.entries))
	for _, entry := range l.entries {
		entries = append(entries, entry)
	}
	l.entries = make(map[string]any)
	l.mu.Unlock()

	closeAll(entries)
}

func closeAll(entries []any) {
	for _, entry := range entries {
		if c, ok := entry.(closer); ok {
			c.Close()
		}
	}
}

func localKey(path string, kind model.Kind) string {
	return path + "#" + string(kind)
}
