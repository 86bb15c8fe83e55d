package widgets

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/pkg/model"
)

// Strategy builds the widget for one kind. Strategies are pure with respect
// to form state: they read from Context snapshots and write only through the
// returned widget's Change.
type Strategy func(field model.FieldConfig, ctx Context) Widget

// Matcher infers a kind for fields whose configuration leaves it empty.
type Matcher func(field model.FieldConfig) bool

type rule struct {
	kind     model.Kind
	priority int
	match    Matcher
	order    int
}

// Registry maps kinds to strategies. Dispatch honours an explicit
// Metadata["widget"] hint, then the configured kind, then inference rules for
// kind-less fields. Unknown kinds fall back to text.
type Registry struct {
	mu         sync.RWMutex
	strategies map[model.Kind]Strategy
	rules      []rule
	logger     logrus.FieldLogger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger logrus.FieldLogger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrategy registers or overrides the strategy for kind.
func WithStrategy(kind model.Kind, strategy Strategy) RegistryOption {
	return func(r *Registry) {
		r.Register(kind, strategy)
	}
}

// NewRegistry constructs a registry with the built-in strategies and
// inference rules registered.
func NewRegistry(opts ...RegistryOption) *Registry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reg := &Registry{
		strategies: make(map[model.Kind]Strategy),
		logger:     logger,
	}
	reg.registerBuiltins()
	for _, opt := range opts {
		if opt != nil {
			opt(reg)
		}
	}
	return reg
}

// Register adds or replaces the strategy for kind.
func (r *Registry) Register(kind model.Kind, strategy Strategy) {
	if r == nil || strategy == nil {
		return
	}
	kind = model.Kind(strings.TrimSpace(string(kind)))
	if kind == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.strategies == nil {
		r.strategies = make(map[model.Kind]Strategy)
	}
	r.strategies[kind] = strategy
}

// Infer adds a rule resolving kind-less fields. Higher priority wins; ties
// fall back to registration order.
func (r *Registry) Infer(kind model.Kind, priority int, matcher Matcher) {
	if r == nil || matcher == nil || kind == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{
		kind:     kind,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Lookup returns the strategy registered for kind.
func (r *Registry) Lookup(kind model.Kind) (Strategy, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	strategy, ok := r.strategies[kind]
	return strategy, ok
}

// Kinds returns the registered kinds sorted by name.
func (r *Registry) Kinds() []model.Kind {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]model.Kind, 0, len(r.strategies))
	for kind := range r.strategies {
		out = append(out, kind)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve returns the kind a field will be dispatched as and whether it was
// recognised. Unrecognised kinds resolve to text with ok false.
func (r *Registry) Resolve(field model.FieldConfig) (model.Kind, bool) {
	if explicit := explicitKind(field); explicit != "" {
		if _, ok := r.Lookup(explicit); ok {
			return explicit, true
		}
	}

	if strings.TrimSpace(string(field.Kind)) != "" {
		kind := field.Kind.Normalize()
		if _, ok := r.Lookup(kind); ok {
			return kind, true
		}
		return model.KindText, false
	}

	if inferred, ok := r.infer(field); ok {
		return inferred, true
	}
	return model.KindText, true
}

// Dispatch builds the widget for field.
func (r *Registry) Dispatch(field model.FieldConfig, ctx Context) Widget {
	kind, ok := r.Resolve(field)
	if !ok {
		logger := ctx.Logger
		if logger == nil {
			logger = r.logger
		}
		logger.WithFields(logrus.Fields{
			"field": ctx.Path,
			"kind":  string(field.Kind),
		}).Debug("unknown field kind, falling back to text")
	}

	strategy, found := r.Lookup(kind)
	if !found {
		strategy = TextStrategy
	}
	widget := strategy(field, ctx)
	widget.Kind = kind
	return widget
}

func (r *Registry) infer(field model.FieldConfig) (model.Kind, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.kind, true
		}
	}
	return "", false
}

func explicitKind(field model.FieldConfig) model.Kind {
	if field.Metadata == nil {
		return ""
	}
	if widget := strings.TrimSpace(field.Metadata["widget"]); widget != "" {
		return model.Kind(widget).Normalize()
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.strategies[model.KindText] = TextStrategy
	r.strategies[model.KindTextarea] = TextareaStrategy
	r.strategies[model.KindNumber] = NumberStrategy
	r.strategies[model.KindPhone] = PhoneStrategy
	r.strategies[model.KindDate] = DateStrategy
	r.strategies[model.KindFile] = FileStrategy
	r.strategies[model.KindSelect] = SelectStrategy
	r.strategies[model.KindSelectSearch] = SelectSearchStrategy
	r.strategies[model.KindCheckbox] = CheckboxStrategy

	r.Infer(model.KindSelectSearch, 90, func(field model.FieldConfig) bool {
		return field.OptionsFetcher != nil
	})
	r.Infer(model.KindSelect, 80, func(field model.FieldConfig) bool {
		return len(field.Options) > 0
	})
	r.Infer(model.KindCheckbox, 70, func(field model.FieldConfig) bool {
		_, ok := field.Default.(bool)
		return ok
	})
	r.Infer(model.KindNumber, 60, func(field model.FieldConfig) bool {
		if field.DecimalPlaces > 0 || field.Min != nil || field.Max != nil {
			return true
		}
		switch field.Default.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	})
	r.Infer(model.KindTextarea, 50, func(field model.FieldConfig) bool {
		return field.Rows > 0
	})
}
