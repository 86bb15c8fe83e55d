package visibility

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/PaesslerAG/gval"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
)

// ExtrasKey is the variable prefix that reads from Context.Extras.
const ExtrasKey = "extras"

// Expression evaluates rules written in the gval expression language, e.g.
// `method == "cheque" && amount > 0`. Variables are dot paths resolved with
// fieldpath, so a path that does not exist reads as nil instead of failing.
// Parsed rules are cached.
type Expression struct {
	language gval.Language
	cache    sync.Map
}

var _ Evaluator = (*Expression)(nil)

// NewExpression builds an evaluator. Extra gval languages (functions,
// constants) extend the default one.
func NewExpression(extensions ...gval.Language) *Expression {
	bases := append([]gval.Language{
		gval.VariableSelector(selectPath),
		gval.Constant("nil", nil),
	}, extensions...)
	return &Expression{language: gval.Full(bases...)}
}

// Eval implements Evaluator. An empty rule is always visible.
func (e *Expression) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}

	evaluable, err := e.compile(rule)
	if err != nil {
		return false, fmt.Errorf("visibility: %s: parse %q: %w", fieldPath, rule, err)
	}

	params := make(map[string]any, len(ctx.Values)+1)
	for key, value := range ctx.Values {
		params[key] = value
	}
	params[ExtrasKey] = ctx.Extras

	result, err := evaluable(context.Background(), params)
	if err != nil {
		return false, fmt.Errorf("visibility: %s: evaluate %q: %w", fieldPath, rule, err)
	}
	return truthy(result), nil
}

func (e *Expression) compile(rule string) (gval.Evaluable, error) {
	if cached, ok := e.cache.Load(rule); ok {
		return cached.(gval.Evaluable), nil
	}
	evaluable, err := e.language.NewEvaluable(rule)
	if err != nil {
		return nil, err
	}
	e.cache.Store(rule, evaluable)
	return evaluable, nil
}

func selectPath(path gval.Evaluables) gval.Evaluable {
	return func(c context.Context, parameter any) (any, error) {
		keys, err := path.EvalStrings(c, parameter)
		if err != nil {
			return nil, err
		}
		return fieldpath.Get(parameter, strings.Join(keys, fieldpath.Separator)), nil
	}
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		trimmed := strings.TrimSpace(typed)
		return trimmed != "" && !strings.EqualFold(trimmed, "false")
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
