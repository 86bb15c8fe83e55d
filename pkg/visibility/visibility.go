// Package visibility decides whether a field slot is shown. Rules are
// expressions evaluated against the current form values, so a field can
// appear only once another field holds a given value.
package visibility

// Evaluator determines whether a field should be visible based on a rule
// string and the current form context.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values is the current values tree;
// Extras carries caller-supplied facts such as user roles, reachable from
// rules under the "extras." prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}
