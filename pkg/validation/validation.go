// Package validation answers "is this field required?" by reading an external
// validation schema. The package never validates data on behalf of the form
// engine; it only inspects the rules a schema declares. Adapters turn rule
// trees built in Go, OpenAPI component schemas and validator struct tags into
// the same walkable Node shape.
package validation

import (
	"strings"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
)

// RuleRequired is the rule name the default predicate looks for.
const RuleRequired = "required"

// Schema is any tree the path resolver can walk: *Node values, generic
// map[string]any trees or custom fieldpath.Walker implementations.
type Schema = any

// Rule is a named constraint declared on a schema node.
type Rule struct {
	Name string `json:"name" yaml:"name"`
	Args []any  `json:"args,omitempty" yaml:"args,omitempty"`
}

// RuleLister exposes the rules declared on a schema node.
type RuleLister interface {
	Rules() []Rule
}

// RequiredPredicate decides whether a resolved schema node marks its field as
// required. Schema libraries with other naming conventions plug in their own.
type RequiredPredicate func(node any) bool

// Option configures an Introspector.
type Option func(*Introspector)

// WithPredicate replaces the required predicate.
func WithPredicate(predicate RequiredPredicate) Option {
	return func(i *Introspector) {
		if predicate != nil {
			i.predicate = predicate
		}
	}
}

// WithRequiredRule makes the default predicate match a different rule name
// (e.g. "notEmpty").
func WithRequiredRule(name string) Option {
	return func(i *Introspector) {
		name = strings.TrimSpace(name)
		if name != "" {
			i.predicate = RuleNamed(name)
		}
	}
}

// Introspector locates sub-schemas by field path and applies its predicate.
type Introspector struct {
	predicate RequiredPredicate
}

// NewIntrospector builds an Introspector. Without options it looks for a rule
// named "required".
func NewIntrospector(opts ...Option) *Introspector {
	i := &Introspector{predicate: RuleNamed(RuleRequired)}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// IsRequired reports whether schema declares a required rule at name. A nil
// schema or an unresolvable path yields false.
func (i *Introspector) IsRequired(schema Schema, name string) bool {
	if schema == nil {
		return false
	}
	node, ok := fieldpath.Resolve(schema, name)
	if !ok || node == nil {
		return false
	}
	predicate := RuleNamed(RuleRequired)
	if i != nil && i.predicate != nil {
		predicate = i.predicate
	}
	return predicate(node)
}

var defaultIntrospector = NewIntrospector()

// IsRequired uses the default "required" rule convention.
func IsRequired(schema Schema, name string) bool {
	return defaultIntrospector.IsRequired(schema, name)
}

// RuleNamed returns a predicate matching nodes that declare a rule with the
// given name.
func RuleNamed(name string) RequiredPredicate {
	return func(node any) bool {
		for _, rule := range RulesOf(node) {
			if rule.Name == name {
				return true
			}
		}
		return false
	}
}

// RulesOf extracts the declared rules of a node. Besides RuleLister it reads
// generic trees where a node carries a "rules" list of names or
// {"name": ...} objects.
func RulesOf(node any) []Rule {
	switch typed := node.(type) {
	case RuleLister:
		return typed.Rules()
	case map[string]any:
		return rulesFromList(typed["rules"])
	}
	return nil
}

func rulesFromList(raw any) []Rule {
	var items []any
	switch typed := raw.(type) {
	case []any:
		items = typed
	case []string:
		for _, name := range typed {
			items = append(items, name)
		}
	case []Rule:
		return typed
	default:
		return nil
	}

	rules := make([]Rule, 0, len(items))
	for _, item := range items {
		switch entry := item.(type) {
		case string:
			rules = append(rules, Rule{Name: entry})
		case Rule:
			rules = append(rules, entry)
		case map[string]any:
			name, _ := entry["name"].(string)
			if name == "" {
				continue
			}
			rule := Rule{Name: name}
			if args, ok := entry["args"].([]any); ok {
				rule.Args = args
			}
			rules = append(rules, rule)
		}
	}
	return rules
}
