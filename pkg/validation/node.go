package validation

import (
	"github.com/goliatone/go-opsforms/pkg/fieldpath"
)

// Node types used by the builders and adapters.
const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeArray   = "array"
	TypeMixed   = "mixed"
)

// Node is a walkable schema tree node. Object nodes expose named children,
// array nodes expose their item schema under every numeric segment.
type Node struct {
	Type   string
	rules  []Rule
	fields map[string]*Node
	order  []string
	items  *Node
}

var (
	_ fieldpath.Walker = (*Node)(nil)
	_ RuleLister       = (*Node)(nil)
)

// Object starts an object node.
func Object() *Node { return &Node{Type: TypeObject} }

// String starts a string node.
func String() *Node { return &Node{Type: TypeString} }

// Number starts a number node.
func Number() *Node { return &Node{Type: TypeNumber} }

// Boolean starts a boolean node.
func Boolean() *Node { return &Node{Type: TypeBoolean} }

// Date starts a date node.
func Date() *Node { return &Node{Type: TypeDate} }

// Mixed starts an untyped node.
func Mixed() *Node { return &Node{Type: TypeMixed} }

// Array starts an array node whose elements follow items.
func Array(items *Node) *Node { return &Node{Type: TypeArray, items: items} }

// Field attaches a named child. Re-attaching a name replaces the child but
// keeps its original position.
func (n *Node) Field(name string, child *Node) *Node {
	if n.fields == nil {
		n.fields = make(map[string]*Node)
	}
	if _, exists := n.fields[name]; !exists {
		n.order = append(n.order, name)
	}
	n.fields[name] = child
	return n
}

// Rule appends a named rule.
func (n *Node) Rule(name string, args ...any) *Node {
	n.rules = append(n.rules, Rule{Name: name, Args: args})
	return n
}

// Required appends the "required" rule.
func (n *Node) Required() *Node {
	if n.Has(RuleRequired) {
		return n
	}
	return n.Rule(RuleRequired)
}

// Optional drops any "required" rule.
func (n *Node) Optional() *Node {
	kept := n.rules[:0]
	for _, rule := range n.rules {
		if rule.Name != RuleRequired {
			kept = append(kept, rule)
		}
	}
	n.rules = kept
	return n
}

// Min appends a "min" rule.
func (n *Node) Min(v float64) *Node { return n.Rule("min", v) }

// Max appends a "max" rule.
func (n *Node) Max(v float64) *Node { return n.Rule("max", v) }

// Matches appends a "matches" rule.
func (n *Node) Matches(pattern string) *Node { return n.Rule("matches", pattern) }

// OneOf appends a "oneOf" rule.
func (n *Node) OneOf(values ...any) *Node { return n.Rule("oneOf", values...) }

// Has reports whether a rule with name is declared.
func (n *Node) Has(name string) bool {
	if n == nil {
		return false
	}
	for _, rule := range n.rules {
		if rule.Name == name {
			return true
		}
	}
	return false
}

// Rules implements RuleLister.
func (n *Node) Rules() []Rule {
	if n == nil {
		return nil
	}
	return append([]Rule(nil), n.rules...)
}

// Child implements fieldpath.Walker.
func (n *Node) Child(segment string) (any, bool) {
	if n == nil {
		return nil, false
	}
	if child, ok := n.fields[segment]; ok && child != nil {
		return child, true
	}
	if n.items != nil && fieldpath.IsIndex(segment) {
		return n.items, true
	}
	return nil, false
}

// Fields lists child names in the order they were attached.
func (n *Node) Fields() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.order...)
}

// Items returns the element schema of an array node.
func (n *Node) Items() *Node {
	if n == nil {
		return nil
	}
	return n.items
}
