package fieldpath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_NestedMapsAndLists(t *testing.T) {
	root := map[string]any{
		"hub": map[string]any{"name": "Central"},
		"items": []any{
			map[string]any{"qty": 4},
			map[string]any{"qty": 9},
		},
	}

	cases := []struct {
		path  string
		want  any
		found bool
	}{
		{path: "hub.name", want: "Central", found: true},
		{path: "items.1.qty", want: 9, found: true},
		{path: "items.2.qty", found: false},
		{path: "hub.code", found: false},
		{path: "hub..name", found: false},
		{path: ".hub", found: false},
		{path: "hub.", found: false},
		{path: "", found: false},
		{path: "hub.name.first", found: false},
	}

	for _, tc := range cases {
		got, ok := Resolve(root, tc.path)
		if ok != tc.found {
			t.Fatalf("Resolve(%q) found=%v, want %v", tc.path, ok, tc.found)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("Resolve(%q) mismatch (-want +got):\n%s", tc.path, diff)
		}
	}
}

func TestResolve_NilIntermediateShortCircuits(t *testing.T) {
	root := map[string]any{"hub": nil}
	if value, ok := Resolve(root, "hub.name"); ok || value != nil {
		t.Fatalf("expected miss through nil intermediate, got %v (ok=%v)", value, ok)
	}
	if _, ok := Resolve(nil, "anything"); ok {
		t.Fatalf("expected miss on nil root")
	}
}

func TestResolve_ExplicitNilLeafIsPresent(t *testing.T) {
	root := map[string]any{"memo": nil}
	if !Exists(root, "memo") {
		t.Fatalf("expected explicit nil leaf to exist")
	}
}

type schemaNode struct {
	children map[string]*schemaNode
	label    string
}

func (n *schemaNode) Child(segment string) (any, bool) {
	child, ok := n.children[segment]
	if !ok {
		return nil, false
	}
	return child, true
}

func TestResolve_Walker(t *testing.T) {
	root := &schemaNode{children: map[string]*schemaNode{
		"period": {label: "period"},
	}}
	got, ok := Resolve(root, "period")
	if !ok {
		t.Fatalf("expected walker child to resolve")
	}
	if got.(*schemaNode).label != "period" {
		t.Fatalf("unexpected node %#v", got)
	}
	if _, ok := Resolve(root, "amount"); ok {
		t.Fatalf("expected missing walker child to miss")
	}
}

type payment struct {
	Amount float64  `json:"amount"`
	Hub    *hubRef  `json:"hub,omitempty"`
	Tags   []string `json:"tags"`
	Secret string   `json:"-"`
}

type hubRef struct {
	Name string `json:"name"`
}

func TestResolve_StructsViaReflection(t *testing.T) {
	record := payment{Amount: 12.5, Hub: &hubRef{Name: "North"}, Tags: []string{"a", "b"}, Secret: "x"}

	if got := Get(record, "hub.name"); got != "North" {
		t.Fatalf("expected hub.name North, got %v", got)
	}
	if got := Get(record, "tags.1"); got != "b" {
		t.Fatalf("expected tags.1 b, got %v", got)
	}
	if Exists(record, "Secret") || Exists(record, "secret") {
		t.Fatalf("json:\"-\" fields must not resolve")
	}
	if Exists(payment{}, "hub.name") {
		t.Fatalf("nil pointer intermediate must miss")
	}
}

func TestSet_CreatesContainersAndMerges(t *testing.T) {
	root := map[string]any{}
	mustSet(t, root, "hub.name", "Central")
	mustSet(t, root, "hub.code", "C1")
	mustSet(t, root, "lines.1.qty", 3)
	mustSet(t, root, "lines.0.qty", 2)

	want := map[string]any{
		"hub": map[string]any{"name": "Central", "code": "C1"},
		"lines": []any{
			map[string]any{"qty": 2},
			map[string]any{"qty": 3},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("Set mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_RejectsInvalidPaths(t *testing.T) {
	root := map[string]any{}
	if err := Set(root, "", 1); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
	if err := Set(root, "a..b", 1); !errors.Is(err, ErrEmptySegment) {
		t.Fatalf("expected ErrEmptySegment, got %v", err)
	}
	if err := Set(nil, "a", 1); !errors.Is(err, ErrNilRoot) {
		t.Fatalf("expected ErrNilRoot, got %v", err)
	}
}

func TestSet_CapsListIndex(t *testing.T) {
	root := map[string]any{}
	if err := Set(root, "lines.1000000000.qty", 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, ok := root["lines"]; ok {
		t.Fatalf("rejected write must leave root untouched, got %#v", root["lines"])
	}

	mustSet(t, root, "lines.9999", "last")
	lines, ok := root["lines"].([]any)
	if !ok || len(lines) != MaxIndex+1 {
		t.Fatalf("expected %d slots, got %#v", MaxIndex+1, root["lines"])
	}
}

func TestSetThenResolveRoundTrip(t *testing.T) {
	paths := map[string]any{
		"amount":          0.0,
		"hub.name":        "",
		"hub.address.zip": "1000",
		"tags.0":          "grain",
		"lines.2.price":   14.25,
	}
	root := map[string]any{}
	for path, value := range paths {
		mustSet(t, root, path, value)
	}
	for path, want := range paths {
		got, ok := Resolve(root, path)
		if !ok || got != want {
			t.Fatalf("Resolve(%q) = %v (ok=%v), want %v", path, got, ok, want)
		}
	}
}

func TestDelete(t *testing.T) {
	root := map[string]any{"hub": map[string]any{"name": "x", "code": "y"}}
	Delete(root, "hub.name")
	Delete(root, "missing.path")
	want := map[string]any{"hub": map[string]any{"code": "y"}}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("Delete mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	src := map[string]any{"hub": map[string]any{"name": "a"}, "tags": []any{"x"}}
	clone := CloneMap(src)
	clone["hub"].(map[string]any)["name"] = "b"
	clone["tags"].([]any)[0] = "y"
	if src["hub"].(map[string]any)["name"] != "a" || src["tags"].([]any)[0] != "x" {
		t.Fatalf("clone aliases source: %#v", src)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[string]any{
		"hub":   map[string]any{"name": "a"},
		"lines": []any{map[string]any{"qty": 1}},
		"empty": map[string]any{},
	})
	want := map[string]any{
		"hub.name":    "a",
		"lines.0.qty": 1,
		"empty":       map[string]any{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func mustSet(t *testing.T, root map[string]any, path string, value any) {
	t.Helper()
	if err := Set(root, path, value); err != nil {
		t.Fatalf("Set(%q): %v", path, err)
	}
}
