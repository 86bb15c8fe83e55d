package values

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
	"github.com/goliatone/go-opsforms/pkg/model"
)

func budgetFields() []model.FieldConfig {
	return []model.FieldConfig{
		{Name: "period", Kind: model.KindDate, Default: ""},
		{Name: "amount", Kind: model.KindNumber, Default: 0.0, DecimalPlaces: 2},
		{Name: "hub.name", Kind: model.KindText, Default: ""},
		{Name: "hub.code", Kind: model.KindText, Default: "HQ"},
		{Name: "tags", Kind: model.KindSelect, Default: []any{"grain"}},
		{Name: "memo", Kind: model.KindTextarea},
		{Fields: []model.FieldConfig{
			{Name: "approved", Kind: model.KindCheckbox, Default: false},
		}},
	}
}

func TestInitialValues_MergesSharedPrefixes(t *testing.T) {
	got := InitialValues(budgetFields())
	want := map[string]any{
		"period":   "",
		"amount":   0.0,
		"hub":      map[string]any{"name": "", "code": "HQ"},
		"tags":     []any{"grain"},
		"memo":     nil,
		"approved": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("initial values mismatch (-want +got):\n%s", diff)
	}
}

func TestInitialValues_DefaultResolvesAtEveryPath(t *testing.T) {
	fields := budgetFields()
	initial := InitialValues(fields)
	for _, field := range model.Leaves(fields) {
		got, ok := fieldpath.Resolve(initial, field.Name)
		if !ok {
			t.Fatalf("path %q missing from initial values", field.Name)
		}
		if diff := cmp.Diff(field.Default, got); diff != "" {
			t.Fatalf("default mismatch at %q (-want +got):\n%s", field.Name, diff)
		}
	}
}

func TestInitialValues_DefaultsAreNotAliased(t *testing.T) {
	fields := budgetFields()
	initial := InitialValues(fields)
	initial["tags"].([]any)[0] = "changed"
	if fields[4].Default.([]any)[0] != "grain" {
		t.Fatalf("initial values alias the field default")
	}
}

func TestPatch_RecordWinsWhereResolvable(t *testing.T) {
	record := map[string]any{
		"hub":    map[string]any{"name": "Central"},
		"amount": 1500.25,
		"memo":   nil,
		"extra":  "ignored",
	}
	got := Patch(budgetFields())(record)
	want := map[string]any{
		"period":   "",
		"amount":   1500.25,
		"hub":      map[string]any{"name": "Central", "code": "HQ"},
		"tags":     []any{"grain"},
		"memo":     nil,
		"approved": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestPatch_ExplicitNilOverridesDefault(t *testing.T) {
	fields := []model.FieldConfig{{Name: "hub.code", Default: "HQ"}}
	got := Patch(fields)(map[string]any{"hub": map[string]any{"code": nil}})
	if value, ok := fieldpath.Resolve(got, "hub.code"); !ok || value != nil {
		t.Fatalf("expected explicit nil to win, got %v (ok=%v)", value, ok)
	}
}

func TestPatch_Idempotent(t *testing.T) {
	patch := Patch(budgetFields())
	records := []any{
		nil,
		map[string]any{},
		map[string]any{"hub": map[string]any{"name": "Central"}},
		map[string]any{"hub": nil, "amount": 10.0, "tags": []any{}},
	}
	for _, record := range records {
		once := patch(record)
		twice := patch(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("patch not idempotent for %v (-once +twice):\n%s", record, diff)
		}
	}
}

type hubRecord struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type budgetRecord struct {
	Period string     `json:"period"`
	Amount float64    `json:"amount"`
	Hub    *hubRecord `json:"hub,omitempty"`
}

func TestPatch_TypedRecord(t *testing.T) {
	got := Patch(budgetFields())(&budgetRecord{Period: "2024-03-01", Amount: 12, Hub: &hubRecord{Name: "Central", Code: "C"}})
	if got["period"] != "2024-03-01" || got["amount"] != 12.0 {
		t.Fatalf("unexpected scalar values: %#v", got)
	}
	if name := fieldpath.Get(got, "hub.name"); name != "Central" {
		t.Fatalf("expected hub.name Central, got %v", name)
	}
	if tags := fieldpath.Get(got, "tags"); tags == nil {
		t.Fatalf("expected default tags to survive")
	}
}

func TestPatch_ScenarioNestedText(t *testing.T) {
	fields := []model.FieldConfig{{Name: "hub.name", Kind: model.KindText, Default: ""}}
	got := Patch(fields)(map[string]any{"hub": map[string]any{"name": "Central"}})
	if name := fieldpath.Get(got, "hub.name"); name != "Central" {
		t.Fatalf("expected Central, got %v", name)
	}
}
