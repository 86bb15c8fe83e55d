package fieldset_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-opsforms/pkg/fieldset"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/values"
)

func findField(fields []model.FieldConfig, name string) (model.FieldConfig, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
		if found, ok := findField(field.Fields, name); ok {
			return found, true
		}
	}
	return model.FieldConfig{}, false
}

func TestBuiltinForms(t *testing.T) {
	assert.Equal(t, []string{"budget", "hub", "invoice", "payment"}, fieldset.BuiltinNames())

	for _, name := range fieldset.BuiltinNames() {
		doc, err := fieldset.Builtin(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, doc.Name)
		assert.NoError(t, model.Validate(doc.Fields), name)
	}

	_, err := fieldset.Builtin("payroll")
	require.Error(t, err)
}

func TestParseNormalizesYAMLScalars(t *testing.T) {
	doc, err := fieldset.Builtin("payment")
	require.NoError(t, err)

	amount, ok := findField(doc.Fields, "amount")
	require.True(t, ok)
	assert.Equal(t, model.KindNumber, amount.Kind)
	assert.Equal(t, float64(0), amount.Default)
	require.NotNil(t, amount.Min)
	assert.Equal(t, 0.0, *amount.Min)
	assert.Equal(t, 2, amount.DecimalPlaces)
	assert.Equal(t, map[string]int{model.BreakpointMD: 6}, amount.Layout.Breakpoints)

	cheque, _ := findField(doc.Fields, "cheque_number")
	assert.Equal(t, `method == "cheque"`, cheque.VisibleWhen)

	doc, err = fieldset.Parse([]byte(`
name: lots
fields:
  - name: lot
    kind: select_search
    optionsSource: lots
    filters: {hub: 7}
    default: 12
sources:
  lots:
    options:
      - {value: 12, label: Lot 12}
`))
	require.NoError(t, err)
	lot := doc.Fields[0]
	assert.Equal(t, model.KindSelectSearch, lot.Kind)
	assert.Equal(t, float64(12), lot.Default)
	assert.Equal(t, map[string]any{"hub": float64(7)}, lot.Filters)
	assert.Equal(t, []model.Option{{Value: float64(12), Label: "Lot 12"}}, doc.Sources["lots"].Options)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	_, err := fieldset.Parse([]byte(""))
	assert.ErrorIs(t, err, fieldset.ErrEmptyDocument)

	_, err = fieldset.Parse([]byte("name: x\nfields: []\n"))
	assert.ErrorIs(t, err, fieldset.ErrEmptyDocument)

	_, err = fieldset.Parse([]byte("name: x\nfields:\n  - name: a\n    colour: red\n"))
	assert.Error(t, err, "unknown keys must be rejected")

	_, err = fieldset.Parse([]byte("name: x\nfields:\n  - name: a\n  - name: a\n"))
	assert.ErrorIs(t, err, model.ErrDuplicateName)

	doc, err := fieldset.Parse([]byte(`{"name":"json","fields":[{"name":"hub.name","kind":"text","default":"Central"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Central", doc.Fields[0].Default)
}

func TestBindRegisteredFetchersAndInlineOptions(t *testing.T) {
	doc, err := fieldset.Builtin("payment")
	require.NoError(t, err)

	calls := 0
	hubs := func(context.Context, model.FetchRequest) (model.FetchResult, error) {
		calls++
		return model.FetchResult{Data: []model.Option{{Value: "h1", Label: "Central"}}}, nil
	}
	fields, err := fieldset.NewBinder(fieldset.WithFetcher("hubs", hubs)).Bind(doc)
	require.NoError(t, err)

	hub, _ := findField(fields, "hub_id")
	require.NotNil(t, hub.OptionsFetcher)
	_, err = hub.OptionsFetcher(context.Background(), model.FetchRequest{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "/refdata/hubs", hub.Metadata[fieldset.EndpointMetadataKey])

	method, _ := findField(fields, "method")
	assert.Nil(t, method.OptionsFetcher)
	assert.Len(t, method.Options, 3)

	original, _ := findField(doc.Fields, "method")
	assert.Empty(t, original.Options, "binding must not mutate the document")
	originalHub, _ := findField(doc.Fields, "hub_id")
	assert.Empty(t, originalHub.Metadata)
}

func TestBindStaticSourceForSelectSearch(t *testing.T) {
	doc, err := fieldset.Parse([]byte(`
name: crops
fields:
  - name: crop
    kind: select-search
    optionsSource: crops
sources:
  crops:
    options:
      - {value: maize, label: Maize}
      - {value: soy, label: Soybeans}
`))
	require.NoError(t, err)
	fields, err := fieldset.NewBinder().Bind(doc)
	require.NoError(t, err)

	res, err := fields[0].OptionsFetcher(context.Background(), model.FetchRequest{Search: "soy", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{Value: "soy", Label: "Soybeans"}}, res.Data)
}

func TestBindReportsUnknownSources(t *testing.T) {
	doc, err := fieldset.Builtin("budget")
	require.NoError(t, err)

	_, err = fieldset.NewBinder().Bind(doc)
	require.ErrorIs(t, err, fieldset.ErrUnknownSource)
	assert.Contains(t, err.Error(), "hub_id")
	assert.Contains(t, err.Error(), "plan.grain_type_id")
}

func TestBindEndpointAgainstBaseURL(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refdata/grain-types", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"value":"maize","label":"Maize"}],"hasMore":true,"total":4}`))
	}))
	defer srv.Close()

	doc, err := fieldset.Builtin("budget")
	require.NoError(t, err)
	fields, err := fieldset.NewBinder(fieldset.WithBaseURL(srv.URL + "/")).Bind(doc)
	require.NoError(t, err)

	grain, ok := findField(fields, "grain_type_id")
	require.True(t, ok)
	res, err := grain.OptionsFetcher(context.Background(), model.FetchRequest{Search: "ma", Page: 1, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{Value: "maize", Label: "Maize"}}, res.Data)
	assert.True(t, res.HasMore)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, "page=1&pageSize=5&q=ma", gotQuery)

	initial := values.InitialValues(fields)
	assert.Equal(t, map[string]any{"grain_type_id": nil, "tonnage": float64(0), "price_per_ton": float64(0)}, initial["plan"])
}

func TestLoaderSources(t *testing.T) {
	body := []byte("name: remote\nfields:\n  - name: code\n")

	dir := t.TempDir()
	path := filepath.Join(dir, "remote.yaml")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/remote.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	loader := fieldset.NewLoader(
		fieldset.WithFileSystem(fstest.MapFS{"custom/remote.yaml": {Data: body}}),
		fieldset.WithHTTPClient(srv.Client()),
	)
	ctx := context.Background()

	for _, src := range []fieldset.Source{
		fieldset.SourceFromFile(path),
		fieldset.SourceFromFS("custom/remote.yaml"),
		fieldset.SourceFromURL(srv.URL + "/forms/remote.yaml"),
	} {
		doc, err := loader.Load(ctx, src)
		require.NoError(t, err, src.Location())
		assert.Equal(t, "remote", doc.Name)
	}

	_, err := loader.Load(ctx, fieldset.SourceFromURL(srv.URL+"/missing.yaml"))
	assert.Error(t, err)

	_, err = fieldset.NewLoader().Load(ctx, fieldset.SourceFromURL(srv.URL+"/forms/remote.yaml"))
	assert.Error(t, err, "URL sources need a client")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = loader.Load(cancelled, fieldset.SourceFromFile(path))
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Panics(t, func() { fieldset.SourceFromURL("not a url") })
}
