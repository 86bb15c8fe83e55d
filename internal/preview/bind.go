package preview

import (
	"sort"

	"github.com/goliatone/go-opsforms/components/refdata"
	"github.com/goliatone/go-opsforms/pkg/fieldset"
	"github.com/goliatone/go-opsforms/pkg/model"
)

// Bind resolves the document's option sources. Sources whose endpoint names
// a catalog of refs are served in process; the rest fall back to the
// binder's own resolution (inline lists, HTTP against a base URL).
func Bind(doc *fieldset.Document, refs *refdata.Component, opts ...fieldset.BinderOption) ([]model.FieldConfig, error) {
	binderOpts := append([]fieldset.BinderOption(nil), opts...)
	if doc != nil && refs != nil {
		names := make([]string, 0, len(doc.Sources))
		for name := range doc.Sources {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if fetcher, ok := refs.FetcherForEndpoint(doc.Sources[name].Endpoint); ok {
				binderOpts = append(binderOpts, fieldset.WithFetcher(name, fetcher))
			}
		}
	}
	return fieldset.NewBinder(binderOpts...).Bind(doc)
}
