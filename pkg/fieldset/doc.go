// Package fieldset loads field lists from YAML or JSON documents and binds
// their named option sources to fetchers. A handful of entity forms (budget,
// payment, invoice, hub) ship embedded for previews and tests.
package fieldset
