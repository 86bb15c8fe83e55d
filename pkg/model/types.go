package model

import (
	"context"
	"strings"
)

// Kind enumerates the widget kinds the dispatcher knows how to build.
type Kind string

const (
	KindText         Kind = "text"
	KindNumber       Kind = "number"
	KindPhone        Kind = "phone"
	KindDate         Kind = "date"
	KindFile         Kind = "file"
	KindSelect       Kind = "select"
	KindSelectSearch Kind = "select-search"
	KindCheckbox     Kind = "checkbox"
	KindTextarea     Kind = "textarea"
)

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindText,
		KindNumber,
		KindPhone,
		KindDate,
		KindFile,
		KindSelect,
		KindSelectSearch,
		KindCheckbox,
		KindTextarea,
	}
}

// Known reports whether k is one of the enumerated kinds.
func (k Kind) Known() bool {
	for _, candidate := range Kinds() {
		if candidate == k {
			return true
		}
	}
	return false
}

// Normalize lowercases and trims the kind. Aliases used by older field lists
// ("select_search", "searchable-select", "tel", "bool") map onto the canonical
// names.
func (k Kind) Normalize() Kind {
	raw := strings.ToLower(strings.TrimSpace(string(k)))
	switch raw {
	case "select_search", "selectsearch", "searchable-select", "search-select":
		return KindSelectSearch
	case "tel":
		return KindPhone
	case "bool", "boolean":
		return KindCheckbox
	case "":
		return KindText
	}
	return Kind(raw)
}

// Option is a selectable value for select-like kinds.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FetchRequest describes one page of remote options.
type FetchRequest struct {
	Search   string
	Filters  map[string]any
	Page     int
	PageSize int
	// Value carries the currently bound value so the backend can return the
	// matching option (label resolution for an already-selected id).
	Value any
	// OnPartial, when set, receives options as soon as the fetcher has them,
	// before the page completes.
	OnPartial func([]Option)
}

// FetchResult is one page of remote options.
type FetchResult struct {
	Data    []Option `json:"data"`
	HasMore bool     `json:"hasMore"`
	Total   int      `json:"total,omitempty"`
}

// OptionsFetcher loads paginated options for select-search fields. Any entity
// service with this shape can back a searchable select.
type OptionsFetcher func(ctx context.Context, req FetchRequest) (FetchResult, error)

// FieldConfig describes one form input.
type FieldConfig struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Kind  Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Default seeds the initial values when no record is loaded.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`

	Options        []Option       `json:"options,omitempty" yaml:"options,omitempty"`
	OptionsFetcher OptionsFetcher `json:"-" yaml:"-"`
	// OptionsSource names a fetcher or option list bound when loading field
	// lists from files.
	OptionsSource string         `json:"optionsSource,omitempty" yaml:"optionsSource,omitempty"`
	Filters       map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"`
	PageSize      int            `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`

	// Required and Visible override the derived values when non-nil.
	Required *bool `json:"required,omitempty" yaml:"required,omitempty"`
	Visible  *bool `json:"visible,omitempty" yaml:"visible,omitempty"`
	// VisibleWhen is an expression evaluated against the current values.
	VisibleWhen string `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	Disabled    bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Layout      Layout `json:"layout,omitempty" yaml:"layout,omitempty"`

	// Number settings.
	DecimalPlaces int      `json:"decimalPlaces,omitempty" yaml:"decimalPlaces,omitempty"`
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// File settings.
	Accept   string `json:"accept,omitempty" yaml:"accept,omitempty"`
	Multiple bool   `json:"multiple,omitempty" yaml:"multiple,omitempty"`

	// Textarea settings.
	Rows int `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Fields nests child configurations. Child names are joined to the parent
	// name; a parent without a name is a layout-only section.
	Fields []FieldConfig `json:"fields,omitempty" yaml:"fields,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsSection reports whether the configuration groups nested fields rather than
// editing a value itself.
func (f FieldConfig) IsSection() bool {
	return len(f.Fields) > 0
}

// Bool is a small helper for the optional override pointers.
func Bool(v bool) *bool {
	return &v
}

// Float is a small helper for the optional number bounds.
func Float(v float64) *float64 {
	return &v
}
