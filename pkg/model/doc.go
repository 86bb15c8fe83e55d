// Package model defines the declarative field configuration consumed by the
// form engine. A FieldConfig names a value path, the widget Kind that edits it,
// its default, static or remote options, layout hints and optional overrides
// for required-ness and visibility. Field lists are plain data: they are built
// once per form instance (typically after reference data such as hubs or grain
// types has been fetched) and are treated as immutable afterwards.
//
// Kind is a closed enumeration. Unknown kinds are tolerated by the widget
// dispatcher, which renders them as text inputs.
package model
