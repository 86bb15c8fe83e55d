// Package template wraps pongo2 behind a small engine contract so renderers
// load templates from embedded or on-disk sets and share filters.
package template
