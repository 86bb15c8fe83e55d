package model

import (
	"regexp"
	"strings"
)

var wordSeparators = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabeler turns a field path into a display label. Only the last
// non-index segment is used, a trailing "id" word is dropped ("hub_id" →
// "Hub") and camelCase boundaries become spaces ("grainType" → "Grain Type").
func DefaultLabeler(name string) string {
	segment := lastNamedSegment(name)
	if segment == "" {
		return ""
	}

	var words []string
	for _, chunk := range wordSeparators.Split(segment, -1) {
		if chunk == "" {
			continue
		}
		words = append(words, strings.Fields(splitCamel(chunk))...)
	}
	if len(words) > 1 && strings.EqualFold(words[len(words)-1], "id") {
		words = words[:len(words)-1]
	}
	for i, word := range words {
		words[i] = titleCase(word)
	}
	return strings.Join(words, " ")
}

// LabelFor returns the configured label or one derived from the name.
func LabelFor(field FieldConfig) string {
	if label := strings.TrimSpace(field.Label); label != "" {
		return label
	}
	return DefaultLabeler(field.Name)
}

func lastNamedSegment(name string) string {
	segments := strings.Split(strings.TrimSpace(name), ".")
	for i := len(segments) - 1; i >= 0; i-- {
		segment := segments[i]
		if segment == "" || isNumeric(segment) {
			continue
		}
		return segment
	}
	return ""
}

func splitCamel(input string) string {
	var out strings.Builder
	for i, r := range input {
		if i > 0 && isBoundary(input, i, r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func isBoundary(input string, index int, r rune) bool {
	prev := rune(input[index-1])
	return (isLower(prev) && isUpper(r)) || (isLetter(prev) && isDigit(r)) || (isDigit(prev) && isLetter(r))
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return s != ""
}

func isUpper(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return isUpper(r) || isLower(r) }

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
