package widgets

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// NumberInput is the local edit state of a number field. The raw float64 is
// what gets committed; the grouped display string is render-only.
type NumberInput struct {
	decimals int
	min      *float64
	max      *float64

	text  string
	value *float64
}

// NewNumberInput builds an input allowing up to decimals fractional digits
// (zero means integers only) within the optional bounds.
func NewNumberInput(decimals int, min, max *float64) *NumberInput {
	if decimals < 0 {
		decimals = 0
	}
	return &NumberInput{decimals: decimals, min: min, max: max}
}

// Sync aligns the input with the value held in form state. Values that
// cannot be read as numbers clear the input; a nil value leaves pending
// intermediate text alone.
func (n *NumberInput) Sync(raw any) {
	value, ok := toFloat(raw)
	if !ok {
		if raw == nil && n.value == nil {
			// keep intermediate text such as "-"
			return
		}
		n.value = nil
		n.text = ""
		return
	}
	if n.value != nil && *n.value == value {
		return
	}
	n.value = &value
	n.text = strconv.FormatFloat(value, 'f', -1, 64)
}

// Input applies an edit. Thousands separators and spaces are stripped. The
// edit is rejected (false, state untouched) when it has a second decimal
// point, more fractional digits than allowed, a non-digit, or a value outside
// [min, max]. Intermediate text such as "-" or "12." is accepted.
func (n *NumberInput) Input(text string) bool {
	clean := StripNumber(text)
	if clean == "" {
		n.text = ""
		n.value = nil
		return true
	}

	digits := strings.TrimPrefix(clean, "-")
	if strings.Count(digits, ".") > 1 || strings.Contains(digits, "-") {
		return false
	}
	whole, frac, hasPoint := strings.Cut(digits, ".")
	if hasPoint && n.decimals == 0 {
		return false
	}
	if len(frac) > n.decimals {
		return false
	}
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	if strings.HasPrefix(clean, "-") && n.min != nil && *n.min >= 0 {
		return false
	}

	if whole == "" && frac == "" {
		// "-" or "." on its own
		n.text = clean
		n.value = nil
		return true
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(value, 0) {
		return false
	}
	if n.min != nil && value < *n.min {
		return false
	}
	if n.max != nil && value > *n.max {
		return false
	}
	n.text = clean
	n.value = &value
	return true
}

// Value returns the committed raw value, or nil when the input is empty.
func (n *NumberInput) Value() any {
	if n.value == nil {
		return nil
	}
	return *n.value
}

// Text returns the unformatted edit text.
func (n *NumberInput) Text() string {
	return n.text
}

// Display returns the grouped, fixed-decimal form of the value.
func (n *NumberInput) Display() string {
	if n.value == nil {
		return n.text
	}
	return FormatNumber(*n.value, n.decimals)
}

// Decimals returns the configured fractional digit count.
func (n *NumberInput) Decimals() int {
	return n.decimals
}

// FormatNumber groups thousands with commas and pads to decimals fractional
// digits: FormatNumber(1234.5, 2) == "1,234.50".
func FormatNumber(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}
	formatted := strconv.FormatFloat(math.Abs(value), 'f', decimals, 64)
	whole, frac, _ := strings.Cut(formatted, ".")

	grouped := whole
	if parsed, err := strconv.ParseInt(whole, 10, 64); err == nil {
		grouped = humanize.Comma(parsed)
	}

	sign := ""
	if value < 0 && strings.Trim(formatted, "0.") != "" {
		sign = "-"
	}
	if frac == "" {
		return sign + grouped
	}
	return sign + grouped + "." + frac
}

// StripNumber removes grouping separators and whitespace.
func StripNumber(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '_':
			return -1
		}
		return r
	}, strings.TrimSpace(text))
}

// ParseNumber strips separators and parses the result.
func ParseNumber(text string) (float64, error) {
	clean := StripNumber(text)
	if clean == "" {
		return 0, fmt.Errorf("widgets: empty number")
	}
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("widgets: parse number %q: %w", text, err)
	}
	return value, nil
}

func toFloat(raw any) (float64, bool) {
	switch typed := raw.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case string:
		value, err := ParseNumber(typed)
		return value, err == nil
	}
	return 0, false
}
