package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm     ChromeClass = "opsforms-form"
	ClassHeader   ChromeClass = "opsforms-header"
	ClassSection  ChromeClass = "opsforms-section"
	ClassField    ChromeClass = "opsforms-field"
	ClassActions  ChromeClass = "opsforms-actions"
	ClassErrors   ChromeClass = "opsforms-errors"
	ClassGrid     ChromeClass = "opsforms-grid"
	ClassRequired ChromeClass = "opsforms-required"
	ClassHelp     ChromeClass = "opsforms-help"
	ClassInvalid  ChromeClass = "opsforms-invalid"
	// ClassHidden marks slots that take no layout space but stay in the
	// submitted form.
	ClassHidden ChromeClass = "opsforms-hidden"
)

// ChromeClasses overrides the class applied to each chrome element. Empty
// values fall back to the defaults above.
type ChromeClasses struct {
	Form    string
	Header  string
	Section string
	Field   string
	Actions string
	Errors  string
	Grid    string
}

func (c ChromeClasses) withDefaults() ChromeClasses {
	pick := func(value string, fallback ChromeClass) string {
		if value = sanitizeClassList(value); value != "" {
			return value
		}
		return string(fallback)
	}
	return ChromeClasses{
		Form:    pick(c.Form, ClassForm),
		Header:  pick(c.Header, ClassHeader),
		Section: pick(c.Section, ClassSection),
		Field:   pick(c.Field, ClassField),
		Actions: pick(c.Actions, ClassActions),
		Errors:  pick(c.Errors, ClassErrors),
		Grid:    pick(c.Grid, ClassGrid),
	}
}
