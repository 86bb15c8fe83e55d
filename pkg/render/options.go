package render

import "strings"

// RenderOptions carry per-request data around the grid: where the form
// posts, its title and chrome, and form-level errors that map to no field.
type RenderOptions struct {
	Action string
	// Method defaults to POST. Verbs browsers cannot submit are sent as POST
	// with a hidden _method input.
	Method      string
	Title       string
	SubmitLabel string
	// Hidden inputs such as CSRF tokens. See MergeHiddenFields.
	Hidden map[string]string
	// FormErrors are shown above the grid.
	FormErrors []string
}

// ResolvedMethod returns the browser method and the override to send in a
// hidden _method input, if any.
func (o RenderOptions) ResolvedMethod() (method, override string) {
	method = strings.ToUpper(strings.TrimSpace(o.Method))
	switch method {
	case "", "POST":
		return "POST", ""
	case "GET":
		return "GET", ""
	}
	return "POST", method
}

// SubmitText returns the submit button label.
func (o RenderOptions) SubmitText() string {
	if label := strings.TrimSpace(o.SubmitLabel); label != "" {
		return label
	}
	return "Save"
}
