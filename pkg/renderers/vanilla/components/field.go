package components

// Field is the template view of one widget. Label and Help hold sanitized
// HTML; every other string is escaped by the template engine.
type Field struct {
	Kind        string
	Name        string
	ID          string
	Label       string
	Help        string
	Placeholder string
	Value       string
	Required    bool
	Disabled    bool
	Invalid     bool
	Error       string
	Attrs       []Attr
	Options     []Option
	Search      *Search
	Preview     string
	Files       []string
}

// Attr is one extra HTML attribute, emitted in name order.
type Attr struct {
	Name  string
	Value string
}

// Option is one <option> of a select.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Search carries the select-search machine state at render time.
type Search struct {
	Query    string
	Status   string
	PageSize int
	HasMore  bool
	Total    int
	Failed   bool
}
