package form

import (
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/state"
	"github.com/goliatone/go-opsforms/pkg/widgets"
)

// Grid is the built form: slots in declared order inside a responsive grid.
type Grid struct {
	Columns int
	Slots   []Slot
	// Accessor is the state the widgets write through.
	Accessor state.Accessor
}

// Slot is one grid cell: a widget, or a section holding child slots.
type Slot struct {
	Path   string
	Layout model.Layout
	// Hidden slots take no layout space but stay wired to values and errors.
	Hidden bool

	Widget widgets.Widget

	Section  bool
	Title    string
	Children []Slot
}

// Widgets lists every widget, hidden ones included, depth first.
func (g Grid) Widgets() []widgets.Widget {
	var out []widgets.Widget
	walkSlots(g.Slots, func(slot Slot) {
		if !slot.Section {
			out = append(out, slot.Widget)
		}
	})
	return out
}

// Find returns the widget slot at path.
func (g Grid) Find(path string) (Slot, bool) {
	var (
		found Slot
		ok    bool
	)
	walkSlots(g.Slots, func(slot Slot) {
		if !ok && !slot.Section && slot.Path == path {
			found, ok = slot, true
		}
	})
	return found, ok
}

// Close stops background work owned by select-search widgets. Only needed
// when the grid was built without Props.Locals.
func (g Grid) Close() {
	for _, widget := range g.Widgets() {
		if widget.Search != nil {
			widget.Search.Close()
		}
	}
}

func walkSlots(slots []Slot, visit func(Slot)) {
	for _, slot := range slots {
		visit(slot)
		if slot.Section {
			walkSlots(slot.Children, visit)
		}
	}
}
