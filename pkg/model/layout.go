package model

import "sort"

// GridColumns is the width of the responsive grid every form is laid out in.
const GridColumns = 12

// Breakpoint names understood by the renderers, narrowest first.
const (
	BreakpointXS = "xs"
	BreakpointSM = "sm"
	BreakpointMD = "md"
	BreakpointLG = "lg"
	BreakpointXL = "xl"
)

var breakpointOrder = map[string]int{
	BreakpointXS: 0,
	BreakpointSM: 1,
	BreakpointMD: 2,
	BreakpointLG: 3,
	BreakpointXL: 4,
}

// Layout carries responsive column hints for a field slot.
type Layout struct {
	// Span is the base column span (all breakpoints). Zero means full width.
	Span int `json:"span,omitempty" yaml:"span,omitempty"`
	// Breakpoints overrides Span from the named breakpoint upwards.
	Breakpoints map[string]int `json:"breakpoints,omitempty" yaml:"breakpoints,omitempty"`
}

// Normalized clamps spans into [1, GridColumns] and fills the base span.
func (l Layout) Normalized() Layout {
	out := Layout{Span: clampSpan(l.Span)}
	if len(l.Breakpoints) > 0 {
		out.Breakpoints = make(map[string]int, len(l.Breakpoints))
		for name, span := range l.Breakpoints {
			out.Breakpoints[name] = clampSpan(span)
		}
	}
	return out
}

// SortedBreakpoints lists breakpoint names narrowest first. Unknown names sort
// after the known ones, alphabetically.
func (l Layout) SortedBreakpoints() []string {
	names := make([]string, 0, len(l.Breakpoints))
	for name := range l.Breakpoints {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iKnown := breakpointOrder[names[i]]
		oj, jKnown := breakpointOrder[names[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		}
		return names[i] < names[j]
	})
	return names
}

func clampSpan(span int) int {
	if span <= 0 || span > GridColumns {
		return GridColumns
	}
	return span
}
