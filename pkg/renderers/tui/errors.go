package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoAccessor is returned when the grid was not built against state.
	ErrNoAccessor = errors.New("tui: grid has no state accessor")

	errRequired = errors.New("tui: value required")
)
