package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles applied to prompt text and messages.
type Theme struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Label    lipgloss.Style
	Required lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style

	RequiredMarker string
	ErrorPrefix    string
}

// DefaultTheme is the colored theme used on terminals.
func DefaultTheme() Theme {
	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3F6212")).
			Padding(0, 1),
		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#65A30D")),
		Label: lipgloss.NewStyle(),
		Required: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DC2626")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")),
		RequiredMarker: "*",
		ErrorPrefix:    "✗ ",
	}
}

// PlainTheme renders text without styling, for pipes and tests.
func PlainTheme() Theme {
	return Theme{
		Title:          lipgloss.NewStyle(),
		Section:        lipgloss.NewStyle(),
		Label:          lipgloss.NewStyle(),
		Required:       lipgloss.NewStyle(),
		Error:          lipgloss.NewStyle(),
		Muted:          lipgloss.NewStyle(),
		RequiredMarker: "*",
		ErrorPrefix:    "! ",
	}
}

func (t Theme) label(text string, required bool) string {
	out := t.Label.Render(text)
	if required && t.RequiredMarker != "" {
		out += " " + t.Required.Render(t.RequiredMarker)
	}
	return out
}

func (t Theme) errorLine(text string) string {
	return t.Error.Render(t.ErrorPrefix + text)
}
