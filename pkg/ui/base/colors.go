package base

import "github.com/charmbracelet/lipgloss"

// Theme assigns colors to the roles the plan viewer draws.
type Theme struct {
	// Chrome
	Frame   lipgloss.Color
	Result  lipgloss.Color
	Failure lipgloss.Color
	Dim     lipgloss.Color

	// Typing mode badges
	Permissive lipgloss.Color
	Strict     lipgloss.Color

	// Plan documents
	Key      lipgloss.Color
	Op       lipgloss.Color
	Operator lipgloss.Color
	String   lipgloss.Color
	Number   lipgloss.Color
	Comment  lipgloss.Color
}

// Night is the default theme, tuned for dark terminals.
var Night = Theme{
	Frame:   lipgloss.Color("#7C3AED"),
	Result:  lipgloss.Color("#10B981"),
	Failure: lipgloss.Color("#EF4444"),
	Dim:     lipgloss.Color("#94A3B8"),

	Permissive: lipgloss.Color("#06B6D4"),
	Strict:     lipgloss.Color("#F59E0B"),

	Key:      lipgloss.Color("#FF79C6"),
	Op:       lipgloss.Color("#8BE9FD"),
	Operator: lipgloss.Color("#FFB86C"),
	String:   lipgloss.Color("#F1FA8C"),
	Number:   lipgloss.Color("#BD93F9"),
	Comment:  lipgloss.Color("#6272A4"),
}

// ModeColor returns the badge color for a typing mode.
func (t Theme) ModeColor(strict bool) lipgloss.Color {
	if strict {
		return t.Strict
	}
	return t.Permissive
}
