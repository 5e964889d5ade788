package ui

import (
	"pqleval/pkg/ui/base"

	"github.com/charmbracelet/lipgloss"
)

var theme = base.Night

var (
	primaryColor   = theme.Frame
	secondaryColor = theme.Permissive
	accentColor    = theme.Result
	errorColor     = theme.Failure
	textMuted      = theme.Dim

	bgDark   = lipgloss.Color("#0F172A")
	bgMedium = lipgloss.Color("#1E293B")
	bgLight  = lipgloss.Color("#334155")

	textPrimary   = lipgloss.Color("#F8FAFC")
	textSecondary = lipgloss.Color("#CBD5E1")
)

var (
	appStyle   = lipgloss.NewStyle().Background(bgDark).Foreground(textPrimary).Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Background(primaryColor).Foreground(textPrimary).Bold(true).Padding(0, 2).MarginBottom(1)

	// badge is the shape shared by the mode, result and error labels.
	badge = lipgloss.NewStyle().Foreground(bgDark).Bold(true).Padding(0, 1)

	successStyle = badge.Background(accentColor)
	errorStyle   = badge.Background(errorColor).Foreground(textPrimary)

	statusBarStyle = lipgloss.NewStyle().Background(bgMedium).Foreground(textSecondary).Padding(0, 1)
	editorStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(0, 1)
	resultStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(bgLight).Padding(1)
)

// ModeBadge renders the typing mode as a colored badge.
func ModeBadge(strict bool) string {
	label := "PERMISSIVE"
	if strict {
		label = "STRICT"
	}
	return badge.Background(theme.ModeColor(strict)).MarginRight(2).Render(label)
}

// ErrorLine renders err the way the error panel does, for batch output.
func ErrorLine(err error) string {
	return errorStyle.Render("ERROR") + " " + lipgloss.NewStyle().Foreground(errorColor).Render(err.Error())
}

// SuccessLine renders a labelled success message for batch output.
func SuccessLine(label, message string) string {
	return successStyle.Render(label) + " " + lipgloss.NewStyle().Foreground(accentColor).Render(message)
}
