// Package ui holds the terminal styles shared by the wizard and the check
// report.
package ui

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	colorPrimary   = lipgloss.Color("#0EA5E9") // Sky blue
	colorSuccess   = lipgloss.Color("#22C55E") // Green
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorError     = lipgloss.Color("#EF4444") // Red
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorHighlight = lipgloss.Color("#A855F7") // Purple
	colorDark      = lipgloss.Color("#1F2937")
	colorLight     = lipgloss.Color("#F9FAFB")
)

// Component styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	CodeStyle = lipgloss.NewStyle().
			Background(colorDark).
			Foreground(colorLight).
			Padding(0, 1)

	// BoxStyle frames the summary block of a report
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			MarginTop(1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1).
			MarginBottom(1)
)

// Prefixes for messages
const (
	SuccessPrefix = "✓ "
	ErrorPrefix   = "✗ "
	WarningPrefix = "! "
	InfoPrefix    = "→ "
)

// CreateTheme returns the huh theme used by the init wizard.
func CreateTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(colorPrimary)
	t.Focused.Description = t.Focused.Description.Foreground(colorMuted)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(colorHighlight)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(colorPrimary)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(colorPrimary)

	t.Blurred.Title = t.Blurred.Title.Foreground(colorMuted)

	return t
}

// RenderHeader renders a banner with title.
func RenderHeader(title string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(colorLight).
		Background(colorPrimary).
		Padding(0, 2).
		Render(" " + title + " ")
}

// RenderSection renders a section divider.
func RenderSection(title string) string {
	fill := 40 - len(title)
	if fill < 3 {
		fill = 3
	}
	return SectionStyle.Render("─── " + title + " " + strings.Repeat("─", fill))
}

// RenderSuccess renders a success message.
func RenderSuccess(msg string) string {
	return SuccessStyle.Render(SuccessPrefix + msg)
}

// RenderError renders an error message.
func RenderError(msg string) string {
	return ErrorStyle.Render(ErrorPrefix + msg)
}

// RenderWarning renders a warning message.
func RenderWarning(msg string) string {
	return WarningStyle.Render(WarningPrefix + msg)
}

// RenderInfo renders an info message.
func RenderInfo(msg string) string {
	return MutedStyle.Render(InfoPrefix + msg)
}

// RenderCode renders a code/command.
func RenderCode(code string) string {
	return CodeStyle.Render(code)
}
