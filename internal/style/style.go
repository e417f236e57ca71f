// Package style provides consistent terminal styling using Lipgloss.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Success style for positive outcomes
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")). // Green
		Bold(true)

	// Warning style for cautionary messages
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")). // Yellow
		Bold(true)

	// Error style for failures
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")). // Red
		Bold(true)

	// Key style for identity keys
	Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")). // Blue
		Bold(true)

	// Dim style for secondary information
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")) // Gray

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	// SuccessPrefix is the checkmark prefix for success messages
	SuccessPrefix = Success.Render("✓")

	// WarningPrefix is the warning prefix
	WarningPrefix = Warning.Render("⚠")

	// ErrorPrefix is the error prefix
	ErrorPrefix = Error.Render("✗")

	// ActivePrefix marks the identity git is currently using
	ActivePrefix = Success.Render("*")
)
