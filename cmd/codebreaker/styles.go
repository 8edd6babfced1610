package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	ColorAccent  = "#7D56F4"
	ColorSuccess = "#04B575"
	ColorWarning = "#FFB454"
	ColorError   = "#FF5F87"
	ColorMuted   = "#767676"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorAccent))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorSuccess))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorError))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)).
			Italic(true)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#FFFFFF"))
)

// environmentBadge colours the config environment: green for production, amber for
// development, red when running on fallback config.
func environmentBadge(env string, fallback bool) string {
	bg := ColorWarning
	switch {
	case fallback || strings.HasSuffix(env, "-fallback"):
		bg = ColorError
	case env == "production":
		bg = ColorSuccess
	}
	return badgeStyle.Background(lipgloss.Color(bg)).Render(strings.ToUpper(env))
}
