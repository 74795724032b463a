package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#E06C75")
	colorMuted  = lipgloss.Color("#636B78")
	colorDone   = lipgloss.Color("#98C379")
	colorCursor = lipgloss.Color("#61AFEF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorCursor).
			Bold(true)

	completedStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)

	checkStyle = lipgloss.NewStyle().
			Foreground(colorDone)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	filterActiveStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Underline(true)

	footerStyle = lipgloss.NewStyle().
			MarginTop(1)
)
