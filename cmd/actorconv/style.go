package main

import "github.com/charmbracelet/lipgloss"

// Terminal styles. lipgloss drops colors when output is not a terminal.
var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
)
