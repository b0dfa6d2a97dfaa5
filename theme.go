package main

import "github.com/charmbracelet/lipgloss"

// -- Shell colors -----------------------------------------------------------
// Transcript content is styled by layout.Theme; these cover only the shell
// chrome around it. AdaptiveColor throughout for dark/light terminals.
// Light values stay in ANSI 0-15 or the 256-color grays; ANSI 7/15 (white)
// are invisible on light backgrounds and are never used as Light values.

var (
	colorStatusText = ac("0", "252")
	colorStatusBg   = ac("254", "237")
)

var statusStyle = lipgloss.NewStyle().
	Foreground(colorStatusText).
	Background(colorStatusBg)

// ac builds an AdaptiveColor from light/dark ANSI codes.
func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}
