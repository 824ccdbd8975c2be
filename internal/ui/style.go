// Package ui renders command output: colored pass/warn/fail markers and
// accent/muted text, grounded on the teacher's internal/ui package but
// with its own color palette and terminal detection (os.Stdout's mode
// bits, rather than a direct golang.org/x/term dependency).
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorAccent = lipgloss.Color("12") // bright blue
	ColorPass   = lipgloss.Color("10") // green
	ColorWarn   = lipgloss.Color("11") // yellow
	ColorFail   = lipgloss.Color("9")  // red
	ColorMuted  = lipgloss.Color("8")  // gray
)

var renderer = lipgloss.NewRenderer(os.Stdout)

// IsTerminal returns true if stdout is connected to a character device
// (a TTY), the same proxy the teacher's ShouldUseColor falls back to.
func IsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// ShouldUseColor respects NO_COLOR (https://no-color.org/) and
// CLICOLOR/CLICOLOR_FORCE, falling back to TTY detection.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return IsTerminal()
}

func styled(text string, color lipgloss.Color) string {
	if !ShouldUseColor() {
		return text
	}
	return renderer.NewStyle().Foreground(color).Render(text)
}

// RenderPass marks text as a success/OK line.
func RenderPass(text string) string { return styled(text, ColorPass) }

// RenderWarn marks text as a warning line.
func RenderWarn(text string) string { return styled(text, ColorWarn) }

// RenderFail marks text as a failure line.
func RenderFail(text string) string { return styled(text, ColorFail) }

// RenderAccent highlights a value (a command name, a path).
func RenderAccent(text string) string { return styled(text, ColorAccent) }

// RenderMuted dims secondary text (hints, counts).
func RenderMuted(text string) string { return styled(text, ColorMuted) }
