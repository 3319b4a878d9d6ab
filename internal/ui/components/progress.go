package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/adaptest/internal/ui/theme"
)

// ProgressBar renders a fixed-width horizontal bar for a fraction in [0, 1].
type ProgressBar struct {
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the bar with block glyphs, so it stays readable without
// colour support.
func (p ProgressBar) View() string {
	width := max(p.Width, 4)
	filled := min(max(int(float64(width)*p.Percent+0.5), 0), width)

	out := theme.BarFilled.Render(strings.Repeat("█", filled)) +
		theme.BarEmpty.Render(strings.Repeat("░", width-filled))
	if p.ShowPercent {
		out += theme.Hint.Render(fmt.Sprintf(" %3d%%", int(p.Percent*100+0.5)))
	}
	return out
}
