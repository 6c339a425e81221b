package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cad7ff"))
	Subtle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4a5270"))
	MetricLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f9cf5"))
	MetricValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff4ea")).Bold(true)
	Warn        = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd2a1")).Bold(true)

	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#9bb0ff"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc6f"))
	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff7b53"))
)

var sparks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as one bar glyph each, resampled to width.
// A flat series renders at the lowest level.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / span
		idx := min(max(int(norm*float64(len(sparks)-1)), 0), len(sparks)-1)
		glyph := string(sparks[idx])
		switch {
		case norm > 0.7:
			b.WriteString(sparkHigh.Render(glyph))
		case norm > 0.3:
			b.WriteString(sparkMid.Render(glyph))
		default:
			b.WriteString(sparkLow.Render(glyph))
		}
	}
	return b.String()
}

// ProgressBar renders fraction in [0, 1] as a bar of the given width.
func ProgressBar(fraction float64, width int) string {
	filled := min(max(int(fraction*float64(width)), 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return sparkHigh.Render(bar)
	case fraction > 0.4:
		return sparkMid.Render(bar)
	}
	return sparkLow.Render(bar)
}

// KeyValue renders an aligned "label value" line.
func KeyValue(label string, value any) string {
	return MetricLabel.Width(16).Render(label) + MetricValue.Render(fmt.Sprint(value))
}

func Separator(width int) string {
	if width < 8 {
		return Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
