package charts

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// RenderText rend une Spec pour le terminal. width borne la longueur des barres.
func RenderText(s Spec, width int) string {
	if width <= 0 {
		width = 40
	}
	title := titleStyle.Render(s.Title)
	if s.Empty || len(s.Points) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render(NoDataMessage))
	}

	labelWidth := 0
	for _, p := range s.Points {
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
	}

	var (
		scale  float64
		format func(float64) string
	)
	switch s.Kind {
	case KindPie:
		// parts du total, en pourcentage
		scale = s.Total()
		format = func(v float64) string { return fmt.Sprintf("%6.2f%%", v/scale*100) }
	default:
		scale = s.Max()
		format = func(v float64) string { return fmt.Sprintf("%g", v) }
	}

	lines := []string{title}
	for _, p := range s.Points {
		n := 0
		if scale > 0 {
			n = int(math.Round(p.Value / scale * float64(width)))
		}
		label := labelStyle.Render(p.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(p.Label)))
		lines = append(lines, fmt.Sprintf("%s │%s %s", label, barStyle.Render(strings.Repeat("█", n)), format(p.Value)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
