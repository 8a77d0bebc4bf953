package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/asphaltsim/internal/analysis"
)

func statsLine(t Theme, label string, s analysis.Stats, unit string) string {
	return labelStyle(t).Render(label) +
		valueStyle(t).Render(fmt.Sprintf("min %.4g  max %.4g  mean %.4g  std %.3g", s.Min, s.Max, s.Mean, s.Std)) +
		mutedStyle(t).Render(" "+unit)
}

// RenderSummary renders field statistics and phase fractions as a panel.
func RenderSummary(title string, s analysis.Summary, t Theme) string {
	var lines []string
	lines = append(lines, GradientText(title, t.Cold, t.Hot))
	lines = append(lines, labelStyle(t).Render("grid")+valueStyle(t).Render(fmt.Sprintf("%d x %d", s.Rows, s.Cols)))
	lines = append(lines, Separator(56, t))

	names := make([]string, 0, len(s.Fractions))
	for name := range s.Fractions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := s.Fractions[name]
		lines = append(lines, labelStyle(t).Render(name)+ProgressBar(f, 30, t)+valueStyle(t).Render(fmt.Sprintf(" %5.1f%%", f*100)))
	}

	lines = append(lines, Separator(56, t))
	lines = append(lines, statsLine(t, "temperature", s.Temperature, "°C"))
	lines = append(lines, statsLine(t, "displacement", s.Displacement, ""))

	return panelStyle(t).Render(strings.Join(lines, "\n"))
}
