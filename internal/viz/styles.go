package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func panelStyle(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
}

func titleStyle(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Title)
}

func labelStyle(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Label).Width(14)
}

func valueStyle(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Value).Bold(true)
}

func mutedStyle(t Theme) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Muted)
}

// GradientText colours text by interpolating between two hex colours
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	if len(text) == 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) == 1 {
		return lipgloss.NewStyle().Foreground(startColor).Render(text)
	}

	var result strings.Builder
	for i, c := range runes {
		color := mix(startColor, endColor, float64(i)/float64(len(runes)-1))
		result.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(c)))
	}
	return result.String()
}

// ProgressBar renders a fraction in [0,1] as a filled bar
func ProgressBar(percent float64, width int, t Theme) string {
	filled := int(percent*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := lipgloss.NewStyle().Foreground(t.Value).Render(strings.Repeat("█", filled))
	return bar + mutedStyle(t).Render(strings.Repeat("░", width-filled))
}

// SparklineChart renders a mini sparkline from values
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := bounds(values)
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		result.WriteRune(chars[idx])
	}
	return result.String()
}

// Separator renders a decorative rule
func Separator(width int, t Theme) string {
	if width < 8 {
		return mutedStyle(t).Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-2)
	right := strings.Repeat("─", width-mid-1)
	return mutedStyle(t).Render(left + " ◆ " + right)
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// mix interpolates two "#rrggbb" colours.
func mix(a, b lipgloss.Color, t float64) lipgloss.Color {
	t = min(max(t, 0), 1)
	ar, ag, ab := parseHex(string(a))
	br, bg, bb := parseHex(string(b))
	r := int(float64(ar) + t*float64(br-ar))
	g := int(float64(ag) + t*float64(bg-ag))
	bl := int(float64(ab) + t*float64(bb-ab))
	return lipgloss.Color(hexColor(r, g, bl))
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	r = parseHexByte(hex[1:3])
	g = parseHexByte(hex[3:5])
	b = parseHexByte(hex[5:7])
	return
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	v = min(max(v, 0), 255)
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
