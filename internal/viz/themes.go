package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme of rendered output
type Theme struct {
	Name   string
	Title  lipgloss.Color
	Label  lipgloss.Color
	Value  lipgloss.Color
	Muted  lipgloss.Color
	Border lipgloss.Color
	Cold   lipgloss.Color
	Mid    lipgloss.Color
	Hot    lipgloss.Color
}

// Available themes
var (
	ThemeSeismic = Theme{
		Name:   "seismic",
		Title:  lipgloss.Color("#00ffff"),
		Label:  lipgloss.Color("#888899"),
		Value:  lipgloss.Color("#00ccff"),
		Muted:  lipgloss.Color("#666688"),
		Border: lipgloss.Color("#444466"),
		Cold:   lipgloss.Color("#0000cc"),
		Mid:    lipgloss.Color("#ffffff"),
		Hot:    lipgloss.Color("#cc0000"),
	}

	ThemeThermal = Theme{
		Name:   "thermal",
		Title:  lipgloss.Color("#ffcc00"),
		Label:  lipgloss.Color("#aa8866"),
		Value:  lipgloss.Color("#ffaa00"),
		Muted:  lipgloss.Color("#775544"),
		Border: lipgloss.Color("#553322"),
		Cold:   lipgloss.Color("#000000"),
		Mid:    lipgloss.Color("#ff3300"),
		Hot:    lipgloss.Color("#ffff66"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Title:  lipgloss.Color("#ffffff"),
		Label:  lipgloss.Color("#888888"),
		Value:  lipgloss.Color("#cccccc"),
		Muted:  lipgloss.Color("#666666"),
		Border: lipgloss.Color("#444444"),
		Cold:   lipgloss.Color("#111111"),
		Mid:    lipgloss.Color("#777777"),
		Hot:    lipgloss.Color("#eeeeee"),
	}

	// Default theme
	CurrentTheme = ThemeSeismic

	// All available themes
	Themes = []Theme{
		ThemeSeismic,
		ThemeThermal,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeSeismic
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
