package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// Palettes follow the sky: a dark field with star, gas and dust colors.
var (
	ThemeStarfield = Theme{
		Name:      "starfield",
		Primary:   lipgloss.Color("#cad7ff"),
		Secondary: lipgloss.Color("#7f9cf5"),
		Accent:    lipgloss.Color("#fff4ea"),
		Text:      lipgloss.Color("#e6ebff"),
		Muted:     lipgloss.Color("#4a5270"),
		Success:   lipgloss.Color("#9be7c4"),
		Warning:   lipgloss.Color("#ffd2a1"),
		Error:     lipgloss.Color("#ff8a7a"),
	}

	// Emission lines: hydrogen-alpha red, doubly ionised oxygen teal,
	// sulphur amber.
	ThemeNebula = Theme{
		Name:      "nebula",
		Primary:   lipgloss.Color("#e0475b"),
		Secondary: lipgloss.Color("#3fc1c9"),
		Accent:    lipgloss.Color("#f2a541"),
		Text:      lipgloss.Color("#f4e9ec"),
		Muted:     lipgloss.Color("#5c4b5e"),
		Success:   lipgloss.Color("#3fc1c9"),
		Warning:   lipgloss.Color("#f2a541"),
		Error:     lipgloss.Color("#e0475b"),
	}

	// Stellar classes from hot O-type blue to cool M-type red.
	ThemeSpectral = Theme{
		Name:      "spectral",
		Primary:   lipgloss.Color("#9bb0ff"),
		Secondary: lipgloss.Color("#fff4e8"),
		Accent:    lipgloss.Color("#ffd2a1"),
		Text:      lipgloss.Color("#f8f7ff"),
		Muted:     lipgloss.Color("#6b6f80"),
		Success:   lipgloss.Color("#aabfff"),
		Warning:   lipgloss.Color("#ffcc6f"),
		Error:     lipgloss.Color("#ff7b53"),
	}

	ThemeMono = Theme{
		Name:      "mono",
		Primary:   lipgloss.Color("#d0d0d0"),
		Secondary: lipgloss.Color("#a0a0a0"),
		Accent:    lipgloss.Color("#ffffff"),
		Text:      lipgloss.Color("#d0d0d0"),
		Muted:     lipgloss.Color("#5a5a5a"),
		Success:   lipgloss.Color("#d0d0d0"),
		Warning:   lipgloss.Color("#ffffff"),
		Error:     lipgloss.Color("#ffffff"),
	}

	CurrentTheme = ThemeStarfield

	Themes = []Theme{
		ThemeStarfield,
		ThemeNebula,
		ThemeSpectral,
		ThemeMono,
	}
)

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func SetTheme(name string) { CurrentTheme = GetTheme(name) }

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Canvas    lipgloss.Style
	Panel     lipgloss.Style
	Header    lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Active    lipgloss.Style
	Graph     lipgloss.Style
	Help      lipgloss.Style
	Running   lipgloss.Style
	Paused    lipgloss.Style
	Recording lipgloss.Style
	Error     lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Canvas:    lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 2),
		Panel:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(44),
		Header:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		Label:     lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		Value:     lipgloss.NewStyle().Foreground(t.Text),
		Active:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Graph:     lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 0),
		Help:      lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		Running:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Paused:    lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		Recording: lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(t.Error),
	}
}
