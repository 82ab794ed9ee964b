package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the heatmap and the chrome around it.
type Theme struct {
	Name   string
	Accent lipgloss.Color
	Cursor lipgloss.Color
	Pinned lipgloss.Color
	Muted  lipgloss.Color
	// Ramp runs from still to most displaced.
	Ramp []lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:   "cyberpunk",
		Accent: lipgloss.Color("#00ffff"),
		Cursor: lipgloss.Color("#ff00ff"),
		Pinned: lipgloss.Color("#444466"),
		Muted:  lipgloss.Color("#666688"),
		Ramp:   []lipgloss.Color{"#1a1a40", "#3030a0", "#0080ff", "#00ffff", "#80ff80", "#ffff00", "#ff8000", "#ff0080"},
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Accent: lipgloss.Color("#00ff00"),
		Cursor: lipgloss.Color("#ffff00"),
		Pinned: lipgloss.Color("#003300"),
		Muted:  lipgloss.Color("#005500"),
		Ramp:   []lipgloss.Color{"#002200", "#004400", "#006600", "#008800", "#00aa00", "#00cc00", "#44ee44", "#aaffaa"},
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Accent: lipgloss.Color("#00a8cc"),
		Cursor: lipgloss.Color("#ffd700"),
		Pinned: lipgloss.Color("#223344"),
		Muted:  lipgloss.Color("#4488aa"),
		Ramp:   []lipgloss.Color{"#001a33", "#003366", "#004c99", "#0077be", "#00a8cc", "#66ccdd", "#bbeeff", "#ffffff"},
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
