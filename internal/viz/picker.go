package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Picker is a menu of named grids to launch.
type Picker struct {
	names    []string
	info     map[string]string
	cursor   int
	selected string
}

func NewPicker(names []string, info map[string]string) Picker {
	return Picker{names: names, info: info}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.names) > 0 {
			p.selected = p.names[p.cursor]
		}
		return p, tea.Quit
	}
	return p, nil
}

// Selected is the chosen name, empty if the user quit.
func (p Picker) Selected() string { return p.selected }

func (p Picker) View() string {
	var b strings.Builder
	h := lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true)
	sub := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	b.WriteString("\n\n    " + h.Render("MASSGRID") + "\n    " + sub.Render("mass-spring grid") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, name := range p.names {
		desc := p.info[name]
		if i == p.cursor {
			arrow := lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true).Render("▸")
			label := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true).Render(fmt.Sprintf("%-10s", name))
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", arrow, label, lipgloss.NewStyle().Foreground(CurrentTheme.Cursor).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", sub.Render(fmt.Sprintf("  %-10s", name)), sub.Render(desc)))
		}
	}
	b.WriteString("\n    " + h.Render("j/k") + sub.Render(" navigate  ") + h.Render("enter") + sub.Render(" select  ") + h.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// Pick runs the picker and returns the chosen name, empty if cancelled.
func Pick(names []string, info map[string]string) (string, error) {
	final, err := tea.NewProgram(NewPicker(names, info), tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	return final.(Picker).Selected(), nil
}
