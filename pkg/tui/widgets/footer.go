package widgets

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/orca/pkg/tui/styles"
)

// Footer renders the keybinding bar, optionally with a transient notice above
// the hints.
type Footer struct {
	Keybinds []Keybind
	Notice   string
	Width    int
	theme    styles.Theme
}

func NewFooter(keybinds []Keybind) Footer {
	return Footer{
		Keybinds: keybinds,
		theme:    styles.DefaultTheme(),
	}
}

func (f Footer) WithWidth(w int) Footer {
	f.Width = w
	return f
}

func (f Footer) WithNotice(text string) Footer {
	f.Notice = text
	return f
}

func (f Footer) Render() string {
	theme := f.theme
	keys := RenderKeybinds(f.Keybinds, theme)
	padding := (f.Width - lipgloss.Width(keys)) / 2
	if padding < 0 {
		padding = 0
	}
	line := lipgloss.NewStyle().PaddingLeft(padding).Width(f.Width).Render(keys)

	rows := []string{Separator(f.Width, theme)}
	if f.Notice != "" {
		rows = append(rows, theme.EntryError.Render(f.Notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(rows, line)...)
}
