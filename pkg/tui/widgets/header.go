package widgets

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/orca/pkg/tui/styles"
)

// Keybind represents a keybinding hint.
type Keybind struct {
	Key   string
	Label string
}

// Header renders the title bar with the job status badge.
type Header struct {
	Title       string
	Status      string
	StatusIcon  string
	StatusStyle lipgloss.Style
	Elapsed     time.Duration
	Width       int
	theme       styles.Theme
}

func NewHeader(title string) Header {
	theme := styles.DefaultTheme()
	return Header{
		Title:       title,
		StatusStyle: theme.TitleMuted,
		theme:       theme,
	}
}

// WithStatus sets the badge text, icon and color.
func (h Header) WithStatus(icon, status string, style lipgloss.Style) Header {
	h.StatusIcon = icon
	h.Status = status
	h.StatusStyle = style
	return h
}

// WithElapsed shows how long the current job has been running. Zero hides it.
func (h Header) WithElapsed(d time.Duration) Header {
	h.Elapsed = d
	return h
}

func (h Header) WithWidth(w int) Header {
	h.Width = w
	return h
}

func (h Header) Render() string {
	theme := h.theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Text).
		Background(theme.Primary).
		Padding(0, 1)
	left := titleStyle.Render(h.Title)

	if h.Status != "" {
		icon := h.StatusIcon
		if icon == "" {
			icon = styles.IconSystem
		}
		badge := h.StatusStyle.Render(icon) + " " + h.StatusStyle.Bold(true).Render(h.Status)
		left = lipgloss.JoinHorizontal(lipgloss.Center, left, "  ", badge)
	}

	right := ""
	if h.Elapsed > 0 {
		right = theme.TitleMuted.Render("경과 " + formatDuration(h.Elapsed))
	}

	spacing := h.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", spacing), right)
	return lipgloss.JoinVertical(lipgloss.Left, line, Separator(h.Width, theme))
}

// Separator renders a full-width rule.
func Separator(width int, theme styles.Theme) string {
	if width <= 0 {
		width = 80
	}
	return lipgloss.NewStyle().
		Foreground(theme.Muted).
		Render(strings.Repeat("━", width))
}

// RenderKeybinds renders a list of keybindings.
func RenderKeybinds(keybinds []Keybind, theme styles.Theme) string {
	parts := make([]string, 0, len(keybinds)*2)
	for i, kb := range keybinds {
		if i > 0 {
			parts = append(parts, theme.TitleMuted.Render(" "))
		}
		parts = append(parts, theme.KeybindKey.Render("["+kb.Key+"]"))
		parts = append(parts, theme.Keybind.Render(" "+kb.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
