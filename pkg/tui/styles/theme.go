package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
)

// Theme defines the color palette and base styles for the TUI.
type Theme struct {
	// Colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	TextDim   lipgloss.Color

	// Base styles
	Border         lipgloss.Style
	Title          lipgloss.Style
	TitleMuted     lipgloss.Style
	Selected       lipgloss.Style
	Keybind        lipgloss.Style
	KeybindKey     lipgloss.Style
	Button         lipgloss.Style
	ButtonDisabled lipgloss.Style

	// Console entries
	EntryInfo      lipgloss.Style
	EntrySuccess   lipgloss.Style
	EntryError     lipgloss.Style
	EntryHighlight lipgloss.Style

	// Status badge
	StatusActive   lipgloss.Style
	StatusRejected lipgloss.Style
	StatusPending  lipgloss.Style
}

// DefaultTheme returns the default orca TUI theme.
func DefaultTheme() Theme {
	primary := lipgloss.Color("#7C3AED")   // Purple
	secondary := lipgloss.Color("#06B6D4") // Cyan
	success := lipgloss.Color("#22C55E")   // Green
	warning := lipgloss.Color("#EAB308")   // Yellow
	errorC := lipgloss.Color("#EF4444")    // Red
	muted := lipgloss.Color("#6B7280")     // Gray
	text := lipgloss.Color("#F9FAFB")      // White
	textDim := lipgloss.Color("#9CA3AF")   // Light gray

	return Theme{
		Primary:   primary,
		Secondary: secondary,
		Success:   success,
		Warning:   warning,
		Error:     errorC,
		Muted:     muted,
		Text:      text,
		TextDim:   textDim,

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(text),

		TitleMuted: lipgloss.NewStyle().
			Foreground(textDim),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(text).
			Background(lipgloss.Color("#374151")),

		Keybind: lipgloss.NewStyle().
			Foreground(textDim),

		KeybindKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(secondary),

		Button: lipgloss.NewStyle().
			Bold(true).
			Foreground(text).
			Background(primary).
			Padding(0, 2),

		ButtonDisabled: lipgloss.NewStyle().
			Foreground(textDim).
			Background(lipgloss.Color("#374151")).
			Padding(0, 2),

		EntryInfo:      lipgloss.NewStyle().Foreground(textDim),
		EntrySuccess:   lipgloss.NewStyle().Foreground(success),
		EntryError:     lipgloss.NewStyle().Foreground(errorC),
		EntryHighlight: lipgloss.NewStyle().Bold(true).Foreground(warning),

		StatusActive:   lipgloss.NewStyle().Foreground(success),
		StatusRejected: lipgloss.NewStyle().Foreground(errorC),
		StatusPending:  lipgloss.NewStyle().Foreground(warning),
	}
}

// EntryStyle projects a console entry category onto a color.
func (t Theme) EntryStyle(c classify.Category) lipgloss.Style {
	switch c {
	case classify.CategorySuccess:
		return t.EntrySuccess
	case classify.CategoryError:
		return t.EntryError
	case classify.CategoryHighlight:
		return t.EntryHighlight
	default:
		return t.EntryInfo
	}
}

// StatusStyle projects a status severity onto a color.
func (t Theme) StatusStyle(s protocol.Severity) lipgloss.Style {
	switch s {
	case protocol.SeverityActive:
		return t.StatusActive
	case protocol.SeverityRejected:
		return t.StatusRejected
	case protocol.SeverityPending:
		return t.StatusPending
	default:
		return t.TitleMuted
	}
}
