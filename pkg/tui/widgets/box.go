package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/orca/pkg/tui/styles"
)

// Box is a bordered panel with a title row. Height includes the border.
type Box struct {
	Title      string
	TitleRight string
	Content    string
	Width      int
	Height     int
	Focused    bool
	theme      styles.Theme
}

func NewBox(title string) Box {
	return Box{Title: title, theme: styles.DefaultTheme()}
}

func (b Box) WithContent(content string) Box {
	b.Content = content
	return b
}

// WithTitleRight sets muted text aligned to the right of the title row.
func (b Box) WithTitleRight(text string) Box {
	b.TitleRight = text
	return b
}

func (b Box) WithSize(width, height int) Box {
	b.Width = width
	b.Height = height
	return b
}

// WithFocus highlights the border of the box that receives input.
func (b Box) WithFocus(focused bool) Box {
	b.Focused = focused
	return b
}

func (b Box) Render() string {
	inner := max(b.Width-2, 0)

	var rows []string
	if b.Title != "" || b.TitleRight != "" {
		left := b.theme.Title.Render(b.Title)
		right := b.theme.TitleMuted.Render(b.TitleRight)
		gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
		rows = append(rows, left+strings.Repeat(" ", gap)+right)
	}
	rows = append(rows, b.Content)

	style := b.theme.Border
	if b.Focused {
		style = style.BorderForeground(b.theme.Primary)
	}
	if b.Width > 0 {
		style = style.Width(inner)
	}
	if b.Height > 0 {
		style = style.Height(max(b.Height-2, 0))
	}
	return style.Render(strings.Join(rows, "\n"))
}
