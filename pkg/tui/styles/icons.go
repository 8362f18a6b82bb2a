package styles

import (
	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
)

const (
	IconSuccess   = "✓"
	IconError     = "✗"
	IconHighlight = "»"
	IconInfo      = "ℹ"
	IconRunning   = "▶"
	IconPending   = "○"
	IconSystem    = "●"
	IconBullet    = "•"
)

// CategoryIcon returns the line marker for a console entry category.
func CategoryIcon(c classify.Category) string {
	switch c {
	case classify.CategorySuccess:
		return IconSuccess
	case classify.CategoryError:
		return IconError
	case classify.CategoryHighlight:
		return IconHighlight
	case classify.CategoryInfo:
		return IconInfo
	default:
		return IconBullet
	}
}

// SeverityIcon returns the status badge icon. Unknown severities get a plain
// bullet.
func SeverityIcon(s protocol.Severity) string {
	switch s {
	case protocol.SeverityPending:
		return IconPending
	case protocol.SeverityActive:
		return IconRunning
	case protocol.SeverityRejected:
		return IconError
	case "":
		return IconSystem
	default:
		return IconBullet
	}
}
