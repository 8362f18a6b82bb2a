package tui

import (
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
)

type LogEntry struct {
	At       time.Time         `json:"at"`
	Category classify.Category `json:"category"`
	Message  string            `json:"message"`
}

type StatusChange struct {
	At       time.Time         `json:"at"`
	Label    string            `json:"label"`
	Severity protocol.Severity `json:"severity"`
}

type SessionEnded struct {
	At time.Time `json:"at"`
}

// ControlState is the full trigger control state after any change.
type ControlState struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}

type ActionLog struct {
	At    time.Time `json:"at"`
	Text  string    `json:"text"`
	Error bool      `json:"error,omitempty"`
}
