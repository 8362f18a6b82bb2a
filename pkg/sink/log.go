package sink

import (
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/rs/zerolog"
)

// LogSink writes console output as structured log records.
type LogSink struct {
	Logger zerolog.Logger
}

func NewLogSink(l zerolog.Logger) *LogSink {
	return &LogSink{Logger: l.With().Str("component", "console").Logger()}
}

func (s *LogSink) OnLogEntry(category classify.Category, message string, at time.Time) {
	ev := s.Logger.Info()
	switch category {
	case classify.CategoryError:
		ev = s.Logger.Error()
	case classify.CategoryHighlight:
		ev = s.Logger.Warn()
	}
	ev.Time("at", at).Str("category", string(category)).Msg(message)
}

func (s *LogSink) OnStatusChange(label string, severity protocol.Severity) {
	s.Logger.Info().Str("severity", string(severity)).Str("label", label).Msg("status")
}

func (s *LogSink) OnSessionEnded() {
	s.Logger.Debug().Msg("session ended")
}

func (s *LogSink) SetEnabled(enabled bool) {
	s.Logger.Debug().Bool("enabled", enabled).Msg("trigger control")
}

func (s *LogSink) SetLabel(text string) {
	s.Logger.Debug().Str("label", text).Msg("trigger label")
}
