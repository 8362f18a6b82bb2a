package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
)

// WriterSink prints the console to w, either as "[hh:mm:ss] message" lines or
// as one JSON object per call.
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func NewWriterSink(w io.Writer, asJSON bool) *WriterSink {
	return &WriterSink{w: w, json: asJSON}
}

type writerRecord struct {
	Kind     RecordKind        `json:"kind"`
	At       *time.Time        `json:"at,omitempty"`
	Category classify.Category `json:"category,omitempty"`
	Message  string            `json:"message,omitempty"`
	Severity protocol.Severity `json:"severity,omitempty"`
}

func (s *WriterSink) OnLogEntry(category classify.Category, message string, at time.Time) {
	if s.json {
		s.writeJSON(writerRecord{Kind: RecordEntry, At: &at, Category: category, Message: message})
		return
	}
	s.printf("[%s] %-9s %s\n", at.Format("15:04:05"), category, message)
}

func (s *WriterSink) OnStatusChange(label string, severity protocol.Severity) {
	if s.json {
		s.writeJSON(writerRecord{Kind: RecordStatus, Message: label, Severity: severity})
		return
	}
	s.printf("== %s (%s)\n", label, severity)
}

func (s *WriterSink) OnSessionEnded() {
	if s.json {
		s.writeJSON(writerRecord{Kind: RecordEnded})
	}
}

func (s *WriterSink) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, format, args...)
}

func (s *WriterSink) writeJSON(rec writerRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(append(b, '\n'))
}
