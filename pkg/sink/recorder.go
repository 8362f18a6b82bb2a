package sink

import (
	"sync"
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/protocol"
)

type RecordKind string

const (
	RecordEntry   RecordKind = "entry"
	RecordStatus  RecordKind = "status"
	RecordEnded   RecordKind = "ended"
	RecordEnabled RecordKind = "enabled"
	RecordLabel   RecordKind = "label"
)

type Record struct {
	Kind     RecordKind
	Category classify.Category
	Message  string
	Severity protocol.Severity
	Enabled  bool
	At       time.Time
}

// Recorder keeps every sink and control call in arrival order. It is safe for
// concurrent use and is mostly useful in tests and for replaying a session.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	enabled bool
	label   string
}

func NewRecorder() *Recorder {
	return &Recorder{enabled: true}
}

func (r *Recorder) add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *Recorder) OnLogEntry(category classify.Category, message string, at time.Time) {
	r.add(Record{Kind: RecordEntry, Category: category, Message: message, At: at})
}

func (r *Recorder) OnStatusChange(label string, severity protocol.Severity) {
	r.add(Record{Kind: RecordStatus, Message: label, Severity: severity})
}

func (r *Recorder) OnSessionEnded() {
	r.add(Record{Kind: RecordEnded})
}

func (r *Recorder) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	r.mu.Unlock()
	r.add(Record{Kind: RecordEnabled, Enabled: enabled})
}

func (r *Recorder) SetLabel(text string) {
	r.mu.Lock()
	r.label = text
	r.mu.Unlock()
	r.add(Record{Kind: RecordLabel, Message: text})
}

func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record{}, r.records...)
}

func (r *Recorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *Recorder) Label() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.label
}

func (r *Recorder) Filter(kind RecordKind) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
