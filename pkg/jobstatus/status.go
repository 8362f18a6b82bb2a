package jobstatus

import "github.com/go-go-golems/orca/pkg/protocol"

type State string

const (
	StateIdle         State = "idle"
	StateRunning      State = "running"
	StateComplete     State = "complete"
	StateError        State = "error"
	StateDisconnected State = "disconnected"
)

// Status is the single source of truth for what the console shows; renderers
// project it and never read state back from what they drew.
type Status struct {
	State    State             `json:"state"`
	Label    string            `json:"label"`
	Severity protocol.Severity `json:"severity"`
}

// Labels holds the user-facing texts of the driver panel.
type Labels struct {
	Button            string `yaml:"button,omitempty"`
	ButtonRunning     string `yaml:"button_running,omitempty"`
	Idle              string `yaml:"idle,omitempty"`
	Running           string `yaml:"running,omitempty"`
	Complete          string `yaml:"complete,omitempty"`
	Error             string `yaml:"error,omitempty"`
	Disconnected      string `yaml:"disconnected,omitempty"`
	StartEntry        string `yaml:"start_entry,omitempty"`
	CompleteEntry     string `yaml:"complete_entry,omitempty"`
	ErrorEntryPrefix  string `yaml:"error_entry_prefix,omitempty"`
	DisconnectedEntry string `yaml:"disconnected_entry,omitempty"`
	StoppedReason     string `yaml:"stopped_reason,omitempty"`
	IdleTimeoutReason string `yaml:"idle_timeout_reason,omitempty"`
	MalformedPrefix   string `yaml:"malformed_prefix,omitempty"`
}

func DefaultLabels() Labels {
	return Labels{
		Button:            "🚀 Drive GLOP",
		ButtonRunning:     "⏳ 실행 중...",
		Idle:              "대기",
		Running:           "실행 중...",
		Complete:          "완료",
		Error:             "오류 발생",
		Disconnected:      "연결 끊김",
		StartEntry:        "GLOP Driver 시작",
		CompleteEntry:     "GLOP Driver 작업 완료",
		ErrorEntryPrefix:  "오류: ",
		DisconnectedEntry: "연결이 끊어졌습니다.",
		StoppedReason:     "중단됨",
		IdleTimeoutReason: "응답 시간 초과",
		MalformedPrefix:   "잘못된 프레임: ",
	}
}

// WithDefaults fills every empty label from DefaultLabels.
func (l Labels) WithDefaults() Labels {
	d := DefaultLabels()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&l.Button, d.Button)
	fill(&l.ButtonRunning, d.ButtonRunning)
	fill(&l.Idle, d.Idle)
	fill(&l.Running, d.Running)
	fill(&l.Complete, d.Complete)
	fill(&l.Error, d.Error)
	fill(&l.Disconnected, d.Disconnected)
	fill(&l.StartEntry, d.StartEntry)
	fill(&l.CompleteEntry, d.CompleteEntry)
	fill(&l.ErrorEntryPrefix, d.ErrorEntryPrefix)
	fill(&l.DisconnectedEntry, d.DisconnectedEntry)
	fill(&l.StoppedReason, d.StoppedReason)
	fill(&l.IdleTimeoutReason, d.IdleTimeoutReason)
	fill(&l.MalformedPrefix, d.MalformedPrefix)
	return l
}
