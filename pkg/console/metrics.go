package console

import (
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeComplete     = "complete"
	OutcomeError        = "error"
	OutcomeDisconnected = "disconnected"
	OutcomeStopped      = "stopped"
	OutcomeSuperseded   = "superseded"
	OutcomeOpenFailed   = "open_failed"
)

// Metrics counts console activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	frames         *prometheus.CounterVec
	protocolErrors *prometheus.CounterVec
	sessions       *prometheus.CounterVec
	active         prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_console_frames_total",
				Help: "Event frames processed by kind",
			},
			[]string{"kind"},
		),
		protocolErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_console_protocol_errors_total",
				Help: "Frames rejected by the frame parser",
			},
			[]string{"kind"},
		),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orca_console_sessions_total",
				Help: "Finished sessions by outcome",
			},
			[]string{"outcome"},
		),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orca_console_active_sessions",
			Help: "Live event channels (never above one)",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.frames, m.protocolErrors, m.sessions, m.active)
	}
	return m
}

func (m *Metrics) frame(kind protocol.FrameKind) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) protocolError(kind string) {
	if m == nil {
		return
	}
	m.protocolErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.active.Inc()
}

func (m *Metrics) sessionEnded(outcome string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(outcome).Inc()
}

// sessionClosed runs once a session's channel is closed.
func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.active.Dec()
}

func (m *Metrics) openFailed() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(OutcomeOpenFailed).Inc()
}
