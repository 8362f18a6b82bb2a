// Package backend is a stand-in for the ORCA job server. It replays the GLOP
// driver's progress as event frames over a text/event-stream response or a
// WebSocket, with optional fault injection for exercising the console.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DrivePath  = "/api/drive_glop"
	HealthPath = "/health"

	JobIDHeader = "X-Job-ID"

	// MalformedPayload is what an injected broken frame carries.
	MalformedPayload = `{"type": "log", "message": `
)

var errDropped = errors.New("stream dropped")

type Options struct {
	// Delay between frames.
	Delay time.Duration
	// FailAfter replaces the rest of the run with an error frame after this
	// many frames. Zero never fails.
	FailAfter int
	// FailMessage is the error frame's message.
	FailMessage string
	// DropAfter ends the response without a terminal frame after this many
	// frames. Zero never drops.
	DropAfter int
	// MalformedAfter inserts one unparseable payload after this many frames.
	// Zero never does.
	MalformedAfter int
	// Script overrides the frames replayed for a request.
	Script func(product, supplier string) []protocol.Frame
	// Registry enables /metrics when set.
	Registry *prometheus.Registry
	Logger   *zerolog.Logger
}

type Server struct {
	opts    Options
	router  chi.Router
	logger  zerolog.Logger
	jobs    *prometheus.CounterVec
	frames  *prometheus.CounterVec
	running prometheus.Gauge
}

func New(opts Options) *Server {
	if opts.Script == nil {
		opts.Script = DriverScript
	}
	if opts.FailMessage == "" {
		opts.FailMessage = "드라이버 실행 실패"
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	s := &Server{
		opts:   opts,
		logger: logger.With().Str("component", "backend").Logger(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orca_backend_jobs_total",
			Help: "Driver jobs started, by transport.",
		}, []string{"transport"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orca_backend_frames_sent_total",
			Help: "Frames sent to clients, by kind.",
		}, []string{"kind"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orca_backend_running_jobs",
			Help: "Driver jobs currently streaming.",
		}),
	}
	if opts.Registry != nil {
		opts.Registry.MustRegister(s.jobs, s.frames, s.running)
	}

	r := chi.NewRouter()
	r.Get(HealthPath, s.handleHealth)
	r.Get(DrivePath, s.handleDriveSSE)
	r.Get(DrivePath+"/ws", s.handleDriveWS)
	if opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"message": "Server is running",
	})
}

func (s *Server) handleDriveSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	id := uuid.NewString()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(JobIDHeader, id)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// A drop returns without a terminal frame; the client sees the body end.
	_ = s.run(r.Context(), id, "sse", r, func(f *protocol.Frame, raw string) error {
		if f == nil {
			if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
				return err
			}
		} else if err := protocol.WriteSSE(w, *f); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
}

func (s *Server) handleDriveWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer func() { _ = c.CloseNow() }()

	// The handler only writes; CloseRead notices the client going away.
	ctx := c.CloseRead(r.Context())
	id := uuid.NewString()
	err = s.run(ctx, id, "ws", r, func(f *protocol.Frame, raw string) error {
		b := []byte(raw)
		if f != nil {
			var err error
			if b, err = protocol.EncodeJSON(*f); err != nil {
				return err
			}
		}
		return c.Write(ctx, websocket.MessageText, b)
	})
	switch {
	case err == nil:
		_ = c.Close(websocket.StatusNormalClosure, "done")
	case errors.Is(err, errDropped):
		// CloseNow in the deferred call tears the connection down without a
		// close handshake.
	default:
		_ = c.Close(websocket.StatusInternalError, "server error")
	}
}

// run replays the script for one request through send. A nil frame means raw
// must be written verbatim.
func (s *Server) run(ctx context.Context, id, transport string, r *http.Request, send func(f *protocol.Frame, raw string) error) error {
	q := r.URL.Query()
	product := q.Get(protocol.ParamProduct)
	supplier := q.Get(protocol.ParamSupplier)
	logger := s.logger.With().Str("job", id).Str("transport", transport).Logger()
	logger.Info().Str("product", product).Str("supplier", supplier).Msg("driver job started")

	s.jobs.WithLabelValues(transport).Inc()
	s.running.Inc()
	defer s.running.Dec()

	frames := s.opts.Script(product, supplier)
	sent := 0
	emit := func(f protocol.Frame) error {
		if err := send(&f, ""); err != nil {
			return errors.Wrap(err, "send frame")
		}
		s.frames.WithLabelValues(string(f.Kind)).Inc()
		sent++
		return nil
	}

	for _, f := range frames {
		if sent > 0 {
			if err := sleep(ctx, s.opts.Delay); err != nil {
				logger.Info().Int("sent", sent).Msg("client went away")
				return err
			}
		}
		if s.opts.MalformedAfter > 0 && sent == s.opts.MalformedAfter {
			if err := send(nil, MalformedPayload); err != nil {
				return errors.Wrap(err, "send malformed")
			}
		}
		if s.opts.DropAfter > 0 && sent == s.opts.DropAfter {
			logger.Warn().Int("sent", sent).Msg("dropping stream")
			return errDropped
		}
		if s.opts.FailAfter > 0 && sent == s.opts.FailAfter {
			logger.Warn().Int("sent", sent).Msg("injecting failure")
			return emit(protocol.ErrorFrame(s.opts.FailMessage))
		}
		if err := emit(f); err != nil {
			logger.Warn().Err(err).Msg("stream write failed")
			return err
		}
	}
	logger.Info().Int("sent", sent).Msg("driver job finished")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
