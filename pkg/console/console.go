package console

import (
	"context"
	"sync"
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/jobstatus"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/go-go-golems/orca/pkg/sink"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Transport  Transport
	Sink       sink.Sink
	Control    sink.Control
	Classifier *classify.Classifier
	Labels     jobstatus.Labels
	// IdleTimeout ends a session whose channel delivers nothing for this long.
	// Zero keeps a silent channel running until the transport itself fails.
	IdleTimeout time.Duration
	Metrics     *Metrics
	Logger      *zerolog.Logger
	Now         func() time.Time
}

// Console owns at most one live event channel. Trigger supersedes the active
// session, closing its channel before the next one is opened; it does not
// cancel the job on the backend, it only stops observing it.
type Console struct {
	transport   Transport
	sink        sink.Sink
	classifier  *classify.Classifier
	labels      jobstatus.Labels
	idleTimeout time.Duration
	metrics     *Metrics
	logger      zerolog.Logger
	now         func() time.Time

	rootCtx    context.Context
	rootCancel context.CancelFunc

	// opMu serializes Trigger, Stop and Close.
	opMu sync.Mutex

	mu      sync.Mutex
	machine *jobstatus.Machine
	current *session
	last    *session
	// opening cancels the channel being opened by Trigger; openStopped records
	// that Stop or Close asked for it.
	opening     context.CancelFunc
	openStopped bool
}

type session struct {
	id     string
	ch     Channel
	cancel context.CancelFunc

	// done is closed once the pump exited and the channel is closed. The
	// session's outcome is only observable after that.
	done chan struct{}

	resMu sync.Mutex
	ended bool
	err   error

	closeOnce sync.Once
}

func New(opts Options) (*Console, error) {
	if opts.Transport == nil {
		return nil, errors.New("missing transport")
	}
	if opts.Sink == nil {
		return nil, errors.New("missing sink")
	}
	if opts.Control == nil {
		opts.Control = sink.NopControl
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.New(classify.DefaultMarkers())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	labels := opts.Labels.WithDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Console{
		transport:   opts.Transport,
		sink:        opts.Sink,
		classifier:  opts.Classifier,
		labels:      labels,
		idleTimeout: opts.IdleTimeout,
		metrics:     opts.Metrics,
		logger:      logger.With().Str("component", "console").Logger(),
		now:         opts.Now,
		rootCtx:     ctx,
		rootCancel:  cancel,
	}
	c.machine = jobstatus.NewMachine(opts.Sink, opts.Control,
		jobstatus.WithLabels(labels),
		jobstatus.WithClock(opts.Now),
	)
	return c, nil
}

// Trigger starts a job and begins observing its event stream. ctx bounds the
// time spent opening the channel; the session itself lives until a terminal
// frame, a transport error, Stop, Close or the next Trigger.
func (c *Console) Trigger(ctx context.Context, params protocol.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.rootCtx.Err() != nil {
		return errors.New("console closed")
	}

	c.mu.Lock()
	old := c.current
	c.current = nil
	if old != nil {
		old.end(ErrSuperseded)
	}
	prev := c.last
	c.mu.Unlock()

	// A session that already reached a terminal frame may still be closing its
	// channel; the next channel is opened only once the previous one is gone.
	if prev != nil {
		prev.close()
		<-prev.done
	}
	if old != nil {
		c.metrics.sessionEnded(OutcomeSuperseded)
		c.logger.Info().Str("session", old.id).Msg("session superseded")
	}

	sessCtx, cancel := context.WithCancel(c.rootCtx)
	c.mu.Lock()
	c.machine.Start(params)
	c.opening = cancel
	c.openStopped = false
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, cancel)
	ch, err := c.transport.Open(sessCtx, params)
	ctxDone := !stop()

	c.mu.Lock()
	c.opening = nil
	stopped := c.openStopped
	c.mu.Unlock()

	if err == nil && (ctxDone || stopped) {
		// The channel was canceled while opening.
		_ = ch.Close()
		err = ctx.Err()
	}
	if stopped {
		cancel()
		c.mu.Lock()
		c.machine.Disconnect(c.labels.StoppedReason)
		c.last = &session{done: closedChan()}
		c.last.end(ErrStopped)
		c.mu.Unlock()
		c.metrics.sessionEnded(OutcomeStopped)
		c.logger.Info().Msg("trigger stopped while opening")
		return ErrStopped
	}
	if err != nil {
		cancel()
		terr := &TransportError{Op: "open", Err: err}
		c.mu.Lock()
		c.machine.Disconnect("")
		c.last = &session{done: closedChan()}
		c.last.end(terr)
		c.mu.Unlock()
		c.metrics.openFailed()
		c.logger.Error().Err(err).Msg("open event stream")
		return terr
	}

	s := &session{
		id:     uuid.NewString(),
		ch:     ch,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.mu.Lock()
	c.current = s
	c.last = s
	c.mu.Unlock()
	c.metrics.sessionOpened()
	c.logger.Info().Str("session", s.id).Str("params", params.Encode()).Msg("session opened")

	go c.pump(s)
	return nil
}

// Stop abandons the active session without waiting for a terminal frame. The
// job status becomes disconnected and the trigger control is re-enabled. A
// Trigger still opening its channel is aborted and returns ErrStopped.
func (c *Console) Stop() {
	c.abortOpen()
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stopLocked()
}

func (c *Console) abortOpen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opening != nil {
		c.openStopped = true
		c.opening()
	}
}

func (c *Console) stopLocked() {
	c.mu.Lock()
	s := c.current
	c.current = nil
	if s != nil {
		c.machine.Disconnect(c.labels.StoppedReason)
		s.end(ErrStopped)
	}
	c.mu.Unlock()

	if s == nil {
		return
	}
	s.close()
	<-s.done
	c.metrics.sessionEnded(OutcomeStopped)
	c.logger.Info().Str("session", s.id).Msg("session stopped")
}

// Close stops the active session and rejects further triggers.
func (c *Console) Close() error {
	c.abortOpen()
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stopLocked()
	c.rootCancel()
	return nil
}

// Wait blocks until the most recent session ended and its channel is closed,
// and returns its outcome:
// nil for a completed job, a *JobError, a *TransportError, or ErrStopped /
// ErrSuperseded.
func (c *Console) Wait(ctx context.Context) error {
	c.mu.Lock()
	s := c.last
	c.mu.Unlock()
	if s == nil {
		return errors.New("no session triggered")
	}
	select {
	case <-s.done:
		return s.result()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) Status() jobstatus.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Snapshot()
}

func (c *Console) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Console) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.id
}

func (c *Console) pump(s *session) {
	defer func() {
		s.close()
		c.metrics.sessionClosed()
		close(s.done)
	}()

	var idle <-chan time.Time
	var timer *time.Timer
	if c.idleTimeout > 0 {
		timer = time.NewTimer(c.idleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	msgs := s.ch.Messages()
	for {
		select {
		case raw, ok := <-msgs:
			if !ok {
				err := s.ch.Err()
				if err == nil {
					err = ErrStreamEnded
				}
				c.onTransportError(s, err)
				return
			}
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(c.idleTimeout)
			}
			if !c.onFrame(s, raw) {
				return
			}
		case <-idle:
			c.onTransportError(s, ErrIdleTimeout)
			return
		}
	}
}

// onFrame handles one inbound message and reports whether the session keeps
// reading.
func (c *Console) onFrame(s *session, raw []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != s {
		return false
	}

	f, err := protocol.Parse(raw)
	if err != nil {
		var pe *protocol.ProtocolError
		kind := protocol.ErrKindMalformedFrame
		if errors.As(err, &pe) {
			kind = pe.Kind
		}
		c.metrics.protocolError(kind)
		c.logger.Warn().Err(err).Str("session", s.id).Str("raw", string(raw)).Msg("dropping frame")
		c.sink.OnLogEntry(classify.CategoryError, c.labels.MalformedPrefix+kind, c.now())
		return true
	}
	c.metrics.frame(f.Kind)

	switch f.Kind {
	case protocol.FrameLog:
		c.sink.OnLogEntry(c.classifier.Classify(f.Message), f.Message, c.now())
	case protocol.FrameStatus:
		c.machine.Status(f.Message, f.Status)
	case protocol.FrameComplete:
		c.machine.Complete()
		c.finishLocked(s, nil, OutcomeComplete)
		return false
	case protocol.FrameError:
		c.machine.Fail(f.Message)
		c.finishLocked(s, &JobError{Message: f.Message}, OutcomeError)
		return false
	}
	return true
}

func (c *Console) onTransportError(s *session, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != s {
		return
	}
	reason := ""
	if errors.Is(err, ErrIdleTimeout) {
		reason = c.labels.IdleTimeoutReason
	}
	c.machine.Disconnect(reason)
	c.logger.Warn().Err(err).Str("session", s.id).Msg("event stream lost")
	c.finishLocked(s, &TransportError{Op: "read", Err: err}, OutcomeDisconnected)
}

func (c *Console) finishLocked(s *session, err error, outcome string) {
	c.current = nil
	s.end(err)
	c.metrics.sessionEnded(outcome)
	c.logger.Info().Str("session", s.id).Str("outcome", outcome).Msg("session finished")
}

// end records the session's outcome; the first call wins.
func (s *session) end(err error) {
	s.resMu.Lock()
	defer s.resMu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.err = err
}

func (s *session) result() error {
	s.resMu.Lock()
	defer s.resMu.Unlock()
	return s.err
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.ch != nil {
			_ = s.ch.Close()
		}
	})
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
