package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/jobstatus"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/go-go-golems/orca/pkg/sink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole(t *testing.T, opts Options) (*Console, *fakeTransport, *sink.Recorder) {
	t.Helper()
	tr := newFakeTransport()
	rec := sink.NewRecorder()
	if opts.Transport == nil {
		opts.Transport = tr
	}
	opts.Sink = rec
	opts.Control = rec
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, tr, rec
}

func waitEnded(t *testing.T, c *Console) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

// statusesAfterStart drops the "running" status emitted by Trigger.
func statusesAfterStart(rec *sink.Recorder) []sink.Record {
	st := rec.Filter(sink.RecordStatus)
	if len(st) == 0 {
		return nil
	}
	return st[1:]
}

func TestNew_RequiresTransportAndSink(t *testing.T) {
	_, err := New(Options{Sink: sink.NewRecorder()})
	require.Error(t, err)
	_, err = New(Options{Transport: newFakeTransport()})
	require.Error(t, err)
}

func TestConsole_StatusSequenceThenComplete(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), protocol.DriveParams("mnt", "all")))
	require.True(t, c.Active())
	require.False(t, rec.Enabled())

	ch := tr.channel(0)
	ch.sendFrame(protocol.StatusFrame("pending", protocol.SeverityPending))
	ch.sendFrame(protocol.StatusFrame("active", protocol.SeverityActive))
	ch.sendFrame(protocol.CompleteFrame())

	require.NoError(t, waitEnded(t, c))
	require.False(t, c.Active())
	require.Equal(t, jobstatus.StateComplete, c.Status().State)

	st := statusesAfterStart(rec)
	require.Len(t, st, 3)
	require.Equal(t, "pending", st[0].Message)
	require.Equal(t, protocol.SeverityPending, st[0].Severity)
	require.Equal(t, "active", st[1].Message)
	require.Equal(t, protocol.SeverityActive, st[1].Severity)
	require.Equal(t, "완료", st[2].Message)

	// The control is disabled before the first status and only re-enabled after
	// the terminal status.
	var enabledAt, lastStatusAt = -1, -1
	for i, r := range rec.Records() {
		switch r.Kind {
		case sink.RecordEnabled:
			if r.Enabled {
				require.Equal(t, -1, enabledAt, "control enabled twice")
				enabledAt = i
			}
		case sink.RecordStatus:
			lastStatusAt = i
			require.Equal(t, -1, enabledAt, "status after control was re-enabled")
		}
	}
	require.Greater(t, enabledAt, lastStatusAt)
	require.True(t, rec.Enabled())
	require.Len(t, rec.Filter(sink.RecordEnded), 1)
}

func TestConsole_LogThenTransportError(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), protocol.DriveParams("mnt", "all")))

	ch := tr.channel(0)
	ch.sendFrame(protocol.LogFrame("오류: X"))
	ch.fail(errors.New("connection reset by peer"))

	err := waitEnded(t, c)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)

	var fromFrame []sink.Record
	for _, e := range rec.Filter(sink.RecordEntry) {
		if e.Message == "오류: X" {
			fromFrame = append(fromFrame, e)
		}
	}
	require.Len(t, fromFrame, 1)
	require.Equal(t, classify.CategoryError, fromFrame[0].Category)

	st := statusesAfterStart(rec)
	require.Len(t, st, 1)
	require.Equal(t, "연결 끊김", st[0].Message)
	require.Equal(t, protocol.SeverityRejected, st[0].Severity)
	require.Equal(t, jobstatus.StateDisconnected, c.Status().State)
	require.True(t, rec.Enabled())

	require.Eventually(t, func() bool {
		open, _, _ := tr.counts()
		return open == 0
	}, time.Second, 10*time.Millisecond)
}

func TestConsole_MalformedFrameKeepsSession(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), nil))

	ch := tr.channel(0)
	ch.sendFrame(protocol.LogFrame("first"))
	ch.send(`{"type":`)
	ch.send(`{"type":"progress","message":"50%"}`)
	ch.sendFrame(protocol.LogFrame("second"))

	require.Eventually(t, func() bool {
		for _, e := range rec.Filter(sink.RecordEntry) {
			if e.Message == "second" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	require.True(t, c.Active())
	require.Equal(t, jobstatus.StateRunning, c.Status().State)
	require.False(t, rec.Enabled())

	var msgs []string
	for _, e := range rec.Filter(sink.RecordEntry)[1:] {
		msgs = append(msgs, e.Message)
	}
	require.Equal(t, []string{
		"first",
		"잘못된 프레임: malformed-frame",
		"잘못된 프레임: unknown-frame-type",
		"second",
	}, msgs)
}

func TestConsole_ErrorFrameSurfacesReasonVerbatim(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), nil))
	tr.channel(0).sendFrame(protocol.ErrorFrame("로그인 실패: invalid credentials"))

	err := waitEnded(t, c)
	var jerr *JobError
	require.ErrorAs(t, err, &jerr)
	require.Equal(t, "로그인 실패: invalid credentials", jerr.Message)

	entries := rec.Filter(sink.RecordEntry)
	last := entries[len(entries)-1]
	require.Equal(t, classify.CategoryError, last.Category)
	require.Equal(t, "오류: 로그인 실패: invalid credentials", last.Message)
	require.Equal(t, jobstatus.StateError, c.Status().State)
	require.True(t, rec.Enabled())
}

func TestConsole_TriggerWhileRunningSupersedes(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), protocol.DriveParams("mnt", "a")))
	first := tr.channel(0)
	firstID := c.SessionID()

	require.NoError(t, c.Trigger(context.Background(), protocol.DriveParams("mnt", "b")))
	open, maxOpen, total := tr.counts()
	require.Equal(t, 1, open)
	require.Equal(t, 1, maxOpen)
	require.Equal(t, 2, total)
	require.NotEqual(t, firstID, c.SessionID())

	// The superseded channel is closed; nothing it queued reaches the sink.
	first.sendFrame(protocol.LogFrame("stale"))
	second := tr.channel(1)
	second.sendFrame(protocol.LogFrame("fresh"))
	second.sendFrame(protocol.CompleteFrame())
	require.NoError(t, waitEnded(t, c))

	for _, e := range rec.Filter(sink.RecordEntry) {
		require.NotEqual(t, "stale", e.Message)
	}
	require.Equal(t, "b", tr.params[1].Get(protocol.ParamSupplier))
	require.True(t, rec.Enabled())
}

func TestConsole_ConcurrentTriggersNeverOpenTwoChannels(t *testing.T) {
	c, tr, _ := newTestConsole(t, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Trigger(context.Background(), nil))
		}()
	}
	wg.Wait()

	open, maxOpen, total := tr.counts()
	require.Equal(t, 1, open)
	require.Equal(t, 1, maxOpen)
	require.Equal(t, 16, total)
	require.True(t, c.Active())
}

func TestConsole_TerminalEventsAlwaysReenableControl(t *testing.T) {
	terminals := []struct {
		name  string
		apply func(*fakeChannel)
	}{
		{"complete", func(ch *fakeChannel) { ch.sendFrame(protocol.CompleteFrame()) }},
		{"error", func(ch *fakeChannel) { ch.sendFrame(protocol.ErrorFrame("x")) }},
		{"transport", func(ch *fakeChannel) { ch.fail(errors.New("eof")) }},
	}
	priors := []struct {
		name  string
		apply func(*fakeChannel)
	}{
		{"fresh", func(*fakeChannel) {}},
		{"after-log", func(ch *fakeChannel) { ch.sendFrame(protocol.LogFrame("a")) }},
		{"after-status", func(ch *fakeChannel) { ch.sendFrame(protocol.StatusFrame("s", protocol.SeverityActive)) }},
		{"after-malformed", func(ch *fakeChannel) { ch.send("garbage") }},
	}
	for _, terminal := range terminals {
		for _, prior := range priors {
			t.Run(prior.name+"/"+terminal.name, func(t *testing.T) {
				c, tr, rec := newTestConsole(t, Options{})
				// Run two jobs back to back so the second starts from a terminal state.
				for i := 0; i < 2; i++ {
					require.NoError(t, c.Trigger(context.Background(), nil))
					require.False(t, rec.Enabled())
					ch := tr.channel(i)
					prior.apply(ch)
					terminal.apply(ch)
					_ = waitEnded(t, c)
					require.True(t, rec.Enabled())
					require.Equal(t, jobstatus.DefaultLabels().Button, rec.Label())
					require.False(t, c.Active())
					open, maxOpen, _ := tr.counts()
					require.Equal(t, 0, open)
					require.Equal(t, 1, maxOpen)
				}
			})
		}
	}
}

func TestConsole_RetriggerRightAfterTerminalFrame(t *testing.T) {
	c, tr, _ := newTestConsole(t, Options{})
	for i := 0; i < 300; i++ {
		require.NoError(t, c.Trigger(context.Background(), nil))
		ch := tr.channel(i)
		if i%2 == 0 {
			ch.sendFrame(protocol.CompleteFrame())
			require.NoError(t, waitEnded(t, c))
		} else {
			// Trigger again without waiting for the terminal frame to settle.
			ch.sendFrame(protocol.ErrorFrame("x"))
			require.Eventually(t, func() bool { return !c.Active() }, time.Second, time.Millisecond)
		}
	}
	_, maxOpen, total := tr.counts()
	require.Equal(t, 1, maxOpen)
	require.Equal(t, 300, total)
}

func TestConsole_WaitReturnsAfterChannelClosed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c, tr, _ := newTestConsole(t, Options{Metrics: m})
	for i := 0; i < 50; i++ {
		require.NoError(t, c.Trigger(context.Background(), nil))
		tr.channel(i).sendFrame(protocol.CompleteFrame())
		require.NoError(t, waitEnded(t, c))
		open, _, _ := tr.counts()
		require.Equal(t, 0, open)
		require.Equal(t, 0.0, testutil.ToFloat64(m.active))
	}
}

func TestConsole_StopAbortsPendingOpen(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	tr.hang = true

	errc := make(chan error, 1)
	go func() { errc <- c.Trigger(context.Background(), nil) }()
	select {
	case <-tr.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not start opening")
	}
	c.Stop()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger still opening after stop")
	}
	require.ErrorIs(t, waitEnded(t, c), ErrStopped)
	require.False(t, c.Active())
	require.Equal(t, jobstatus.StateDisconnected, c.Status().State)
	require.True(t, rec.Enabled())
	entries := rec.Filter(sink.RecordEntry)
	require.Equal(t, "연결이 끊어졌습니다. (중단됨)", entries[len(entries)-1].Message)
}

func TestConsole_StopAbandonsSession(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), nil))
	c.Stop()

	require.ErrorIs(t, waitEnded(t, c), ErrStopped)
	require.False(t, c.Active())
	require.Equal(t, jobstatus.StateDisconnected, c.Status().State)
	require.True(t, rec.Enabled())
	open, _, _ := tr.counts()
	require.Equal(t, 0, open)

	entries := rec.Filter(sink.RecordEntry)
	require.Equal(t, "연결이 끊어졌습니다. (중단됨)", entries[len(entries)-1].Message)

	// Stopping again is a no-op.
	before := len(rec.Records())
	c.Stop()
	require.Len(t, rec.Records(), before)
}

func TestConsole_OpenFailureDisconnects(t *testing.T) {
	tr := newFakeTransport()
	tr.openErr = errors.New("dial tcp: connection refused")
	c, _, rec := newTestConsole(t, Options{Transport: tr})

	err := c.Trigger(context.Background(), nil)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "open", terr.Op)
	require.False(t, c.Active())
	require.Equal(t, jobstatus.StateDisconnected, c.Status().State)
	require.True(t, rec.Enabled())
	require.ErrorAs(t, waitEnded(t, c), &terr)
}

func TestConsole_IdleTimeout(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{IdleTimeout: 100 * time.Millisecond})
	require.NoError(t, c.Trigger(context.Background(), nil))
	tr.channel(0).sendFrame(protocol.LogFrame("one"))

	err := waitEnded(t, c)
	require.ErrorIs(t, err, ErrIdleTimeout)
	require.Equal(t, jobstatus.StateDisconnected, c.Status().State)
	require.True(t, rec.Enabled())
	entries := rec.Filter(sink.RecordEntry)
	require.Equal(t, "연결이 끊어졌습니다. (응답 시간 초과)", entries[len(entries)-1].Message)
}

func TestConsole_NoIdleTimeoutByDefault(t *testing.T) {
	c, _, _ := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), nil))
	time.Sleep(150 * time.Millisecond)
	require.True(t, c.Active())
	require.Equal(t, jobstatus.StateRunning, c.Status().State)
}

func TestConsole_InvalidParamsRejectedBeforeOpening(t *testing.T) {
	c, tr, rec := newTestConsole(t, Options{})
	err := c.Trigger(context.Background(), protocol.Params{{Name: "", Value: "x"}})
	require.Error(t, err)
	_, _, total := tr.counts()
	require.Equal(t, 0, total)
	require.Empty(t, rec.Records())
}

func TestConsole_CloseRejectsTrigger(t *testing.T) {
	c, tr, _ := newTestConsole(t, Options{})
	require.NoError(t, c.Trigger(context.Background(), nil))
	require.NoError(t, c.Close())
	open, _, _ := tr.counts()
	require.Equal(t, 0, open)
	require.Error(t, c.Trigger(context.Background(), nil))
}

func TestConsole_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c, tr, _ := newTestConsole(t, Options{Metrics: m})

	require.NoError(t, c.Trigger(context.Background(), nil))
	ch := tr.channel(0)
	ch.sendFrame(protocol.LogFrame("a"))
	ch.send("nope")
	ch.sendFrame(protocol.CompleteFrame())
	require.NoError(t, waitEnded(t, c))

	require.Equal(t, 1.0, testutil.ToFloat64(m.frames.WithLabelValues("log")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.frames.WithLabelValues("complete")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.protocolErrors.WithLabelValues(protocol.ErrKindMalformedFrame)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues(OutcomeComplete)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.active))
}
