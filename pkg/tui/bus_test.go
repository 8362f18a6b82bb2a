package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/jobstatus"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/go-go-golems/orca/pkg/sink"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) snapshot() []tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tea.Msg{}, s.msgs...)
}

type fakeController struct {
	mu       sync.Mutex
	triggers []protocol.Params
	stops    int
	err      error
}

func (c *fakeController) Trigger(_ context.Context, params protocol.Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triggers = append(c.triggers, params)
	return c.err
}

func (c *fakeController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
}

func (c *fakeController) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.triggers), c.stops
}

func startBus(t *testing.T, register func(b *Bus)) *Bus {
	t.Helper()
	bus, err := NewInMemoryBus()
	require.NoError(t, err)
	register(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case <-bus.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not start")
	}
	return bus
}

func TestBusSinkReachesProgramInOrder(t *testing.T) {
	sender := &recordingSender{}
	bus := startBus(t, func(b *Bus) {
		RegisterDomainToUITransformer(b)
		RegisterUIForwarder(b, sender)
	})

	s := NewBusSink(bus.Publisher, ControlState{Enabled: true, Label: "🚀 Drive GLOP"})
	s.SetEnabled(false)
	s.SetLabel("⏳ 실행 중...")
	s.OnLogEntry(classify.CategoryHighlight, "GLOP Driver 시작", time.Now())
	s.OnStatusChange("실행 중...", protocol.SeverityPending)
	s.OnSessionEnded()

	require.Eventually(t, func() bool { return len(sender.snapshot()) == 5 }, 2*time.Second, 10*time.Millisecond)
	msgs := sender.snapshot()
	require.Equal(t, ControlState{Enabled: false, Label: "🚀 Drive GLOP"}, msgs[0].(ControlMsg).Control)
	require.Equal(t, ControlState{Enabled: false, Label: "⏳ 실행 중..."}, msgs[1].(ControlMsg).Control)
	require.Equal(t, "GLOP Driver 시작", msgs[2].(LogEntryMsg).Entry.Message)
	require.Equal(t, classify.CategoryHighlight, msgs[2].(LogEntryMsg).Entry.Category)
	require.Equal(t, protocol.SeverityPending, msgs[3].(StatusChangeMsg).Status.Severity)
	require.IsType(t, SessionEndedMsg{}, msgs[4])
}

func TestActionRunner(t *testing.T) {
	sender := &recordingSender{}
	ctrl := &fakeController{err: errors.New("connection refused")}
	bus := startBus(t, func(b *Bus) {
		RegisterDomainToUITransformer(b)
		RegisterUIForwarder(b, sender)
		RegisterConsoleActionRunner(b, ctrl, RunnerOptions{})
	})

	params := protocol.DriveParams("mnt", "KTC")
	require.NoError(t, PublishAction(bus.Publisher, ActionRequest{Kind: ActionTrigger, Params: params}))
	require.NoError(t, PublishAction(bus.Publisher, ActionRequest{Kind: ActionStop}))
	require.Error(t, PublishAction(bus.Publisher, ActionRequest{}))

	require.Eventually(t, func() bool {
		triggers, stops := ctrl.counts()
		return triggers == 1 && stops == 1
	}, 2*time.Second, 10*time.Millisecond)
	ctrl.mu.Lock()
	require.Equal(t, params, ctrl.triggers[0])
	ctrl.mu.Unlock()

	require.Eventually(t, func() bool {
		for _, m := range sender.snapshot() {
			if e, ok := m.(LogEntryMsg); ok && e.Entry.Category == classify.CategoryError {
				return e.Entry.Message == "action failed: trigger: connection refused"
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

// hangingTransport never finishes opening until its context ends.
type hangingTransport struct {
	entered chan struct{}
	once    sync.Once
}

func (h *hangingTransport) Open(ctx context.Context, _ protocol.Params) (console.Channel, error) {
	h.once.Do(func() { close(h.entered) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestActionRunnerStopAbortsPendingTrigger(t *testing.T) {
	sender := &recordingSender{}
	tr := &hangingTransport{entered: make(chan struct{})}
	rec := sink.NewRecorder()
	c, err := console.New(console.Options{Transport: tr, Sink: rec, Control: rec})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	bus := startBus(t, func(b *Bus) {
		RegisterDomainToUITransformer(b)
		RegisterUIForwarder(b, sender)
		RegisterConsoleActionRunner(b, c, RunnerOptions{OpenTimeout: time.Minute})
	})

	require.NoError(t, PublishAction(bus.Publisher, ActionRequest{Kind: ActionTrigger}))
	select {
	case <-tr.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not start opening")
	}
	require.NoError(t, PublishAction(bus.Publisher, ActionRequest{Kind: ActionStop}))

	require.Eventually(t, func() bool {
		return c.Status().State == jobstatus.StateDisconnected && rec.Enabled()
	}, 2*time.Second, 10*time.Millisecond)
	require.ErrorIs(t, c.Wait(context.Background()), console.ErrStopped)

	entries := rec.Filter(sink.RecordEntry)
	require.Equal(t, "연결이 끊어졌습니다. (중단됨)", entries[len(entries)-1].Message)
	for _, m := range sender.snapshot() {
		if e, ok := m.(LogEntryMsg); ok {
			require.NotContains(t, e.Entry.Message, "action failed")
		}
	}
}

func TestBusCloseStopsPublishing(t *testing.T) {
	bus, err := NewInMemoryBus()
	require.NoError(t, err)
	bus.AddHandler("noop", TopicUIActions, func(*message.Message) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()
	<-bus.Running()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("bus did not stop")
	}
	require.NoError(t, bus.Close())
	require.Error(t, PublishAction(bus.Publisher, ActionRequest{Kind: ActionStop}))
	require.Error(t, bus.Run(context.Background()))
}
