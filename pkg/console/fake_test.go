package console

import (
	"context"
	"sync"

	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/pkg/errors"
)

type fakeItem struct {
	raw []byte
	err error
}

// fakeChannel behaves like a network channel: a reader goroutine hands queued
// messages to the consumer and exits on failure or Close.
type fakeChannel struct {
	in   chan fakeItem
	out  chan []byte
	stop chan struct{}
	done chan struct{}
	err  error

	closeOnce sync.Once
	onClose   func()
}

func newFakeChannel(onClose func()) *fakeChannel {
	ch := &fakeChannel{
		in:      make(chan fakeItem, 64),
		out:     make(chan []byte),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		onClose: onClose,
	}
	go ch.read()
	return ch
}

func (ch *fakeChannel) read() {
	defer close(ch.done)
	defer close(ch.out)
	for {
		select {
		case it := <-ch.in:
			if it.err != nil {
				ch.err = it.err
				return
			}
			select {
			case ch.out <- it.raw:
			case <-ch.stop:
				return
			}
		case <-ch.stop:
			return
		}
	}
}

func (ch *fakeChannel) Messages() <-chan []byte { return ch.out }
func (ch *fakeChannel) Err() error             { return ch.err }

func (ch *fakeChannel) Close() error {
	ch.closeOnce.Do(func() {
		close(ch.stop)
		<-ch.done
		if ch.onClose != nil {
			ch.onClose()
		}
	})
	return nil
}

func (ch *fakeChannel) send(raw string) { ch.in <- fakeItem{raw: []byte(raw)} }

func (ch *fakeChannel) sendFrame(f protocol.Frame) {
	b, err := protocol.EncodeJSON(f)
	if err != nil {
		panic(err)
	}
	ch.in <- fakeItem{raw: b}
}

func (ch *fakeChannel) fail(err error) { ch.in <- fakeItem{err: err} }

type fakeTransport struct {
	mu      sync.Mutex
	open    int
	maxOpen int
	opened  []*fakeChannel
	params  []protocol.Params
	openErr error
	// hang makes Open block until its context ends; entered is signalled on
	// each attempt.
	hang    bool
	entered chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{entered: make(chan struct{}, 16)}
}

func (t *fakeTransport) Open(ctx context.Context, params protocol.Params) (Channel, error) {
	t.mu.Lock()
	hang := t.hang
	t.mu.Unlock()
	select {
	case t.entered <- struct{}{}:
	default:
	}
	if hang {
		<-ctx.Done()
		return nil, errors.Wrap(ctx.Err(), "open")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		return nil, t.openErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "open")
	}
	t.open++
	if t.open > t.maxOpen {
		t.maxOpen = t.open
	}
	ch := newFakeChannel(func() {
		t.mu.Lock()
		t.open--
		t.mu.Unlock()
	})
	t.opened = append(t.opened, ch)
	t.params = append(t.params, params)
	return ch, nil
}

func (t *fakeTransport) channel(i int) *fakeChannel {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened[i]
}

func (t *fakeTransport) counts() (open, maxOpen, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open, t.maxOpen, len(t.opened)
}
