// Package ws opens job event streams over a WebSocket. Every text message is
// one frame.
package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPath = "/api/drive_glop/ws"

	readLimit = 1 << 20
)

type Options struct {
	BaseURL string
	Path    string
	Header  http.Header
	Client  *http.Client
}

type Transport struct {
	base   *url.URL
	path   string
	header http.Header
	client *http.Client
}

func New(opts Options) (*Transport, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("missing base url")
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	return &Transport{base: u, path: opts.Path, header: opts.Header, client: opts.Client}, nil
}

func (t *Transport) URL(params protocol.Params) string {
	u := *t.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(t.path, "/")
	u.RawQuery = params.Encode()
	return u.String()
}

func (t *Transport) Open(ctx context.Context, params protocol.Params) (console.Channel, error) {
	ctx, cancel := context.WithCancel(ctx)
	c, _, err := websocket.Dial(ctx, t.URL(params), &websocket.DialOptions{
		HTTPHeader: t.header,
		HTTPClient: t.client,
	})
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "dial event stream")
	}
	c.SetReadLimit(readLimit)

	s := &stream{
		conn:   c,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan []byte),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.read()
	return s, nil
}

type stream struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	out    chan []byte
	stop   chan struct{}
	done   chan struct{}
	err    error

	closing   atomic.Bool
	closeOnce sync.Once
}

func (s *stream) Messages() <-chan []byte { return s.out }
func (s *stream) Err() error             { return s.err }

func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.stop)
		// No close handshake: the server only writes, so it would never answer.
		s.cancel()
		_ = s.conn.CloseNow()
		<-s.done
	})
	return nil
}

func (s *stream) read() {
	defer close(s.done)
	defer close(s.out)

	for {
		typ, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if s.closing.Load() {
				return
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				s.err = console.ErrStreamEnded
				return
			}
			log.Debug().Err(err).Msg("websocket read error")
			s.err = errors.Wrap(err, "read event stream")
			return
		}
		if typ != websocket.MessageText {
			log.Debug().Int("type", int(typ)).Msg("ignoring non-text message")
			continue
		}
		select {
		case s.out <- data:
		case <-s.stop:
			return
		}
	}
}
