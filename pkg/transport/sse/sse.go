// Package sse opens job event streams over HTTP server-sent events. Each
// "message" event carries one frame in its data field.
package sse

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultPath = "/api/drive_glop"

type Options struct {
	BaseURL string
	Path    string
	Client  *http.Client
	Header  http.Header
}

type Transport struct {
	base   *url.URL
	path   string
	client *http.Client
	header http.Header
}

func New(opts Options) (*Transport, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("missing base url")
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Client == nil {
		// No client timeout: the response body stays open for the whole job.
		opts.Client = &http.Client{}
	}
	return &Transport{base: u, path: opts.Path, client: opts.Client, header: opts.Header}, nil
}

// URL returns the endpoint for params.
func (t *Transport) URL(params protocol.Params) string {
	u := *t.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(t.path, "/")
	u.RawQuery = params.Encode()
	return u.String()
}

func (t *Transport) Open(ctx context.Context, params protocol.Params) (console.Channel, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(params), nil)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "build request")
	}
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "open event stream")
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		cancel()
		msg := strings.TrimSpace(string(b))
		if msg != "" {
			return nil, errors.Errorf("status %s: %s", resp.Status, msg)
		}
		return nil, errors.Errorf("status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "text/event-stream") {
		_ = resp.Body.Close()
		cancel()
		return nil, errors.Errorf("unexpected content type %q", ct)
	}

	s := &stream{
		body:   resp.Body,
		cancel: cancel,
		out:    make(chan []byte),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.read()
	return s, nil
}

type stream struct {
	body   io.ReadCloser
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
		s.cancel()
		_ = s.body.Close()
		<-s.done
	})
	return nil
}

func (s *stream) read() {
	defer close(s.done)
	defer close(s.out)

	err := scanEvents(s.body, func(data []byte) bool {
		select {
		case s.out <- data:
			return true
		case <-s.stop:
			return false
		}
	})
	if s.closing.Load() {
		return
	}
	if err == nil || errors.Is(err, io.EOF) {
		s.err = console.ErrStreamEnded
		return
	}
	log.Debug().Err(err).Msg("sse read error")
	s.err = errors.Wrap(err, "read event stream")
}

// scanEvents parses a text/event-stream body and calls emit with the data of
// each message event. It stops when emit returns false or the body ends.
func scanEvents(r io.Reader, emit func(data []byte) bool) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var data []string
	var event string
	hasData := false

	for {
		line, err := br.ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if hasData && (event == "" || event == "message") {
				if !emit([]byte(strings.Join(data, "\n"))) {
					return nil
				}
			}
			data, event, hasData = data[:0], "", false
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "data":
				data = append(data, value)
				hasData = true
			case "event":
				event = value
			}
		}

		if err != nil {
			return err
		}
	}
}
