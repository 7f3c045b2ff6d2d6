package http

import (
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"sync"

	perr "popreel/internal/platform/errors"
)

// Stream writes server-sent events to one client
// Send is safe for concurrent use; writes are serialized
type Stream struct {
	mu sync.Mutex
	w  stdhttp.ResponseWriter
	rc *stdhttp.ResponseController
}

// OpenStream writes the event-stream headers and flushes them
func OpenStream(w stdhttp.ResponseWriter) (*Stream, error) {
	rc := stdhttp.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "streaming not supported")
	}
	return &Stream{w: w, rc: rc}, nil
}

// Send writes one event with a JSON payload
func (s *Stream) Send(event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Ping writes a comment line so proxies keep the connection open
func (s *Stream) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}
