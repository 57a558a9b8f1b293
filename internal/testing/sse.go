package testing

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// SSEServer is an event-stream endpoint whose frames are pushed by the test.
//
// Every connection receives frames from the same queue, so after a [SSEServer.Drop] the next
// connection picks up where the previous one stopped.
type SSEServer struct {
	*httptest.Server

	frames chan string
	quit   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	requests []*http.Request
	preamble string
}

// dropFrame ends the current connection.
const dropFrame = "\x00drop"

// NewSSEServer starts an SSEServer that is closed when the test ends.
func NewSSEServer(t *testing.T) *SSEServer {
	t.Helper()
	s := &SSEServer{
		frames: make(chan string, 64),
		quit:   make(chan struct{}),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *SSEServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	preamble := s.preamble
	s.mu.Unlock()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if preamble != "" {
		fmt.Fprint(w, preamble)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.quit:
			return
		case frame := <-s.frames:
			if frame == dropFrame {
				return
			}
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
	}
}

// SetPreamble sets raw text written to every new connection, e.g. "retry: 10\n\n".
func (s *SSEServer) SetPreamble(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preamble = text
}

// Send queues raw frame text.
func (s *SSEServer) Send(raw string) {
	s.frames <- raw
}

// Event queues a frame with the given kind, data and optional id.
func (s *SSEServer) Event(kind, data, id string) {
	var b strings.Builder
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	if kind != "" {
		fmt.Fprintf(&b, "event: %s\n", kind)
	}
	for line := range strings.SplitSeq(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	s.Send(b.String())
}

// Drop ends the current connection once the frames queued before it were written.
func (s *SSEServer) Drop() {
	s.frames <- dropFrame
}

// Requests returns the requests received so far.
func (s *SSEServer) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// Close ends open connections and shuts the server down.
func (s *SSEServer) Close() {
	s.once.Do(func() {
		close(s.quit)
		s.Server.CloseClientConnections()
		s.Server.Close()
	})
}
