// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper answers requests with queued responses, one per request, and records the
// requests it was sent. Once the queue is empty every request fails with err.
type MockRoundTripper struct {
	mu        sync.Mutex
	responses []*http.Response
	err       error
	requests  []*http.Request
}

func NewMockRoundTripper(err error, responses ...*http.Response) *MockRoundTripper {
	if err == nil {
		err = errors.New("no response queued")
	}
	return &MockRoundTripper{responses: responses, err: err}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return nil, m.err
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	resp.Request = req
	return resp, nil
}

// Requests returns the requests received so far.
func (m *MockRoundTripper) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

// EventStreamResponse is a 200 text/event-stream response reading from body.
func EventStreamResponse(body io.ReadCloser) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"Content-Type": {"text/event-stream"}},
		Body:       body,
	}
}

// FCloser is a response body that yields its content and then fails instead of reaching EOF,
// like a connection reset mid-stream.
type FCloser struct {
	r *strings.Reader
}

func NewFCloser(content string) *FCloser {
	return &FCloser{r: strings.NewReader(content)}
}

func (f *FCloser) Read(p []byte) (n int, err error) {
	if f.r.Len() == 0 {
		return 0, errors.New("read failed")
	}
	return f.r.Read(p)
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
