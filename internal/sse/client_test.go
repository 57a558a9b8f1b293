package sse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
	tu "github.com/desertthunder/dexwatch/internal/testing"
)

func newTestClient(opts ClientOpts) *Client {
	opts.Logger = shared.NewLogger(io.Discard)
	return NewClient(opts)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", raw, err)
	}
	return u
}

func collect() (livesync.Handler, <-chan livesync.Event) {
	ch := make(chan livesync.Event, 32)
	return func(ev livesync.Event) { ch <- ev }, ch
}

func next(t *testing.T, ch <-chan livesync.Event) livesync.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return livesync.Event{}
	}
}

func TestClient_Subscribe(t *testing.T) {
	t.Run("delivers events in order", func(t *testing.T) {
		srv := tu.NewSSEServer(t)
		client := newTestClient(ClientOpts{Headers: map[string]string{"X-Dex-Token": "abc"}})
		handler, events := collect()

		sub, err := client.Subscribe(context.Background(), mustURL(t, srv.URL+"/sse/x/1"), handler)
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		defer sub.Close()

		srv.Event("boxes", `[["caught"]]`, "1")
		srv.Event("caught", "3|1|2", "")

		if ev := next(t, events); ev.Kind != "boxes" || ev.Data != `[["caught"]]` || ev.ID != "1" {
			t.Errorf("first event = %+v", ev)
		}
		if ev := next(t, events); ev.Kind != "caught" || ev.Data != "3|1|2" {
			t.Errorf("second event = %+v", ev)
		}

		reqs := srv.Requests()
		if len(reqs) != 1 {
			t.Fatalf("got %d requests, want 1", len(reqs))
		}
		h := reqs[0].Header
		if h.Get("Accept") != ContentType || h.Get("Cache-Control") != "no-cache" || h.Get("X-Dex-Token") != "abc" {
			t.Errorf("unexpected headers: %v", h)
		}
		if h.Get("Last-Event-ID") != "" {
			t.Errorf("first request sent Last-Event-ID %q", h.Get("Last-Event-ID"))
		}
		if reqs[0].URL.Path != "/sse/x/1" {
			t.Errorf("path = %q", reqs[0].URL.Path)
		}
	})

	t.Run("reconnects with last event id", func(t *testing.T) {
		srv := tu.NewSSEServer(t)
		client := newTestClient(ClientOpts{Retry: 10 * time.Millisecond})
		handler, events := collect()

		sub, err := client.Subscribe(context.Background(), mustURL(t, srv.URL), handler)
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		defer sub.Close()

		srv.Event("boxes", "[]", "5")
		srv.Drop()
		srv.Event("boxes", "[]", "6")

		next(t, events)
		if ev := next(t, events); ev.ID != "6" {
			t.Errorf("second event id = %q, want 6", ev.ID)
		}

		reqs := srv.Requests()
		if len(reqs) < 2 {
			t.Fatalf("got %d requests, want at least 2", len(reqs))
		}
		if got := reqs[1].Header.Get("Last-Event-ID"); got != "5" {
			t.Errorf("Last-Event-ID = %q, want 5", got)
		}
	})

	t.Run("server retry overrides default", func(t *testing.T) {
		srv := tu.NewSSEServer(t)
		srv.SetPreamble("retry: 5\n\n")
		client := newTestClient(ClientOpts{Retry: time.Minute})
		handler, events := collect()

		sub, err := client.Subscribe(context.Background(), mustURL(t, srv.URL), handler)
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		defer sub.Close()

		srv.Drop()
		srv.Event("caught", "1|1|1", "")

		if ev := next(t, events); ev.Kind != "caught" {
			t.Errorf("event = %+v", ev)
		}
	})

	t.Run("rejects unsupported scheme", func(t *testing.T) {
		client := newTestClient(ClientOpts{})
		handler, _ := collect()

		_, err := client.Subscribe(context.Background(), mustURL(t, "ftp://h/x"), handler)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestClient_Fatal(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name:    "no content",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) },
			wantErr: shared.ErrStreamClosed,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantErr: shared.ErrBadStatus,
		},
		{
			name: "wrong content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(http.StatusOK)
			},
			wantErr: shared.ErrBadContentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			status := make(chan StatusUpdate, 16)
			client := newTestClient(ClientOpts{Retry: time.Millisecond, Status: status})
			handler, _ := collect()

			stream, err := client.Open(context.Background(), mustURL(t, srv.URL), handler)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}

			select {
			case <-stream.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("stream did not stop")
			}

			if !errors.Is(stream.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want %v", stream.Err(), tt.wantErr)
			}
			if n := hits.Load(); n != 1 {
				t.Errorf("server hit %d times, want 1", n)
			}

			var last StatusUpdate
			for len(status) > 0 {
				last = <-status
			}
			if last.State != Closed || !errors.Is(last.Err, tt.wantErr) {
				t.Errorf("last status = %+v", last)
			}
		})
	}
}

func TestStream_Status(t *testing.T) {
	srv := tu.NewSSEServer(t)
	status := make(chan StatusUpdate, 16)
	client := newTestClient(ClientOpts{Status: status})
	handler, _ := collect()

	stream, err := client.Open(context.Background(), mustURL(t, srv.URL), handler)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	want := []State{Connecting, Open}
	for _, state := range want {
		select {
		case u := <-status:
			if u.State != state {
				t.Fatalf("state = %v, want %v", u.State, state)
			}
			if u.SubscriptionID != stream.ID() {
				t.Errorf("SubscriptionID = %q, want %q", u.SubscriptionID, stream.ID())
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %v", state)
		}
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case u := <-status:
		if u.State != Closed || u.Err != nil {
			t.Errorf("final status = %+v, want clean close", u)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no Closed status")
	}
	if stream.Err() != nil {
		t.Errorf("Err() = %v after Close", stream.Err())
	}
}

func TestStream_Backoff(t *testing.T) {
	s := &Stream{client: &Client{maxBackoff: time.Second}, retry: 100 * time.Millisecond}

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{40, time.Second},
	}

	for _, tt := range tests {
		if got := s.backoff(tt.failures); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		Connecting:   "connecting",
		Open:         "open",
		Reconnecting: "reconnecting",
		Closed:       "closed",
		State(99):    "",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestSendStatus(t *testing.T) {
	ch := make(chan StatusUpdate, 1)
	sendStatus(ch, StatusUpdate{State: Open})
	sendStatus(ch, StatusUpdate{State: Closed})
	sendStatus(nil, StatusUpdate{State: Closed})

	if u := <-ch; u.State != Open {
		t.Errorf("state = %v, want open", u.State)
	}
	if len(ch) != 0 {
		t.Error("full channel should drop updates")
	}
}

func TestClient_TruncatedFrame(t *testing.T) {
	t.Run("reconnect resumes after the last complete frame", func(t *testing.T) {
		srv := tu.NewSSEServer(t)
		client := newTestClient(ClientOpts{Retry: 10 * time.Millisecond})
		handler, events := collect()

		sub, err := client.Subscribe(context.Background(), mustURL(t, srv.URL), handler)
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		defer sub.Close()

		srv.Send("id: 1\nevent: boxes\ndata: [[\"caught\"]]\n\nid: 2\nevent: boxes\ndata: [[\"missing\"]]\n")
		srv.Drop()
		srv.Event("caught", "red|1|2", "3")

		if ev := next(t, events); ev.ID != "1" {
			t.Errorf("first event id = %q, want 1", ev.ID)
		}
		if ev := next(t, events); ev.ID != "3" || ev.Kind != "caught" {
			t.Errorf("second event = %+v, want the caught event with id 3", ev)
		}

		reqs := srv.Requests()
		if len(reqs) < 2 {
			t.Fatalf("got %d requests, want at least 2", len(reqs))
		}
		if got := reqs[1].Header.Get("Last-Event-ID"); got != "1" {
			t.Errorf("Last-Event-ID = %q, want 1", got)
		}
	})

	t.Run("body failing mid-frame", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil,
			tu.EventStreamResponse(tu.NewFCloser("id: 1\nevent: boxes\ndata: [[\"caught\"]]\n\nid: 2\nevent: boxes\ndata: [[\"mis")),
			&http.Response{StatusCode: http.StatusNoContent, Status: "204 No Content", Header: http.Header{}, Body: http.NoBody},
		)
		client := newTestClient(ClientOpts{HTTPClient: &http.Client{Transport: rt}, Retry: time.Millisecond})
		handler, events := collect()

		stream, err := client.Open(context.Background(), mustURL(t, "http://dex.test/sse/red/1"), handler)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer stream.Close()

		if ev := next(t, events); ev.ID != "1" || ev.Kind != "boxes" {
			t.Errorf("event = %+v", ev)
		}

		select {
		case <-stream.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("stream did not stop after 204")
		}
		if !errors.Is(stream.Err(), shared.ErrStreamClosed) {
			t.Errorf("Err() = %v, want ErrStreamClosed", stream.Err())
		}

		select {
		case ev := <-events:
			t.Errorf("truncated frame was dispatched: %+v", ev)
		default:
		}

		reqs := rt.Requests()
		if len(reqs) != 2 {
			t.Fatalf("got %d requests, want 2", len(reqs))
		}
		if got := reqs[1].Header.Get("Last-Event-ID"); got != "1" {
			t.Errorf("Last-Event-ID = %q, want 1", got)
		}
	})
}

func TestClient_TransportError(t *testing.T) {
	status := make(chan StatusUpdate, 64)
	rt := tu.NewMockRoundTripper(errors.New("connection refused"))
	client := newTestClient(ClientOpts{
		HTTPClient: &http.Client{Transport: rt},
		Retry:      time.Millisecond,
		MaxBackoff: 5 * time.Millisecond,
		Status:     status,
	})
	handler, _ := collect()

	stream, err := client.Open(context.Background(), mustURL(t, "http://dex.test/sse/red/1"), handler)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer stream.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-status:
			if u.State != Reconnecting {
				continue
			}
			if !errors.Is(u.Err, shared.ErrTransport) {
				t.Errorf("reconnect error = %v, want ErrTransport", u.Err)
			}
			if stream.Err() != nil {
				t.Errorf("Err() = %v, transport errors are not fatal", stream.Err())
			}
			return
		case <-deadline:
			t.Fatal("no reconnect reported")
		}
	}
}

func TestClient_LineLimit(t *testing.T) {
	status := make(chan StatusUpdate, 64)
	rt := tu.NewMockRoundTripper(nil,
		tu.EventStreamResponse(io.NopCloser(strings.NewReader("data: "+strings.Repeat("x", MaxLineSize)+"\n\n"))),
		&http.Response{StatusCode: http.StatusNoContent, Status: "204 No Content", Header: http.Header{}, Body: http.NoBody},
	)
	client := newTestClient(ClientOpts{HTTPClient: &http.Client{Transport: rt}, Retry: time.Millisecond, Status: status})
	handler, events := collect()

	stream, err := client.Open(context.Background(), mustURL(t, "http://dex.test/sse/red/1"), handler)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer stream.Close()

	select {
	case <-stream.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop")
	}

	select {
	case ev := <-events:
		t.Errorf("oversized frame was dispatched: %d bytes", len(ev.Data))
	default:
	}

	for {
		select {
		case u := <-status:
			if u.State == Reconnecting {
				if !errors.Is(u.Err, shared.ErrTransport) {
					t.Errorf("reconnect error = %v, want ErrTransport", u.Err)
				}
				return
			}
		default:
			t.Fatal("oversized line did not trigger a reconnect")
		}
	}
}
