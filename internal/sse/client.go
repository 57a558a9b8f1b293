package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
)

const (
	DefaultRetry      = 3 * time.Second
	DefaultMaxBackoff = 30 * time.Second
	ContentType       = "text/event-stream"
)

// ClientOpts configures a [Client]. Zero values select the defaults.
type ClientOpts struct {
	HTTPClient    *http.Client
	Logger        *log.Logger
	Retry         time.Duration     // Reconnection time until the server sends one
	MaxBackoff    time.Duration     // Upper bound of the reconnect delay
	ReconnectRate float64           // Connection attempts per second; 0 disables pacing
	Headers       map[string]string // Extra request headers
	Status        chan<- StatusUpdate
}

// Client opens event streams. It implements [livesync.Transport].
type Client struct {
	httpClient    *http.Client
	logger        *log.Logger
	retry         time.Duration
	maxBackoff    time.Duration
	reconnectRate float64
	headers       map[string]string
	status        chan<- StatusUpdate
}

// NewClient creates a [Client].
func NewClient(opts ClientOpts) *Client {
	c := &Client{
		httpClient:    opts.HTTPClient,
		logger:        opts.Logger,
		retry:         opts.Retry,
		maxBackoff:    opts.MaxBackoff,
		reconnectRate: opts.ReconnectRate,
		headers:       maps.Clone(opts.Headers),
		status:        opts.Status,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	if c.retry <= 0 {
		c.retry = DefaultRetry
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = DefaultMaxBackoff
	}
	if c.maxBackoff < c.retry {
		c.maxBackoff = c.retry
	}
	return c
}

// Subscribe starts a [Stream] to endpoint and returns without waiting for the connection.
func (c *Client) Subscribe(ctx context.Context, endpoint *url.URL, handler livesync.Handler) (livesync.Subscription, error) {
	return c.Open(ctx, endpoint, handler)
}

// Open is Subscribe returning the concrete [Stream].
func (c *Client) Open(ctx context.Context, endpoint *url.URL, handler livesync.Handler) (*Stream, error) {
	if endpoint == nil {
		return nil, fmt.Errorf("%w: endpoint is required", shared.ErrInvalidInput)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: handler is required", shared.ErrInvalidInput)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", shared.ErrInvalidInput, endpoint.Scheme)
	}

	ctx, cancel := context.WithCancel(ctx)
	id := shared.GenerateID()
	s := &Stream{
		id:       id,
		client:   c,
		endpoint: endpoint.String(),
		handler:  handler,
		logger:   shared.WithLogger(c.logger, "stream", id),
		cancel:   cancel,
		done:     make(chan struct{}),
		retry:    c.retry,
	}
	go s.run(ctx)
	return s, nil
}

// Stream is a reconnecting event stream.
type Stream struct {
	id       string
	client   *Client
	endpoint string
	handler  livesync.Handler
	logger   *log.Logger
	cancel   context.CancelFunc
	done     chan struct{}

	mu     sync.Mutex
	err    error
	lastID string
	retry  time.Duration
}

// ID returns the subscription id.
func (s *Stream) ID() string { return s.id }

// Done is closed once the stream has stopped for good.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Close stops the stream and waits for the reader goroutine to exit.
func (s *Stream) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// Err returns the fatal error that stopped the stream, or nil.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// LastEventID returns the id that will be sent on the next reconnect.
func (s *Stream) LastEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)

	limit := rate.Inf
	if s.client.reconnectRate > 0 {
		limit = rate.Limit(s.client.reconnectRate)
	}
	limiter := rate.NewLimiter(limit, 1)

	failures := 0
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			s.closed(attempt, nil)
			return
		}

		s.notify(StatusUpdate{State: Connecting, Attempt: attempt})
		opened, err := s.connect(ctx, attempt)
		if ctx.Err() != nil {
			s.closed(attempt, nil)
			return
		}
		if isFatal(err) {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			s.logger.Error("stream failed", "endpoint", s.endpoint, "error", err)
			s.closed(attempt, err)
			return
		}

		if opened {
			failures = 0
		} else {
			failures++
		}
		delay := s.backoff(failures)
		s.logger.Debug("reconnecting", "delay", delay, "attempt", attempt, "error", err)
		s.notify(StatusUpdate{State: Reconnecting, Attempt: attempt, Delay: delay, Err: err})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.closed(attempt, nil)
			return
		case <-timer.C:
		}
	}
}

// backoff doubles the reconnection time for every consecutive failure.
func (s *Stream) backoff(failures int) time.Duration {
	s.mu.Lock()
	delay := s.retry
	s.mu.Unlock()

	ceiling := s.client.maxBackoff
	for range failures {
		if delay >= ceiling/2 {
			return ceiling
		}
		delay *= 2
	}
	return min(delay, ceiling)
}

// connect runs one connection until it ends. opened reports whether the stream was established.
func (s *Stream) connect(ctx context.Context, attempt int) (opened bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	req.Header.Set("Accept", ContentType)
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range s.client.headers {
		req.Header.Set(k, v)
	}
	if id := s.LastEventID(); id != "" {
		req.Header.Set("Last-Event-ID", id)
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return false, shared.ErrStreamClosed
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%w: %s", shared.ErrBadStatus, resp.Status)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != ContentType {
		return false, fmt.Errorf("%w: %q", shared.ErrBadContentType, resp.Header.Get("Content-Type"))
	}

	s.logger.Info("stream open", "endpoint", s.endpoint, "attempt", attempt)
	s.notify(StatusUpdate{State: Open, Attempt: attempt})

	dec := NewDecoder(resp.Body)
	dec.SetLastEventID(s.LastEventID())
	for {
		ev, err := dec.Next()
		s.sync(dec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return true, fmt.Errorf("%w: end of stream", shared.ErrTransport)
			}
			return true, fmt.Errorf("%w: %v", shared.ErrTransport, err)
		}
		s.handler(ev)
	}
}

func (s *Stream) sync(dec *Decoder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID = dec.LastEventID()
	if r := dec.Retry(); r > 0 {
		s.retry = r
	}
}

func (s *Stream) notify(u StatusUpdate) {
	u.SubscriptionID = s.id
	sendStatus(s.client.status, u)
}

func (s *Stream) closed(attempt int, err error) {
	s.logger.Debug("stream closed", "endpoint", s.endpoint)
	s.notify(StatusUpdate{State: Closed, Attempt: attempt, Err: err})
}

func isFatal(err error) bool {
	return errors.Is(err, shared.ErrStreamClosed) ||
		errors.Is(err, shared.ErrBadStatus) ||
		errors.Is(err, shared.ErrBadContentType) ||
		errors.Is(err, shared.ErrInvalidInput)
}
