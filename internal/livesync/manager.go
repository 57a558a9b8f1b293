package livesync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dexwatch/internal/shared"
)

// listener decodes and applies one payload.
type listener func(data string) error

// Manager owns the single stream subscription of a page.
type Manager struct {
	transport  Transport
	applicator *Applicator
	dispatcher Dispatcher
	recorder   Recorder
	onApplied  func(Event)
	prefix     string
	queueSize  int
	logger     *log.Logger

	mu        sync.Mutex
	sub       Subscription
	queue     *Queue // set when the manager created its own dispatcher
	listeners map[string]listener
	endpoint  *url.URL
	sessionID string
}

// Option configures a [Manager].
type Option func(*Manager)

// WithPrefix sets the path prefix used by [Endpoint]. Defaults to [DefaultPrefix].
func WithPrefix(prefix string) Option {
	return func(m *Manager) { m.prefix = prefix }
}

// WithDispatcher runs tasks on d instead of a private [Queue].
func WithDispatcher(d Dispatcher) Option {
	return func(m *Manager) { m.dispatcher = d }
}

// WithQueueSize sets the buffer of the private [Queue].
func WithQueueSize(size int) Option {
	return func(m *Manager) { m.queueSize = size }
}

// WithLogger sets the logger. Defaults to [shared.NewLogger] on stderr.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRecorder records every dispatched event before it is applied.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithAppliedHook calls fn on the dispatcher after each event was applied successfully.
func WithAppliedHook(fn func(Event)) Option {
	return func(m *Manager) { m.onApplied = fn }
}

// NewManager creates a Manager that feeds events from transport into applicator.
func NewManager(transport Transport, applicator *Applicator, opts ...Option) *Manager {
	m := &Manager{
		transport:  transport,
		applicator: applicator,
		prefix:     DefaultPrefix,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	return m
}

// Start subscribes using the marker in the location fragment.
//
// Without a marker it returns nil and does nothing: the page simply has no live updates.
func (m *Manager) Start(ctx context.Context, loc *url.URL) error {
	return m.StartWithMarker(ctx, loc, MarkerFromLocation(loc))
}

// StartWithMarker subscribes using an explicit marker.
func (m *Manager) StartWithMarker(ctx context.Context, loc *url.URL, marker string) error {
	if loc == nil {
		return fmt.Errorf("%w: location is required", shared.ErrInvalidInput)
	}
	if marker == "" {
		m.logger.Debug("no version marker, live updates disabled", "location", loc.Redacted())
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sub != nil {
		return shared.ErrAlreadySubscribed
	}

	endpoint := Endpoint(loc, marker, m.prefix)
	sessionID := shared.GenerateID()
	logger := shared.WithLogger(m.logger, "session", sessionID)

	m.listeners = map[string]listener{
		KindBoxes:  m.applicator.ApplyBoxes,
		KindCaught: m.applicator.ApplyCaught,
	}

	dispatcher := m.dispatcher
	if dispatcher == nil {
		m.queue = NewQueue(ctx, m.queueSize)
		dispatcher = m.queue
	}

	handler := m.handler(ctx, dispatcher, sessionID, endpoint.String(), logger)
	sub, err := m.transport.Subscribe(ctx, endpoint, handler)
	if err != nil {
		if m.queue != nil {
			m.queue.Close()
			m.queue = nil
		}
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	m.sub = sub
	m.endpoint = endpoint
	m.sessionID = sessionID
	logger.Info("subscribed", "endpoint", endpoint.Redacted(), "subscription", sub.ID())
	return nil
}

func (m *Manager) handler(ctx context.Context, d Dispatcher, sessionID, endpoint string, logger *log.Logger) Handler {
	listeners := m.listeners
	return func(ev Event) {
		apply, ok := listeners[ev.Kind]
		if !ok {
			logger.Debug("ignoring event", "kind", ev.Kind)
			return
		}

		d.Dispatch(func() {
			if m.recorder != nil {
				if err := m.recorder.Record(ctx, sessionID, endpoint, ev); err != nil {
					logger.Warn("failed to record event", "kind", ev.Kind, "error", err)
				}
			}

			if err := apply(ev.Data); err != nil {
				if ev.Kind == KindCaught && errors.Is(err, shared.ErrMissingTarget) {
					logger.Debug("caught event for unrendered game", "error", err)
				} else {
					logger.Warn("failed to apply event", "kind", ev.Kind, "id", ev.ID, "error", err)
				}
				return
			}

			logger.Debug("applied event", "kind", ev.Kind, "id", ev.ID)
			if m.onApplied != nil {
				m.onApplied(ev)
			}
		})
	}
}

// Active reports whether a subscription is open.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub != nil
}

// Endpoint returns the endpoint of the open subscription, or nil.
func (m *Manager) Endpoint() *url.URL {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

// SessionID returns the id of the open subscription session, or "".
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Close closes the subscription and waits for already received events to be applied.
func (m *Manager) Close() error {
	m.mu.Lock()
	sub, queue := m.sub, m.queue
	m.sub, m.queue, m.endpoint, m.sessionID = nil, nil, nil, ""
	m.mu.Unlock()

	if sub == nil {
		return nil
	}

	err := sub.Close()
	if queue != nil {
		queue.Close()
	}
	return err
}
