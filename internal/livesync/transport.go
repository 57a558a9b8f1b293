package livesync

import (
	"context"
	"net/url"
)

// Event kinds pushed by the server.
const (
	KindBoxes  = "boxes"
	KindCaught = "caught"
)

// Event is one decoded frame from the push stream.
type Event struct {
	ID   string // Last event id seen on the stream, if any
	Kind string // Event name; "message" when the server sent none
	Data string // Payload with multi-line data joined by "\n"
}

// Handler receives events in the order the server sent them.
type Handler func(Event)

// Transport opens a long-lived server-to-client push connection.
//
// Subscribe must not block on the connection itself; events are delivered to handler from a
// single goroutine owned by the transport, and reconnection is the transport's job.
type Transport interface {
	Subscribe(ctx context.Context, endpoint *url.URL, handler Handler) (Subscription, error)
}

// Subscription is an open stream.
type Subscription interface {
	ID() string
	Close() error
}

// Recorder observes every event before it is applied.
type Recorder interface {
	Record(ctx context.Context, sessionID, endpoint string, ev Event) error
}
