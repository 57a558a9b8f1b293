package sse

import (
	"fmt"
	"time"
)

// State is the connection state of a [Stream].
type State int

const (
	Connecting State = iota
	Open
	Reconnecting
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Reconnecting:
		return "reconnecting"
	case Closed:
		return "closed"
	default:
		return ""
	}
}

// StatusUpdate describes a state change of a [Stream].
type StatusUpdate struct {
	SubscriptionID string
	State          State
	Attempt        int           // Connection attempt, starting at 1
	Delay          time.Duration // Wait before the next attempt, set when Reconnecting
	Err            error         // Cause of a reconnect or close, if any
}

// Message renders u for display.
func (u StatusUpdate) Message() string {
	switch u.State {
	case Connecting:
		if u.Attempt > 1 {
			return fmt.Sprintf("Connecting (attempt %d)...", u.Attempt)
		}
		return "Connecting..."
	case Open:
		return "Live"
	case Reconnecting:
		if u.Err != nil {
			return fmt.Sprintf("Reconnecting in %s: %v", u.Delay.Round(time.Millisecond), u.Err)
		}
		return fmt.Sprintf("Reconnecting in %s", u.Delay.Round(time.Millisecond))
	case Closed:
		if u.Err != nil {
			return fmt.Sprintf("Closed: %v", u.Err)
		}
		return "Closed"
	default:
		return ""
	}
}

func sendStatus(ch chan<- StatusUpdate, u StatusUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- u:
	default:
	}
}
