package session

import "time"

// EventKind identifies a session lifecycle event.
type EventKind string

const (
	// EventConnected fires when the session enters Ready, on first connect and
	// after each successful reconnect.
	EventConnected EventKind = "connected"
	// EventDisconnected fires when the transport fails and the session
	// degrades.
	EventDisconnected EventKind = "disconnected"
	// EventReconnectFailed fires when the retry budget is exhausted and the
	// session closes.
	EventReconnectFailed EventKind = "reconnect_failed"
	// EventClosed fires on explicit shutdown.
	EventClosed EventKind = "closed"
)

// Event is a lifecycle notification delivered to registered listeners.
type Event struct {
	Kind  EventKind
	State State
	Err   error
	Time  time.Time
}

// Listener consumes lifecycle events. Listeners are invoked synchronously and
// must not block.
type Listener func(event Event)
