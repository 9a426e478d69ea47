package session

// State is the session lifecycle state.
type State string

const (
	// StateConnecting means the initial dial or handshake has not completed yet.
	StateConnecting State = "connecting"
	// StateReady means the transport is open, the handshake succeeded and the
	// catalog hooks have run; invocations may proceed.
	StateReady State = "ready"
	// StateDegraded means the transport failed unexpectedly and reconnection
	// with backoff is in progress.
	StateDegraded State = "degraded"
	// StateClosed is terminal: the transport is released and every subsequent
	// operation is rejected.
	StateClosed State = "closed"
)

func (s State) String() string {
	return string(s)
}
