// Package session owns the long-lived streaming connection to one MCP server
// endpoint: dialing, handshake, reconnect with backoff and the
// connecting/ready/degraded/closed lifecycle.
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/fault"
	"github.com/viant/mcpadapter/schema"
)

// Transport is the subset of the jsonrpc client transport the session relies on.
type Transport interface {
	Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error)
	Notify(ctx context.Context, notification *jsonrpc.Notification) error
}

// Dialer opens a fresh transport to the endpoint. It is invoked on the initial
// open and on every reconnect attempt.
type Dialer func(ctx context.Context) (Transport, error)

// ReadyHook runs after each successful handshake, before the session is
// observable as Ready (catalog refresh hangs off this).
type ReadyHook func(ctx context.Context, transport Transport, capabilities *Capabilities)

// Session coordinates one logical connection to one server endpoint.
type Session struct {
	endpoint     string
	dial         Dialer
	negotiator   *Negotiator
	backoff      *Backoff
	degradedWait time.Duration
	pingInterval time.Duration

	mux          sync.RWMutex
	state        State
	transport    Transport
	capabilities *Capabilities
	lastError    error
	readyCh      chan struct{}
	closedCh     chan struct{}
	pingGen      int

	listenerMux sync.RWMutex
	listeners   []Listener
	readyHooks  []ReadyHook

	sequence atomic.Uint64
}

// Option customises a Session.
type Option func(s *Session)

// WithBackoff sets the reconnect schedule.
func WithBackoff(backoff *Backoff) Option {
	return func(s *Session) {
		if backoff != nil {
			s.backoff = backoff
		}
	}
}

// WithDegradedWait bounds how long an invocation waits for the Ready
// transition before failing with SessionUnavailable. Zero means fail fast.
func WithDegradedWait(wait time.Duration) Option {
	return func(s *Session) {
		s.degradedWait = wait
	}
}

// WithPingInterval enables a keep-alive ping loop; zero disables it.
func WithPingInterval(interval time.Duration) Option {
	return func(s *Session) {
		s.pingInterval = interval
	}
}

// WithListener registers a lifecycle event listener.
func WithListener(listener Listener) Option {
	return func(s *Session) {
		s.listeners = append(s.listeners, listener)
	}
}

// WithReadyHook registers a hook run on every transition into Ready.
func WithReadyHook(hook ReadyHook) Option {
	return func(s *Session) {
		s.readyHooks = append(s.readyHooks, hook)
	}
}

// New creates a session for the endpoint; Open must be called before use.
func New(endpoint string, dial Dialer, negotiator *Negotiator, options ...Option) *Session {
	ret := &Session{
		endpoint:   endpoint,
		dial:       dial,
		negotiator: negotiator,
		backoff:    DefaultBackoff(),
		state:      StateConnecting,
		readyCh:    make(chan struct{}),
		closedCh:   make(chan struct{}),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Endpoint returns the configured endpoint URI.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.state
}

// LastError returns the most recent session-level error, if any.
func (s *Session) LastError() error {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.lastError
}

// Capabilities returns the negotiated capabilities, or nil before the first
// successful handshake.
func (s *Session) Capabilities() *Capabilities {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.capabilities
}

// Open dials and performs the handshake, retrying transient failures per the
// backoff schedule. An incompatible protocol version fails immediately and
// permanently. On retry-budget exhaustion the session closes.
func (s *Session) Open(ctx context.Context) error {
	switch s.State() {
	case StateClosed:
		return fault.New(fault.SessionClosed, "session is closed")
	case StateReady:
		return nil
	}
	return s.connect(ctx)
}

// connect runs the dial+handshake loop shared by Open and reconnect.
func (s *Session) connect(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < s.backoff.MaxAttempts; attempt++ {
		if delay := s.backoff.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				lastErr = fault.Wrap(fault.Connection, "connect cancelled", ctx.Err())
				s.close(lastErr, EventReconnectFailed)
				return lastErr
			case <-s.closedCh:
				return fault.New(fault.SessionClosed, "session is closed")
			case <-time.After(delay):
			}
		}
		aTransport, err := s.dial(ctx)
		if err != nil {
			lastErr = fault.Wrap(fault.Connection, "failed to dial "+s.endpoint, err)
			continue
		}
		capabilities, err := s.negotiator.Negotiate(ctx, aTransport)
		if err != nil {
			release(aTransport)
			if fault.HasCode(err, fault.IncompatibleProtocol) {
				// fatal: surfaced to the operator, never retried
				s.close(err, EventReconnectFailed)
				return err
			}
			lastErr = err
			continue
		}
		s.ready(ctx, aTransport, capabilities)
		return nil
	}
	if lastErr == nil {
		lastErr = fault.New(fault.Connection, "failed to connect to "+s.endpoint)
	}
	s.close(lastErr, EventReconnectFailed)
	return lastErr
}

// ready installs the transport, runs ready hooks and makes the session observable as Ready.
func (s *Session) ready(ctx context.Context, aTransport Transport, capabilities *Capabilities) {
	for _, hook := range s.readyHooks {
		hook(ctx, aTransport, capabilities)
	}
	s.mux.Lock()
	// already closed, or a concurrent connect won the race; this transport is surplus
	if s.state == StateClosed || s.state == StateReady {
		s.mux.Unlock()
		release(aTransport)
		return
	}
	s.transport = aTransport
	s.capabilities = capabilities
	s.state = StateReady
	s.lastError = nil
	s.pingGen++
	generation := s.pingGen
	close(s.readyCh)
	s.mux.Unlock()

	s.emit(Event{Kind: EventConnected, State: StateReady, Time: time.Now()})
	if s.pingInterval > 0 {
		go s.pingLoop(generation)
	}
}

// Degrade transitions Ready -> Degraded and starts the reconnect loop. Safe to
// call from any goroutine that observed a transport failure.
func (s *Session) Degrade(cause error) {
	s.mux.Lock()
	if s.state != StateReady {
		s.mux.Unlock()
		return
	}
	stale := s.transport
	s.transport = nil
	s.state = StateDegraded
	s.lastError = cause
	s.readyCh = make(chan struct{})
	s.mux.Unlock()

	release(stale)
	s.emit(Event{Kind: EventDisconnected, State: StateDegraded, Err: cause, Time: time.Now()})
	go func() {
		_ = s.connect(context.Background())
	}()
}

// Close transitions to the terminal state, releases the transport and wakes
// all waiters. Subsequent operations fail with SessionClosed.
func (s *Session) Close() error {
	s.close(nil, EventClosed)
	return nil
}

func (s *Session) close(cause error, kind EventKind) {
	s.mux.Lock()
	if s.state == StateClosed {
		s.mux.Unlock()
		return
	}
	stale := s.transport
	s.transport = nil
	s.state = StateClosed
	if cause != nil {
		s.lastError = cause
	}
	close(s.closedCh)
	s.mux.Unlock()

	release(stale)
	s.emit(Event{Kind: kind, State: StateClosed, Err: cause, Time: time.Now()})
}

// acquire returns the live transport, waiting for the Ready transition up to
// the configured degraded wait. It never blocks indefinitely.
func (s *Session) acquire(ctx context.Context) (Transport, error) {
	s.mux.RLock()
	state, aTransport, readyCh := s.state, s.transport, s.readyCh
	s.mux.RUnlock()

	switch state {
	case StateReady:
		return aTransport, nil
	case StateClosed:
		return nil, fault.New(fault.SessionClosed, "session is closed")
	}
	if s.degradedWait <= 0 {
		return nil, fault.Newf(fault.SessionUnavailable, "session is %v", state)
	}
	timer := time.NewTimer(s.degradedWait)
	defer timer.Stop()
	// a waiter that entered before closure is released as unavailable; only
	// invocations issued after closure observe SessionClosed
	select {
	case <-readyCh:
	case <-s.closedCh:
		return nil, fault.New(fault.SessionUnavailable, "session closed while waiting for ready")
	case <-ctx.Done():
		return nil, fault.Wrap(fault.SessionUnavailable, "wait for ready cancelled", ctx.Err())
	case <-timer.C:
		return nil, fault.Newf(fault.SessionUnavailable, "session not ready within %v", s.degradedWait)
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	if s.state != StateReady {
		return nil, fault.Newf(fault.SessionUnavailable, "session is %v", s.state)
	}
	return s.transport, nil
}

// Send routes a request over the live transport; a transport failure degrades
// the session and surfaces as a Connection fault.
func (s *Session) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	aTransport, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	response, sendErr := aTransport.Send(ctx, request)
	if sendErr != nil {
		if ctx.Err() != nil {
			// caller cancelled; the transport may still be healthy
			return nil, fault.Wrap(fault.Invocation, "request cancelled", ctx.Err())
		}
		s.Degrade(sendErr)
		return nil, fault.Wrap(fault.Connection, "send failed", sendErr)
	}
	return response, nil
}

// Notify sends a notification; failures are returned but do not degrade the
// session on a cancelled context.
func (s *Session) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	aTransport, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	if err := aTransport.Notify(ctx, notification); err != nil {
		if ctx.Err() == nil {
			s.Degrade(err)
		}
		return fault.Wrap(fault.Connection, "notify failed", err)
	}
	return nil
}

// NextRequestID allocates a request identifier, delegating to the transport's
// sequencer when it exposes one so identifiers never collide.
func (s *Session) NextRequestID() uint64 {
	s.mux.RLock()
	aTransport := s.transport
	s.mux.RUnlock()
	if sequencer, ok := aTransport.(transport.Sequencer); ok {
		id, _ := jsonrpc.AsRequestIntId(sequencer.NextRequestID())
		return uint64(id)
	}
	return s.sequence.Add(1)
}

// Listen registers a lifecycle listener after construction.
func (s *Session) Listen(listener Listener) {
	s.listenerMux.Lock()
	defer s.listenerMux.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Session) emit(event Event) {
	s.listenerMux.RLock()
	listeners := s.listeners
	s.listenerMux.RUnlock()
	for _, listener := range listeners {
		listener(event)
	}
}

// pingLoop keeps the connection warm while this ready generation is current; a
// failed ping degrades the session the same way a failed send does.
func (s *Session) pingLoop(generation int) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.closedCh:
			return
		case <-ticker.C:
		}
		s.mux.RLock()
		current := s.state == StateReady && s.pingGen == generation
		aTransport := s.transport
		s.mux.RUnlock()
		if !current {
			return
		}
		request, err := jsonrpc.NewRequest(schema.MethodPing, &mcpschema.PingRequestParams{})
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.pingInterval)
		_, err = aTransport.Send(ctx, request)
		cancel()
		if err != nil {
			s.Degrade(err)
			return
		}
	}
}

// release closes a transport when the implementation supports it.
func release(aTransport Transport) {
	if closer, ok := aTransport.(io.Closer); ok {
		_ = closer.Close()
	}
}
