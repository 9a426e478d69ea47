package mcpadapter

import (
	"context"
	"sync/atomic"
	"time"

	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/auth"
	"github.com/viant/mcpadapter/bridge"
	"github.com/viant/mcpadapter/catalog"
	"github.com/viant/mcpadapter/policy"
	"github.com/viant/mcpadapter/session"
)

// catalogRefreshTimeout bounds background refreshes triggered by server-side
// tool list change notifications.
const catalogRefreshTimeout = 30 * time.Second

// Adapter is the embedding surface: it owns one session per server endpoint
// and exposes the filtered tool catalog and invocation entry points.
type Adapter struct {
	config  *Config
	session *session.Session
	catalog *catalog.Catalog
	bridge  *bridge.Bridge
	router  *bridge.Router
	policy  atomic.Pointer[policy.Policy]
}

// New assembles an adapter from declarative configuration. Credential
// configuration is validated here, before any connection is attempted; unless
// deferred, the session is opened and the catalog fetched before New returns.
func New(ctx context.Context, config *Config, opts ...Option) (*Adapter, error) {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	httpClient := o.httpClient
	if httpClient == nil && config.Auth != nil {
		roundTripper, err := auth.New(ctx, config.Auth)
		if err != nil {
			return nil, err
		}
		httpClient = roundTripper.HTTPClient()
	}

	ret := &Adapter{config: config, catalog: catalog.New(), router: bridge.NewRouter()}
	initial := o.policy
	if initial == nil {
		initial = config.initialPolicy()
	}
	ret.policy.Store(initial)

	negotiatorOptions := o.negotiatorOptions
	if config.Protocol != "" {
		negotiatorOptions = append(negotiatorOptions, session.WithProtocolVersion(config.Protocol))
	}
	negotiator := session.NewNegotiator(config.Name, config.Version, negotiatorOptions...)

	dial, err := session.NewDialer(config.Transport.URL, session.DialerOptions{
		Kind:       session.TransportKind(config.Transport.Type),
		HTTPClient: httpClient,
		Handler:    ret.router,
		Listener:   o.messageListener,
	})
	if err != nil {
		return nil, err
	}

	sessionOptions := []session.Option{
		session.WithBackoff(config.backoff()),
		session.WithDegradedWait(time.Duration(config.DegradedWaitMs) * time.Millisecond),
		session.WithReadyHook(func(ctx context.Context, aTransport session.Transport, capabilities *session.Capabilities) {
			if !capabilities.Tools {
				return
			}
			// a failed refresh keeps the previous snapshot in use
			_, _ = ret.catalog.Refresh(ctx, bridge.ListerOver(aTransport))
		}),
	}
	if config.PingIntervalSeconds > 0 {
		sessionOptions = append(sessionOptions, session.WithPingInterval(time.Duration(config.PingIntervalSeconds)*time.Second))
	}
	for _, listener := range o.listeners {
		sessionOptions = append(sessionOptions, session.WithListener(listener))
	}

	ret.session = session.New(config.Transport.URL, dial, negotiator, sessionOptions...)
	ret.bridge = bridge.New(ret.session, ret.catalog, func() *policy.Policy { return ret.policy.Load() }, ret.router)
	ret.router.OnToolListChanged(func() {
		go func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), catalogRefreshTimeout)
			defer cancel()
			_, _ = ret.catalog.Refresh(refreshCtx, ret.bridge)
		}()
	})

	if o.openOnNew {
		if err := ret.session.Open(ctx); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Open connects a deferred adapter; it is a no-op equivalent of the connect
// New performs by default.
func (a *Adapter) Open(ctx context.Context) error {
	return a.session.Open(ctx)
}

// ListExposedTools returns the catalog tools visible under the current policy,
// in server-advertised order. The result is empty before the first refresh.
func (a *Adapter) ListExposedTools() []mcpschema.Tool {
	return a.policy.Load().Apply(a.catalog.Snapshot())
}

// Invoke calls an exposed tool and blocks for its result.
func (a *Adapter) Invoke(ctx context.Context, name string, arguments map[string]interface{}) (*mcpschema.CallToolResult, error) {
	return a.bridge.Invoke(ctx, name, arguments)
}

// InvokeStream calls an exposed tool, delivering partial results as the server
// reports progress.
func (a *Adapter) InvokeStream(ctx context.Context, name string, arguments map[string]interface{}) (*bridge.Stream, error) {
	return a.bridge.InvokeStream(ctx, name, arguments)
}

// RefreshCatalog re-fetches the tool list over the live session. On failure the
// previous snapshot remains in use.
func (a *Adapter) RefreshCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	return a.catalog.Refresh(ctx, a.bridge)
}

// Catalog returns the current catalog snapshot, unfiltered.
func (a *Adapter) Catalog() *catalog.Snapshot {
	return a.catalog.Snapshot()
}

// SetPolicy swaps the tool filter; the change applies to the next access with
// no reconnect or refresh.
func (a *Adapter) SetPolicy(aPolicy *policy.Policy) {
	if aPolicy == nil {
		aPolicy = policy.AllowAll()
	}
	a.policy.Store(aPolicy)
}

// Policy returns the active tool filter.
func (a *Adapter) Policy() *policy.Policy {
	return a.policy.Load()
}

// State returns the session lifecycle state.
func (a *Adapter) State() session.State {
	return a.session.State()
}

// Capabilities returns the negotiated server capabilities, nil before the
// first handshake.
func (a *Adapter) Capabilities() *session.Capabilities {
	return a.session.Capabilities()
}

// LastError returns the most recent session-level error.
func (a *Adapter) LastError() error {
	return a.session.LastError()
}

// Listen registers a session lifecycle listener.
func (a *Adapter) Listen(listener session.Listener) {
	a.session.Listen(listener)
}

// Shutdown closes the session and drops the catalog. The adapter cannot be
// reused afterwards.
func (a *Adapter) Shutdown() error {
	err := a.session.Close()
	a.catalog.Invalidate()
	return err
}
