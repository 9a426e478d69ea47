package mcpadapter

import (
	"net/http"

	"github.com/viant/jsonrpc"

	"github.com/viant/mcpadapter/policy"
	"github.com/viant/mcpadapter/session"
)

type options struct {
	httpClient        *http.Client
	policy            *policy.Policy
	listeners         []session.Listener
	messageListener   func(message *jsonrpc.Message)
	negotiatorOptions []session.NegotiatorOption
	openOnNew         bool
}

// Option customises an Adapter beyond what Config declares.
type Option func(o *options)

// WithHTTPClient overrides the HTTP client used by the transport, replacing
// the one derived from the auth configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithPolicy sets the initial tool filter, overriding Config.Policy.
func WithPolicy(aPolicy *policy.Policy) Option {
	return func(o *options) {
		o.policy = aPolicy
	}
}

// WithListener registers a session lifecycle listener.
func WithListener(listener session.Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, listener)
	}
}

// WithMessageListener observes every raw jsonrpc message for diagnostics.
// Listeners see wire payloads, never credential material.
func WithMessageListener(listener func(message *jsonrpc.Message)) Option {
	return func(o *options) {
		o.messageListener = listener
	}
}

// WithNegotiatorOptions customises the protocol handshake.
func WithNegotiatorOptions(negotiatorOptions ...session.NegotiatorOption) Option {
	return func(o *options) {
		o.negotiatorOptions = append(o.negotiatorOptions, negotiatorOptions...)
	}
}

// WithDeferredOpen skips connecting inside New; the caller opens the session
// explicitly via Open.
func WithDeferredOpen() Option {
	return func(o *options) {
		o.openOnNew = false
	}
}

func newOptions(opts []Option) *options {
	ret := &options{openOnNew: true}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
