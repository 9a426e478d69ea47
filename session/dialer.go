package session

import (
	"context"
	"net/http"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/http/sse"
	"github.com/viant/jsonrpc/transport/client/http/streamable"

	"github.com/viant/mcpadapter/fault"
)

// TransportKind selects the wire transport used to reach the server.
type TransportKind string

const (
	// TransportSSE uses the server-sent events transport.
	TransportSSE TransportKind = "sse"
	// TransportStreamable uses the streamable HTTP transport.
	TransportStreamable TransportKind = "streamable"
)

// DialerOptions configures transport construction for each dial.
type DialerOptions struct {
	// Kind selects sse or streamable; streamable is the default.
	Kind TransportKind
	// HTTPClient carries the credential-injecting round tripper; nil uses the
	// default client.
	HTTPClient *http.Client
	// Handler receives server-to-client requests and notifications.
	Handler transport.Handler
	// Listener observes every raw message for diagnostics.
	Listener func(message *jsonrpc.Message)
}

// NewDialer builds a Dialer for the endpoint. Each invocation of the returned
// function opens a fresh transport, so reconnects never reuse a broken stream.
func NewDialer(endpoint string, options DialerOptions) (Dialer, error) {
	if endpoint == "" {
		return nil, fault.New(fault.Connection, "endpoint is required")
	}
	kind := options.Kind
	if kind == "" {
		kind = TransportStreamable
	}
	switch kind {
	case TransportSSE:
		return func(ctx context.Context) (Transport, error) {
			opts := []sse.Option{}
			if options.HTTPClient != nil {
				opts = append(opts, sse.WithHttpClient(options.HTTPClient), sse.WithMessageHttpClient(options.HTTPClient))
			}
			if options.Handler != nil {
				opts = append(opts, sse.WithHandler(options.Handler))
			}
			if options.Listener != nil {
				opts = append(opts, sse.WithListener(options.Listener))
			}
			ret, err := sse.New(ctx, endpoint, opts...)
			if err != nil {
				return nil, fault.Wrap(fault.Connection, "failed to create SSE transport", err)
			}
			return ret, nil
		}, nil
	case TransportStreamable:
		return func(ctx context.Context) (Transport, error) {
			opts := []streamable.Option{}
			if options.HTTPClient != nil {
				opts = append(opts, streamable.WithHTTPClient(options.HTTPClient))
			}
			if options.Handler != nil {
				opts = append(opts, streamable.WithHandler(options.Handler))
			}
			if options.Listener != nil {
				opts = append(opts, streamable.WithListener(options.Listener))
			}
			ret, err := streamable.New(ctx, endpoint, opts...)
			if err != nil {
				return nil, fault.Wrap(fault.Connection, "failed to create streamable transport", err)
			}
			return ret, nil
		}, nil
	default:
		return nil, fault.Newf(fault.Connection, "unsupported transport kind: %v", kind)
	}
}
