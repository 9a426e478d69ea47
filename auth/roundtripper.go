package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/viant/mcpadapter/fault"
)

// RoundTripper decorates an HTTP transport so every outbound request carries
// the configured credentials. It is the single choke point for credential
// attachment: both the SSE event stream and message posts go through it.
type RoundTripper struct {
	config      *Config
	transport   http.RoundTripper
	tokenSource oauth2.TokenSource
}

// Option customises a RoundTripper.
type Option func(r *RoundTripper)

// WithTransport sets the underlying transport, defaulting to http.DefaultTransport.
func WithTransport(transport http.RoundTripper) Option {
	return func(r *RoundTripper) {
		r.transport = transport
	}
}

// New validates the configuration and builds the credential-injecting round
// tripper. Configuration problems are returned here, before any request is sent.
func New(ctx context.Context, config *Config, options ...Option) (*RoundTripper, error) {
	if config == nil {
		config = None()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &RoundTripper{config: config, transport: http.DefaultTransport}
	for _, option := range options {
		option(ret)
	}
	if config.Mode == ModeOAuth2 {
		source, err := config.tokenSource(ctx)
		if err != nil {
			return nil, err
		}
		ret.tokenSource = oauth2.ReuseTokenSource(nil, source)
	}
	return ret, nil
}

// RoundTrip attaches credentials to a clone of the request; the original is
// never mutated.
func (r *RoundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	switch r.config.Mode {
	case "", ModeNone:
		return r.transport.RoundTrip(request)
	case ModeBearer:
		outbound := clone(request)
		outbound.Header.Set("Authorization", "Bearer "+r.config.Token)
		return r.transport.RoundTrip(outbound)
	case ModeHeaders:
		outbound := clone(request)
		for name, value := range r.config.Headers {
			outbound.Header.Set(name, value)
		}
		return r.transport.RoundTrip(outbound)
	case ModeOAuth2:
		token, err := r.tokenSource.Token()
		if err != nil {
			return nil, fault.Wrap(fault.Connection, "failed to obtain oauth2 token", err)
		}
		outbound := clone(request)
		token.SetAuthHeader(outbound)
		return r.transport.RoundTrip(outbound)
	}
	return r.transport.RoundTrip(request)
}

// HTTPClient returns an HTTP client routing through this round tripper.
func (r *RoundTripper) HTTPClient() *http.Client {
	return &http.Client{Transport: r}
}

func clone(request *http.Request) *http.Request {
	return request.Clone(request.Context())
}
