package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/fault"
	"github.com/viant/mcpadapter/schema"
)

// Capabilities is the outcome of a successful handshake, consumed by the
// invocation bridge.
type Capabilities struct {
	// ProtocolVersion is the mutually agreed protocol revision.
	ProtocolVersion string
	// ServerInfo identifies the remote implementation.
	ServerInfo mcpschema.Implementation
	// Tools reports whether the server advertises a tool catalog.
	Tools bool
	// Streaming reports whether the server streams partial results via
	// progress notifications (experimental "streaming" capability).
	Streaming bool
	// Instructions carries optional server usage hints.
	Instructions string
}

// Negotiator performs the protocol handshake exactly once per successful dial.
type Negotiator struct {
	info            mcpschema.Implementation
	capabilities    mcpschema.ClientCapabilities
	protocolVersion string
	supported       map[string]bool
}

// NegotiatorOption customises a Negotiator.
type NegotiatorOption func(n *Negotiator)

// WithProtocolVersion overrides the requested protocol version.
func WithProtocolVersion(version string) NegotiatorOption {
	return func(n *Negotiator) {
		n.protocolVersion = version
	}
}

// WithSupportedVersions replaces the set of acceptable server protocol versions.
func WithSupportedVersions(versions ...string) NegotiatorOption {
	return func(n *Negotiator) {
		n.supported = make(map[string]bool, len(versions))
		for _, version := range versions {
			n.supported[version] = true
		}
	}
}

// WithClientCapabilities sets the advertised client capabilities.
func WithClientCapabilities(capabilities mcpschema.ClientCapabilities) NegotiatorOption {
	return func(n *Negotiator) {
		n.capabilities = capabilities
	}
}

// NewNegotiator creates a handshake negotiator identifying this client.
func NewNegotiator(name, version string, options ...NegotiatorOption) *Negotiator {
	ret := &Negotiator{
		info:            *mcpschema.NewImplementation(name, version),
		protocolVersion: mcpschema.LatestProtocolVersion,
		supported: map[string]bool{
			mcpschema.LatestProtocolVersion: true,
			"2025-03-26":                    true,
			"2024-11-05":                    true,
		},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Negotiate exchanges protocol version and capabilities over an open
// transport. A version outside the supported set is fatal for the session:
// the caller must not retry it.
func (n *Negotiator) Negotiate(ctx context.Context, transport Transport) (*Capabilities, error) {
	params := &mcpschema.InitializeRequestParams{
		Capabilities:    n.capabilities,
		ClientInfo:      n.info,
		ProtocolVersion: n.protocolVersion,
	}
	request, err := jsonrpc.NewRequest(schema.MethodInitialize, params)
	if err != nil {
		return nil, fault.Wrap(fault.Connection, "failed to build initialize request", err)
	}
	response, err := transport.Send(ctx, request)
	if err != nil {
		return nil, fault.Wrap(fault.Connection, "initialize exchange failed", err)
	}
	if response.Error != nil {
		return nil, fault.Wrap(fault.Connection, "server rejected initialize", response.Error)
	}
	var result mcpschema.InitializeResult
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, fault.Wrap(fault.Connection, "malformed initialize result", err)
	}
	if !n.supported[result.ProtocolVersion] {
		return nil, fault.Newf(fault.IncompatibleProtocol,
			"server protocol version %q is not supported (requested %q)", result.ProtocolVersion, n.protocolVersion)
	}
	if err := transport.Notify(ctx, &jsonrpc.Notification{Method: schema.MethodNotificationInitialized}); err != nil {
		return nil, fault.Wrap(fault.Connection, fmt.Sprintf("failed to notify %v", schema.MethodNotificationInitialized), err)
	}
	ret := &Capabilities{
		ProtocolVersion: result.ProtocolVersion,
		ServerInfo:      result.ServerInfo,
		Tools:           result.Capabilities.Tools != nil,
	}
	if result.Instructions != nil {
		ret.Instructions = *result.Instructions
	}
	if experimental := result.Capabilities.Experimental; experimental != nil {
		_, ret.Streaming = experimental["streaming"]
	}
	return ret, nil
}
