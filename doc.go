// Package mcpadapter connects an embedding agent runtime to remote MCP tool
// servers.
//
// The package glues the protocol types defined in the
// github.com/viant/mcp-protocol module with concrete transports, credential
// injection and a filtered tool catalog. An Adapter owns one session per
// server endpoint: it dials, negotiates the protocol handshake, keeps the
// connection alive across transient failures with exponential backoff, and
// exposes the server's tools through a visibility policy. Tool invocations are
// validated against the advertised input schema before they reach the wire and
// may stream partial results when the server supports it.
//
// Typical usage:
//
//	adapter, err := mcpadapter.New(ctx, &mcpadapter.Config{
//	    Transport: mcpadapter.TransportConfig{Type: "sse", URL: "https://tools.example.com/sse"},
//	    Auth:      auth.Bearer(token),
//	})
//	if err != nil { ... }
//	defer adapter.Shutdown()
//	result, err := adapter.Invoke(ctx, "search", map[string]interface{}{"query": "weather"})
package mcpadapter
