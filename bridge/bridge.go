package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/catalog"
	"github.com/viant/mcpadapter/fault"
	"github.com/viant/mcpadapter/policy"
	"github.com/viant/mcpadapter/schema"
	"github.com/viant/mcpadapter/session"
)

// cancelNotifyTimeout bounds the best-effort cancellation notification.
const cancelNotifyTimeout = 5 * time.Second

// Bridge validates and routes named tool invocations over a session. Exposure
// and argument checks run before any request reaches the transport.
type Bridge struct {
	session *session.Session
	catalog *catalog.Catalog
	policy  func() *policy.Policy
	router  *Router
	tokens  atomic.Int64
}

// New creates a bridge. The policy accessor is called on every invocation so
// runtime policy swaps take effect immediately.
func New(aSession *session.Session, aCatalog *catalog.Catalog, policyFn func() *policy.Policy, router *Router) *Bridge {
	if policyFn == nil {
		policyFn = func() *policy.Policy { return nil }
	}
	return &Bridge{session: aSession, catalog: aCatalog, policy: policyFn, router: router}
}

// resolve maps a tool name to its catalog descriptor, applying the exposure
// policy. Hidden and unknown tools are indistinguishable to the caller. A
// closed session rejects the invocation before any catalog lookup, so teardown
// never masquerades as an unknown tool.
func (b *Bridge) resolve(name string) (*mcpschema.Tool, error) {
	if b.session.State() == session.StateClosed {
		return nil, fault.New(fault.SessionClosed, "session is closed")
	}
	snapshot := b.catalog.Snapshot()
	tool, ok := snapshot.Lookup(name)
	if !ok || !b.policy().Exposes(snapshot, name) {
		return nil, fault.Newf(fault.UnknownTool, "tool %q is not available", name)
	}
	return tool, nil
}

// Invoke calls a tool and blocks for its result. A result the server flags as
// an error is returned alongside an Invocation fault so callers can inspect it.
func (b *Bridge) Invoke(ctx context.Context, name string, arguments map[string]interface{}) (*mcpschema.CallToolResult, error) {
	tool, err := b.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := validateArguments(tool, arguments); err != nil {
		return nil, err
	}
	params := schema.NewCallToolParams(name, arguments)
	return b.call(ctx, params, b.session.NextRequestID())
}

// InvokeStream calls a tool and returns a stream of partial results. When the
// server does not stream, the stream degenerates to the terminal result only.
func (b *Bridge) InvokeStream(ctx context.Context, name string, arguments map[string]interface{}) (*Stream, error) {
	tool, err := b.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := validateArguments(tool, arguments); err != nil {
		return nil, err
	}
	params := schema.NewCallToolParams(name, arguments)
	streaming := false
	if capabilities := b.session.Capabilities(); capabilities != nil {
		streaming = capabilities.Streaming
	}
	callCtx, cancel := context.WithCancel(ctx)
	requestId := b.session.NextRequestID()
	stream := &Stream{
		token:     schema.ProgressToken(b.tokens.Add(1)),
		requestId: requestId,
		result:    make(chan Update, 1),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	if streaming && b.router != nil {
		params.WithProgressToken(stream.token)
		stream.progress = b.router.subscribe(stream.token)
	}
	stream.notify = func(reason string) {
		notification, err := jsonrpc.NewNotification(schema.MethodNotificationCancelled,
			&schema.CancelledNotificationParams{RequestId: requestId, Reason: reason})
		if err != nil {
			return
		}
		notifyCtx, done := context.WithTimeout(context.Background(), cancelNotifyTimeout)
		defer done()
		_ = b.session.Notify(notifyCtx, notification)
	}
	go b.run(callCtx, stream, params, requestId)
	return stream, nil
}

// run performs the blocking call and publishes the terminal update.
func (b *Bridge) run(ctx context.Context, stream *Stream, params *schema.CallToolParams, requestId uint64) {
	result, err := b.call(ctx, params, requestId)
	if stream.progress != nil {
		b.router.unsubscribe(stream.token)
	}
	stream.result <- Update{Result: result, Err: err}
	close(stream.done)
}

// call performs one tools/call exchange with an explicit request identifier so
// cancellation can reference it.
func (b *Bridge) call(ctx context.Context, params *schema.CallToolParams, requestId uint64) (*mcpschema.CallToolResult, error) {
	request, err := jsonrpc.NewRequest(schema.MethodToolsCall, params)
	if err != nil {
		return nil, fault.Wrap(fault.Invocation, "failed to build tools/call request", err)
	}
	request.Id = requestId
	response, err := b.session.Send(ctx, request)
	if err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, fault.Wrap(fault.Invocation, fmt.Sprintf("tool %q failed", params.Name), response.Error)
	}
	var result mcpschema.CallToolResult
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, fault.Wrap(fault.Invocation, fmt.Sprintf("malformed result for tool %q", params.Name), err)
	}
	if result.IsError != nil && *result.IsError {
		return &result, fault.Newf(fault.Invocation, "tool %q reported an error: %v", params.Name, schema.TextOf(&result))
	}
	return &result, nil
}

// ListTools implements catalog.Lister over the session, one page per call.
func (b *Bridge) ListTools(ctx context.Context, cursor *string) (*mcpschema.ListToolsResult, error) {
	return listTools(ctx, b.session, cursor)
}

// ListerOver adapts a raw transport into a catalog.Lister. The ready hook uses
// it to refresh the catalog before the session is observable as Ready.
func ListerOver(aTransport session.Transport) catalog.Lister {
	return &transportLister{transport: aTransport}
}

type transportLister struct {
	transport session.Transport
}

func (l *transportLister) ListTools(ctx context.Context, cursor *string) (*mcpschema.ListToolsResult, error) {
	return listTools(ctx, l.transport, cursor)
}

func listTools(ctx context.Context, aTransport session.Transport, cursor *string) (*mcpschema.ListToolsResult, error) {
	params := &mcpschema.ListToolsRequestParams{Cursor: cursor}
	request, err := jsonrpc.NewRequest(schema.MethodToolsList, params)
	if err != nil {
		return nil, err
	}
	response, err := aTransport.Send(ctx, request)
	if err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, response.Error
	}
	var result mcpschema.ListToolsResult
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
