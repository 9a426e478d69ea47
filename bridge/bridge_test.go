package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/catalog"
	"github.com/viant/mcpadapter/fault"
	"github.com/viant/mcpadapter/policy"
	"github.com/viant/mcpadapter/schema"
	"github.com/viant/mcpadapter/session"
)

// stubTransport answers initialize itself and delegates other methods.
type stubTransport struct {
	mux           sync.Mutex
	streaming     bool
	calls         []*jsonrpc.Request
	notifications []*jsonrpc.Notification
	onCall        func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error)
}

func (s *stubTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	if request.Method == schema.MethodInitialize {
		result := &mcpschema.InitializeResult{
			ProtocolVersion: mcpschema.LatestProtocolVersion,
			ServerInfo:      mcpschema.Implementation{Name: "stub", Version: "1.0"},
			Capabilities:    mcpschema.ServerCapabilities{Tools: &mcpschema.ServerCapabilitiesTools{}},
		}
		if s.streaming {
			result.Capabilities.Experimental = map[string]map[string]interface{}{"streaming": {}}
		}
		data, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		return &jsonrpc.Response{Id: request.Id, Jsonrpc: request.Jsonrpc, Result: data}, nil
	}
	s.mux.Lock()
	s.calls = append(s.calls, request)
	s.mux.Unlock()
	return s.onCall(ctx, request)
}

func (s *stubTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *stubTransport) callMethods() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	var ret []string
	for _, request := range s.calls {
		ret = append(ret, request.Method)
	}
	return ret
}

type staticLister struct {
	tools []mcpschema.Tool
}

func (l *staticLister) ListTools(ctx context.Context, cursor *string) (*mcpschema.ListToolsResult, error) {
	return &mcpschema.ListToolsResult{Tools: l.tools}, nil
}

type harness struct {
	bridge    *Bridge
	transport *stubTransport
	router    *Router
	session   *session.Session
	policy    atomic.Pointer[policy.Policy]
}

func echoTool() mcpschema.Tool {
	return mcpschema.Tool{
		Name: "echo",
		InputSchema: mcpschema.ToolInputSchema{
			Type: "object",
			Properties: mcpschema.ToolInputSchemaProperties{
				"text": map[string]interface{}{"type": "string"},
			},
			Required: []string{"text"},
		},
	}
}

func newHarness(t *testing.T, streaming bool, tools ...mcpschema.Tool) *harness {
	ret := &harness{router: NewRouter()}
	ret.policy.Store(policy.AllowAll())
	ret.transport = &stubTransport{streaming: streaming}
	dial := func(ctx context.Context) (session.Transport, error) {
		return ret.transport, nil
	}
	backoff := &session.Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1.0, MaxAttempts: 2}
	ret.session = session.New("http://localhost:5001/mcp", dial, session.NewNegotiator("tester", "0.1"),
		session.WithBackoff(backoff))
	require.NoError(t, ret.session.Open(context.Background()))
	t.Cleanup(func() { _ = ret.session.Close() })

	aCatalog := catalog.New()
	_, err := aCatalog.Refresh(context.Background(), &staticLister{tools: tools})
	require.NoError(t, err)
	ret.bridge = New(ret.session, aCatalog, func() *policy.Policy { return ret.policy.Load() }, ret.router)
	return ret
}

func textResult(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"content":[{"type":"text","text":%q}]}`, text))
}

func TestBridge_InvokeUnknownTool(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	_, err := aHarness.bridge.Invoke(context.Background(), "missing", map[string]interface{}{})
	assert.True(t, fault.HasCode(err, fault.UnknownTool))
	assert.Empty(t, aHarness.transport.callMethods(), "unknown tool must not reach the transport")
}

func TestBridge_InvokeFilteredTool(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	aHarness.policy.Store(policy.Deny("echo"))
	_, err := aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	assert.True(t, fault.HasCode(err, fault.UnknownTool), "filtered and unknown tools are indistinguishable")
	assert.Empty(t, aHarness.transport.callMethods())

	aHarness.policy.Store(policy.AllowAll())
	aHarness.transport.onCall = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		return &jsonrpc.Response{Id: request.Id, Result: textResult("hi")}, nil
	}
	_, err = aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	assert.NoError(t, err, "policy swap takes effect without reconnect")
}

func TestBridge_InvokeAfterClose(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	require.NoError(t, aHarness.session.Close())
	_, err := aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	assert.True(t, fault.HasCode(err, fault.SessionClosed), "closure is not reported as an unknown tool")

	_, err = aHarness.bridge.InvokeStream(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	assert.True(t, fault.HasCode(err, fault.SessionClosed))
}

func TestBridge_InvokeInvalidArguments(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	_, err := aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{})
	assert.True(t, fault.HasCode(err, fault.InvalidArguments))

	_, err = aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{"text": 42})
	assert.True(t, fault.HasCode(err, fault.InvalidArguments))
	assert.Empty(t, aHarness.transport.callMethods(), "invalid arguments must not reach the transport")
}

func TestBridge_InvokeConcurrent(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	aHarness.transport.onCall = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		var params schema.CallToolParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, err
		}
		text, _ := params.Arguments["text"].(string)
		// responses complete out of request order
		time.Sleep(time.Duration(len(text)%5) * time.Millisecond)
		return &jsonrpc.Response{Id: request.Id, Result: textResult(text)}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("payload-%d", i)
			result, err := aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{"text": text})
			assert.NoError(t, err)
			assert.Equal(t, text, schema.TextOf(result), "each caller gets its own result")
		}(i)
	}
	wg.Wait()
}

func TestBridge_InvokeServerError(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	aHarness.transport.onCall = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		return &jsonrpc.Response{Id: request.Id, Error: jsonrpc.NewInternalError("execution failed", nil)}, nil
	}
	_, err := aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	assert.True(t, fault.HasCode(err, fault.Invocation))
}

func TestBridge_InvokeToolReportedError(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	aHarness.transport.onCall = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		result := json.RawMessage(`{"isError":true,"content":[{"type":"text","text":"disk full"}]}`)
		return &jsonrpc.Response{Id: request.Id, Result: result}, nil
	}
	result, err := aHarness.bridge.Invoke(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	assert.True(t, fault.HasCode(err, fault.Invocation))
	require.NotNil(t, result, "the flagged result is still returned for inspection")
	assert.Equal(t, "disk full", schema.TextOf(result))
}

func TestBridge_InvokeStreamProgress(t *testing.T) {
	aHarness := newHarness(t, true, echoTool())
	release := make(chan struct{})
	var meta map[string]interface{}
	aHarness.transport.onCall = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		var params schema.CallToolParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, err
		}
		meta = params.Meta
		<-release
		return &jsonrpc.Response{Id: request.Id, Result: textResult("final")}, nil
	}

	stream, err := aHarness.bridge.InvokeStream(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	require.NoError(t, err)
	require.NotNil(t, stream.Progress(), "streaming servers get a progress channel")

	for i := 1; i <= 2; i++ {
		notification, err := jsonrpc.NewNotification(schema.MethodNotificationProgress,
			&schema.ProgressNotificationParams{ProgressToken: 1, Progress: float64(i) / 2})
		require.NoError(t, err)
		aHarness.router.OnNotification(context.Background(), notification)
	}

	var seen []float64
	deadline := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case params := <-stream.Progress():
			seen = append(seen, params.Progress)
		case <-deadline:
			t.Fatal("timed out waiting for progress")
		}
	}
	assert.Equal(t, []float64{0.5, 1}, seen, "partials arrive in order")

	close(release)
	result, err := stream.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "final", schema.TextOf(result))
	require.NotNil(t, meta, "request carries the progress token in _meta")
	assert.EqualValues(t, 1, meta["progressToken"])
}

func TestBridge_InvokeStreamWithoutServerSupport(t *testing.T) {
	aHarness := newHarness(t, false, echoTool())
	aHarness.transport.onCall = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		var params schema.CallToolParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, err
		}
		assert.Nil(t, params.Meta, "no progress token without server streaming support")
		return &jsonrpc.Response{Id: request.Id, Result: textResult("plain")}, nil
	}
	stream, err := aHarness.bridge.InvokeStream(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	require.NoError(t, err)
	assert.Nil(t, stream.Progress())
	result, err := stream.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain", schema.TextOf(result))
}

func TestBridge_InvokeStreamCancel(t *testing.T) {
	aHarness := newHarness(t, true, echoTool())
	aHarness.transport.onCall = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	stream, err := aHarness.bridge.InvokeStream(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	require.NoError(t, err)

	stream.Cancel("user abandoned")
	select {
	case <-stream.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancellation")
	}
	_, err = stream.Wait(context.Background())
	assert.Error(t, err)

	aHarness.transport.mux.Lock()
	defer aHarness.transport.mux.Unlock()
	var notification *jsonrpc.Notification
	for _, candidate := range aHarness.transport.notifications {
		if candidate.Method == schema.MethodNotificationCancelled {
			notification = candidate
		}
	}
	require.NotNil(t, notification, "cancellation must notify the server")
	var params schema.CancelledNotificationParams
	require.NoError(t, json.Unmarshal(notification.Params, &params))
	assert.EqualValues(t, 1, params.RequestId)
	assert.Equal(t, "user abandoned", params.Reason)
}

func TestRouter_ToolListChanged(t *testing.T) {
	router := NewRouter()
	var changed atomic.Int32
	router.OnToolListChanged(func() { changed.Add(1) })
	router.OnNotification(context.Background(), &jsonrpc.Notification{Method: schema.MethodNotificationToolsList})
	assert.Equal(t, int32(1), changed.Load())
}

func TestRouter_ServeRejectsRequests(t *testing.T) {
	router := NewRouter()
	request := &jsonrpc.Request{Method: "sampling/createMessage", Id: 7}
	response := &jsonrpc.Response{}
	router.Serve(context.Background(), request, response)
	require.NotNil(t, response.Error)
	assert.EqualValues(t, request.Id, response.Id)
}
