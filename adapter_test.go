package mcpadapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mcpadapter/auth"
	"github.com/viant/mcpadapter/fault"
	"github.com/viant/mcpadapter/policy"
	"github.com/viant/mcpadapter/session"
)

func TestNew_ValidatesBeforeConnecting(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, &Config{}, WithDeferredOpen())
	assert.Error(t, err, "endpoint is required")

	_, err = New(ctx, &Config{
		Transport: TransportConfig{URL: "http://localhost:5001/mcp"},
		Auth:      &auth.Config{Mode: auth.ModeBearer},
	}, WithDeferredOpen())
	assert.True(t, fault.HasCode(err, fault.AuthConfig), "credential problems surface at configure time")

	_, err = New(ctx, &Config{
		Transport: TransportConfig{URL: "http://localhost:5001/mcp"},
		Auth:      &auth.Config{Mode: auth.ModeHeaders, Headers: map[string]string{"Content-Type": "x"}},
	}, WithDeferredOpen())
	assert.True(t, fault.HasCode(err, fault.AuthConfig))
}

func TestNew_DeferredOpen(t *testing.T) {
	ctx := context.Background()
	adapter, err := New(ctx, &Config{
		Transport: TransportConfig{URL: "http://localhost:5001/mcp"},
		Policy:    PolicyConfig{Deny: []string{"shell"}},
	}, WithDeferredOpen())
	require.NoError(t, err)
	assert.Equal(t, session.StateConnecting, adapter.State())
	assert.Equal(t, policy.ModeDenyList, adapter.Policy().Mode())
	assert.Empty(t, adapter.ListExposedTools(), "no tools before the first catalog refresh")

	adapter.SetPolicy(policy.Allow("search"))
	assert.Equal(t, policy.ModeAllowList, adapter.Policy().Mode())
	adapter.SetPolicy(nil)
	assert.Equal(t, policy.ModeAllowAll, adapter.Policy().Mode())
}

func TestAdapter_ShutdownRejectsInvocations(t *testing.T) {
	ctx := context.Background()
	adapter, err := New(ctx, &Config{
		Transport: TransportConfig{URL: "http://localhost:5001/mcp"},
	}, WithDeferredOpen())
	require.NoError(t, err)

	require.NoError(t, adapter.Shutdown())
	assert.Equal(t, session.StateClosed, adapter.State())

	_, err = adapter.Invoke(ctx, "echo", map[string]interface{}{"text": "late"})
	assert.True(t, fault.HasCode(err, fault.SessionClosed),
		"a shut-down adapter reports closure, not an unknown tool")
}

func TestNew_UnreachableEndpoint(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := New(ctx, &Config{
		Transport: TransportConfig{URL: "http://127.0.0.1:1/mcp"},
		Retry:     RetryConfig{MaxAttempts: 2, InitialMs: 1, MaxMs: 2},
	})
	require.Error(t, err)
	assert.True(t, fault.HasCode(err, fault.Connection))
}

func TestLoadConfig(t *testing.T) {
	location := filepath.Join(t.TempDir(), "adapter.yaml")
	content := `
name: agent-tools
transport:
  type: sse
  url: https://tools.example.com/sse
auth:
  mode: bearer
  token: secret-token
policy:
  mode: denyList
  deny:
    - shell
retry:
  maxAttempts: 3
  initialMs: 100
degradedWaitMs: 2000
`
	require.NoError(t, os.WriteFile(location, []byte(content), 0o644))

	config, err := LoadConfig(context.Background(), location)
	require.NoError(t, err)
	assert.Equal(t, "agent-tools", config.Name)
	assert.Equal(t, "sse", config.Transport.Type)
	assert.Equal(t, auth.ModeBearer, config.Auth.Mode)
	assert.Equal(t, []string{"shell"}, config.Policy.Deny)
	assert.Equal(t, 3, config.Retry.MaxAttempts)
	assert.Equal(t, 2000, config.DegradedWaitMs)
	assert.NoError(t, config.Validate())

	backoff := config.backoff()
	assert.Equal(t, 3, backoff.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, backoff.Initial)
}
