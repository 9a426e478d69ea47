package mcpadapter

import (
	"context"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/mcpadapter/auth"
	"github.com/viant/mcpadapter/fault"
	"github.com/viant/mcpadapter/policy"
	"github.com/viant/mcpadapter/session"
)

// Config defines declarative adapter options; the same structure serves YAML
// files and command line flags.
type Config struct {
	Name      string          `yaml:"name" json:"name,omitempty" short:"n" long:"name" description:"client name"`
	Version   string          `yaml:"version,omitempty" json:"version,omitempty" short:"v" long:"version" description:"client version"`
	Protocol  string          `yaml:"protocol,omitempty" json:"protocol,omitempty" short:"p" long:"protocol" description:"protocol version"`
	Transport TransportConfig `yaml:"transport" json:"transport" group:"transport"`
	Auth      *auth.Config    `yaml:"auth,omitempty" json:"auth,omitempty"`
	Policy    PolicyConfig    `yaml:"policy,omitempty" json:"policy,omitempty" group:"policy"`
	Retry     RetryConfig     `yaml:"retry,omitempty" json:"retry,omitempty" group:"retry"`

	// DegradedWaitMs bounds how long invocations wait for a reconnect before
	// failing; zero fails fast.
	DegradedWaitMs int `yaml:"degradedWaitMs,omitempty" json:"degradedWaitMs,omitempty" long:"degraded-wait-ms" description:"invocation wait during reconnect in ms"`
	// PingIntervalSeconds enables keep-alive pings; zero disables them.
	PingIntervalSeconds int `yaml:"pingIntervalSeconds,omitempty" json:"pingIntervalSeconds,omitempty" long:"ping-interval" description:"keep-alive ping interval in seconds"`
}

// TransportConfig selects the wire transport and endpoint.
type TransportConfig struct {
	Type string `yaml:"type,omitempty" json:"type,omitempty" short:"t" long:"transport-type" description:"transport type" choice:"sse" choice:"streamable"`
	URL  string `yaml:"url" json:"url" short:"u" long:"url" description:"server endpoint URL"`
}

// PolicyConfig declares the initial tool visibility filter.
type PolicyConfig struct {
	Mode  string   `yaml:"mode,omitempty" json:"mode,omitempty" long:"policy-mode" description:"tool filter mode" choice:"allowAll" choice:"allowList" choice:"denyList"`
	Allow []string `yaml:"allow,omitempty" json:"allow,omitempty" long:"allow" description:"allowed tool name"`
	Deny  []string `yaml:"deny,omitempty" json:"deny,omitempty" long:"deny" description:"denied tool name"`
}

// RetryConfig overrides the reconnect backoff schedule.
type RetryConfig struct {
	MaxAttempts int     `yaml:"maxAttempts,omitempty" json:"maxAttempts,omitempty" long:"max-attempts" description:"max connect attempts"`
	InitialMs   int     `yaml:"initialMs,omitempty" json:"initialMs,omitempty" long:"retry-initial-ms" description:"initial retry delay in ms"`
	MaxMs       int     `yaml:"maxMs,omitempty" json:"maxMs,omitempty" long:"retry-max-ms" description:"max retry delay in ms"`
	Multiplier  float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty" long:"retry-multiplier" description:"retry delay multiplier"`
}

// Init fills identity defaults.
func (c *Config) Init() {
	if c.Name == "" {
		c.Name = "MCPAdapter"
		c.Version = "0.1"
	}
}

// Validate reports configuration errors before any connection is attempted.
func (c *Config) Validate() error {
	if c.Transport.URL == "" {
		return fault.New(fault.Connection, "transport URL is required")
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return nil
}

// backoff derives the session backoff from the retry overrides.
func (c *Config) backoff() *session.Backoff {
	ret := session.DefaultBackoff()
	if c.Retry.MaxAttempts > 0 {
		ret.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.InitialMs > 0 {
		ret.Initial = time.Duration(c.Retry.InitialMs) * time.Millisecond
	}
	if c.Retry.MaxMs > 0 {
		ret.Max = time.Duration(c.Retry.MaxMs) * time.Millisecond
	}
	if c.Retry.Multiplier > 1 {
		ret.Multiplier = c.Retry.Multiplier
	}
	return ret
}

// initialPolicy builds the startup policy from the declarative filter.
func (c *Config) initialPolicy() *policy.Policy {
	switch policy.Mode(c.Policy.Mode) {
	case policy.ModeAllowList:
		return policy.Allow(c.Policy.Allow...)
	case policy.ModeDenyList:
		return policy.Deny(c.Policy.Deny...)
	}
	if len(c.Policy.Allow) > 0 {
		return policy.Allow(c.Policy.Allow...)
	}
	if len(c.Policy.Deny) > 0 {
		return policy.Deny(c.Policy.Deny...)
	}
	return policy.AllowAll()
}

// LoadConfig reads a YAML configuration from a local path or any afs-supported URL.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	ret := &Config{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, err
	}
	ret.Init()
	return ret, nil
}
