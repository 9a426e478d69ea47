package cli

// Options defines the command line surface. The bearer token is read from the
// environment so secrets stay off the process argument list.
type Options struct {
	ConfigURL string `short:"f" long:"config" description:"YAML configuration URL"`

	URL       string `short:"u" long:"url" description:"mcp server url"`
	Transport string `short:"t" long:"transport" description:"transport type" choice:"sse" choice:"streamable" default:"streamable"`

	Token           string   `long:"token" description:"bearer token" env:"MCP_TOKEN"`
	Headers         []string `short:"H" long:"header" description:"auth header NAME=VALUE, repeatable"`
	OAuth2ConfigURL string   `short:"c" long:"oauth2-config" description:"oauth2 config URL"`
	EncryptionKey   string   `short:"k" long:"key" description:"oauth2 config encryption key" env:"MCP_ENCRYPTION_KEY"`

	Allow []string `long:"allow" description:"expose only the named tool, repeatable"`
	Deny  []string `long:"deny" description:"hide the named tool, repeatable"`

	List   bool   `short:"l" long:"list" description:"list exposed tools"`
	Call   string `long:"call" description:"tool to invoke"`
	Args   string `short:"a" long:"args" description:"JSON encoded tool arguments" default:"{}"`
	Stream bool   `long:"stream" description:"report progress while the tool runs"`
}
