package schema

import (
	"encoding/json"

	mcpschema "github.com/viant/mcp-protocol/schema"
)

// CallToolParams mirrors the wire shape of a tools/call request, including the
// `_meta` extension used to attach a progress token.
type CallToolParams struct {
	Meta      map[string]interface{} `json:"_meta,omitempty"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// NewCallToolParams builds tools/call parameters for the given tool and arguments.
func NewCallToolParams(name string, arguments map[string]interface{}) *CallToolParams {
	return &CallToolParams{Name: name, Arguments: arguments}
}

// WithProgressToken attaches a progress token to the request `_meta` so the
// server can stream partial results back under that token.
func (p *CallToolParams) WithProgressToken(token ProgressToken) *CallToolParams {
	if p.Meta == nil {
		p.Meta = map[string]interface{}{}
	}
	p.Meta["progressToken"] = int(token)
	return p
}

// ArgumentsOf marshals a typed command into the generic argument map used on the wire.
func ArgumentsOf[T any](cmd *T) (map[string]interface{}, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	var ret map[string]interface{}
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// TextOf concatenates the text content elements of a tool result; non-text
// elements are skipped.
func TextOf(result *mcpschema.CallToolResult) string {
	if result == nil {
		return ""
	}
	var ret string
	for _, elem := range result.Content {
		data, err := json.Marshal(elem)
		if err != nil {
			continue
		}
		var text mcpschema.TextContent
		if err := json.Unmarshal(data, &text); err != nil || text.Type != "text" {
			continue
		}
		ret += text.Text
	}
	return ret
}
