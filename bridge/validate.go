package bridge

import (
	"encoding/json"
	"fmt"

	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcpadapter/fault"
)

// validateArguments checks the supplied arguments against the tool's declared
// input schema before any traffic reaches the transport. Arguments not covered
// by the schema pass through untouched; servers may accept undeclared keys.
func validateArguments(tool *mcpschema.Tool, arguments map[string]interface{}) error {
	for _, name := range tool.InputSchema.Required {
		if _, ok := arguments[name]; !ok {
			return fault.Newf(fault.InvalidArguments, "tool %q: missing required argument %q", tool.Name, name)
		}
	}
	for name, value := range arguments {
		property, ok := tool.InputSchema.Properties[name]
		if !ok {
			continue
		}
		if err := checkValue(tool.Name, name, property, value); err != nil {
			return err
		}
	}
	return nil
}

// checkValue verifies one argument value against its property schema,
// descending into nested objects and array items.
func checkValue(tool, path string, property map[string]interface{}, value interface{}) error {
	declared, _ := property["type"].(string)
	if declared == "" || value == nil {
		return nil
	}
	switch declared {
	case "string":
		if _, ok := value.(string); !ok {
			return typeMismatch(tool, path, declared, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return typeMismatch(tool, path, declared, value)
		}
	case "number":
		if !isNumber(value) {
			return typeMismatch(tool, path, declared, value)
		}
	case "integer":
		if !isInteger(value) {
			return typeMismatch(tool, path, declared, value)
		}
	case "array":
		items, ok := value.([]interface{})
		if !ok {
			return typeMismatch(tool, path, declared, value)
		}
		itemSchema, ok := property["items"].(map[string]interface{})
		if !ok {
			return nil
		}
		for i, item := range items {
			if err := checkValue(tool, fmt.Sprintf("%v[%d]", path, i), itemSchema, item); err != nil {
				return err
			}
		}
	case "object":
		object, ok := value.(map[string]interface{})
		if !ok {
			return typeMismatch(tool, path, declared, value)
		}
		if required, ok := property["required"].([]interface{}); ok {
			for _, raw := range required {
				name, _ := raw.(string)
				if name == "" {
					continue
				}
				if _, ok := object[name]; !ok {
					return fault.Newf(fault.InvalidArguments, "tool %q: missing required field %q in %v", tool, name, path)
				}
			}
		}
		properties, ok := property["properties"].(map[string]interface{})
		if !ok {
			return nil
		}
		for name, rawSchema := range properties {
			nested, ok := rawSchema.(map[string]interface{})
			if !ok {
				continue
			}
			fieldValue, present := object[name]
			if !present {
				continue
			}
			if err := checkValue(tool, path+"."+name, nested, fieldValue); err != nil {
				return err
			}
		}
	}
	return nil
}

func typeMismatch(tool, path, declared string, value interface{}) error {
	return fault.Newf(fault.InvalidArguments, "tool %q: argument %v expects %v, got %T", tool, path, declared, value)
}

func isNumber(value interface{}) bool {
	switch value.(type) {
	case int, int32, int64, uint, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}

func isInteger(value interface{}) bool {
	switch actual := value.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return true
	case float64:
		return actual == float64(int64(actual))
	case float32:
		return actual == float32(int64(actual))
	case json.Number:
		_, err := actual.Int64()
		return err == nil
	}
	return false
}
