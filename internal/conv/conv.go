package conv

import (
	"encoding/json"
	"strconv"
)

// AsInt attempts to coerce various numeric representations into a plain int.
// JSON unmarshalling yields float64 for numbers and json.Number when configured,
// both of which appear in notification `_meta` payloads.
func AsInt(value interface{}) int {
	switch actual := value.(type) {
	case int:
		return actual
	case int32:
		return int(actual)
	case int64:
		return int(actual)
	case uint64:
		return int(actual)
	case float32:
		return int(actual)
	case float64:
		return int(actual)
	case json.Number:
		ret, _ := actual.Int64()
		return int(ret)
	case string:
		ret, _ := strconv.Atoi(actual)
		return ret
	}
	return 0
}
