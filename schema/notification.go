package schema

import (
	"encoding/json"

	"github.com/viant/mcpadapter/internal/conv"
)

// ProgressToken correlates progress notifications with the request that
// initiated them. Servers echo the token from the request `_meta` verbatim.
type ProgressToken int

// UnmarshalJSON accepts the number and string encodings servers use for tokens.
func (t *ProgressToken) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ProgressToken(conv.AsInt(raw))
	return nil
}

// ProgressNotificationParams carries one partial result of a long-running
// operation, delivered via the notifications/progress method.
type ProgressNotificationParams struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Total         *float64      `json:"total,omitempty"`
	Message       *string       `json:"message,omitempty"`
}

// CancelledNotificationParams informs the server that the client abandoned an
// in-flight request. Server-side cancellation is best-effort.
type CancelledNotificationParams struct {
	RequestId uint64 `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}
