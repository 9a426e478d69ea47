package schema

const (
	MethodInitialize              = "initialize"
	MethodPing                    = "ping"
	MethodToolsList               = "tools/list"
	MethodToolsCall               = "tools/call"
	MethodNotificationInitialized = "notifications/initialized"
	MethodNotificationProgress    = "notifications/progress"
	MethodNotificationCancelled   = "notifications/cancelled"
	MethodNotificationToolsList   = "notifications/tools/list_changed"
	MethodNotificationMessage     = "notifications/message"
)
