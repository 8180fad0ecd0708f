package telemetry

// Event names. Properties carry counts and tiers only, never content.
const (
	// EventChatTurn fires once per completed user turn
	EventChatTurn = "chat_turn"

	// EventSizeExceeded fires when a governed tool result is discarded
	EventSizeExceeded = "tool_size_exceeded"

	// EventAuditRun fires once per schema audit invocation
	EventAuditRun = "audit_run"

	// EventSessionStart fires when a chat session begins
	EventSessionStart = "session_start"
)
