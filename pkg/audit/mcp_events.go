// Package audit provides structured audit logging for MCP dispatch events:
// initialize, authenticate, and tool calls, with the outcome and subject
// recorded against each.
package audit

// Event types recorded for the MCP dispatch loop.
const (
	EventTypeInitialize  = "mcp_initialize"
	EventTypeAuthenticate = "mcp_authenticate"
	EventTypeToolCall    = "mcp_tool_call"
)

// Target field keys.
const (
	TargetKeyType   = "type"
	TargetKeyName   = "name"
	TargetKeyMethod = "method"
)

const TargetTypeTool = "tool"

// Subject field keys.
const (
	SubjectKeyUserID = "user_id"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// Metadata field keys.
const (
	MetadataKeyDurationMS = "duration_ms"
)
