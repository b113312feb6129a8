package audit

import (
	"log/slog"
	"time"
)

// Event is one structured audit record. Logged as a single slog entry with
// each Target entry flattened into a top-level "target_<key>" attribute.
type Event struct {
	Type     string
	Outcome  string
	UserID   string
	Target   map[string]string
	Duration time.Duration
	Err      error
}

// Auditor logs MCP dispatch events as structured slog records.
type Auditor struct {
	log *slog.Logger
}

// NewAuditor wraps log for audit-event emission. Passing nil uses slog's
// default logger.
func NewAuditor(log *slog.Logger) *Auditor {
	if log == nil {
		log = slog.Default()
	}
	return &Auditor{log: log}
}

// Log emits one audit event at info level, or warn when the outcome denotes
// denial or error.
func (a *Auditor) Log(e Event) {
	attrs := []any{
		"event_type", e.Type,
		"outcome", e.Outcome,
		SubjectKeyUserID, e.UserID,
		MetadataKeyDurationMS, e.Duration.Milliseconds(),
	}
	for k, v := range e.Target {
		attrs = append(attrs, "target_"+k, v)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err.Error())
	}

	switch e.Outcome {
	case OutcomeDenied, OutcomeError:
		a.log.Warn("mcp audit event", attrs...)
	default:
		a.log.Info("mcp audit event", attrs...)
	}
}

// LogInitialize records an MCP session initialize call.
func (a *Auditor) LogInitialize(userID string, d time.Duration, err error) {
	a.Log(Event{Type: EventTypeInitialize, Outcome: outcomeFor(err), UserID: userID, Duration: d, Err: err})
}

// LogAuthenticate records a session-token authentication attempt.
func (a *Auditor) LogAuthenticate(userID string, d time.Duration, err error) {
	a.Log(Event{Type: EventTypeAuthenticate, Outcome: outcomeFor(err), UserID: userID, Duration: d, Err: err})
}

// LogToolCall records one tools/call dispatch, naming the tool invoked.
func (a *Auditor) LogToolCall(userID, toolName string, d time.Duration, err error) {
	a.Log(Event{
		Type:    EventTypeToolCall,
		Outcome: outcomeFor(err),
		UserID:  userID,
		Target:  map[string]string{TargetKeyType: TargetTypeTool, TargetKeyName: toolName},
		Duration: d,
		Err:     err,
	})
}

func outcomeFor(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return OutcomeError
}
