package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	InvocationStarted  Type = "InvocationStarted"
	OutputChunk        Type = "OutputChunk"
	InvocationFinished Type = "InvocationFinished"
	InvocationFailed   Type = "InvocationFailed"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// InvocationStartedPayload is emitted once the command has been rendered.
type InvocationStartedPayload struct {
	InvocationID string    `json:"invocation_id"`
	ToolName     string    `json:"tool_name"`
	Command      string    `json:"command"`
	Cwd          string    `json:"cwd"`
	StartedAt    time.Time `json:"started_at"`
}

// OutputChunkPayload carries raw terminal output for streaming tools.
type OutputChunkPayload struct {
	InvocationID string `json:"invocation_id"`
	ToolName     string `json:"tool_name"`
	Chunk        string `json:"chunk"`
}

// InvocationFinishedPayload marks the end of a run that produced a result.
type InvocationFinishedPayload struct {
	InvocationID string `json:"invocation_id"`
	ToolName     string `json:"tool_name"`
	State        string `json:"state"`
	IsError      bool   `json:"is_error"`
	Preview      string `json:"preview"`
	LineCount    int    `json:"line_count"`
	ByteCount    int    `json:"byte_count"`
	DurationMs   int64  `json:"duration_ms"`
}

// InvocationFailedPayload records a structural error that produced no result.
type InvocationFailedPayload struct {
	InvocationID string `json:"invocation_id"`
	ToolName     string `json:"tool_name"`
	Message      string `json:"message"`
}

// New stamps an event with the current time.
func New(t Type, payload any) Event {
	return Event{Type: t, Timestamp: time.Now(), Payload: payload}
}
