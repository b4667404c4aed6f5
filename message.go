package gyre

// Role identifies the author of a [Message] in a run's history.
type Role string

const (
	// RoleSystem carries run-level instructions, seeded once at the start.
	RoleSystem Role = "system"

	// RoleUser carries the caller's request.
	RoleUser Role = "user"

	// RoleAssistant carries completion-service output: either final answer
	// text or a batch of requested tool calls.
	RoleAssistant Role = "assistant"

	// RoleToolResult carries the observation produced by one tool invocation.
	// Messages with this role always reference the originating call via
	// Message.ToolCallID.
	RoleToolResult Role = "tool_result"
)

// Message is one turn in a run's history.
//
// The history is owned by the run's [ExecutionContext] and is append-only:
// messages are never modified or removed once recorded, making the full
// sequence the run's audit trail.
type Message struct {
	// Role identifies the author of this turn.
	Role Role

	// Content is the textual content. May be empty on assistant messages
	// that only request tool calls.
	Content string

	// ToolCalls is the ordered batch of invocations requested by an
	// assistant message. Empty for all other roles.
	ToolCalls []*ToolCall

	// ToolCallID links a tool_result message back to the originating
	// ToolCall.ID. Set only when Role is RoleToolResult.
	ToolCallID string
}

// ToolCall is a single requested tool invocation, created by the [Gateway]
// and consumed exactly once by the executor. Immutable after creation.
type ToolCall struct {
	// ID is unique within the run. The gateway assigns one when the
	// completion service does not provide it.
	ID string

	// Name is the registered tool name to invoke.
	Name string

	// Args is the structured argument mapping. Its shape is defined by the
	// tool's parameter schema and is validated before invocation.
	Args map[string]any
}

// SystemMessage builds a system-role message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage builds a user-role message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage builds an assistant-role message carrying answer text.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// AssistantToolCalls builds an assistant-role message recording a batch of
// requested tool calls.
func AssistantToolCalls(calls ...*ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolResultMessage builds a tool_result message referencing the originating
// call ID.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleToolResult, Content: content, ToolCallID: callID}
}
