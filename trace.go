package gyre

import "time"

// TraceEvent is a single entry in the ExecutionContext's append-only trace
// log. Events are recorded automatically by the executor, registry and
// gateway; the log is the machine-readable counterpart of the message
// history.
type TraceEvent interface {
	traceEvent()
}

// BaseTrace carries fields common to all trace events. The ExecutionContext
// fills in zero-valued fields when the event is recorded.
type BaseTrace struct {
	// Timestamp is when the event was recorded.
	Timestamp time.Time

	// Iteration is the loop iteration the event belongs to (1-indexed,
	// 0 if recorded outside an iteration).
	Iteration int
}

func (BaseTrace) traceEvent() {}

// IterationStartTrace is recorded when the executor begins an iteration.
type IterationStartTrace struct {
	BaseTrace
}

// IterationEndTrace is recorded when an iteration completes.
type IterationEndTrace struct {
	BaseTrace

	// Duration is how long the iteration took.
	Duration time.Duration

	// Final reports whether this iteration terminated the run.
	Final bool
}

// ModelCallTrace is recorded for each completion-service call, including
// transient retries of the same iteration.
type ModelCallTrace struct {
	BaseTrace

	// Model is the model identifier, if the gateway knows it.
	Model string

	// InputTokens and OutputTokens are normalized token counts, 0 when the
	// provider does not report usage.
	InputTokens  int
	OutputTokens int

	// Duration is how long the call took.
	Duration time.Duration

	// Err is the call failure, nil on success.
	Err error
}

// ToolCallTrace is recorded for each tool invocation attempt, including
// argument-validation rejections.
type ToolCallTrace struct {
	BaseTrace

	// ToolName is the requested tool.
	ToolName string

	// CallID is the originating ToolCall.ID.
	CallID string

	// Args is the argument mapping as requested.
	Args map[string]any

	// Output is the observation text produced (possibly by the tool's
	// error policy).
	Output string

	// Recovered reports whether the tool's error policy absorbed a
	// handler failure.
	Recovered bool

	// Duration is how long the handler ran. Zero for validation
	// rejections.
	Duration time.Duration

	// Err is the invocation failure: handler error (also set when
	// recovered), validation error, or unknown-tool error.
	Err error
}

// ParseErrorTrace is recorded when structured output fails validation.
type ParseErrorTrace struct {
	BaseTrace

	// RawText is the text that failed to parse.
	RawText string

	// Detail describes the validation failure.
	Detail string
}

// RepairAttemptTrace is recorded each time a repair request is sent to the
// completion service.
type RepairAttemptTrace struct {
	BaseTrace

	// Attempt is the repair attempt number (1-indexed).
	Attempt int

	// Detail is the validation error included in the repair request.
	Detail string
}
