package gyre

import "time"

// HookEvent is a marker interface for all hook events.
type HookEvent interface {
	hookEvent()
}

// BeforeExecutionEvent is emitted once before the first iteration begins.
type BeforeExecutionEvent struct{}

func (BeforeExecutionEvent) hookEvent() {}

// AfterExecutionEvent is emitted once after the run reaches a terminal
// status.
type AfterExecutionEvent struct {
	// Status is the terminal status.
	Status Status

	// Err is the run's error, nil unless the run aborted with a cause.
	Err error
}

func (AfterExecutionEvent) hookEvent() {}

// BeforeIterationEvent is emitted before each iteration.
type BeforeIterationEvent struct {
	// Iteration is the iteration number (1-indexed).
	Iteration int
}

func (BeforeIterationEvent) hookEvent() {}

// AfterIterationEvent is emitted after each iteration.
type AfterIterationEvent struct {
	// Iteration is the iteration number (1-indexed).
	Iteration int

	// Decision is the gateway decision that drove the iteration, nil when
	// the iteration failed before a decision was obtained.
	Decision *StepDecision

	// Duration is how long the iteration took.
	Duration time.Duration
}

func (AfterIterationEvent) hookEvent() {}

// BeforeModelCallEvent is emitted before each completion-service call.
type BeforeModelCallEvent struct {
	// Model is the model identifier, if known.
	Model string

	// History is the message snapshot sent to the service.
	History []Message
}

func (BeforeModelCallEvent) hookEvent() {}

// AfterModelCallEvent is emitted after each completion-service call.
type AfterModelCallEvent struct {
	// Model is the model identifier, if known.
	Model string

	// Decision is the classified decision, nil on error.
	Decision *StepDecision

	// InputTokens and OutputTokens are normalized token counts.
	InputTokens  int
	OutputTokens int

	// Duration is how long the call took.
	Duration time.Duration

	// Err is the call failure, nil on success.
	Err error
}

func (AfterModelCallEvent) hookEvent() {}

// BeforeToolCallEvent is emitted before each tool invocation. Hooks may
// modify Args to change the input.
type BeforeToolCallEvent struct {
	// ToolName is the tool about to be invoked.
	ToolName string

	// CallID is the originating ToolCall.ID.
	CallID string

	// Args is the validated argument mapping. Mutable by hooks.
	Args map[string]any
}

func (*BeforeToolCallEvent) hookEvent() {}

// AfterToolCallEvent is emitted after each tool invocation completes.
type AfterToolCallEvent struct {
	// ToolName is the invoked tool.
	ToolName string

	// CallID is the originating ToolCall.ID.
	CallID string

	// Args is the argument mapping that was used, nil when validation
	// rejected the call.
	Args map[string]any

	// Output is the observation text produced.
	Output string

	// Recovered reports whether the tool's error policy absorbed a
	// handler failure.
	Recovered bool

	// Duration is how long the handler ran.
	Duration time.Duration

	// Err is the invocation failure, also set when Recovered is true.
	Err error
}

func (AfterToolCallEvent) hookEvent() {}

// ErrorEvent is emitted when an error occurs during execution.
type ErrorEvent struct {
	// Iteration is where the error occurred (0 if before the first
	// iteration).
	Iteration int

	// Err is the error.
	Err error
}

func (ErrorEvent) hookEvent() {}
