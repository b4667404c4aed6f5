package gyre

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry and gateway failures. Wrap with %w so callers
// can classify with errors.Is.
var (
	// ErrUnknownTool is returned when a tool call names a tool that was
	// never registered. This is a configuration error: the registered tool
	// set and the tool descriptions given to the completion service are out
	// of sync. It is never retried.
	ErrUnknownTool = errors.New("gyre: unknown tool")

	// ErrDuplicateTool is returned when registering a tool under a name
	// that is already taken.
	ErrDuplicateTool = errors.New("gyre: duplicate tool name")

	// ErrRegistryFrozen is returned when registering a tool after the
	// registry has been frozen for execution.
	ErrRegistryFrozen = errors.New("gyre: registry is frozen")

	// ErrToolArguments is returned when a tool call's arguments fail schema
	// validation. The tool handler is never invoked, and the tool's own
	// error policy does not apply: the violation was committed by the
	// caller (the completion service), not the tool.
	ErrToolArguments = errors.New("gyre: tool arguments failed schema validation")

	// ErrCompletionUnavailable is returned when the completion service is
	// unreachable or its response cannot be classified as a decision.
	// The executor retries it as a transient failure.
	ErrCompletionUnavailable = errors.New("gyre: completion service unavailable")
)

// StructuredParseError is returned by repair.Parser when repair attempts are
// exhausted without producing output that validates against the target schema.
type StructuredParseError struct {
	// RawText is the last raw text that failed to parse.
	RawText string

	// Detail describes the last validation failure.
	Detail string

	// Attempts is the number of repair attempts performed.
	Attempts int

	// Err is the underlying parse or validation error.
	Err error
}

func (e *StructuredParseError) Error() string {
	return fmt.Sprintf(
		"gyre: structured output invalid after %d repair attempt(s): %s",
		e.Attempts, e.Detail,
	)
}

func (e *StructuredParseError) Unwrap() error {
	return e.Err
}

// ToolExecutionError wraps a tool handler failure for tools configured with
// [PolicyPropagate]. Tools with the recovering policies never produce this
// error; their failures are converted to observation text instead.
type ToolExecutionError struct {
	// ToolName is the tool whose handler failed.
	ToolName string

	// Err is the original handler error (or recovered panic).
	Err error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("gyre: tool %q failed: %v", e.ToolName, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
