package gyre

import "context"

// -----------------------------------------------------------------------------
// Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks observe execution at well-defined points. Implement any combination
// of the interfaces below and register the value with hooks.Registry; it only
// receives events for the interfaces it implements.
//
// Hooks should not return errors and must not panic: a panicking Before hook
// stops execution. For paired hooks (Before/After), the After hook is always
// called if the Before hook was called, even when the run ends with an error.

// BeforeExecutionHook is called once before the first iteration.
type BeforeExecutionHook interface {
	OnBeforeExecution(ctx context.Context, execCtx *ExecutionContext, event BeforeExecutionEvent)
}

// AfterExecutionHook is called once after the run reaches a terminal status.
// Always called if OnBeforeExecution was called.
type AfterExecutionHook interface {
	OnAfterExecution(ctx context.Context, execCtx *ExecutionContext, event AfterExecutionEvent)
}

// BeforeIterationHook is called before each loop iteration.
type BeforeIterationHook interface {
	OnBeforeIteration(ctx context.Context, execCtx *ExecutionContext, event BeforeIterationEvent)
}

// AfterIterationHook is called after each loop iteration.
type AfterIterationHook interface {
	OnAfterIteration(ctx context.Context, execCtx *ExecutionContext, event AfterIterationEvent)
}

// BeforeModelCallHook is called before each completion-service call,
// including transient retries.
type BeforeModelCallHook interface {
	OnBeforeModelCall(ctx context.Context, execCtx *ExecutionContext, event BeforeModelCallEvent)
}

// AfterModelCallHook is called after each completion-service call completes.
type AfterModelCallHook interface {
	OnAfterModelCall(ctx context.Context, execCtx *ExecutionContext, event AfterModelCallEvent)
}

// BeforeToolCallHook is called before each tool invocation. The hook may
// modify event.Args to change the input; modified args are re-validated by
// nothing, so hooks must keep them schema-conformant.
type BeforeToolCallHook interface {
	OnBeforeToolCall(ctx context.Context, execCtx *ExecutionContext, event *BeforeToolCallEvent)
}

// AfterToolCallHook is called after each tool invocation completes,
// including argument-validation rejections (with zero duration).
type AfterToolCallHook interface {
	OnAfterToolCall(ctx context.Context, execCtx *ExecutionContext, event AfterToolCallEvent)
}

// ErrorHook is called when an error occurs during execution. Informational
// only; the error still takes its normal path.
type ErrorHook interface {
	OnError(ctx context.Context, execCtx *ExecutionContext, event ErrorEvent)
}

// HookFirer dispatches events to registered hooks. Implemented by
// hooks.Registry; defined here so the ExecutionContext can fire hooks
// without importing the hooks package.
type HookFirer interface {
	FireBeforeExecution(ctx context.Context, execCtx *ExecutionContext, event BeforeExecutionEvent)
	FireAfterExecution(ctx context.Context, execCtx *ExecutionContext, event AfterExecutionEvent)
	FireBeforeIteration(ctx context.Context, execCtx *ExecutionContext, event BeforeIterationEvent)
	FireAfterIteration(ctx context.Context, execCtx *ExecutionContext, event AfterIterationEvent)
	FireBeforeModelCall(ctx context.Context, execCtx *ExecutionContext, event BeforeModelCallEvent)
	FireAfterModelCall(ctx context.Context, execCtx *ExecutionContext, event AfterModelCallEvent)
	FireBeforeToolCall(ctx context.Context, execCtx *ExecutionContext, event *BeforeToolCallEvent)
	FireAfterToolCall(ctx context.Context, execCtx *ExecutionContext, event AfterToolCallEvent)
	FireError(ctx context.Context, execCtx *ExecutionContext, event ErrorEvent)
}
