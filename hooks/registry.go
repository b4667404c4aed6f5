package hooks

import (
	"context"

	"github.com/gyre-ai/gyre"
)

// Registry stores hooks in registration order and dispatches each event to
// the hooks that implement the corresponding interface.
//
// Registry implements [gyre.HookFirer]; the executor attaches it to the
// ExecutionContext so that components holding only the context can fire
// hooks.
type Registry struct {
	hooks []any
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make([]any, 0),
	}
}

// Register adds a hook. The hook can implement any combination of the hook
// interfaces; it only receives events for those it implements. Nil hooks are
// ignored.
func (r *Registry) Register(hook any) *Registry {
	if hook == nil {
		return r
	}
	r.hooks = append(r.hooks, hook)
	return r
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	return len(r.hooks)
}

// Clear removes all registered hooks.
func (r *Registry) Clear() {
	r.hooks = make([]any, 0)
}

// FireBeforeExecution dispatches to all BeforeExecutionHook implementations.
func (r *Registry) FireBeforeExecution(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.BeforeExecutionEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.BeforeExecutionHook); ok {
			hook.OnBeforeExecution(ctx, execCtx, event)
		}
	}
}

// FireAfterExecution dispatches to all AfterExecutionHook implementations.
func (r *Registry) FireAfterExecution(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterExecutionEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.AfterExecutionHook); ok {
			hook.OnAfterExecution(ctx, execCtx, event)
		}
	}
}

// FireBeforeIteration dispatches to all BeforeIterationHook implementations.
func (r *Registry) FireBeforeIteration(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.BeforeIterationEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.BeforeIterationHook); ok {
			hook.OnBeforeIteration(ctx, execCtx, event)
		}
	}
}

// FireAfterIteration dispatches to all AfterIterationHook implementations.
func (r *Registry) FireAfterIteration(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterIterationEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.AfterIterationHook); ok {
			hook.OnAfterIteration(ctx, execCtx, event)
		}
	}
}

// FireBeforeModelCall dispatches to all BeforeModelCallHook implementations.
func (r *Registry) FireBeforeModelCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.BeforeModelCallEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.BeforeModelCallHook); ok {
			hook.OnBeforeModelCall(ctx, execCtx, event)
		}
	}
}

// FireAfterModelCall dispatches to all AfterModelCallHook implementations.
func (r *Registry) FireAfterModelCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterModelCallEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.AfterModelCallHook); ok {
			hook.OnAfterModelCall(ctx, execCtx, event)
		}
	}
}

// FireBeforeToolCall dispatches to all BeforeToolCallHook implementations.
// Hooks can modify event.Args to change the tool input.
func (r *Registry) FireBeforeToolCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event *gyre.BeforeToolCallEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.BeforeToolCallHook); ok {
			hook.OnBeforeToolCall(ctx, execCtx, event)
		}
	}
}

// FireAfterToolCall dispatches to all AfterToolCallHook implementations.
func (r *Registry) FireAfterToolCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterToolCallEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.AfterToolCallHook); ok {
			hook.OnAfterToolCall(ctx, execCtx, event)
		}
	}
}

// FireError dispatches to all ErrorHook implementations. Informational only;
// the error still takes its normal path.
func (r *Registry) FireError(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.ErrorEvent,
) {
	for _, h := range r.hooks {
		if hook, ok := h.(gyre.ErrorHook); ok {
			hook.OnError(ctx, execCtx, event)
		}
	}
}

// Compile-time check that Registry implements gyre.HookFirer.
var _ gyre.HookFirer = (*Registry)(nil)
