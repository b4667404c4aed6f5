// Package hooks provides a registry for execution lifecycle hooks.
//
// Hooks observe and intercept events during a run. Each hook interface in
// the root package corresponds to one event type; implement only the
// interfaces you need:
//
//   - [gyre.BeforeExecutionHook] / [gyre.AfterExecutionHook]
//   - [gyre.BeforeIterationHook] / [gyre.AfterIterationHook]
//   - [gyre.BeforeModelCallHook] / [gyre.AfterModelCallHook]
//   - [gyre.BeforeToolCallHook] / [gyre.AfterToolCallHook] (Before can modify args)
//   - [gyre.ErrorHook]
//
// # Creating a Hook
//
//	type MetricsHook struct{}
//
//	func (h *MetricsHook) OnAfterToolCall(
//	    ctx context.Context,
//	    execCtx *gyre.ExecutionContext,
//	    event gyre.AfterToolCallEvent,
//	) {
//	    metrics.RecordToolCall(event.ToolName, event.Duration)
//	}
//
//	var _ gyre.AfterToolCallHook = (*MetricsHook)(nil)
//
// # Registering Hooks
//
// Register directly on the executor for simple cases:
//
//	exec := executor.New(gw, tools, cfg).
//	    RegisterHook(&LoggerHook{}).
//	    RegisterHook(&MetricsHook{})
//
// Or share one registry across executors:
//
//	registry := hooks.NewRegistry()
//	registry.Register(&SharedHook{})
//	exec1 := executor.New(gw, tools1, cfg).WithHooks(registry)
//	exec2 := executor.New(gw, tools2, cfg).WithHooks(registry)
//
// Hooks are called in registration order. See the loggers package for a hook
// that implements every interface.
package hooks
