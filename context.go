package gyre

import (
	"context"
	"sync"
	"time"
)

// ExecutionContext is the per-run ambient context passed through everything
// in the framework. It owns the run's message history, the append-only trace
// log, auto-aggregated stats, and the terminal status.
//
// All framework components (Gateway, registry, executor, hooks) receive the
// ExecutionContext, enabling automatic trace collection without manual
// wiring. Each run owns its ExecutionContext exclusively; the Gateway and
// registry are shared across runs as stateless collaborators.
type ExecutionContext struct {
	mu sync.RWMutex

	goCtx context.Context
	name  string

	history   []Message
	iteration int

	events []TraceEvent
	stats  ExecutionStats

	status    Status
	finalText string
	err       error

	startTime time.Time
	endTime   time.Time

	hookFirer HookFirer
	clock     Clock
}

// NewExecutionContext creates a root ExecutionContext for one run. The name
// labels the run in logs and traces (e.g. "main").
func NewExecutionContext(ctx context.Context, name string) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	clock := NewSystemClock()
	return &ExecutionContext{
		goCtx:     ctx,
		name:      name,
		status:    StatusRunning,
		events:    make([]TraceEvent, 0),
		stats:     newExecutionStats(),
		startTime: clock.Now(),
		clock:     clock,
	}
}

// WithClock replaces the clock used for timestamps and elapsed-time
// accounting. Inject a mock clock in tests of time budgets. Returns the
// context for chaining.
func (ec *ExecutionContext) WithClock(clock Clock) *ExecutionContext {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.clock = clock
	ec.startTime = clock.Now()
	return ec
}

// Context returns the Go context governing this run's blocking operations.
func (ec *ExecutionContext) Context() context.Context {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.goCtx
}

// Name returns the run's label.
func (ec *ExecutionContext) Name() string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.name
}

// Clock returns the clock used by this run.
func (ec *ExecutionContext) Clock() Clock {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.clock
}

// -----------------------------------------------------------------------------
// History
// -----------------------------------------------------------------------------

// AppendMessage appends one message to the run's history. History is
// append-only; there is no way to modify or remove recorded messages.
func (ec *ExecutionContext) AppendMessage(msg Message) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.history = append(ec.history, msg)
}

// History returns a copy of the run's message history so far.
func (ec *ExecutionContext) History() []Message {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	out := make([]Message, len(ec.history))
	copy(out, ec.history)
	return out
}

// HistoryLen returns the number of recorded messages without copying.
func (ec *ExecutionContext) HistoryLen() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.history)
}

// -----------------------------------------------------------------------------
// Iterations
// -----------------------------------------------------------------------------

// Iteration returns the current iteration number (1-indexed, 0 before the
// first iteration starts).
func (ec *ExecutionContext) Iteration() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.iteration
}

// StartIteration increments the iteration counter and records an
// IterationStartTrace. Called by the executor only.
func (ec *ExecutionContext) StartIteration() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.iteration++
	ec.events = append(ec.events, IterationStartTrace{
		BaseTrace: ec.baseTraceLocked(),
	})
}

// EndIteration records an IterationEndTrace. Called by the executor only.
func (ec *ExecutionContext) EndIteration(duration time.Duration, final bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.events = append(ec.events, IterationEndTrace{
		BaseTrace: ec.baseTraceLocked(),
		Duration:  duration,
		Final:     final,
	})
}

// -----------------------------------------------------------------------------
// Tracing
// -----------------------------------------------------------------------------

// Trace records a trace event and auto-updates aggregated stats based on the
// event type.
func (ec *ExecutionContext) Trace(event TraceEvent) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	event = ec.populateBaseLocked(event)
	ec.stats.record(event)
	ec.events = append(ec.events, event)
}

// Events returns a copy of all recorded trace events.
func (ec *ExecutionContext) Events() []TraceEvent {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	out := make([]TraceEvent, len(ec.events))
	copy(out, ec.events)
	return out
}

// Stats returns a copy of the aggregated stats.
func (ec *ExecutionContext) Stats() ExecutionStats {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.stats.clone()
}

func (ec *ExecutionContext) baseTraceLocked() BaseTrace {
	return BaseTrace{
		Timestamp: ec.clock.Now(),
		Iteration: ec.iteration,
	}
}

// populateBaseLocked fills zero-valued BaseTrace fields on known event types.
func (ec *ExecutionContext) populateBaseLocked(event TraceEvent) TraceEvent {
	fill := func(b BaseTrace) BaseTrace {
		if b.Timestamp.IsZero() {
			b.Timestamp = ec.clock.Now()
		}
		if b.Iteration == 0 {
			b.Iteration = ec.iteration
		}
		return b
	}
	switch e := event.(type) {
	case ModelCallTrace:
		e.BaseTrace = fill(e.BaseTrace)
		return e
	case ToolCallTrace:
		e.BaseTrace = fill(e.BaseTrace)
		return e
	case ParseErrorTrace:
		e.BaseTrace = fill(e.BaseTrace)
		return e
	case RepairAttemptTrace:
		e.BaseTrace = fill(e.BaseTrace)
		return e
	}
	return event
}

// -----------------------------------------------------------------------------
// Termination
// -----------------------------------------------------------------------------

// Finish transitions the run to StatusFinished with the given final text.
// Returns false if the run already reached a terminal status; terminal
// statuses never change again.
func (ec *ExecutionContext) Finish(finalText string) bool {
	return ec.terminate(StatusFinished, finalText, nil)
}

// Abort transitions the run to StatusAborted. The final text should be the
// best available partial answer or [AbortedFallbackText]; err records the
// cause when the abort was not a plain budget stop.
func (ec *ExecutionContext) Abort(finalText string, err error) bool {
	return ec.terminate(StatusAborted, finalText, err)
}

func (ec *ExecutionContext) terminate(status Status, finalText string, err error) bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.status != StatusRunning {
		return false
	}
	ec.status = status
	ec.finalText = finalText
	ec.err = err
	ec.endTime = ec.clock.Now()
	return true
}

// Status returns the run's current status.
func (ec *ExecutionContext) Status() Status {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.status
}

// FinalText returns the run's final answer once terminal.
func (ec *ExecutionContext) FinalText() string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.finalText
}

// Error returns the cause of an aborted run, nil otherwise.
func (ec *ExecutionContext) Error() error {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.err
}

// Result assembles the caller-facing result from the terminal state.
func (ec *ExecutionContext) Result() *Result {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	trace := make([]Message, len(ec.history))
	copy(trace, ec.history)
	return &Result{
		FinalText:  ec.finalText,
		Trace:      trace,
		Status:     ec.status,
		Iterations: ec.iteration,
	}
}

// StartTime returns when the run began.
func (ec *ExecutionContext) StartTime() time.Time {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.startTime
}

// Elapsed returns time since the run began, or total duration once terminal.
func (ec *ExecutionContext) Elapsed() time.Duration {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	if ec.endTime.IsZero() {
		return ec.clock.Now().Sub(ec.startTime)
	}
	return ec.endTime.Sub(ec.startTime)
}

// -----------------------------------------------------------------------------
// Hooks
// -----------------------------------------------------------------------------

// SetHookFirer attaches the hook dispatcher. Set by the executor before the
// loop starts so that components holding only the ExecutionContext can fire
// hooks.
func (ec *ExecutionContext) SetHookFirer(f HookFirer) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.hookFirer = f
}

func (ec *ExecutionContext) firer() HookFirer {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.hookFirer
}

// FireBeforeToolCall dispatches a BeforeToolCallEvent if a firer is attached.
// Hooks may modify event.Args.
func (ec *ExecutionContext) FireBeforeToolCall(ctx context.Context, event *BeforeToolCallEvent) {
	if f := ec.firer(); f != nil {
		f.FireBeforeToolCall(ctx, ec, event)
	}
}

// FireAfterToolCall dispatches an AfterToolCallEvent if a firer is attached.
func (ec *ExecutionContext) FireAfterToolCall(ctx context.Context, event AfterToolCallEvent) {
	if f := ec.firer(); f != nil {
		f.FireAfterToolCall(ctx, ec, event)
	}
}

// FireBeforeModelCall dispatches a BeforeModelCallEvent if a firer is attached.
func (ec *ExecutionContext) FireBeforeModelCall(ctx context.Context, event BeforeModelCallEvent) {
	if f := ec.firer(); f != nil {
		f.FireBeforeModelCall(ctx, ec, event)
	}
}

// FireAfterModelCall dispatches an AfterModelCallEvent if a firer is attached.
func (ec *ExecutionContext) FireAfterModelCall(ctx context.Context, event AfterModelCallEvent) {
	if f := ec.firer(); f != nil {
		f.FireAfterModelCall(ctx, ec, event)
	}
}
