// Package tt provides shared test doubles for the framework's test suites.
package tt

import (
	"context"
	"sync"

	"github.com/gyre-ai/gyre"
)

// -----------------------------------------------------------------------------
// ScriptedGateway - implements gyre.Gateway with a queued decision script
// -----------------------------------------------------------------------------

// ScriptedGateway is a gyre.Gateway that replays a queued script of
// decisions and errors, one entry per NextStep call. It records every call's
// history snapshot for verification.
type ScriptedGateway struct {
	mu      sync.Mutex
	steps   []scriptedStep
	callIdx int

	// CapturedHistories stores the history snapshot passed to each
	// NextStep call, in call order.
	CapturedHistories [][]gyre.Message
}

type scriptedStep struct {
	decision *gyre.StepDecision
	err      error
}

// NewScriptedGateway creates an empty ScriptedGateway. An exhausted script
// answers with a final "done" so a runaway loop still terminates.
func NewScriptedGateway() *ScriptedGateway {
	return &ScriptedGateway{}
}

// AddFinal queues a final-answer decision.
func (g *ScriptedGateway) AddFinal(text string) *ScriptedGateway {
	g.steps = append(g.steps, scriptedStep{
		decision: &gyre.StepDecision{FinalText: text},
	})
	return g
}

// AddToolCalls queues a tool-request decision.
func (g *ScriptedGateway) AddToolCalls(calls ...*gyre.ToolCall) *ScriptedGateway {
	g.steps = append(g.steps, scriptedStep{
		decision: &gyre.StepDecision{ToolCalls: calls},
	})
	return g
}

// AddError queues an error response.
func (g *ScriptedGateway) AddError(err error) *ScriptedGateway {
	g.steps = append(g.steps, scriptedStep{err: err})
	return g
}

// Repeat re-queues the last scripted step n additional times. Panics when
// nothing is scripted yet.
func (g *ScriptedGateway) Repeat(n int) *ScriptedGateway {
	if len(g.steps) == 0 {
		panic("tt: Repeat called on empty script")
	}
	last := g.steps[len(g.steps)-1]
	for i := 0; i < n; i++ {
		g.steps = append(g.steps, last)
	}
	return g
}

// CallCount returns how many times NextStep has been called.
func (g *ScriptedGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callIdx
}

// NextStep implements gyre.Gateway.
func (g *ScriptedGateway) NextStep(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	history []gyre.Message,
	tools []*gyre.Tool,
) (*gyre.StepDecision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.CapturedHistories = append(g.CapturedHistories, history)

	idx := g.callIdx
	g.callIdx++

	if idx >= len(g.steps) {
		return &gyre.StepDecision{FinalText: "done"}, nil
	}
	step := g.steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	return step.decision, nil
}

// Compile-time check that ScriptedGateway implements gyre.Gateway.
var _ gyre.Gateway = (*ScriptedGateway)(nil)

// -----------------------------------------------------------------------------
// RecorderHook - collects hook events in firing order
// -----------------------------------------------------------------------------

// RecorderHook implements every hook interface and records event type names
// in firing order, for asserting hook dispatch.
type RecorderHook struct {
	mu     sync.Mutex
	Names  []string
	Events []gyre.HookEvent
}

// NewRecorderHook creates an empty RecorderHook.
func NewRecorderHook() *RecorderHook {
	return &RecorderHook{}
}

func (h *RecorderHook) record(name string, event gyre.HookEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Names = append(h.Names, name)
	h.Events = append(h.Events, event)
}

// Recorded returns the recorded event type names in firing order.
func (h *RecorderHook) Recorded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Names))
	copy(out, h.Names)
	return out
}

// Count returns how many events with the given name were recorded.
func (h *RecorderHook) Count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, recorded := range h.Names {
		if recorded == name {
			n++
		}
	}
	return n
}

func (h *RecorderHook) OnBeforeExecution(_ context.Context, _ *gyre.ExecutionContext, e gyre.BeforeExecutionEvent) {
	h.record("BeforeExecution", e)
}

func (h *RecorderHook) OnAfterExecution(_ context.Context, _ *gyre.ExecutionContext, e gyre.AfterExecutionEvent) {
	h.record("AfterExecution", e)
}

func (h *RecorderHook) OnBeforeIteration(_ context.Context, _ *gyre.ExecutionContext, e gyre.BeforeIterationEvent) {
	h.record("BeforeIteration", e)
}

func (h *RecorderHook) OnAfterIteration(_ context.Context, _ *gyre.ExecutionContext, e gyre.AfterIterationEvent) {
	h.record("AfterIteration", e)
}

func (h *RecorderHook) OnBeforeModelCall(_ context.Context, _ *gyre.ExecutionContext, e gyre.BeforeModelCallEvent) {
	h.record("BeforeModelCall", e)
}

func (h *RecorderHook) OnAfterModelCall(_ context.Context, _ *gyre.ExecutionContext, e gyre.AfterModelCallEvent) {
	h.record("AfterModelCall", e)
}

func (h *RecorderHook) OnBeforeToolCall(_ context.Context, _ *gyre.ExecutionContext, e *gyre.BeforeToolCallEvent) {
	h.record("BeforeToolCall", e)
}

func (h *RecorderHook) OnAfterToolCall(_ context.Context, _ *gyre.ExecutionContext, e gyre.AfterToolCallEvent) {
	h.record("AfterToolCall", e)
}

func (h *RecorderHook) OnError(_ context.Context, _ *gyre.ExecutionContext, e gyre.ErrorEvent) {
	h.record("Error", e)
}

var (
	_ gyre.BeforeExecutionHook = (*RecorderHook)(nil)
	_ gyre.AfterExecutionHook  = (*RecorderHook)(nil)
	_ gyre.BeforeIterationHook = (*RecorderHook)(nil)
	_ gyre.AfterIterationHook  = (*RecorderHook)(nil)
	_ gyre.BeforeModelCallHook = (*RecorderHook)(nil)
	_ gyre.AfterModelCallHook  = (*RecorderHook)(nil)
	_ gyre.BeforeToolCallHook  = (*RecorderHook)(nil)
	_ gyre.AfterToolCallHook   = (*RecorderHook)(nil)
	_ gyre.ErrorHook           = (*RecorderHook)(nil)
)

// -----------------------------------------------------------------------------
// Message and call builders
// -----------------------------------------------------------------------------

// Call builds a ToolCall with the given id, name and args.
func Call(id, name string, args map[string]any) *gyre.ToolCall {
	return &gyre.ToolCall{ID: id, Name: name, Args: args}
}

// Roles extracts the role sequence from a history, for compact assertions.
func Roles(history []gyre.Message) []gyre.Role {
	out := make([]gyre.Role, len(history))
	for i, msg := range history {
		out[i] = msg.Role
	}
	return out
}
