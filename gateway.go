package gyre

import "context"

// StepDecision is the gateway's classification of the completion service's
// response: either a final answer or an ordered batch of tool-call requests.
//
// A decision must carry a non-empty FinalText or at least one tool call.
// The executor treats an empty decision as a gateway failure wrapping
// [ErrCompletionUnavailable], the same as an unclassifiable response.
//
// A batch may contain multiple calls; they are mutually independent within
// the step (they all observe the same prior history) and the executor
// guarantees their results are recorded in the order listed here.
type StepDecision struct {
	// FinalText is the final answer. Meaningful only when IsFinal reports
	// true.
	FinalText string

	// ToolCalls is the ordered batch of requested invocations. Empty when
	// the decision is a final answer.
	ToolCalls []*ToolCall
}

// IsFinal reports whether the decision terminates the run with FinalText.
func (d *StepDecision) IsFinal() bool {
	return len(d.ToolCalls) == 0
}

// Gateway adapts an external text-completion service into a uniform "decide
// next step" operation.
//
// A Gateway is a pure decision function over the given history snapshot: it
// must not execute tools or mutate history. Implementations wrap transport
// and response-classification failures in [ErrCompletionUnavailable] so the
// executor can retry them as transient.
//
// Gateways must be stateless with respect to runs: a single Gateway is shared
// by concurrent runs, each owning its own history.
//
// The execCtx parameter enables automatic tracing and hook dispatch. Pass nil
// to skip both.
type Gateway interface {
	NextStep(
		ctx context.Context,
		execCtx *ExecutionContext,
		history []Message,
		tools []*Tool,
	) (*StepDecision, error)
}

// GatewayFunc adapts a function to the [Gateway] interface. Useful for
// scripted gateways in tests.
type GatewayFunc func(
	ctx context.Context,
	execCtx *ExecutionContext,
	history []Message,
	tools []*Tool,
) (*StepDecision, error)

// NextStep implements [Gateway].
func (f GatewayFunc) NextStep(
	ctx context.Context,
	execCtx *ExecutionContext,
	history []Message,
	tools []*Tool,
) (*StepDecision, error) {
	return f(ctx, execCtx, history, tools)
}
