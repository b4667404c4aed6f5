// Package executor drives the bounded think-act-observe loop.
//
// Each iteration asks the [gyre.Gateway] for the next step, dispatches any
// requested tool calls through the registry, appends the observations to the
// run's history, and repeats until a final answer, the iteration cap, or the
// time budget. Budget exhaustion is a normal result with
// [gyre.StatusAborted], never an error; fatal failures (unknown tool, a
// propagating tool error, exhausted transient retries) abort the run and are
// also returned as errors so callers can classify them.
//
//	tools := registry.New()
//	tools.MustRegister(gyre.NewTool("get_weather", "Current weather.", weatherSchema, getWeather))
//
//	exec := executor.New(gw, tools, executor.DefaultConfig())
//	result, err := exec.Run(ctx, systemPrompt, "What's the weather in Paris?")
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gyre-ai/gyre"
	"github.com/gyre-ai/gyre/hooks"
	"github.com/gyre-ai/gyre/registry"
)

// Config bounds a run. The zero value is not usable directly; start from
// [DefaultConfig].
type Config struct {
	// MaxIterations caps the number of loop iterations (and therefore
	// gateway decisions, excluding transient retries). Values below 1 are
	// normalized to the default of 15.
	MaxIterations int

	// MaxExecutionTime caps the run's wall-clock duration. Checked at the
	// top of every iteration and enforced as a deadline on the gateway
	// call; a call cut off by that deadline ends the run as a normal
	// aborted result, not an error. Zero means unbounded.
	MaxExecutionTime time.Duration

	// TransientRetries is how many times a transient gateway failure is
	// retried within the same iteration, without consuming iteration
	// budget. Zero disables retries.
	TransientRetries int

	// ParallelTools dispatches a multi-call step's tool invocations
	// concurrently. Observations are still appended to history in request
	// order, and a return_direct result does not cancel in-flight
	// siblings. Tool handlers must be safe for concurrent use when this
	// is enabled.
	ParallelTools bool
}

// DefaultConfig returns the standard bounds: 15 iterations, 2 transient
// retries, no time limit, sequential tool dispatch.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    15,
		TransientRetries: 2,
	}
}

// FinalValidator checks a final answer against a strict shape before the run
// finishes, returning the (possibly canonicalized) text to use. Implemented
// by repair.Parser via ValidateFinal. A validation failure is fatal for the
// run, like the completion service being unavailable.
type FinalValidator interface {
	ValidateFinal(ctx context.Context, execCtx *gyre.ExecutionContext, text string) (string, error)
}

// Executor runs the reasoning loop. Construct with [New], configure with the
// With* methods, then call [Executor.Run]. An Executor is stateless across
// runs: one Executor serves concurrent runs, each with its own
// ExecutionContext.
type Executor struct {
	gateway        gyre.Gateway
	tools          *registry.Registry
	config         Config
	hooks          *hooks.Registry
	clock          gyre.Clock
	finalValidator FinalValidator
}

// New creates an Executor over the given gateway and tool registry.
// MaxIterations below 1 is normalized to the default.
func New(gateway gyre.Gateway, tools *registry.Registry, config Config) *Executor {
	if config.MaxIterations < 1 {
		config.MaxIterations = DefaultConfig().MaxIterations
	}
	if config.TransientRetries < 0 {
		config.TransientRetries = 0
	}
	return &Executor{
		gateway: gateway,
		tools:   tools,
		config:  config,
	}
}

// WithHooks attaches a shared hook registry. Returns the executor for
// chaining.
func (e *Executor) WithHooks(r *hooks.Registry) *Executor {
	e.hooks = r
	return e
}

// RegisterHook registers a single hook, creating the hook registry on first
// use. Returns the executor for chaining.
func (e *Executor) RegisterHook(hook any) *Executor {
	if e.hooks == nil {
		e.hooks = hooks.NewRegistry()
	}
	e.hooks.Register(hook)
	return e
}

// WithClock injects the clock used for time-budget accounting. Tests of
// MaxExecutionTime use a mock clock here. Returns the executor for chaining.
func (e *Executor) WithClock(clock gyre.Clock) *Executor {
	e.clock = clock
	return e
}

// WithFinalValidator holds the run's final answer to a strict schema.
// Returns the executor for chaining.
func (e *Executor) WithFinalValidator(v FinalValidator) *Executor {
	e.finalValidator = v
	return e
}

// Run executes one request: seeds history with the system instructions (when
// non-empty) and the user text, then drives the loop to a terminal status.
//
// The returned Result is always well-formed. The error is non-nil only for
// fatal failures (it then matches the aborted Result's cause); plain budget
// exhaustion returns a StatusAborted Result and a nil error.
func (e *Executor) Run(ctx context.Context, system, user string) (*gyre.Result, error) {
	execCtx := gyre.NewExecutionContext(ctx, "run")
	if e.clock != nil {
		execCtx.WithClock(e.clock)
	}
	if system != "" {
		execCtx.AppendMessage(gyre.SystemMessage(system))
	}
	execCtx.AppendMessage(gyre.UserMessage(user))
	return e.Execute(ctx, execCtx)
}

// Execute drives an already-seeded ExecutionContext to a terminal status.
// Use this instead of [Executor.Run] to control history seeding or to share
// a pre-built context with hooks.
func (e *Executor) Execute(ctx context.Context, execCtx *gyre.ExecutionContext) (*gyre.Result, error) {
	if execCtx.Status() != gyre.StatusRunning {
		return execCtx.Result(), nil
	}

	e.tools.Freeze()
	if e.hooks != nil {
		execCtx.SetHookFirer(e.hooks)
		e.hooks.FireBeforeExecution(ctx, execCtx, gyre.BeforeExecutionEvent{})
		defer func() {
			e.hooks.FireAfterExecution(ctx, execCtx, gyre.AfterExecutionEvent{
				Status: execCtx.Status(),
				Err:    execCtx.Error(),
			})
		}()
	}

	clock := execCtx.Clock()
	for {
		// Bounds first, before any gateway call.
		if execCtx.Iteration() >= e.config.MaxIterations {
			return e.abort(execCtx, nil), nil
		}
		if e.config.MaxExecutionTime > 0 && execCtx.Elapsed() >= e.config.MaxExecutionTime {
			return e.abort(execCtx, nil), nil
		}

		execCtx.StartIteration()
		iteration := execCtx.Iteration()
		if e.hooks != nil {
			e.hooks.FireBeforeIteration(ctx, execCtx, gyre.BeforeIterationEvent{Iteration: iteration})
		}
		iterStart := clock.Now()

		decision, err := e.nextStep(ctx, execCtx)
		if err != nil {
			if errors.Is(err, errTimeBudget) {
				// The run's own deadline cut off the gateway call. Same
				// outcome as the top-of-loop time check: aborted, no error.
				execCtx.EndIteration(clock.Now().Sub(iterStart), false)
				e.fireAfterIteration(ctx, execCtx, iteration, nil, clock.Now().Sub(iterStart))
				return e.abort(execCtx, nil), nil
			}
			e.fireError(ctx, execCtx, err)
			execCtx.EndIteration(clock.Now().Sub(iterStart), false)
			e.fireAfterIteration(ctx, execCtx, iteration, nil, clock.Now().Sub(iterStart))
			return e.abort(execCtx, err), err
		}

		if decision.IsFinal() {
			text := decision.FinalText
			if e.finalValidator != nil {
				validated, verr := e.finalValidator.ValidateFinal(ctx, execCtx, text)
				if verr != nil {
					verr = fmt.Errorf("final answer validation failed: %w", verr)
					e.fireError(ctx, execCtx, verr)
					execCtx.EndIteration(clock.Now().Sub(iterStart), false)
					e.fireAfterIteration(ctx, execCtx, iteration, decision, clock.Now().Sub(iterStart))
					return e.abort(execCtx, verr), verr
				}
				text = validated
			}
			execCtx.AppendMessage(gyre.AssistantMessage(text))
			execCtx.Finish(text)
			execCtx.EndIteration(clock.Now().Sub(iterStart), true)
			e.fireAfterIteration(ctx, execCtx, iteration, decision, clock.Now().Sub(iterStart))
			return execCtx.Result(), nil
		}

		execCtx.AppendMessage(gyre.AssistantToolCalls(decision.ToolCalls...))
		direct, derr := e.dispatch(ctx, execCtx, decision.ToolCalls)
		if derr != nil {
			e.fireError(ctx, execCtx, derr)
			execCtx.EndIteration(clock.Now().Sub(iterStart), false)
			e.fireAfterIteration(ctx, execCtx, iteration, decision, clock.Now().Sub(iterStart))
			return e.abort(execCtx, derr), derr
		}

		final := direct != nil
		execCtx.EndIteration(clock.Now().Sub(iterStart), final)
		e.fireAfterIteration(ctx, execCtx, iteration, decision, clock.Now().Sub(iterStart))

		if final {
			// return_direct: the tool's observation is the answer; no
			// further gateway round.
			execCtx.Finish(direct.Output)
			return execCtx.Result(), nil
		}
	}
}

// errTimeBudget marks a gateway call cut off by the run's own
// MaxExecutionTime deadline, as opposed to caller cancellation.
var errTimeBudget = errors.New("time budget exhausted during gateway call")

// nextStep obtains one gateway decision, retrying transient failures up to
// TransientRetries times. Retries stay within the current iteration and do
// not consume iteration budget. The call runs under the remaining time
// budget when MaxExecutionTime is set; expiry of that budget mid-call comes
// back as errTimeBudget so the loop can end the run without an error.
func (e *Executor) nextStep(ctx context.Context, execCtx *gyre.ExecutionContext) (*gyre.StepDecision, error) {
	callCtx := ctx
	if e.config.MaxExecutionTime > 0 {
		if remaining := e.config.MaxExecutionTime - execCtx.Elapsed(); remaining > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, remaining)
			defer cancel()
		}
	}

	tools := e.tools.Tools()
	var lastErr error
	for attempt := 0; attempt <= e.config.TransientRetries; attempt++ {
		decision, err := e.gateway.NextStep(callCtx, execCtx, execCtx.History(), tools)
		if err == nil {
			if decision == nil {
				return nil, fmt.Errorf("%w: gateway returned no decision", gyre.ErrCompletionUnavailable)
			}
			if len(decision.ToolCalls) == 0 && decision.FinalText == "" {
				return nil, fmt.Errorf("%w: gateway returned neither a final answer nor tool calls", gyre.ErrCompletionUnavailable)
			}
			return decision, nil
		}
		lastErr = err
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil &&
			e.config.MaxExecutionTime > 0 && execCtx.Elapsed() >= e.config.MaxExecutionTime {
			return nil, errTimeBudget
		}
		if Classify(err) != ClassTransient {
			return nil, err
		}
		e.fireError(ctx, execCtx, err)
	}
	return nil, fmt.Errorf("transient retries exhausted: %w", lastErr)
}

// dispatch runs one step's tool calls and appends their observations in
// request order. Returns the first successful return_direct invocation, if
// any. A non-nil error is fatal for the run.
func (e *Executor) dispatch(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	calls []*gyre.ToolCall,
) (*registry.Invocation, error) {
	if e.config.ParallelTools && len(calls) > 1 {
		return e.dispatchParallel(ctx, execCtx, calls)
	}

	for _, call := range calls {
		inv, err := e.invokeOne(ctx, execCtx, call)
		if err != nil {
			return nil, err
		}
		execCtx.AppendMessage(gyre.ToolResultMessage(call.ID, inv.Output))
		if inv.ReturnDirect {
			// Remaining calls in the batch were not yet dispatched and
			// stay that way.
			return inv, nil
		}
	}
	return nil, nil
}

// dispatchParallel runs all of a step's calls concurrently. Every call runs
// to completion even when a sibling finishes with return_direct; only the
// next gateway round is suppressed. Observations are appended in request
// order once all calls have completed.
func (e *Executor) dispatchParallel(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	calls []*gyre.ToolCall,
) (*registry.Invocation, error) {
	type outcome struct {
		inv *registry.Invocation
		err error
	}

	outcomes := make([]outcome, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call *gyre.ToolCall) {
			defer wg.Done()
			inv, err := e.invokeOne(ctx, execCtx, call)
			outcomes[i] = outcome{inv: inv, err: err}
		}(i, call)
	}
	wg.Wait()

	var direct *registry.Invocation
	for i, call := range calls {
		if outcomes[i].err != nil {
			return nil, outcomes[i].err
		}
		execCtx.AppendMessage(gyre.ToolResultMessage(call.ID, outcomes[i].inv.Output))
		if direct == nil && outcomes[i].inv.ReturnDirect {
			direct = outcomes[i].inv
		}
	}
	return direct, nil
}

// invokeOne runs a single tool call. Argument-validation rejections come
// back as normal observations so the model can self-correct on the next
// iteration; unknown tools and propagating tool failures are fatal.
func (e *Executor) invokeOne(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	call *gyre.ToolCall,
) (*registry.Invocation, error) {
	inv, err := e.tools.Invoke(ctx, execCtx, call)
	if err != nil {
		if errors.Is(err, gyre.ErrToolArguments) {
			return &registry.Invocation{
				Call:      call,
				Output:    fmt.Sprintf("Error: invalid arguments for tool %q: %v. Correct the arguments and try again.", call.Name, err),
				Recovered: true,
				Err:       err,
			}, nil
		}
		return nil, err
	}
	return inv, nil
}

// abort terminates the run with the best available partial answer, falling
// back to the standard message when the model produced no usable text.
func (e *Executor) abort(execCtx *gyre.ExecutionContext, cause error) *gyre.Result {
	text := bestPartialAnswer(execCtx.History())
	if text == "" {
		text = gyre.AbortedFallbackText
	}
	execCtx.Abort(text, cause)
	return execCtx.Result()
}

func (e *Executor) fireError(ctx context.Context, execCtx *gyre.ExecutionContext, err error) {
	if e.hooks == nil {
		return
	}
	e.hooks.FireError(ctx, execCtx, gyre.ErrorEvent{
		Iteration: execCtx.Iteration(),
		Err:       err,
	})
}

func (e *Executor) fireAfterIteration(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	iteration int,
	decision *gyre.StepDecision,
	duration time.Duration,
) {
	if e.hooks == nil {
		return
	}
	e.hooks.FireAfterIteration(ctx, execCtx, gyre.AfterIterationEvent{
		Iteration: iteration,
		Decision:  decision,
		Duration:  duration,
	})
}
