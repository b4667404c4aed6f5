// Package registry owns the set of invocable tools and provides safe,
// uniform invocation: name lookup, argument validation against each tool's
// JSON Schema, and a fault boundary that applies the tool's error policy.
//
// A Registry is populated before any run starts and frozen thereafter; the
// frozen registry is shared read-only by concurrent runs. Registering during
// execution returns [gyre.ErrRegistryFrozen].
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gyre-ai/gyre"
	"github.com/gyre-ai/gyre/schema"
)

// Invocation is the outcome of a single tool invocation whose failure, if
// any, was absorbed by the tool's error policy. Invocations always carry
// observation text; the executor records it as a tool_result message.
type Invocation struct {
	// Call is the originating request.
	Call *gyre.ToolCall

	// Output is the observation text, produced by the handler or by the
	// tool's error policy.
	Output string

	// Recovered reports whether the error policy absorbed a handler
	// failure.
	Recovered bool

	// ReturnDirect reports whether the tool is configured to make its
	// result the run's final answer. Never true for recovered failures.
	ReturnDirect bool

	// Err is the absorbed handler failure when Recovered is true.
	Err error
}

// Registry maps tool names to their descriptors.
type Registry struct {
	mu      sync.RWMutex
	order   []*gyre.Tool
	byName  map[string]*gyre.Tool
	schemas map[string]*schema.Schema
	frozen  bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]*gyre.Tool),
		schemas: make(map[string]*schema.Schema),
	}
}

// Register adds a tool. The tool's schema is compiled once here so argument
// validation on the invoke path is cheap.
//
// Fails with [gyre.ErrDuplicateTool] if the name is taken, and with
// [gyre.ErrRegistryFrozen] after Freeze.
func (r *Registry) Register(tool *gyre.Tool) error {
	if tool == nil {
		return fmt.Errorf("registry: nil tool")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %q", gyre.ErrRegistryFrozen, tool.Name())
	}
	if _, exists := r.byName[tool.Name()]; exists {
		return fmt.Errorf("%w: %s", gyre.ErrDuplicateTool, tool.Name())
	}

	compiled, err := schema.Compile(tool.Schema())
	if err != nil {
		return fmt.Errorf("registry: invalid schema for %q: %w", tool.Name(), err)
	}

	r.order = append(r.order, tool)
	r.byName[tool.Name()] = tool
	r.schemas[tool.Name()] = compiled
	return nil
}

// MustRegister is like Register but panics on error. Use at setup time.
func (r *Registry) MustRegister(tool *gyre.Tool) *Registry {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
	return r
}

// Freeze closes the registry for registration. The executor freezes the
// registry before the first iteration; a frozen registry requires no
// locking discipline from readers.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (*gyre.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// Tools returns all registered tools in registration order.
func (r *Registry) Tools() []*gyre.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*gyre.Tool, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke executes one tool call under the full invocation contract:
//
//  1. Unknown name fails with [gyre.ErrUnknownTool].
//  2. Arguments are validated against the tool's schema; a mismatch fails
//     with [gyre.ErrToolArguments] and the handler is never called. The
//     tool's error policy does not apply: the violation was committed by
//     the completion service, not the tool.
//  3. The handler runs inside a fault boundary (panics are captured as
//     errors). Failures are resolved per the tool's error policy:
//     PolicyPropagate returns a *gyre.ToolExecutionError; the recovering
//     policies return a normal Invocation with Recovered set.
//
// When execCtx is non-nil, the call fires Before/AfterToolCall hooks and is
// traced automatically. Hooks may modify arguments before the handler runs.
func (r *Registry) Invoke(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	call *gyre.ToolCall,
) (*Invocation, error) {
	r.mu.RLock()
	tool, ok := r.byName[call.Name]
	compiled := r.schemas[call.Name]
	r.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w: %s", gyre.ErrUnknownTool, call.Name)
		r.traceFailure(execCtx, call, err)
		return nil, err
	}

	if err := compiled.Validate(normalizeArgs(call.Args)); err != nil {
		err = fmt.Errorf("%w: %v", gyre.ErrToolArguments, err)
		if execCtx != nil {
			execCtx.FireAfterToolCall(ctx, gyre.AfterToolCallEvent{
				ToolName: call.Name,
				CallID:   call.ID,
				Err:      err,
			})
		}
		r.traceFailure(execCtx, call, err)
		return nil, err
	}

	// Hooks may modify args after validation; they must keep them
	// schema-conformant.
	args := call.Args
	if execCtx != nil {
		before := &gyre.BeforeToolCallEvent{
			ToolName: call.Name,
			CallID:   call.ID,
			Args:     args,
		}
		execCtx.FireBeforeToolCall(ctx, before)
		args = before.Args
	}

	start := time.Now()
	output, callErr := callWithFaultBoundary(ctx, tool, args)
	duration := time.Since(start)

	inv := &Invocation{Call: call}
	if callErr != nil {
		recovered, ok := tool.Recover(callErr)
		if !ok {
			execErr := &gyre.ToolExecutionError{ToolName: call.Name, Err: callErr}
			r.finishCall(ctx, execCtx, call, args, "", false, duration, callErr)
			return nil, execErr
		}
		inv.Output = recovered
		inv.Recovered = true
		inv.Err = callErr
		r.finishCall(ctx, execCtx, call, args, recovered, true, duration, callErr)
		return inv, nil
	}

	inv.Output = output
	inv.ReturnDirect = tool.ReturnDirect()
	r.finishCall(ctx, execCtx, call, args, output, false, duration, nil)
	return inv, nil
}

// callWithFaultBoundary runs the handler, converting panics into errors so a
// misbehaving tool cannot take down the run.
func callWithFaultBoundary(
	ctx context.Context,
	tool *gyre.Tool,
	args map[string]any,
) (output string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool panicked: %v", rec)
		}
	}()
	return tool.Call(ctx, args)
}

func (r *Registry) finishCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	call *gyre.ToolCall,
	args map[string]any,
	output string,
	recovered bool,
	duration time.Duration,
	err error,
) {
	if execCtx == nil {
		return
	}
	execCtx.FireAfterToolCall(ctx, gyre.AfterToolCallEvent{
		ToolName:  call.Name,
		CallID:    call.ID,
		Args:      args,
		Output:    output,
		Recovered: recovered,
		Duration:  duration,
		Err:       err,
	})
	execCtx.Trace(gyre.ToolCallTrace{
		ToolName:  call.Name,
		CallID:    call.ID,
		Args:      args,
		Output:    output,
		Recovered: recovered,
		Duration:  duration,
		Err:       err,
	})
}

func (r *Registry) traceFailure(execCtx *gyre.ExecutionContext, call *gyre.ToolCall, err error) {
	if execCtx == nil {
		return
	}
	execCtx.Trace(gyre.ToolCallTrace{
		ToolName: call.Name,
		CallID:   call.ID,
		Args:     call.Args,
		Err:      err,
	})
}

// normalizeArgs round-trips arguments through JSON so the validator sees
// canonical JSON types (float64 numbers, etc.) regardless of how the map was
// constructed.
func normalizeArgs(args map[string]any) any {
	if args == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return args
	}
	return out
}
