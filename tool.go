package gyre

import (
	"context"
	"fmt"
)

// ErrorPolicy selects how the registry handles a tool handler failure.
type ErrorPolicy string

const (
	// PolicyPropagate re-raises handler failures to the caller as a
	// *ToolExecutionError, aborting the run. Use for tools whose failures
	// must not be silently absorbed.
	PolicyPropagate ErrorPolicy = "propagate"

	// PolicyFixedMessage swallows handler failures and returns a
	// pre-configured string as the observation, marked as recovered.
	PolicyFixedMessage ErrorPolicy = "fixed_message"

	// PolicyHandler swallows handler failures and passes the error to a
	// custom function whose return value becomes the observation.
	PolicyHandler ErrorPolicy = "handler"
)

// Handler is a tool's implementation: structured arguments in, observation
// text out. Handlers may block on I/O and should honor ctx cancellation.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is a registered capability invocable by name with structured
// arguments.
//
// Build with [NewTool] and the With* methods, then register on a
// registry.Registry before any run starts. A Tool is immutable once
// registered and safe for concurrent use by parallel runs.
//
//	tool := gyre.NewTool(
//	    "search",
//	    "Search the knowledge base",
//	    schema.Object(map[string]*schema.Property{
//	        "query": schema.String("Search query"),
//	    }, "query"),
//	    searchHandler,
//	).WithErrorPolicy(gyre.PolicyFixedMessage).
//	    WithFixedMessage("Search failed, please try again.")
type Tool struct {
	name         string
	description  string
	schema       map[string]any
	handler      Handler
	errorPolicy  ErrorPolicy
	fixedMessage string
	errorHandler func(error) string
	returnDirect bool
}

// NewTool creates a tool with the default error policy [PolicyPropagate].
// The schema is a JSON Schema for the tool's arguments; nil means the tool
// takes no arguments and any args the completion service supplies are
// rejected only by the handler itself.
func NewTool(name, description string, schema map[string]any, handler Handler) *Tool {
	return &Tool{
		name:        name,
		description: description,
		schema:      schema,
		handler:     handler,
		errorPolicy: PolicyPropagate,
	}
}

// WithErrorPolicy sets the failure handling policy. Returns the tool for
// chaining.
func (t *Tool) WithErrorPolicy(p ErrorPolicy) *Tool {
	t.errorPolicy = p
	return t
}

// WithFixedMessage sets the observation returned on failure and switches the
// policy to [PolicyFixedMessage].
func (t *Tool) WithFixedMessage(msg string) *Tool {
	t.errorPolicy = PolicyFixedMessage
	t.fixedMessage = msg
	return t
}

// WithErrorHandler sets a custom failure handler and switches the policy to
// [PolicyHandler]. The handler's return value becomes the observation.
func (t *Tool) WithErrorHandler(fn func(error) string) *Tool {
	t.errorPolicy = PolicyHandler
	t.errorHandler = fn
	return t
}

// WithReturnDirect marks the tool's successful result as the run's final
// answer: the executor finishes immediately without another gateway round.
func (t *Tool) WithReturnDirect(direct bool) *Tool {
	t.returnDirect = direct
	return t
}

// Name returns the tool's identifier used in tool calls.
func (t *Tool) Name() string { return t.name }

// Description returns the human-readable description shown to the completion
// service.
func (t *Tool) Description() string { return t.description }

// Schema returns the JSON Schema for the tool's arguments, or nil.
func (t *Tool) Schema() map[string]any { return t.schema }

// ErrorPolicy returns the configured failure policy.
func (t *Tool) ErrorPolicy() ErrorPolicy { return t.errorPolicy }

// FixedMessage returns the observation configured for PolicyFixedMessage.
func (t *Tool) FixedMessage() string { return t.fixedMessage }

// ReturnDirect reports whether a successful result short-circuits the loop.
func (t *Tool) ReturnDirect() bool { return t.returnDirect }

// Call runs the tool handler directly, without schema validation or the
// fault boundary. Use registry.Registry.Invoke for the full contract; Call
// exists for the registry and for tests.
func (t *Tool) Call(ctx context.Context, args map[string]any) (string, error) {
	if t.handler == nil {
		return "", fmt.Errorf("gyre: tool %q has no handler", t.name)
	}
	return t.handler(ctx, args)
}

// Recover applies the tool's error policy to a handler failure. It returns
// the recovered observation text and true when the policy absorbs the error,
// or "" and false when the policy is [PolicyPropagate].
func (t *Tool) Recover(err error) (string, bool) {
	switch t.errorPolicy {
	case PolicyFixedMessage:
		return t.fixedMessage, true
	case PolicyHandler:
		if t.errorHandler != nil {
			return t.errorHandler(err), true
		}
		return err.Error(), true
	default:
		return "", false
	}
}
