// Package gyre implements a bounded tool-calling reasoning loop: a completion
// service proposes the next step (a final answer or one or more tool
// invocations), registered tools execute the invocations with per-call error
// containment, and the loop iterates until an answer is produced or a budget
// is exhausted.
//
// # Architecture
//
// The package is split by responsibility:
//
//   - gyre (this package): shared data model ([Message], [ToolCall], [Tool]),
//     the [Gateway] contract, the [ExecutionContext] with tracing and stats,
//     hook interfaces and events.
//   - registry: the tool registry, schema validation of arguments, and the
//     fault boundary around tool handlers.
//   - executor: the loop controller that drives Gateway and registry until
//     termination, with transient-failure retries and budget enforcement.
//   - gateway: adapter from LangChainGo's llms.Model to [Gateway].
//   - schema: JSON Schema builders, compilation and validation.
//   - repair: best-effort repair of malformed structured output.
//   - hooks: registry that dispatches lifecycle events to observers.
//
// # Quick Start
//
//	tools := registry.New()
//	tools.MustRegister(gyre.NewTool(
//	    "get_weather",
//	    "Get current weather for a city",
//	    schema.Object(map[string]*schema.Property{
//	        "city": schema.String("City name"),
//	    }, "city"),
//	    func(ctx context.Context, args map[string]any) (string, error) {
//	        return weatherFor(args["city"].(string))
//	    },
//	))
//
//	gw := gateway.NewLCG(llm).WithModelName("gpt-4o-mini")
//	exec := executor.New(gw, tools, executor.DefaultConfig())
//	result, err := exec.Run(ctx, "You are a helpful assistant.", "Weather in Paris?")
//
// The returned [Result] always carries the full message trace, so a run can be
// audited after the fact regardless of how it terminated.
package gyre
