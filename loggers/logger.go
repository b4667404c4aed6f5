// Package loggers provides a hook that logs everything that happens during a
// run, for development and integration testing.
package loggers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyre-ai/gyre"
)

// LoggerHook implements every hook interface and logs each event as it
// fires. Structured data is rendered as YAML for readability; nothing is
// truncated.
type LoggerHook struct {
	out io.Writer
}

// NewLoggerHook creates a LoggerHook writing to stdout.
func NewLoggerHook() *LoggerHook {
	return &LoggerHook{out: os.Stdout}
}

// NewLoggerHookWithWriter creates a LoggerHook writing to w.
func NewLoggerHookWithWriter(w io.Writer) *LoggerHook {
	return &LoggerHook{out: w}
}

func (h *LoggerHook) logEvent(name string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(h.out, "\n>>> [%s]: %s\n", name, timestamp)
}

func (h *LoggerHook) log(format string, args ...any) {
	fmt.Fprintf(h.out, format+"\n", args...)
}

func (h *LoggerHook) logYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		h.log("(failed to marshal: %v)", err)
		return
	}
	fmt.Fprint(h.out, string(data))
}

// OnBeforeExecution logs run start with the seeded history.
func (h *LoggerHook) OnBeforeExecution(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.BeforeExecutionEvent,
) {
	h.logEvent("BeforeExecution")
	h.log("================================================================================")
	h.log("RUN STARTED")
	h.log("================================================================================")
	h.log("Name: %s", execCtx.Name())

	history := execCtx.History()
	if len(history) > 0 {
		h.log("")
		h.log("Seeded history:")
		for i, msg := range history {
			h.log("  [%d] %s: %s", i, msg.Role, msg.Content)
		}
	}
}

// OnAfterExecution logs the terminal status and aggregated stats.
func (h *LoggerHook) OnAfterExecution(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterExecutionEvent,
) {
	h.logEvent("AfterExecution")
	h.log("================================================================================")
	h.log("RUN COMPLETED")
	h.log("================================================================================")

	eventData := map[string]any{
		"status": string(event.Status),
	}
	if event.Err != nil {
		eventData["error"] = event.Err.Error()
	}
	h.logYAML(eventData)

	h.log("")
	h.log("Stats:")
	stats := execCtx.Stats()
	h.logYAML(map[string]any{
		"total_iterations":    execCtx.Iteration(),
		"total_input_tokens":  stats.TotalInputTokens,
		"total_output_tokens": stats.TotalOutputTokens,
		"model_calls":         stats.ModelCallCount,
		"tool_calls":          stats.ToolCallCount,
		"tool_errors":         stats.ToolErrorCount,
		"parse_errors":        stats.ParseErrorCount,
	})
}

// OnBeforeIteration logs iteration start.
func (h *LoggerHook) OnBeforeIteration(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.BeforeIterationEvent,
) {
	h.logEvent(fmt.Sprintf("BeforeIteration %d", event.Iteration))
	h.log("--------------------------------------------------------------------------------")
	h.log("ITERATION %d START", event.Iteration)
	h.log("--------------------------------------------------------------------------------")
}

// OnAfterIteration logs iteration end with the gateway decision.
func (h *LoggerHook) OnAfterIteration(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterIterationEvent,
) {
	h.logEvent(fmt.Sprintf("AfterIteration %d", event.Iteration))
	h.log("Duration: %s", event.Duration)

	if event.Decision == nil {
		h.log("Decision: (none, iteration failed)")
		return
	}
	if event.Decision.IsFinal() {
		h.log("Decision: final answer")
		return
	}
	h.log("Decision: %d tool call(s)", len(event.Decision.ToolCalls))
	for _, call := range event.Decision.ToolCalls {
		h.logYAML(map[string]any{
			"id":   call.ID,
			"name": call.Name,
			"args": call.Args,
		})
	}
}

// OnBeforeModelCall logs the history snapshot sent to the completion service.
func (h *LoggerHook) OnBeforeModelCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.BeforeModelCallEvent,
) {
	h.logEvent(fmt.Sprintf("BeforeModelCall: %s", event.Model))
	h.log("Request:")
	for i, msg := range event.History {
		h.log("  [%d] Role: %s", i, msg.Role)
		if msg.Content != "" {
			h.log("      Content:")
			for _, line := range strings.Split(msg.Content, "\n") {
				h.log("        %s", line)
			}
		}
		for _, call := range msg.ToolCalls {
			h.log("      ToolCall: %s (%s)", call.Name, call.ID)
		}
	}
}

// OnAfterModelCall logs the classified decision and token usage.
func (h *LoggerHook) OnAfterModelCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterModelCallEvent,
) {
	h.logEvent(fmt.Sprintf("AfterModelCall: %s (duration: %s)", event.Model, event.Duration))

	if event.Err != nil {
		h.log("Error: %v", event.Err)
		return
	}
	if event.Decision != nil && event.Decision.IsFinal() {
		h.log("FinalText:")
		for _, line := range strings.Split(event.Decision.FinalText, "\n") {
			h.log("  %s", line)
		}
	}
	h.log("Tokens: input=%d, output=%d", event.InputTokens, event.OutputTokens)
}

// OnBeforeToolCall logs the tool call before execution.
func (h *LoggerHook) OnBeforeToolCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event *gyre.BeforeToolCallEvent,
) {
	h.logEvent(fmt.Sprintf("BeforeToolCall: %s", event.ToolName))
	h.log("Args:")
	h.logYAML(event.Args)
}

// OnAfterToolCall logs the observation after execution.
func (h *LoggerHook) OnAfterToolCall(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.AfterToolCallEvent,
) {
	h.logEvent(fmt.Sprintf("AfterToolCall: %s (duration: %s)", event.ToolName, event.Duration))

	if event.Err != nil && !event.Recovered {
		h.log("Error: %v", event.Err)
		return
	}
	if event.Recovered {
		h.log("Recovered from: %v", event.Err)
	}
	h.log("Output:")
	h.logYAML(event.Output)
}

// OnError logs errors that occur during execution.
func (h *LoggerHook) OnError(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	event gyre.ErrorEvent,
) {
	h.logEvent("Error")
	h.logYAML(map[string]any{
		"iteration": event.Iteration,
		"error":     event.Err.Error(),
	})
}

// Compile-time checks that LoggerHook implements all hook interfaces.
var (
	_ gyre.BeforeExecutionHook = (*LoggerHook)(nil)
	_ gyre.AfterExecutionHook  = (*LoggerHook)(nil)
	_ gyre.BeforeIterationHook = (*LoggerHook)(nil)
	_ gyre.AfterIterationHook  = (*LoggerHook)(nil)
	_ gyre.BeforeModelCallHook = (*LoggerHook)(nil)
	_ gyre.AfterModelCallHook  = (*LoggerHook)(nil)
	_ gyre.BeforeToolCallHook  = (*LoggerHook)(nil)
	_ gyre.AfterToolCallHook   = (*LoggerHook)(nil)
	_ gyre.ErrorHook           = (*LoggerHook)(nil)
)
