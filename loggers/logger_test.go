package loggers

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gyre-ai/gyre"
)

func TestLoggerHook_RunLifecycle(t *testing.T) {
	var buf bytes.Buffer
	hook := NewLoggerHookWithWriter(&buf)

	execCtx := gyre.NewExecutionContext(context.Background(), "weather-run")
	execCtx.AppendMessage(gyre.UserMessage("What's the weather in Paris?"))
	ctx := context.Background()

	hook.OnBeforeExecution(ctx, execCtx, gyre.BeforeExecutionEvent{})
	hook.OnBeforeIteration(ctx, execCtx, gyre.BeforeIterationEvent{Iteration: 1})
	hook.OnAfterExecution(ctx, execCtx, gyre.AfterExecutionEvent{Status: gyre.StatusFinished})

	out := buf.String()
	assert.Contains(t, out, "RUN STARTED")
	assert.Contains(t, out, "Name: weather-run")
	assert.Contains(t, out, "What's the weather in Paris?")
	assert.Contains(t, out, "ITERATION 1 START")
	assert.Contains(t, out, "RUN COMPLETED")
	assert.Contains(t, out, "status: finished")
}

func TestLoggerHook_ToolCallEvents(t *testing.T) {
	var buf bytes.Buffer
	hook := NewLoggerHookWithWriter(&buf)
	execCtx := gyre.NewExecutionContext(context.Background(), "test")
	ctx := context.Background()

	hook.OnBeforeToolCall(ctx, execCtx, &gyre.BeforeToolCallEvent{
		ToolName: "get_weather",
		CallID:   "call-1",
		Args:     map[string]any{"city": "Paris"},
	})
	hook.OnAfterToolCall(ctx, execCtx, gyre.AfterToolCallEvent{
		ToolName: "get_weather",
		CallID:   "call-1",
		Output:   "Sunny, 20C",
		Duration: 5 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "BeforeToolCall: get_weather")
	assert.Contains(t, out, "city: Paris")
	assert.Contains(t, out, "AfterToolCall: get_weather")
	assert.Contains(t, out, "Sunny, 20C")
}

func TestLoggerHook_RecoveredToolFailure(t *testing.T) {
	var buf bytes.Buffer
	hook := NewLoggerHookWithWriter(&buf)
	execCtx := gyre.NewExecutionContext(context.Background(), "test")

	hook.OnAfterToolCall(context.Background(), execCtx, gyre.AfterToolCallEvent{
		ToolName:  "search",
		Output:    "Search failed, please try again.",
		Recovered: true,
		Err:       errors.New("index offline"),
	})

	out := buf.String()
	assert.Contains(t, out, "Recovered from: index offline")
	assert.Contains(t, out, "Search failed, please try again.")
}

func TestLoggerHook_ModelCallEvents(t *testing.T) {
	var buf bytes.Buffer
	hook := NewLoggerHookWithWriter(&buf)
	execCtx := gyre.NewExecutionContext(context.Background(), "test")
	ctx := context.Background()

	hook.OnBeforeModelCall(ctx, execCtx, gyre.BeforeModelCallEvent{
		Model:   "gpt-4o",
		History: []gyre.Message{gyre.UserMessage("hi")},
	})
	hook.OnAfterModelCall(ctx, execCtx, gyre.AfterModelCallEvent{
		Model:        "gpt-4o",
		Decision:     &gyre.StepDecision{FinalText: "hello there"},
		InputTokens:  12,
		OutputTokens: 4,
	})

	out := buf.String()
	assert.Contains(t, out, "BeforeModelCall: gpt-4o")
	assert.Contains(t, out, "Role: user")
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "Tokens: input=12, output=4")
}
