package gyre

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionContext_History(t *testing.T) {
	execCtx := NewExecutionContext(context.Background(), "test")

	execCtx.AppendMessage(SystemMessage("sys"))
	execCtx.AppendMessage(UserMessage("hello"))

	history := execCtx.History()
	require.Len(t, history, 2)
	assert.Equal(t, RoleSystem, history[0].Role)
	assert.Equal(t, RoleUser, history[1].Role)
	assert.Equal(t, 2, execCtx.HistoryLen())

	// The returned slice is a copy; mutating it must not affect the context.
	history[0].Content = "mutated"
	assert.Equal(t, "sys", execCtx.History()[0].Content)
}

func TestExecutionContext_StatusTransitions(t *testing.T) {
	type input struct {
		transition func(ec *ExecutionContext) bool
		again      func(ec *ExecutionContext) bool
	}

	type expected struct {
		first     bool
		second    bool
		status    Status
		finalText string
		hasErr    bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "finish then finish again",
			input: input{
				transition: func(ec *ExecutionContext) bool { return ec.Finish("answer") },
				again:      func(ec *ExecutionContext) bool { return ec.Finish("other") },
			},
			expected: expected{
				first:     true,
				second:    false,
				status:    StatusFinished,
				finalText: "answer",
			},
		},
		{
			name: "finish then abort is rejected",
			input: input{
				transition: func(ec *ExecutionContext) bool { return ec.Finish("answer") },
				again: func(ec *ExecutionContext) bool {
					return ec.Abort("fallback", errors.New("boom"))
				},
			},
			expected: expected{
				first:     true,
				second:    false,
				status:    StatusFinished,
				finalText: "answer",
			},
		},
		{
			name: "abort then finish is rejected",
			input: input{
				transition: func(ec *ExecutionContext) bool {
					return ec.Abort("fallback", errors.New("boom"))
				},
				again: func(ec *ExecutionContext) bool { return ec.Finish("late answer") },
			},
			expected: expected{
				first:     true,
				second:    false,
				status:    StatusAborted,
				finalText: "fallback",
				hasErr:    true,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			execCtx := NewExecutionContext(context.Background(), "test")
			assert.Equal(t, StatusRunning, execCtx.Status())

			assert.Equal(t, tc.expected.first, tc.input.transition(execCtx))
			assert.Equal(t, tc.expected.second, tc.input.again(execCtx))

			assert.Equal(t, tc.expected.status, execCtx.Status())
			assert.Equal(t, tc.expected.finalText, execCtx.FinalText())
			if tc.expected.hasErr {
				assert.Error(t, execCtx.Error())
			} else {
				assert.NoError(t, execCtx.Error())
			}
		})
	}
}

func TestExecutionContext_StatsAggregation(t *testing.T) {
	execCtx := NewExecutionContext(context.Background(), "test")

	execCtx.Trace(ModelCallTrace{Model: "gpt-4o", InputTokens: 100, OutputTokens: 20})
	execCtx.Trace(ModelCallTrace{Model: "gpt-4o", InputTokens: 150, OutputTokens: 30})
	execCtx.Trace(ToolCallTrace{ToolName: "search", Output: "result"})
	execCtx.Trace(ToolCallTrace{ToolName: "search", Err: errors.New("boom"), Recovered: true})
	execCtx.Trace(ParseErrorTrace{RawText: "{", Detail: "invalid JSON"})

	stats := execCtx.Stats()
	assert.Equal(t, 2, stats.ModelCallCount)
	assert.Equal(t, 250, stats.TotalInputTokens)
	assert.Equal(t, 50, stats.TotalOutputTokens)
	assert.Equal(t, 250, stats.InputTokensByModel["gpt-4o"])
	assert.Equal(t, 2, stats.ToolCallCount)
	assert.Equal(t, 2, stats.ToolCallsByName["search"])
	assert.Equal(t, 1, stats.ToolErrorCount)
	assert.Equal(t, 1, stats.ParseErrorCount)

	// Stats is a copy.
	stats.ToolCallsByName["search"] = 99
	assert.Equal(t, 2, execCtx.Stats().ToolCallsByName["search"])
}

func TestExecutionContext_TraceBaseFill(t *testing.T) {
	execCtx := NewExecutionContext(context.Background(), "test")
	execCtx.StartIteration()
	execCtx.StartIteration()

	execCtx.Trace(ToolCallTrace{ToolName: "search"})

	events := execCtx.Events()
	require.NotEmpty(t, events)
	last, ok := events[len(events)-1].(ToolCallTrace)
	require.True(t, ok)
	assert.Equal(t, 2, last.Iteration)
	assert.False(t, last.Timestamp.IsZero())
}

func TestExecutionContext_Result(t *testing.T) {
	execCtx := NewExecutionContext(context.Background(), "test")
	execCtx.AppendMessage(UserMessage("hi"))
	execCtx.StartIteration()
	execCtx.AppendMessage(AssistantMessage("hello"))
	execCtx.Finish("hello")

	result := execCtx.Result()
	assert.Equal(t, "hello", result.FinalText)
	assert.Equal(t, StatusFinished, result.Status)
	assert.Equal(t, 1, result.Iterations)
	assert.Len(t, result.Trace, 2)
}

func TestExecutionContext_Elapsed(t *testing.T) {
	clock := &stepClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	execCtx := NewExecutionContext(context.Background(), "test").WithClock(clock)

	clock.now = clock.now.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, execCtx.Elapsed())

	execCtx.Finish("done")
	clock.now = clock.now.Add(time.Minute)
	// Elapsed is frozen at termination time.
	assert.Equal(t, 3*time.Second, execCtx.Elapsed())
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }
