package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/gyre-ai/gyre"
	"github.com/gyre-ai/gyre/hooks"
	"github.com/gyre-ai/gyre/internal/tt"
	"github.com/gyre-ai/gyre/schema"
)

// fakeModel is an llms.Model returning a canned response or error. It
// captures the converted messages and call options for verification.
type fakeModel struct {
	response *llms.ContentResponse
	err      error

	capturedMessages [][]llms.MessageContent
	capturedOptions  []llms.CallOption
}

func (m *fakeModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	m.capturedMessages = append(m.capturedMessages, messages)
	m.capturedOptions = options
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("deprecated entry point")
}

func finalResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}
}

func userHistory(text string) []gyre.Message {
	return []gyre.Message{gyre.UserMessage(text)}
}

func TestLCG_NextStep_Classification(t *testing.T) {
	type input struct {
		response *llms.ContentResponse
		err      error
	}

	type expected struct {
		finalText string
		toolNames []string
		wantErr   bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "text content is a final answer",
			input: input{
				response: finalResponse("It is sunny in Paris"),
			},
			expected: expected{
				finalText: "It is sunny in Paris",
			},
		},
		{
			name: "tool calls are tool requests",
			input: input{
				response: &llms.ContentResponse{
					Choices: []*llms.ContentChoice{{
						ToolCalls: []llms.ToolCall{
							{
								ID: "call-1",
								FunctionCall: &llms.FunctionCall{
									Name:      "get_weather",
									Arguments: `{"city":"Paris"}`,
								},
							},
							{
								ID: "call-2",
								FunctionCall: &llms.FunctionCall{
									Name:      "get_time",
									Arguments: `{}`,
								},
							},
						},
					}},
				},
			},
			expected: expected{
				toolNames: []string{"get_weather", "get_time"},
			},
		},
		{
			name: "tool calls take precedence over accompanying text",
			input: input{
				response: &llms.ContentResponse{
					Choices: []*llms.ContentChoice{{
						Content: "Let me check that for you.",
						ToolCalls: []llms.ToolCall{{
							ID: "call-1",
							FunctionCall: &llms.FunctionCall{
								Name:      "get_weather",
								Arguments: `{"city":"Paris"}`,
							},
						}},
					}},
				},
			},
			expected: expected{
				toolNames: []string{"get_weather"},
			},
		},
		{
			name: "legacy function call shape is still classified",
			input: input{
				response: &llms.ContentResponse{
					Choices: []*llms.ContentChoice{{
						FuncCall: &llms.FunctionCall{
							Name:      "get_weather",
							Arguments: `{"city":"Paris"}`,
						},
					}},
				},
			},
			expected: expected{
				toolNames: []string{"get_weather"},
			},
		},
		{
			name: "no choices is unclassifiable",
			input: input{
				response: &llms.ContentResponse{},
			},
			expected: expected{wantErr: true},
		},
		{
			name: "neither text nor tool calls is unclassifiable",
			input: input{
				response: &llms.ContentResponse{
					Choices: []*llms.ContentChoice{{}},
				},
			},
			expected: expected{wantErr: true},
		},
		{
			name: "tool call arguments must be valid JSON",
			input: input{
				response: &llms.ContentResponse{
					Choices: []*llms.ContentChoice{{
						ToolCalls: []llms.ToolCall{{
							ID: "call-1",
							FunctionCall: &llms.FunctionCall{
								Name:      "get_weather",
								Arguments: `{"city":`,
							},
						}},
					}},
				},
			},
			expected: expected{wantErr: true},
		},
		{
			name: "transport failure",
			input: input{
				err: errors.New("connection reset"),
			},
			expected: expected{wantErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := &fakeModel{response: tc.input.response, err: tc.input.err}
			gw := NewLCG(model)

			decision, err := gw.NextStep(context.Background(), nil, userHistory("hi"), nil)

			if tc.expected.wantErr {
				require.Error(t, err)
				// All gateway failures are retryable infrastructure errors.
				assert.ErrorIs(t, err, gyre.ErrCompletionUnavailable)
				return
			}

			require.NoError(t, err)
			if tc.expected.finalText != "" {
				assert.True(t, decision.IsFinal())
				assert.Equal(t, tc.expected.finalText, decision.FinalText)
				return
			}

			assert.False(t, decision.IsFinal())
			require.Len(t, decision.ToolCalls, len(tc.expected.toolNames))
			for i, name := range tc.expected.toolNames {
				assert.Equal(t, name, decision.ToolCalls[i].Name)
			}
		})
	}
}

func TestLCG_NextStep_DecodesToolArguments(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID: "call-1",
				FunctionCall: &llms.FunctionCall{
					Name:      "resize",
					Arguments: `{"width":800,"label":"thumb"}`,
				},
			}},
		}},
	}}

	decision, err := NewLCG(model).NextStep(context.Background(), nil, userHistory("hi"), nil)

	require.NoError(t, err)
	require.Len(t, decision.ToolCalls, 1)
	call := decision.ToolCalls[0]
	assert.Equal(t, "call-1", call.ID)
	assert.Equal(t, float64(800), call.Args["width"])
	assert.Equal(t, "thumb", call.Args["label"])
}

func TestLCG_NextStep_AssignsMissingCallIDs(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{
				{FunctionCall: &llms.FunctionCall{Name: "a", Arguments: ""}},
				{FunctionCall: &llms.FunctionCall{Name: "b", Arguments: ""}},
			},
		}},
	}}

	decision, err := NewLCG(model).NextStep(context.Background(), nil, userHistory("hi"), nil)

	require.NoError(t, err)
	require.Len(t, decision.ToolCalls, 2)
	assert.NotEmpty(t, decision.ToolCalls[0].ID)
	assert.NotEmpty(t, decision.ToolCalls[1].ID)
	assert.NotEqual(t, decision.ToolCalls[0].ID, decision.ToolCalls[1].ID)
}

func TestLCG_NextStep_ConvertsHistory(t *testing.T) {
	history := []gyre.Message{
		gyre.SystemMessage("You are helpful."),
		gyre.UserMessage("What's the weather in Paris?"),
		gyre.AssistantToolCalls(tt.Call("call-1", "get_weather", map[string]any{"city": "Paris"})),
		gyre.ToolResultMessage("call-1", "Sunny, 20C"),
		gyre.AssistantMessage("It is sunny in Paris."),
	}

	model := &fakeModel{response: finalResponse("ok")}
	_, err := NewLCG(model).NextStep(context.Background(), nil, history, nil)
	require.NoError(t, err)

	require.Len(t, model.capturedMessages, 1)
	messages := model.capturedMessages[0]
	require.Len(t, messages, 5)

	assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, messages[1].Role)

	require.Equal(t, llms.ChatMessageTypeAI, messages[2].Role)
	require.Len(t, messages[2].Parts, 1)
	toolCall, ok := messages[2].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "call-1", toolCall.ID)
	assert.Equal(t, "get_weather", toolCall.FunctionCall.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, toolCall.FunctionCall.Arguments)

	require.Equal(t, llms.ChatMessageTypeTool, messages[3].Role)
	toolResp, ok := messages[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call-1", toolResp.ToolCallID)
	assert.Equal(t, "Sunny, 20C", toolResp.Content)

	require.Equal(t, llms.ChatMessageTypeAI, messages[4].Role)
	text, ok := messages[4].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Equal(t, "It is sunny in Paris.", text.Text)
}

func TestLCG_NextStep_AdvertisesTools(t *testing.T) {
	tool := gyre.NewTool("get_weather", "Current weather for a city.",
		schema.Object(map[string]*schema.Property{
			"city": schema.String("City name"),
		}, "city"),
		func(ctx context.Context, args map[string]any) (string, error) { return "", nil })

	model := &fakeModel{response: finalResponse("ok")}
	_, err := NewLCG(model).NextStep(context.Background(), nil,
		userHistory("hi"), []*gyre.Tool{tool})
	require.NoError(t, err)

	var opts llms.CallOptions
	for _, opt := range model.capturedOptions {
		opt(&opts)
	}
	require.Len(t, opts.Tools, 1)
	assert.Equal(t, "function", opts.Tools[0].Type)
	assert.Equal(t, "get_weather", opts.Tools[0].Function.Name)
	assert.Equal(t, "Current weather for a city.", opts.Tools[0].Function.Description)
}

func TestLCG_NextStep_NoToolsNoToolOption(t *testing.T) {
	model := &fakeModel{response: finalResponse("ok")}
	_, err := NewLCG(model).NextStep(context.Background(), nil, userHistory("hi"), nil)
	require.NoError(t, err)

	var opts llms.CallOptions
	for _, opt := range model.capturedOptions {
		opt(&opts)
	}
	assert.Empty(t, opts.Tools)
}

func TestLCG_NextStep_FiresHooksAndTraces(t *testing.T) {
	recorder := tt.NewRecorderHook()
	execCtx := gyre.NewExecutionContext(context.Background(), "test")
	execCtx.SetHookFirer(hooks.NewRegistry().Register(recorder))

	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content: "sunny",
			GenerationInfo: map[string]any{
				"PromptTokens":     120,
				"CompletionTokens": 18,
			},
		}},
	}}

	gw := NewLCG(model).WithModelName("gpt-4o")
	_, err := gw.NextStep(context.Background(), execCtx, userHistory("weather?"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"BeforeModelCall", "AfterModelCall"}, recorder.Recorded())

	stats := execCtx.Stats()
	assert.Equal(t, 1, stats.ModelCallCount)
	assert.Equal(t, 120, stats.TotalInputTokens)
	assert.Equal(t, 18, stats.TotalOutputTokens)
	assert.Equal(t, 120, stats.InputTokensByModel["gpt-4o"])

	events := execCtx.Events()
	require.Len(t, events, 1)
	trace, ok := events[0].(gyre.ModelCallTrace)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", trace.Model)
	assert.Equal(t, 120, trace.InputTokens)
}

func TestLCG_NextStep_TracesFailures(t *testing.T) {
	execCtx := gyre.NewExecutionContext(context.Background(), "test")
	model := &fakeModel{err: errors.New("connection reset")}

	_, err := NewLCG(model).NextStep(context.Background(), execCtx, userHistory("hi"), nil)
	require.Error(t, err)

	events := execCtx.Events()
	require.Len(t, events, 1)
	trace, ok := events[0].(gyre.ModelCallTrace)
	require.True(t, ok)
	assert.Error(t, trace.Err)
}

func TestTokenUsage(t *testing.T) {
	type input struct {
		info map[string]any
	}

	type expected struct {
		input  int
		output int
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "openai style",
			input: input{info: map[string]any{
				"PromptTokens":     100,
				"CompletionTokens": 25,
			}},
			expected: expected{input: 100, output: 25},
		},
		{
			name: "anthropic style",
			input: input{info: map[string]any{
				"InputTokens":  80,
				"OutputTokens": 12,
			}},
			expected: expected{input: 80, output: 12},
		},
		{
			name: "snake case with float values",
			input: input{info: map[string]any{
				"input_tokens":  float64(64),
				"output_tokens": float64(9),
			}},
			expected: expected{input: 64, output: 9},
		},
		{
			name:     "missing info",
			input:    input{info: nil},
			expected: expected{},
		},
		{
			name: "non-numeric values are ignored",
			input: input{info: map[string]any{
				"PromptTokens":     "lots",
				"CompletionTokens": true,
			}},
			expected: expected{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			response := &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{GenerationInfo: tc.input.info}},
			}

			in, out := tokenUsage(response)

			assert.Equal(t, tc.expected.input, in)
			assert.Equal(t, tc.expected.output, out)
		})
	}
}
