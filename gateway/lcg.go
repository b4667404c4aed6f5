// Package gateway adapts external completion services to the [gyre.Gateway]
// contract.
//
// The LCG adapter wraps any langchaingo llms.Model, so every provider
// langchaingo supports (OpenAI, Anthropic, Ollama, Bedrock, ...) can drive
// the loop:
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	gw := gateway.NewLCG(llm).WithModelName("gpt-4o")
//	exec := executor.New(gw, tools, executor.DefaultConfig())
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/gyre-ai/gyre"
)

// LCG adapts a langchaingo llms.Model to [gyre.Gateway]. It converts the
// run's history to the provider wire format, advertises tool schemas via
// native tool calling, and classifies the response as a final answer or a
// batch of tool requests.
//
// LCG is stateless with respect to runs and safe for concurrent use.
type LCG struct {
	model     llms.Model
	modelName string
	options   []llms.CallOption
}

// NewLCG wraps model as a Gateway.
func NewLCG(model llms.Model) *LCG {
	return &LCG{model: model}
}

// WithModelName sets the model identifier used in trace events and hooks.
// Returns the gateway for chaining.
func (g *LCG) WithModelName(name string) *LCG {
	g.modelName = name
	return g
}

// WithCallOptions appends llms.CallOption values (temperature, max tokens,
// provider-specific knobs) applied to every call. Returns the gateway for
// chaining.
func (g *LCG) WithCallOptions(opts ...llms.CallOption) *LCG {
	g.options = append(g.options, opts...)
	return g
}

// Unwrap returns the underlying llms.Model.
func (g *LCG) Unwrap() llms.Model {
	return g.model
}

// NextStep implements [gyre.Gateway]. Transport failures and responses that
// cannot be classified as a decision wrap [gyre.ErrCompletionUnavailable].
// When execCtx is non-nil, the call fires Before/AfterModelCall hooks and is
// traced with normalized token counts.
func (g *LCG) NextStep(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	history []gyre.Message,
	tools []*gyre.Tool,
) (*gyre.StepDecision, error) {
	messages := toMessageContent(history)

	opts := make([]llms.CallOption, 0, len(g.options)+1)
	opts = append(opts, g.options...)
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(toLLMTools(tools)))
	}

	if execCtx != nil {
		execCtx.FireBeforeModelCall(ctx, gyre.BeforeModelCallEvent{
			Model:   g.modelName,
			History: history,
		})
	}

	start := time.Now()
	response, err := g.model.GenerateContent(ctx, messages, opts...)
	duration := time.Since(start)

	var decision *gyre.StepDecision
	if err != nil {
		err = fmt.Errorf("%w: %w", gyre.ErrCompletionUnavailable, err)
	} else {
		decision, err = classify(response)
	}

	if execCtx != nil {
		inputTokens, outputTokens := tokenUsage(response)
		execCtx.FireAfterModelCall(ctx, gyre.AfterModelCallEvent{
			Model:        g.modelName,
			Decision:     decision,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			Duration:     duration,
			Err:          err,
		})
		execCtx.Trace(gyre.ModelCallTrace{
			Model:        g.modelName,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			Duration:     duration,
			Err:          err,
		})
	}

	if err != nil {
		return nil, err
	}
	return decision, nil
}

// classify deterministically maps the provider response to a StepDecision:
// tool calls present means tool requests, otherwise the text is the final
// answer. A response with neither is unclassifiable.
func classify(response *llms.ContentResponse) (*gyre.StepDecision, error) {
	if response == nil || len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", gyre.ErrCompletionUnavailable)
	}
	choice := response.Choices[0]

	if len(choice.ToolCalls) > 0 {
		calls := make([]*gyre.ToolCall, 0, len(choice.ToolCalls))
		for _, tc := range choice.ToolCalls {
			call, err := toToolCall(tc)
			if err != nil {
				return nil, err
			}
			calls = append(calls, call)
		}
		return &gyre.StepDecision{ToolCalls: calls}, nil
	}

	// Legacy single-function-call shape still used by some providers.
	if choice.FuncCall != nil {
		call, err := toToolCall(llms.ToolCall{FunctionCall: choice.FuncCall})
		if err != nil {
			return nil, err
		}
		return &gyre.StepDecision{ToolCalls: []*gyre.ToolCall{call}}, nil
	}

	if choice.Content == "" {
		return nil, fmt.Errorf("%w: response has neither text nor tool calls", gyre.ErrCompletionUnavailable)
	}
	return &gyre.StepDecision{FinalText: choice.Content}, nil
}

// toToolCall converts one provider tool call, decoding the JSON argument
// blob and assigning a call ID when the provider omits one.
func toToolCall(tc llms.ToolCall) (*gyre.ToolCall, error) {
	if tc.FunctionCall == nil {
		return nil, fmt.Errorf("%w: tool call has no function", gyre.ErrCompletionUnavailable)
	}

	args := map[string]any{}
	if raw := tc.FunctionCall.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("%w: tool call arguments are not valid JSON: %v",
				gyre.ErrCompletionUnavailable, err)
		}
	}

	id := tc.ID
	if id == "" {
		id = uuid.NewString()
	}

	return &gyre.ToolCall{
		ID:   id,
		Name: tc.FunctionCall.Name,
		Args: args,
	}, nil
}

// toMessageContent converts the run's history to the langchaingo wire shape.
func toMessageContent(history []gyre.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case gyre.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))

		case gyre.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))

		case gyre.RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				argsJSON, err := json.Marshal(call.Args)
				if err != nil {
					argsJSON = []byte("{}")
				}
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: string(argsJSON),
					},
				})
			}
			out = append(out, mc)

		case gyre.RoleToolResult:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: msg.ToolCallID,
						Content:    msg.Content,
					},
				},
			})
		}
	}
	return out
}

// toLLMTools converts registered tools to the provider tool-calling shape.
func toLLMTools(tools []*gyre.Tool) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		})
	}
	return out
}

// Compile-time check that LCG implements gyre.Gateway.
var _ gyre.Gateway = (*LCG)(nil)
