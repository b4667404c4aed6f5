package gateway

import "github.com/tmc/langchaingo/llms"

// tokenUsage extracts normalized input/output token counts from the first
// choice's GenerationInfo. Providers disagree on key names, so several are
// probed in order.
func tokenUsage(response *llms.ContentResponse) (input, output int) {
	if response == nil || len(response.Choices) == 0 {
		return 0, 0
	}
	info := response.Choices[0].GenerationInfo
	if info == nil {
		return 0, 0
	}
	return extractInputTokens(info), extractOutputTokens(info)
}

func extractInputTokens(info map[string]any) int {
	// OpenAI / Ollama / Google (compat)
	if v := intFromMap(info, "PromptTokens"); v > 0 {
		return v
	}
	// Anthropic
	if v := intFromMap(info, "InputTokens"); v > 0 {
		return v
	}
	// Google / Bedrock
	if v := intFromMap(info, "input_tokens"); v > 0 {
		return v
	}
	return 0
}

func extractOutputTokens(info map[string]any) int {
	// OpenAI / Ollama / Google (compat)
	if v := intFromMap(info, "CompletionTokens"); v > 0 {
		return v
	}
	// Anthropic
	if v := intFromMap(info, "OutputTokens"); v > 0 {
		return v
	}
	// Google / Bedrock
	if v := intFromMap(info, "output_tokens"); v > 0 {
		return v
	}
	return 0
}

// intFromMap reads a numeric map value regardless of the concrete number
// type the provider used.
func intFromMap(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}
