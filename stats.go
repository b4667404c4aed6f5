package gyre

// ExecutionStats contains metrics auto-aggregated from trace events. A copy
// is returned by ExecutionContext.Stats; mutating it does not affect the
// context.
type ExecutionStats struct {
	// TotalInputTokens and TotalOutputTokens sum normalized token counts
	// across all model calls.
	TotalInputTokens  int
	TotalOutputTokens int

	// InputTokensByModel and OutputTokensByModel break token counts down
	// per model identifier.
	InputTokensByModel  map[string]int
	OutputTokensByModel map[string]int

	// ModelCallCount counts completion-service calls, including transient
	// retries.
	ModelCallCount int

	// ToolCallCount counts tool invocation attempts; ToolCallsByName
	// breaks them down per tool.
	ToolCallCount   int
	ToolCallsByName map[string]int

	// ToolErrorCount counts tool invocations that failed, whether or not
	// the failure was recovered by the tool's error policy.
	ToolErrorCount int

	// ParseErrorCount counts structured-output validation failures.
	ParseErrorCount int
}

func newExecutionStats() ExecutionStats {
	return ExecutionStats{
		InputTokensByModel:  make(map[string]int),
		OutputTokensByModel: make(map[string]int),
		ToolCallsByName:     make(map[string]int),
	}
}

func (s *ExecutionStats) clone() ExecutionStats {
	out := *s
	out.InputTokensByModel = make(map[string]int, len(s.InputTokensByModel))
	out.OutputTokensByModel = make(map[string]int, len(s.OutputTokensByModel))
	out.ToolCallsByName = make(map[string]int, len(s.ToolCallsByName))
	for k, v := range s.InputTokensByModel {
		out.InputTokensByModel[k] = v
	}
	for k, v := range s.OutputTokensByModel {
		out.OutputTokensByModel[k] = v
	}
	for k, v := range s.ToolCallsByName {
		out.ToolCallsByName[k] = v
	}
	return out
}

func (s *ExecutionStats) record(event TraceEvent) {
	switch e := event.(type) {
	case ModelCallTrace:
		s.ModelCallCount++
		s.TotalInputTokens += e.InputTokens
		s.TotalOutputTokens += e.OutputTokens
		if e.Model != "" {
			s.InputTokensByModel[e.Model] += e.InputTokens
			s.OutputTokensByModel[e.Model] += e.OutputTokens
		}
	case ToolCallTrace:
		s.ToolCallCount++
		if e.ToolName != "" {
			s.ToolCallsByName[e.ToolName]++
		}
		if e.Err != nil {
			s.ToolErrorCount++
		}
	case ParseErrorTrace:
		s.ParseErrorCount++
	}
}
