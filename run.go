package gyre

// Status is a run's lifecycle state. Transitions are one-way:
// StatusRunning -> StatusFinished or StatusRunning -> StatusAborted.
type Status string

const (
	// StatusRunning means the loop is still iterating.
	StatusRunning Status = "running"

	// StatusFinished means the run produced a final answer.
	StatusFinished Status = "finished"

	// StatusAborted means the run terminated without a final answer:
	// budget exhausted, transient retries exhausted, or a fatal error.
	StatusAborted Status = "aborted"
)

// AbortedFallbackText is the final text of an aborted run when no partial
// answer exists in history. Aborted runs never return empty output.
const AbortedFallbackText = "The request could not be completed within the configured budget."

// Result is what a caller receives from a run. It is always well-formed:
// budget exhaustion produces StatusAborted with a fallback answer rather
// than an error.
type Result struct {
	// FinalText is the run's answer. For aborted runs this is the best
	// available partial answer, or [AbortedFallbackText].
	FinalText string

	// Trace is the full ordered message history of the run.
	Trace []Message

	// Status is the terminal status, StatusFinished or StatusAborted.
	Status Status

	// Iterations is the number of loop iterations performed.
	Iterations int
}
