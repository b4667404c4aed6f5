package executor

import (
	"context"
	"errors"

	"github.com/gyre-ai/gyre"
)

// Classification buckets a loop failure by how the executor responds to it.
type Classification int

const (
	// ClassFatal aborts the run.
	ClassFatal Classification = iota

	// ClassTransient retries the same iteration without consuming
	// iteration budget.
	ClassTransient
)

// Classify applies the recovery policy to a gateway or validation failure:
//
//   - [gyre.ErrCompletionUnavailable] is transient; infrastructure hiccups
//     are retried in place.
//   - Caller cancellation and deadline expiry are fatal: retrying cannot
//     help. Expiry of the run's own time budget never reaches this
//     classifier; the executor intercepts it and ends the run as a normal
//     aborted result.
//   - Everything else, including an exhausted *gyre.StructuredParseError,
//     is fatal.
//
// Tool failures never reach this classifier; they are resolved by the tool's
// own error policy inside the registry.
func Classify(err error) Classification {
	switch {
	case err == nil:
		return ClassFatal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassFatal
	case errors.Is(err, gyre.ErrCompletionUnavailable):
		return ClassTransient
	}
	return ClassFatal
}

// bestPartialAnswer returns the most recent assistant message carrying text,
// or "" when none exists. Aborted runs surface this instead of discarding
// what the model already produced.
func bestPartialAnswer(history []gyre.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role == gyre.RoleAssistant && msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}
