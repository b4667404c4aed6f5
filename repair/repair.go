// Package repair provides best-effort recovery of malformed structured
// output.
//
// A [Parser] validates raw completion text against a JSON Schema and
// unmarshals it into a typed value. On failure it sends the malformed text
// and the validation error back to the completion service via a [Requester]
// and retries with the corrected text, bounded by a retry count. This is
// best-effort recovery, not guaranteed correction: callers must handle the
// exhausted-retries failure, surfaced as *gyre.StructuredParseError.
//
//	parser := repair.NewParser[Order](requester).WithMaxRetries(1)
//	order, err := parser.Parse(ctx, execCtx, rawText)
//	var parseErr *gyre.StructuredParseError
//	if errors.As(err, &parseErr) {
//	    // repair exhausted; parseErr.RawText holds the last rendition
//	}
package repair

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gyre-ai/gyre"
	"github.com/gyre-ai/gyre/schema"
)

// Requester sends a correction request to the completion service: the
// malformed text plus the validation error, returning a new rendition.
type Requester interface {
	RequestRepair(
		ctx context.Context,
		execCtx *gyre.ExecutionContext,
		rawText string,
		detail string,
	) (string, error)
}

// RequesterFunc adapts a function to the [Requester] interface.
type RequesterFunc func(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	rawText string,
	detail string,
) (string, error)

// RequestRepair implements [Requester].
func (f RequesterFunc) RequestRepair(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	rawText string,
	detail string,
) (string, error) {
	return f(ctx, execCtx, rawText, detail)
}

// Parser validates raw text against a schema and unmarshals it into T,
// repairing malformed renditions through a [Requester].
//
// The schema is generated from T via reflection (schema.For) by default;
// override with [Parser.WithSchema]. Schema validation is structural only:
// output with correct types but semantically wrong values counts as a
// successful parse. Extension fields are accepted unless the schema closes
// additionalProperties.
type Parser[T any] struct {
	compiled   *schema.Schema
	maxRetries int
	requester  Requester
}

// NewParser creates a Parser for T with the default retry bound of 1.
// A nil requester disables repair: the first failure is final.
func NewParser[T any](requester Requester) *Parser[T] {
	return &Parser[T]{
		compiled:   schema.MustCompile(schema.For[T]()),
		maxRetries: 1,
		requester:  requester,
	}
}

// WithMaxRetries sets how many repair attempts are made after the initial
// parse fails. Zero disables repair. Returns the parser for chaining.
func (p *Parser[T]) WithMaxRetries(n int) *Parser[T] {
	p.maxRetries = n
	return p
}

// WithSchema replaces the reflection-generated schema with an explicit one.
// Panics if the schema does not compile; use at setup time.
func (p *Parser[T]) WithSchema(raw map[string]any) *Parser[T] {
	p.compiled = schema.MustCompile(raw)
	return p
}

// Parse validates rawText and unmarshals it into T.
//
// On success the value is returned immediately with no completion-service
// calls. On failure, while retries remain, the requester is asked for a
// corrected rendition and parsing is retried. When retries are exhausted the
// error is a *gyre.StructuredParseError carrying the last raw text and the
// last validation detail. The empty string is always a parse failure.
//
// When execCtx is non-nil, parse failures and repair attempts are traced.
func (p *Parser[T]) Parse(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	rawText string,
) (T, error) {
	var zero T

	raw := rawText
	attempts := 0
	for {
		value, detail, err := p.tryParse(raw)
		if err == nil {
			return value, nil
		}

		if execCtx != nil {
			execCtx.Trace(gyre.ParseErrorTrace{RawText: raw, Detail: detail})
		}

		if attempts >= p.maxRetries || p.requester == nil {
			return zero, &gyre.StructuredParseError{
				RawText:  raw,
				Detail:   detail,
				Attempts: attempts,
				Err:      err,
			}
		}

		attempts++
		if execCtx != nil {
			execCtx.Trace(gyre.RepairAttemptTrace{Attempt: attempts, Detail: detail})
		}

		repaired, reqErr := p.requester.RequestRepair(ctx, execCtx, raw, detail)
		if reqErr != nil {
			return zero, fmt.Errorf("repair request failed: %w", reqErr)
		}
		raw = repaired
	}
}

// tryParse performs one validation pass: decode as JSON, validate against
// the schema, then unmarshal into T.
func (p *Parser[T]) tryParse(raw string) (T, string, error) {
	var zero T

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		err := fmt.Errorf("empty output")
		return zero, err.Error(), err
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return zero, fmt.Sprintf("invalid JSON: %v", err), err
	}

	if err := p.compiled.Validate(decoded); err != nil {
		return zero, err.Error(), err
	}

	var value T
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return zero, fmt.Sprintf("cannot unmarshal into target type: %v", err), err
	}

	return value, "", nil
}

// ValidateFinal parses text and returns its canonical JSON re-serialization.
// This satisfies the executor's FinalValidator contract, letting a run's
// final answer be held to a strict schema with repair.
func (p *Parser[T]) ValidateFinal(
	ctx context.Context,
	execCtx *gyre.ExecutionContext,
	text string,
) (string, error) {
	value, err := p.Parse(ctx, execCtx, text)
	if err != nil {
		return "", err
	}
	formatted, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("re-serialize validated value: %w", err)
	}
	return string(formatted), nil
}
