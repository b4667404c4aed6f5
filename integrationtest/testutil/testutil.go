// Package testutil provides shared infrastructure for integration test
// scenarios: gateway construction, scenario running, and transcript
// formatting/diffing.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/gyre-ai/gyre"
	"github.com/gyre-ai/gyre/executor"
	"github.com/gyre-ai/gyre/gateway"
	"github.com/gyre-ai/gyre/loggers"
	"github.com/gyre-ai/gyre/registry"
)

// TestConfig configures how integration test output is displayed.
type TestConfig struct {
	// ShowTranscript prints the full message transcript at the end.
	ShowTranscript bool
	// ShowStats prints aggregated execution stats at the end.
	ShowStats bool
	// Verbose registers a LoggerHook writing every event to the scenario
	// writer.
	Verbose bool
	// LogWriter is an optional writer for full debug logging (e.g. a log
	// file), independent of Verbose.
	LogWriter io.Writer
}

// DefaultTestConfig returns a config suitable for go test.
func DefaultTestConfig() TestConfig {
	return TestConfig{
		ShowTranscript: true,
		ShowStats:      true,
		Verbose:        true,
	}
}

// InteractiveConfig returns a config for the interactive CLI: quieter
// foreground, full detail in the log file.
func InteractiveConfig() TestConfig {
	return TestConfig{
		ShowTranscript: false,
		ShowStats:      true,
		Verbose:        false,
	}
}

// TestCase is a runnable integration scenario, as listed by the CLI menu.
type TestCase struct {
	Name        string
	Description string
	Run         func(ctx context.Context, w io.Writer, config TestConfig) error
}

// CreateGateway builds an LCG gateway over the xAI API. Requires
// GYRE_TEST_XAI_KEY.
func CreateGateway() (*gateway.LCG, error) {
	apiKey := os.Getenv("GYRE_TEST_XAI_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GYRE_TEST_XAI_KEY environment variable not set")
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL("https://api.x.ai/v1"),
		openai.WithModel("grok-4-1-fast"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create xAI LLM: %w", err)
	}

	return gateway.NewLCG(llm).WithModelName("grok-4-1-fast"), nil
}

// Scenario defines one end-to-end run: a populated tool registry, the
// prompts, and the iteration budget.
type Scenario struct {
	Name          string
	HeaderTitle   string
	SystemPrompt  string
	UserRequest   string
	MaxIterations int
	Tools         *registry.Registry
}

// RunScenario executes a scenario against the given gateway and prints the
// outcome. The result is returned for further assertions; the error is
// non-nil only for fatal run failures.
func RunScenario(
	ctx context.Context,
	w io.Writer,
	config TestConfig,
	gw gyre.Gateway,
	scenario Scenario,
) (*gyre.Result, error) {
	exec := executor.New(gw, scenario.Tools, executor.Config{
		MaxIterations:    scenario.MaxIterations,
		TransientRetries: 2,
	})
	if config.Verbose {
		exec.RegisterHook(loggers.NewLoggerHookWithWriter(w))
	}
	if config.LogWriter != nil {
		exec.RegisterHook(loggers.NewLoggerHookWithWriter(config.LogWriter))
	}

	PrintHeader(w, scenario.HeaderTitle)
	fmt.Fprintln(w)
	PrintSection(w, "Customer Request")
	fmt.Fprintln(w, scenario.UserRequest)
	fmt.Fprintln(w)

	result, err := exec.Run(ctx, scenario.SystemPrompt, scenario.UserRequest)

	fmt.Fprintln(w)
	PrintHeader(w, "EXECUTION COMPLETE")
	fmt.Fprintln(w)
	PrintSection(w, "Final Response")
	fmt.Fprintln(w, result.FinalText)
	if err != nil {
		fmt.Fprintf(w, "\nRun error: %v\n", err)
	}

	if config.ShowStats {
		fmt.Fprintln(w)
		PrintSection(w, "Stats")
		fmt.Fprintf(w, "Status: %s\n", result.Status)
		fmt.Fprintf(w, "Iterations: %d\n", result.Iterations)
		fmt.Fprintf(w, "Messages: %d\n", len(result.Trace))
	}

	if config.ShowTranscript {
		fmt.Fprintln(w)
		PrintHeader(w, "FULL TRANSCRIPT")
		fmt.Fprintln(w, FormatTranscript(result.Trace))
	}

	return result, err
}

// PrintHeader prints a full-width header line.
func PrintHeader(w io.Writer, title string) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, line)
}

// PrintSection prints a section header.
func PrintSection(w io.Writer, title string) {
	fmt.Fprintf(w, "--- %s ---\n", title)
}

// FormatTranscript renders a message history as a deterministic line-based
// transcript, one message per block, suitable for diffing against a golden
// rendition. Tool-call arguments are rendered as JSON with sorted keys.
func FormatTranscript(history []gyre.Message) string {
	var sb strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case gyre.RoleToolResult:
			fmt.Fprintf(&sb, "[tool_result %s] %s\n", msg.ToolCallID, msg.Content)
		case gyre.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				for _, call := range msg.ToolCalls {
					args, err := json.Marshal(call.Args)
					if err != nil {
						args = []byte("{}")
					}
					fmt.Fprintf(&sb, "[assistant] -> %s %s\n", call.Name, args)
				}
				continue
			}
			fmt.Fprintf(&sb, "[assistant] %s\n", msg.Content)
		default:
			fmt.Fprintf(&sb, "[%s] %s\n", msg.Role, msg.Content)
		}
	}
	return sb.String()
}

// DiffTranscripts returns a unified diff between two transcripts, or ""
// when they match.
func DiffTranscripts(expected, actual string) string {
	if expected == actual {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("failed to diff transcripts: %v", err)
	}
	return diff
}
