// Command cli is an interactive menu for running the integration scenarios
// against a live model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/gyre-ai/gyre/integrationtest/airline"
	"github.com/gyre-ai/gyre/integrationtest/testutil"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}

func run() error {
	logDir := ".logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.Create(filepath.Join(logDir, "cli_integration.log"))
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	if os.Getenv("GYRE_TEST_XAI_KEY") == "" {
		fmt.Fprintf(os.Stderr,
			"%sWARNING: GYRE_TEST_XAI_KEY environment variable is not set! "+
				"Scenarios will fail.%s\n\n",
			colorYellow, colorReset)
	}

	rl, err := readline.New(colorCyan + "Enter selection (or 'q' to quit): " + colorReset)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	testCases := airline.TestCases()

	fmt.Printf("%s%sAvailable Scenarios:%s\n", colorBold, colorYellow, colorReset)
	fmt.Printf("%s%s%s\n", colorYellow, strings.Repeat("=", 20), colorReset)
	for i, tc := range testCases {
		fmt.Printf("  %s%d.%s %s%s%s - %s\n",
			colorCyan, i+1, colorReset,
			colorWhite, tc.Name, colorReset,
			tc.Description)
	}
	fmt.Println()

	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("\n%sGoodbye!%s\n", colorGreen, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "q" || input == "Q" {
			fmt.Printf("%sGoodbye!%s\n", colorGreen, colorReset)
			return nil
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(testCases) {
			fmt.Printf("%sInvalid selection. Please enter 1-%d.%s\n\n",
				colorRed, len(testCases), colorReset)
			continue
		}

		ctx, cancel := context.WithCancel(context.Background())
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			fmt.Printf("\n%sReceived interrupt, cancelling...%s\n",
				colorYellow, colorReset)
			cancel()
		}()

		tc := testCases[num-1]
		config := testutil.InteractiveConfig()
		config.LogWriter = logFile

		fmt.Printf("\n%sRunning scenario: %s%s\n", colorGreen, tc.Name, colorReset)
		if err := tc.Run(ctx, os.Stdout, config); err != nil {
			fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		}

		signal.Stop(sigCh)
		cancel()

		fmt.Printf("\n%s%s%s\n\n", colorDim, strings.Repeat("-", 60), colorReset)
	}
}
