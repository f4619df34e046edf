// Package main is the entry point for the real-intent-cli application.
// It initializes the root command, registers the intent data and event
// digest sub-commands, then executes the command-line interface.
package main

import (
	"fmt"
	"log"
	"os"

	commands "github.com/Standard-Labs/real-intent/cmd/real-intent-cli/internal/commands"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "real-intent-cli",
		Short: "Intent data operations CLI tool",
		Long: `real-intent-cli is a command-line tool for pulling intent-based leads.
Supports checking intent event counts, pulling validated leads with hydrated
PII into CSV files and generating local-event digests per zip code.

The intent platform credentials are read from the environment:
- REAL_INTENT_CLIENT_ID
- REAL_INTENT_CLIENT_SECRET
Event generation additionally uses PERPLEXITY_API_KEY, OLOSTEP_API_KEY,
API_NINJAS_KEY and ANTHROPIC_API_KEY depending on the selected source.`,
	}

	if err := initializeCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize commands: %w", err)
	}

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// initializeCommands registers all command groups with the root command.
func initializeCommands(rootCmd *cobra.Command) error {
	if err := commands.InitIntentCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize intent commands: %w", err)
	}

	if err := commands.InitEventsCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize events commands: %w", err)
	}

	return nil
}

// init sets up any necessary initialization before main runs.
func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}
