package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Standard-Labs/real-intent/internal/app"
	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/eventgen"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// EventsCommandHandler encapsulates logic for generating local-event
// digests via CLI.
type EventsCommandHandler struct {
	logger logger.Logger
}

// NewEventsCommandHandler initializes and returns an EventsCommandHandler
// instance with a configured logger.
func NewEventsCommandHandler() (*EventsCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &EventsCommandHandler{logger: loggerInstance}, nil
}

// generatorFromEnv selects a generator based on the configured API keys.
func (commandHandler *EventsCommandHandler) generatorFromEnv(source string) (events.Generator, error) {
	switch source {
	case "perplexity":
		apiKey := os.Getenv("PERPLEXITY_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("PERPLEXITY_API_KEY must be set")
		}
		return eventgen.NewPerplexityGenerator(apiKey, commandHandler.logger), nil

	case "serp":
		serpKey := os.Getenv("OLOSTEP_API_KEY")
		anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
		if serpKey == "" || anthropicKey == "" {
			return nil, fmt.Errorf("OLOSTEP_API_KEY and ANTHROPIC_API_KEY must be set")
		}
		return eventgen.NewSERPGenerator(serpKey, os.Getenv("API_NINJAS_KEY"), anthropicKey, commandHandler.logger), nil

	case "browser":
		anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
		if anthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY must be set")
		}
		return eventgen.NewBrowserGenerator(anthropicKey, commandHandler.logger), nil

	default:
		return nil, fmt.Errorf("source must be one of: perplexity, serp, browser")
	}
}

// GenerateEventsCmd generates a local-event digest for a zip code
func (commandHandler *EventsCommandHandler) GenerateEventsCmd(cmd *cobra.Command, _ []string) {
	zipCode, err := cmd.Flags().GetString("zip")
	if err != nil {
		commandHandler.logger.Error("invalid zip flag ", err)
		return
	}
	source, err := cmd.Flags().GetString("source")
	if err != nil {
		commandHandler.logger.Error("invalid source flag ", err)
		return
	}
	pdfFilePath, err := cmd.Flags().GetString("pdf-file")
	if err != nil {
		commandHandler.logger.Error("invalid pdf-file flag ", err)
		return
	}

	generator, err := commandHandler.generatorFromEnv(source)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	service := app.NewEventsService(generator, nil, commandHandler.logger)
	response, err := service.EventsForZip(cmd.Context(), zipCode)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Summary: ", response.Summary)
	for _, event := range response.Events {
		commandHandler.logger.Info(event.Title, " (", event.Date, ")")
	}

	if pdfFilePath != "" {
		pdf, err := eventgen.RenderPDF(response)
		if err != nil {
			commandHandler.logger.Error(err)
			return
		}
		if err := os.WriteFile(filepath.Clean(pdfFilePath), pdf, 0600); err != nil {
			commandHandler.logger.Error(err)
			return
		}
		commandHandler.logger.Info("Events PDF saved to ", pdfFilePath)
	}
}

// InitEventsCommands registers the event digest commands with the root command
func InitEventsCommands(rootCmd *cobra.Command) error {
	handler, err := NewEventsCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create events command handler %w", err)
	}

	var generateEventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Generate a local-event digest for a zip code",
		Run:   handler.GenerateEventsCmd,
	}
	generateEventsCmd.Flags().StringP("zip", "", "", "5-digit zip code")
	generateEventsCmd.Flags().StringP("source", "", "perplexity", "Event source: perplexity, serp or browser")
	generateEventsCmd.Flags().StringP("pdf-file", "", "", "Optional path for a PDF flyer of the digest")
	rootCmd.AddCommand(generateEventsCmd)

	return nil
}
