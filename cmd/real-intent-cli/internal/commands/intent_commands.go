package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Standard-Labs/real-intent/internal/app"
	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/deliver"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/intentapi"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// IntentCommandHandler encapsulates logic for handling intent data
// operations via CLI.
type IntentCommandHandler struct {
	client *intentapi.Client
	logger logger.Logger
}

// NewIntentCommandHandler initializes and returns an IntentCommandHandler
// instance with a configured logger. The intent API client is built lazily
// so commands like help work without credentials.
func NewIntentCommandHandler() (*IntentCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &IntentCommandHandler{logger: loggerInstance}, nil
}

// intentClient returns the intent API client, creating it on first use.
func (commandHandler *IntentCommandHandler) intentClient() (*intentapi.Client, error) {
	if commandHandler.client != nil {
		return commandHandler.client, nil
	}

	client, err := newIntentClient(commandHandler.logger)
	if err != nil {
		return nil, err
	}
	commandHandler.client = client
	return client, nil
}

// jobFromFlags builds an IABJob from the shared job flags.
func jobFromFlags(cmd *cobra.Command) (leads.IABJob, error) {
	categories, err := cmd.Flags().GetStringSlice("categories")
	if err != nil {
		return leads.IABJob{}, fmt.Errorf("invalid categories flag: %w", err)
	}
	zips, err := cmd.Flags().GetStringSlice("zips")
	if err != nil {
		return leads.IABJob{}, fmt.Errorf("invalid zips flag: %w", err)
	}
	keywords, err := cmd.Flags().GetStringSlice("keywords")
	if err != nil {
		return leads.IABJob{}, fmt.Errorf("invalid keywords flag: %w", err)
	}
	domains, err := cmd.Flags().GetStringSlice("domains")
	if err != nil {
		return leads.IABJob{}, fmt.Errorf("invalid domains flag: %w", err)
	}
	hems, err := cmd.Flags().GetInt("hems")
	if err != nil {
		return leads.IABJob{}, fmt.Errorf("invalid hems flag: %w", err)
	}

	job := leads.IABJob{
		IntentCategories: categories,
		Zips:             zips,
		Keywords:         keywords,
		Domains:          domains,
		NHems:            hems,
	}
	if err := job.Validate(); err != nil {
		return leads.IABJob{}, err
	}
	return job, nil
}

// addJobFlags registers the shared job flags on a command.
func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("categories", nil, "IAB intent categories to target")
	cmd.Flags().StringSlice("zips", nil, "Zip codes to target")
	cmd.Flags().StringSlice("keywords", nil, "Keywords to target")
	cmd.Flags().StringSlice("domains", nil, "Domains to target")
	cmd.Flags().Int("hems", 100, "Number of hems to request")
}

// CheckNumbersCmd reports how many intent events a job would return
func (commandHandler *IntentCommandHandler) CheckNumbersCmd(cmd *cobra.Command, _ []string) {
	job, err := jobFromFlags(cmd)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	client, err := commandHandler.intentClient()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	numbers, err := client.CheckNumbers(cmd.Context(), job)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Total intent events: ", numbers["total"])
	commandHandler.logger.Info("Unique MD5s: ", numbers["unique"])
}

// ConfigDatesCmd prints the date window the intent platform is serving
func (commandHandler *IntentCommandHandler) ConfigDatesCmd(cmd *cobra.Command, _ []string) {
	client, err := commandHandler.intentClient()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	dates, err := client.ConfigDates(cmd.Context())
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Start date: ", dates.StartDate)
	commandHandler.logger.Info("End date: ", dates.EndDate)
}

// PullCmd runs a pull end to end and writes the leads to a CSV file
func (commandHandler *IntentCommandHandler) PullCmd(cmd *cobra.Command, _ []string) {
	job, err := jobFromFlags(cmd)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	mode, err := cmd.Flags().GetString("mode")
	if err != nil {
		commandHandler.logger.Error("invalid mode flag ", err)
		return
	}
	outputFilePath, err := cmd.Flags().GetString("output-file")
	if err != nil {
		commandHandler.logger.Error("invalid output-file flag ", err)
		return
	}

	client, err := commandHandler.intentClient()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	var processor leads.Processor
	switch mode {
	case "simple":
		processor = app.NewSimpleProcessor(client, commandHandler.logger).AddDefaultValidators()
	case "fill":
		processor = app.NewFillProcessor(client, commandHandler.logger).AddDefaultValidators()
	default:
		commandHandler.logger.Error("mode must be one of: fill, simple")
		return
	}

	batch, err := processor.Process(cmd.Context(), job)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}
	commandHandler.logger.Info("Pulled ", len(batch), " leads")

	formatter := &deliver.CSVFormatter{}
	csvBody, err := formatter.Format(batch)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	if err := os.WriteFile(filepath.Clean(outputFilePath), []byte(csvBody), 0600); err != nil {
		commandHandler.logger.Error(err)
		return
	}
	commandHandler.logger.Info("Leads saved to ", outputFilePath)
}

// InitIntentCommands registers the intent data commands with the root command
func InitIntentCommands(rootCmd *cobra.Command) error {
	handler, err := NewIntentCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create intent command handler %w", err)
	}

	var checkNumbersCmd = &cobra.Command{
		Use:   "check-numbers",
		Short: "Check how many intent events a job would return",
		Run:   handler.CheckNumbersCmd,
	}
	addJobFlags(checkNumbersCmd)
	rootCmd.AddCommand(checkNumbersCmd)

	var configDatesCmd = &cobra.Command{
		Use:   "config-dates",
		Short: "Show the date window the intent platform is serving",
		Run:   handler.ConfigDatesCmd,
	}
	rootCmd.AddCommand(configDatesCmd)

	var pullCmd = &cobra.Command{
		Use:   "pull",
		Short: "Pull validated leads and write them to a CSV file",
		Run:   handler.PullCmd,
	}
	addJobFlags(pullCmd)
	pullCmd.Flags().StringP("mode", "", "fill", "Processor mode: fill or simple")
	pullCmd.Flags().StringP("output-file", "", "leads.csv", "Path to the CSV output file")
	rootCmd.AddCommand(pullCmd)

	return nil
}
