package commands

import (
	"fmt"
	"os"

	"github.com/Standard-Labs/real-intent/internal/infrastructure/intentapi"
	"github.com/Standard-Labs/real-intent/internal/pkg/config"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

func setupLogger() (logger.Logger, error) {
	settings := &config.LoggerSettings{
		LogLevel: "info",
		LogType:  "console",
		FilePath: "",
	}

	if err := logger.InitLogger(settings); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loggerInstance, err := logger.GetLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to get logger instance: %w", err)
	}

	return loggerInstance, nil
}

// intentSettingsFromEnv reads the intent platform credentials from the
// environment.
func intentSettingsFromEnv() (*config.IntentAPISettings, error) {
	settings := &config.IntentAPISettings{
		ClientID:     os.Getenv("REAL_INTENT_CLIENT_ID"),
		ClientSecret: os.Getenv("REAL_INTENT_CLIENT_SECRET"),
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("REAL_INTENT_CLIENT_ID and REAL_INTENT_CLIENT_SECRET must be set: %w", err)
	}
	return settings, nil
}

// newIntentClient builds the intent API client from environment credentials.
func newIntentClient(log logger.Logger) (*intentapi.Client, error) {
	settings, err := intentSettingsFromEnv()
	if err != nil {
		return nil, err
	}
	return intentapi.NewClient(settings, log)
}
