package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ServerSettings holds the HTTP server settings for the REST API
type ServerSettings struct {
	Port            int  `mapstructure:"port" validate:"required,min=1,max=65535"`
	ShutdownSeconds int  `mapstructure:"shutdown_seconds"`
	EnableCORS      bool `mapstructure:"enable_cors"`
}

// Validate checks that all fields in ServerSettings are valid
func (s *ServerSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for ServerSettings: %w", err)
	}

	return nil
}

// RestConfig aggregates all settings required by the REST API application
type RestConfig struct {
	Logger     LoggerSettings     `mapstructure:"logger"`
	Database   DatabaseSettings   `mapstructure:"database"`
	IntentAPI  IntentAPISettings  `mapstructure:"intent_api"`
	EventStore EventStoreSettings `mapstructure:"event_store"`
	Server     ServerSettings     `mapstructure:"server"`
}

// InitializeRestConfig reads the REST API configuration from a YAML file,
// allowing environment variables (prefixed with REAL_INTENT) to override
// individual keys.
func InitializeRestConfig(configPath string) (*RestConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("REAL_INTENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg RestConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Logger.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.IntentAPI.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
