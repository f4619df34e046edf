package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Default endpoints for the BigDBM intent platform.
const (
	DefaultAuthURL   = "https://aws-prod-auth-service.bigdbm.com/oauth2/token"
	DefaultIntentURL = "https://aws-prod-intent-api.bigdbm.com/intent"
	DefaultDataURL   = "https://aws-prod-dataapi-v09.bigdbm.com"
)

// IntentAPISettings holds the credentials and endpoints for the intent data API
type IntentAPISettings struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	AuthURL      string `mapstructure:"auth_url"`
	IntentURL    string `mapstructure:"intent_url"`
	DataURL      string `mapstructure:"data_url"`

	// Requests per second allowed against the API. Zero means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`

	// Seconds between job status polls. Zero falls back to the client default.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
}

// Validate checks that all fields in IntentAPISettings are valid
func (s *IntentAPISettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for IntentAPISettings: %w", err)
	}

	return nil
}

// EventStoreSettings holds the connection settings for the Mongo event cache
type EventStoreSettings struct {
	URI        string `mapstructure:"uri" validate:"required"`
	Database   string `mapstructure:"database" validate:"required"`
	Collection string `mapstructure:"collection"`

	// Days a cached digest is considered fresh. Zero falls back to 7.
	FreshnessDays int `mapstructure:"freshness_days"`
}

// Validate checks that all fields in EventStoreSettings are valid
func (s *EventStoreSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for EventStoreSettings: %w", err)
	}

	return nil
}
