// Package events defines the local-event digest entities and the contracts
// implemented by event generators and the event cache.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Event is a single local event found for a zip code.
type Event struct {
	Title       string  `json:"title" validate:"required"`
	Date        string  `json:"date" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Link        *string `json:"link"`
}

// Validate checks that all required fields of the Event are set.
func (e *Event) Validate() error {
	validate := validator.New()
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("validation failed for Event: %w", err)
	}
	return nil
}

// TruncatedTitle shortens the title for constrained layouts such as the PDF.
func (e *Event) TruncatedTitle() string {
	if len(e.Title) > 70 {
		return e.Title[:70] + "..."
	}
	return e.Title
}

// EventsResponse is a generated digest: the events plus a community summary.
type EventsResponse struct {
	Events  []Event `json:"events"`
	Summary string  `json:"summary"`
}

// StoredEvents is a cached digest with its storage metadata.
type StoredEvents struct {
	ZipCode   string
	Response  EventsResponse
	CreatedAt time.Time
}

// Generator produces an event digest for a 5-digit zip code.
type Generator interface {
	// Generate finds events for the zip code and summarizes them.
	Generate(ctx context.Context, zipCode string) (*EventsResponse, error)
}

// Store caches generated digests per zip code.
type Store interface {
	// FreshEvents returns the cached digest for the zip code if one exists
	// inside the freshness window, or nil when a regeneration is needed.
	FreshEvents(ctx context.Context, zipCode string) (*StoredEvents, error)

	// Save stores a digest for the zip code, replacing stale entries.
	Save(ctx context.Context, zipCode string, response *EventsResponse) error
}
