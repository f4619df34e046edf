package v1

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

// ErrorResponse is the standard error response body
type ErrorResponse struct {
	Message string `json:"message"`
}

// ValidatorsConfig selects the validators applied to a pull. Only the
// validators that need no external credentials are configurable inline.
type ValidatorsConfig struct {
	MD5Blacklist       []string `json:"md5_blacklist"`
	MinSentences       int      `json:"min_sentences" validate:"min=0"`
	UseUnique          bool     `json:"use_unique_sentences"`
	MinAge             int      `json:"min_age" validate:"min=0"`
	MaxAge             int      `json:"max_age" validate:"min=0"`
	Genders            []string `json:"genders" validate:"dive,oneof=Male Female Unknown"`
	ExcludeOccupations []string `json:"exclude_occupations"`
	NoRealEstateAgents bool     `json:"no_real_estate_agents"`
	MidIncome          bool     `json:"mid_income"`
	HighIncome         bool     `json:"high_income"`
	MediumNetWorth     bool     `json:"medium_net_worth"`
	HighNetWorth       bool     `json:"high_net_worth"`
	NotRenter          bool     `json:"not_renter"`
	NotApartment       bool     `json:"not_apartment"`
	RestrictZips       bool     `json:"restrict_zips"`
	SkipDelivered      bool     `json:"skip_delivered"`
}

// PullJobRequest is the request body for running an intent pull
type PullJobRequest struct {
	IntentCategories []string `json:"intent_categories"`
	Zips             []string `json:"zips"`
	Keywords         []string `json:"keywords"`
	Domains          []string `json:"domains"`
	NHems            int      `json:"n_hems" validate:"required,min=1"`

	// Mode selects the processor: "fill" (default) or "simple".
	Mode string `json:"mode" validate:"omitempty,oneof=fill simple"`

	// Format selects the response body: "json" (default) or "csv".
	Format string `json:"format" validate:"omitempty,oneof=json csv"`

	// ClientID attributes the pull in the delivery journal. Required when
	// validators.skip_delivered is set.
	ClientID string `json:"client_id"`

	Validators ValidatorsConfig `json:"validators"`
}

// Validate checks the request fields
func (r *PullJobRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("validation failed for PullJobRequest: %w", err)
	}
	if r.Validators.SkipDelivered && r.ClientID == "" {
		return fmt.Errorf("client_id is required when skip_delivered is set")
	}
	return nil
}

// Job converts the request into a domain job
func (r *PullJobRequest) Job() leads.IABJob {
	return leads.IABJob{
		IntentCategories: r.IntentCategories,
		Zips:             r.Zips,
		Keywords:         r.Keywords,
		Domains:          r.Domains,
		NHems:            r.NHems,
	}
}

// LeadResponse is one hydrated lead in a JSON pull response
type LeadResponse struct {
	MD5       string         `json:"md5"`
	Sentences []string       `json:"sentences"`
	PII       map[string]any `json:"pii"`
}

// NewLeadResponse converts a domain lead to its response form
func NewLeadResponse(lead leads.MD5WithPII) LeadResponse {
	return LeadResponse{
		MD5:       lead.MD5,
		Sentences: lead.Sentences,
		PII:       lead.PII.LeadExport(),
	}
}

// JournalEntryResponse is one delivery record
type JournalEntryResponse struct {
	ID          string    `json:"id"`
	MD5         string    `json:"md5"`
	ClientID    string    `json:"client_id"`
	Deliverer   string    `json:"deliverer"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// NewJournalEntryResponse converts a domain journal entry to its response form
func NewJournalEntryResponse(entry leads.JournalEntry) JournalEntryResponse {
	return JournalEntryResponse{
		ID:          entry.ID,
		MD5:         entry.MD5,
		ClientID:    entry.ClientID,
		Deliverer:   entry.Deliverer,
		DeliveredAt: entry.DeliveredAt,
	}
}

// EventResponse is one local event in an events response
type EventResponse struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Link        *string `json:"link"`
}

// EventsResponse is a local-event digest for a zip code
type EventsResponse struct {
	ZipCode string          `json:"zip_code"`
	Summary string          `json:"summary"`
	Events  []EventResponse `json:"events"`
}

// NewEventsResponse converts a domain digest to its response form
func NewEventsResponse(zipCode string, response *events.EventsResponse) EventsResponse {
	eventList := make([]EventResponse, len(response.Events))
	for i, event := range response.Events {
		eventList[i] = EventResponse{
			Title:       event.Title,
			Date:        event.Date,
			Description: event.Description,
			Link:        event.Link,
		}
	}
	return EventsResponse{
		ZipCode: zipCode,
		Summary: response.Summary,
		Events:  eventList,
	}
}
