package eventgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const (
	perplexityURL   = "https://api.perplexity.ai/chat/completions"
	perplexityModel = "llama-3.1-sonar-large-128k-online"
)

const perplexityEventsSystem = `You are a local community expert. You use your access to current ` +
	`search results to find upcoming events near a given zip code.

Respond with a JSON object with exactly two keys:
  "thinking": a string where you reason about which events are real, upcoming, and local
  "events": a list of event objects, each with keys "title", "date", "description" and "link"

"link" may be null if no URL is available. Only include events taking place inside the ` +
	`requested date window. Respond with the JSON object only.`

const perplexitySummarySystem = `You are a local community expert. Given a JSON list of upcoming ` +
	`local events, write a short, upbeat summary of what is happening in the area.

Respond with a JSON object with exactly one key, "summary", holding the summary as a string.`

// PerplexityGenerator finds local events through the Perplexity online
// search models.
type PerplexityGenerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     logger.Logger

	// now is injected in tests to pin the date window.
	now func() time.Time
}

// NewPerplexityGenerator returns a generator backed by the Perplexity API.
func NewPerplexityGenerator(apiKey string, log logger.Logger) *PerplexityGenerator {
	return &PerplexityGenerator{
		apiKey:  apiKey,
		baseURL: perplexityURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
		log:     log,
		now:     time.Now,
	}
}

type perplexityRequest struct {
	Model               string              `json:"model"`
	Messages            []perplexityMessage `json:"messages"`
	Temperature         float64             `json:"temperature"`
	PresencePenalty     float64             `json:"presence_penalty"`
	SearchRecencyFilter string              `json:"search_recency_filter"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chat sends one chat completion and returns the raw assistant content.
func (g *PerplexityGenerator) chat(ctx context.Context, system, user string) (string, error) {
	payload := perplexityRequest{
		Model: perplexityModel,
		Messages: []perplexityMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:         0.3,
		PresencePenalty:     0.5,
		SearchRecencyFilter: "month",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request returned status %d: %s", resp.StatusCode, raw)
	}

	var parsed perplexityResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (g *PerplexityGenerator) findEvents(ctx context.Context, zipCode string) ([]events.Event, error) {
	start := g.now()
	end := start.AddDate(0, 0, 7)
	user := fmt.Sprintf(
		"Find upcoming local events near zip code %s taking place between %s and %s.",
		zipCode, start.Format("January 02, 2006"), end.Format("January 02, 2006"),
	)

	content, err := g.chat(ctx, perplexityEventsSystem, user)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Thinking string         `json:"thinking"`
		Events   []events.Event `json:"events"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &events.NoValidJSONError{Content: content}
	}
	g.log.Debug("Perplexity event reasoning: ", parsed.Thinking)

	for i := range parsed.Events {
		if err := parsed.Events[i].Validate(); err != nil {
			return nil, fmt.Errorf("event %d is incomplete: %w", i, err)
		}
	}
	return parsed.Events, nil
}

func (g *PerplexityGenerator) summarize(ctx context.Context, found []events.Event) (string, error) {
	eventsJSON, err := json.Marshal(found)
	if err != nil {
		return "", fmt.Errorf("failed to marshal events for summary: %w", err)
	}

	content, err := g.chat(ctx, perplexitySummarySystem, string(eventsJSON))
	if err != nil {
		return "", err
	}

	raw, err := ExtractJSONObject(content)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", &events.NoValidJSONError{Content: content}
	}
	return parsed.Summary, nil
}

// Generate finds events near the zip code and summarizes them. Malformed
// model output is retried before giving up.
func (g *PerplexityGenerator) Generate(ctx context.Context, zipCode string) (*events.EventsResponse, error) {
	return retryGeneration(ctx, g.log, generationAttempts, func(ctx context.Context) (*events.EventsResponse, error) {
		found, err := g.findEvents(ctx, zipCode)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, &events.NoEventsFoundError{ZipCode: zipCode}
		}

		summary, err := g.summarize(ctx, found)
		if err != nil {
			return nil, err
		}
		return &events.EventsResponse{Events: found, Summary: summary}, nil
	})
}
