package eventgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
)

const extractionModel = anthropic.ModelClaude3_7SonnetLatest

const extractEventsSystem = `You extract upcoming local events from raw web page text.

Respond with a JSON array of at most 5 event objects, each with keys "title", "date", ` +
	`"description" and "link". "link" may be null. Skip anything that is not a concrete ` +
	`upcoming event. Respond with the JSON array only, or an empty array if there are none.`

const summarizeEventsSystem = `Given a JSON list of upcoming local events, write a short, ` +
	`upbeat summary of what is happening in the area. Respond with the summary text only.`

// messageCreator is the slice of the Anthropic client used by the
// generators, extracted so tests can stub the model.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// The SDK declares New on the pointer receiver.
var _ messageCreator = (*anthropic.MessageService)(nil)

// messageText concatenates the text blocks of a model response.
func messageText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}
	return sb.String()
}

// extractEvents asks the model to pull structured events out of raw page
// text gathered from the web.
func extractEvents(ctx context.Context, client messageCreator, corpus string) ([]events.Event, error) {
	msg, err := client.New(ctx, anthropic.MessageNewParams{
		Model:     extractionModel,
		MaxTokens: 4096,
		System:    []anthropic.TextBlockParam{{Text: extractEventsSystem}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(corpus)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("event extraction failed: %w", err)
	}

	content := messageText(msg)
	raw, err := ExtractJSONArray(content)
	if err != nil {
		return nil, err
	}

	var found []events.Event
	if err := json.Unmarshal([]byte(raw), &found); err != nil {
		return nil, &events.NoValidJSONError{Content: content}
	}
	for i := range found {
		if err := found[i].Validate(); err != nil {
			return nil, fmt.Errorf("event %d is incomplete: %w", i, err)
		}
	}
	return found, nil
}

// summarizeEvents asks the model for a community summary of the events.
func summarizeEvents(ctx context.Context, client messageCreator, found []events.Event) (string, error) {
	eventsJSON, err := json.Marshal(found)
	if err != nil {
		return "", fmt.Errorf("failed to marshal events for summary: %w", err)
	}

	msg, err := client.New(ctx, anthropic.MessageNewParams{
		Model:     extractionModel,
		MaxTokens: 1024,
		System:    []anthropic.TextBlockParam{{Text: summarizeEventsSystem}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(eventsJSON))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("event summary failed: %w", err)
	}
	return strings.TrimSpace(messageText(msg)), nil
}
