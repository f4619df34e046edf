// Package analyze turns validated lead batches into written insights with
// an LLM.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/deliver"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const insightsModel = openai.GPT4o

// Fallback strings returned instead of an error so a failed generation
// never blocks a delivery.
const (
	failedInsightsMessage = "Failed to generate insights. Please try again later."
	emptyInsightsMessage  = "No insights on these leads at the moment."
)

// chatClient is the slice of the OpenAI client the generators use.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// leadInsights is the JSON shape the model responds with.
type leadInsights struct {
	Thoughts          string   `json:"thoughts"`
	ValidationInsight string   `json:"validation_insight,omitempty"`
	Insights          []string `json:"insights"`
}

// completeWithRetry runs one chat completion, retrying once after a short
// delay on failure.
func completeWithRetry(ctx context.Context, client chatClient, log logger.Logger, request openai.ChatCompletionRequest) (string, error) {
	response, err := client.CreateChatCompletion(ctx, request)
	if err != nil {
		log.Warn("Chat completion failed, trying once more: ", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(2 * time.Second):
		}

		response, err = client.CreateChatCompletion(ctx, request)
		if err != nil {
			return "", err
		}
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}

func insightsRequest(system, user string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:     insightsModel,
		MaxTokens: 4095,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

// numberInsights renders the insight list as a numbered block.
func numberInsights(insights []string) string {
	numbered := make([]string, 0, len(insights))
	for i, insight := range insights {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, insight))
	}
	return strings.Join(numbered, "\n")
}

// InsightsGenerator generates insights over a whole batch of leads.
type InsightsGenerator struct {
	client chatClient
	logger logger.Logger
}

// NewInsightsGenerator creates an InsightsGenerator with an OpenAI API key.
func NewInsightsGenerator(apiKey string, log logger.Logger) *InsightsGenerator {
	if log == nil {
		log = logger.Noop()
	}
	return &InsightsGenerator{client: openai.NewClient(apiKey), logger: log}
}

// Analyze formats the batch as CSV and asks the model for insights. A
// generation failure degrades to a fallback message rather than an error.
func (g *InsightsGenerator) Analyze(ctx context.Context, batch []leads.MD5WithPII) (string, error) {
	formatter := &deliver.CSVFormatter{}
	csvData, err := formatter.Format(batch)
	if err != nil {
		return "", err
	}

	content, err := completeWithRetry(ctx, g.client, g.logger, insightsRequest(systemPrompt, csvData))
	if err != nil {
		g.logger.Error("Failed to generate insights after retries: ", err)
		return failedInsightsMessage, nil
	}

	var parsed leadInsights
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || len(parsed.Insights) == 0 {
		g.logger.Error("Model response did not contain valid insights")
		return emptyInsightsMessage, nil
	}

	g.logger.Info("Generated ", len(parsed.Insights), " insights")
	return numberInsights(parsed.Insights), nil
}

// ValidationInfoProvider describes the validations a batch went through,
// formatted for a prompt.
type ValidationInfoProvider interface {
	ValidationInfo() string
}

// ValidatedInsightsGenerator generates batch insights that also comment on
// the validation pipeline the leads survived.
type ValidatedInsightsGenerator struct {
	client   chatClient
	logger   logger.Logger
	pipeline ValidationInfoProvider
}

// NewValidatedInsightsGenerator creates a ValidatedInsightsGenerator bound
// to the pipeline whose validations it should describe.
func NewValidatedInsightsGenerator(apiKey string, pipeline ValidationInfoProvider, log logger.Logger) *ValidatedInsightsGenerator {
	if log == nil {
		log = logger.Noop()
	}
	return &ValidatedInsightsGenerator{
		client:   openai.NewClient(apiKey),
		logger:   log,
		pipeline: pipeline,
	}
}

func (g *ValidatedInsightsGenerator) Analyze(ctx context.Context, batch []leads.MD5WithPII) (string, error) {
	formatter := &deliver.CSVFormatter{}
	csvData, err := formatter.Format(batch)
	if err != nil {
		return "", err
	}

	user := fmt.Sprintf("Validations:\n\n%s\n\nLeads:\n\n%s", g.pipeline.ValidationInfo(), csvData)

	content, err := completeWithRetry(ctx, g.client, g.logger, insightsRequest(validatorSystemPrompt, user))
	if err != nil {
		g.logger.Error("Failed to generate insights after retries: ", err)
		return failedInsightsMessage, nil
	}

	var parsed leadInsights
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || len(parsed.Insights) == 0 {
		g.logger.Error("Model response did not contain valid insights")
		return emptyInsightsMessage, nil
	}

	result := numberInsights(parsed.Insights)
	if parsed.ValidationInsight != "" {
		result = fmt.Sprintf("On validation: %s\n\n%s", parsed.ValidationInsight, result)
	}

	return result, nil
}
