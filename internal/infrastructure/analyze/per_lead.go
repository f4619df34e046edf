package analyze

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/deliver"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// perLeadFallback is used when a single lead's insight cannot be generated.
const perLeadFallback = "No insight on this lead due to generation failure."

// leadInsight is the JSON shape for a single lead's insight.
type leadInsight struct {
	Thinking string `json:"thinking"`
	MD5      string `json:"md5"`
	Insight  string `json:"insight"`
}

// PerLeadGenerator generates one insight per lead, informed by the global
// insights generated over the whole set.
type PerLeadGenerator struct {
	chat           chatClient
	logger         logger.Logger
	GlobalInsights string
	maxWorkers     int
}

// NewPerLeadGenerator creates a PerLeadGenerator with an OpenAI API key and
// the global insights to ground each lead's insight in.
func NewPerLeadGenerator(apiKey, globalInsights string, log logger.Logger) *PerLeadGenerator {
	if log == nil {
		log = logger.Noop()
	}
	return &PerLeadGenerator{
		chat:           openai.NewClient(apiKey),
		logger:         log,
		GlobalInsights: globalInsights,
		maxWorkers:     5,
	}
}

// AnalyzePerLead returns an insight for each lead, keyed by MD5. A failing
// lead gets a fallback message instead of failing the batch.
func (g *PerLeadGenerator) AnalyzePerLead(ctx context.Context, batch []leads.MD5WithPII) (map[string]string, error) {
	results := make([]string, len(batch))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.maxWorkers)

	for i, lead := range batch {
		group.Go(func() error {
			results[i] = g.analyzeOne(groupCtx, lead)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	insights := make(map[string]string, len(batch))
	for i, lead := range batch {
		insights[lead.MD5] = results[i]
	}
	return insights, nil
}

func (g *PerLeadGenerator) analyzeOne(ctx context.Context, lead leads.MD5WithPII) string {
	formatter := &deliver.CSVFormatter{}
	leadCSV, err := formatter.Format([]leads.MD5WithPII{lead})
	if err != nil {
		g.logger.Error("Failed to format lead ", lead.MD5, ": ", err)
		return perLeadFallback
	}

	user := fmt.Sprintf("Overall Insights:\n\n%s\n\nLead:\n\n%s", g.GlobalInsights, leadCSV)

	request := insightsRequest(perLeadPrompt, user)
	request.MaxTokens = 2000

	content, err := completeWithRetry(ctx, g.chat, g.logger, request)
	if err != nil {
		g.logger.Error("Failed to generate insight for lead ", lead.MD5, ": ", err)
		return perLeadFallback
	}

	var parsed leadInsight
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.Insight == "" {
		g.logger.Error("Model response did not provide an insight for lead ", lead.MD5)
		return perLeadFallback
	}

	return parsed.Insight
}
