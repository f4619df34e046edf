package eventgen

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const browserPageTimeout = 30 * time.Second

// BrowserGenerator drives a local headless browser to read event listings
// and hands the page text to a model for extraction.
type BrowserGenerator struct {
	model messageCreator
	log   logger.Logger

	// fetchText loads a URL and returns the visible page text. Injected in
	// tests to avoid launching a browser.
	fetchText func(ctx context.Context, pageURL string) (string, error)
}

// NewBrowserGenerator returns a generator that browses event listings with
// a locally launched headless browser.
func NewBrowserGenerator(anthropicKey string, log logger.Logger) *BrowserGenerator {
	client := anthropic.NewClient(option.WithAPIKey(anthropicKey))
	return &BrowserGenerator{
		model:     &client.Messages,
		log:       log,
		fetchText: fetchPageText,
	}
}

// fetchPageText launches a headless browser, loads the URL's page and
// returns the rendered body text.
func fetchPageText(ctx context.Context, pageURL string) (string, error) {
	browser := rod.New().Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Timeout(browserPageTimeout)

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("page did not finish loading: %w", err)
	}

	result, err := page.Eval(`() => document.body.innerText`)
	if err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return result.Value.Str(), nil
}

// Generate browses web search results for events near the zip code and
// extracts structured events from the rendered text.
func (g *BrowserGenerator) Generate(ctx context.Context, zipCode string) (*events.EventsResponse, error) {
	return retryGeneration(ctx, g.log, generationAttempts, func(ctx context.Context) (*events.EventsResponse, error) {
		searchURL := "https://www.google.com/search?q=" + url.QueryEscape("Events in "+zipCode+" this week")

		text, err := g.fetchText(ctx, searchURL)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, &events.NoEventsFoundError{ZipCode: zipCode}
		}
		if len(text) > maxCorpusLength {
			text = text[:maxCorpusLength]
		}

		found, err := extractEvents(ctx, g.model, text)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, &events.NoEventsFoundError{ZipCode: zipCode}
		}

		summary, err := summarizeEvents(ctx, g.model, found)
		if err != nil {
			return nil, err
		}
		return &events.EventsResponse{Events: found, Summary: summary}, nil
	})
}
