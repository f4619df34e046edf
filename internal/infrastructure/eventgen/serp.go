package eventgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const (
	olostepURL      = "https://api.olostep.com/v1"
	apiNinjasURL    = "https://api.api-ninjas.com/v1/zipcode"
	searchParserID  = "@olostep/google-search"
	maxSearchLinks  = 5
	batchPollLimit  = 5
	batchPollCap    = 30 * time.Second
	maxCorpusLength = 150000
)

// skippedDomains are search results that never describe a single concrete
// local event.
var skippedDomains = []string{"facebook.com", "wikipedia.org"}

// SERPGenerator finds local events by scraping search results through the
// Olostep API and extracting structured events from the page contents.
type SERPGenerator struct {
	serpKey string
	geoKey  string

	olostepBase string
	ninjasURL   string
	client      *http.Client
	model       messageCreator
	log         logger.Logger

	pollBase time.Duration
}

// NewSERPGenerator returns a search-backed generator. geoKey may be empty,
// in which case searches use the bare zip code without a resolved city.
func NewSERPGenerator(serpKey, geoKey, anthropicKey string, log logger.Logger) *SERPGenerator {
	client := anthropic.NewClient(option.WithAPIKey(anthropicKey))
	return &SERPGenerator{
		serpKey:     serpKey,
		geoKey:      geoKey,
		olostepBase: olostepURL,
		ninjasURL:   apiNinjasURL,
		client:      &http.Client{Timeout: 2 * time.Minute},
		model:       &client.Messages,
		log:         log,
		pollBase:    2 * time.Second,
	}
}

// doJSON performs an Olostep request and decodes the JSON response into out.
func (g *SERPGenerator) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.serpKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, raw)
	}
	return json.Unmarshal(raw, out)
}

// location resolves the zip code to "City, State" through API Ninjas. An
// empty string is returned when no geo key is configured or the lookup
// fails; the search still works on the bare zip code.
func (g *SERPGenerator) location(ctx context.Context, zipCode string) string {
	if g.geoKey == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.ninjasURL+"?zip="+url.QueryEscape(zipCode), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("X-Api-Key", g.geoKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("Zip code lookup failed: ", err)
		return ""
	}
	defer resp.Body.Close()

	var places []struct {
		City  string `json:"city"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil || len(places) == 0 {
		return ""
	}
	return places[0].City + ", " + places[0].State
}

// searchLinks scrapes a Google results page through the Olostep search
// parser and returns the organic links worth visiting.
func (g *SERPGenerator) searchLinks(ctx context.Context, query string) ([]string, error) {
	searchURL := "https://www.google.com/search?q=" + url.QueryEscape(query)
	body := map[string]any{
		"url_to_scrape": searchURL,
		"formats":       []string{"parser_extract"},
		"parser_extract": map[string]string{
			"parser_id": searchParserID,
		},
	}

	var scraped struct {
		Result struct {
			JSONContent string `json:"json_content"`
		} `json:"result"`
	}
	if err := g.doJSON(ctx, http.MethodPost, g.olostepBase+"/scrapes", body, &scraped); err != nil {
		return nil, err
	}

	var parsed struct {
		OrganicResults []struct {
			Link string `json:"link"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal([]byte(scraped.Result.JSONContent), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	var links []string
	for _, result := range parsed.OrganicResults {
		if result.Link == "" || skipLink(result.Link) {
			continue
		}
		links = append(links, result.Link)
		if len(links) == maxSearchLinks {
			break
		}
	}
	return links, nil
}

func skipLink(link string) bool {
	for _, domain := range skippedDomains {
		if strings.Contains(link, domain) {
			return true
		}
	}
	return false
}

// startBatch queues a scrape of every link and returns the batch ID.
func (g *SERPGenerator) startBatch(ctx context.Context, links []string) (string, error) {
	items := make([]map[string]string, 0, len(links))
	for i, link := range links {
		items = append(items, map[string]string{
			"custom_id": fmt.Sprintf("link-%d", i),
			"url":       link,
		})
	}

	var created struct {
		ID string `json:"id"`
	}
	err := g.doJSON(ctx, http.MethodPost, g.olostepBase+"/batches", map[string]any{"items": items}, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("batch creation returned no id")
	}
	return created.ID, nil
}

// waitForBatch polls the batch with capped exponential backoff until it
// completes.
func (g *SERPGenerator) waitForBatch(ctx context.Context, batchID string) error {
	delay := g.pollBase
	for attempt := 0; attempt < batchPollLimit; attempt++ {
		var status struct {
			Status string `json:"status"`
		}
		if err := g.doJSON(ctx, http.MethodGet, g.olostepBase+"/batches/"+batchID, nil, &status); err != nil {
			return err
		}
		if status.Status == "completed" {
			return nil
		}

		wait := delay + time.Duration(rand.Int63n(int64(delay)+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
		if delay > batchPollCap {
			delay = batchPollCap
		}
	}
	return fmt.Errorf("batch %s did not complete in time", batchID)
}

// batchMarkdown retrieves the scraped markdown of every item in the batch
// and joins it into one corpus for extraction.
func (g *SERPGenerator) batchMarkdown(ctx context.Context, batchID string) (string, error) {
	var listing struct {
		Items []struct {
			CustomID   string `json:"custom_id"`
			RetrieveID string `json:"retrieve_id"`
		} `json:"items"`
	}
	if err := g.doJSON(ctx, http.MethodGet, g.olostepBase+"/batches/"+batchID+"/items", nil, &listing); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range listing.Items {
		var retrieved struct {
			MarkdownContent string `json:"markdown_content"`
		}
		endpoint := g.olostepBase + "/retrieve?retrieve_id=" + url.QueryEscape(item.RetrieveID) + "&formats=markdown"
		if err := g.doJSON(ctx, http.MethodGet, endpoint, nil, &retrieved); err != nil {
			g.log.Warn("Failed to retrieve scrape ", item.CustomID, ": ", err)
			continue
		}
		sb.WriteString(retrieved.MarkdownContent)
		sb.WriteString("\n\n---\n\n")
	}

	corpus := sb.String()
	if len(corpus) > maxCorpusLength {
		corpus = corpus[:maxCorpusLength]
	}
	return corpus, nil
}

// Generate scrapes the top search results for the zip code and extracts
// structured events from their contents.
func (g *SERPGenerator) Generate(ctx context.Context, zipCode string) (*events.EventsResponse, error) {
	return retryGeneration(ctx, g.log, generationAttempts, func(ctx context.Context) (*events.EventsResponse, error) {
		query := "Events in " + zipCode
		if city := g.location(ctx, zipCode); city != "" {
			query += " " + city
		}

		links, err := g.searchLinks(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(links) == 0 {
			return nil, &events.NoEventsFoundError{ZipCode: zipCode}
		}
		g.log.Debug("Scraping ", len(links), " search results for zip ", zipCode)

		batchID, err := g.startBatch(ctx, links)
		if err != nil {
			return nil, err
		}
		if err := g.waitForBatch(ctx, batchID); err != nil {
			return nil, err
		}

		corpus, err := g.batchMarkdown(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(corpus) == "" {
			return nil, &events.NoEventsFoundError{ZipCode: zipCode}
		}

		found, err := extractEvents(ctx, g.model, corpus)
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
