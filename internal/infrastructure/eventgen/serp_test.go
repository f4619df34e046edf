//go:build unit
// +build unit

package eventgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// stubModel returns canned model responses in order and records the
// requests it saw.
type stubModel struct {
	responses []string
	err       error
	requests  []anthropic.MessageNewParams
}

func (s *stubModel) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	s.requests = append(s.requests, params)
	if s.err != nil {
		return nil, s.err
	}

	content := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: content}},
	}, nil
}

const extractedEventsArray = `[
	{"title": "Fall Festival", "date": "September 3, 2024", "description": "Food and music downtown.", "link": "https://example.com/fall"},
	{"title": "Farmers Market", "date": "September 5, 2024", "description": "Weekly market at the square.", "link": null}
]`

// fakeOlostep fakes the scraping platform and the zip code lookup.
type fakeOlostep struct {
	server      *httptest.Server
	ninjas      *httptest.Server
	batchPolls  int
	scrapeCalls int
}

func newFakeOlostep(t *testing.T) *fakeOlostep {
	t.Helper()
	f := &fakeOlostep{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /scrapes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer serp-key", r.Header.Get("Authorization"))
		f.scrapeCalls++

		organic := `{"organic_results": [
			{"link": "https://www.facebook.com/events/1"},
			{"link": "https://townnews.example.com/events"},
			{"link": "https://en.wikipedia.org/wiki/Town"},
			{"link": "https://calendar.example.com/this-week"}
		]}`
		resp := map[string]any{"result": map[string]string{"json_content": organic}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("POST /batches", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items []struct {
				CustomID string `json:"custom_id"`
				URL      string `json:"url"`
			} `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 2)
		assert.Equal(t, "https://townnews.example.com/events", body.Items[0].URL)
		assert.Equal(t, "https://calendar.example.com/this-week", body.Items[1].URL)

		fmt.Fprint(w, `{"id": "batch-1"}`)
	})
	mux.HandleFunc("GET /batches/batch-1", func(w http.ResponseWriter, _ *http.Request) {
		f.batchPolls++
		status := "in_progress"
		if f.batchPolls > 1 {
			status = "completed"
		}
		fmt.Fprintf(w, `{"status": %q}`, status)
	})
	mux.HandleFunc("GET /batches/batch-1/items", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"items": [
			{"custom_id": "link-0", "retrieve_id": "r-0"},
			{"custom_id": "link-1", "retrieve_id": "r-1"}
		]}`)
	})
	mux.HandleFunc("GET /retrieve", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "markdown", r.URL.Query().Get("formats"))
		fmt.Fprintf(w, `{"markdown_content": "# Page %s\nFall Festival on September 3."}`,
			r.URL.Query().Get("retrieve_id"))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	f.ninjas = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "geo-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "22101", r.URL.Query().Get("zip"))
		fmt.Fprint(w, `[{"city": "McLean", "state": "Virginia"}]`)
	}))
	t.Cleanup(f.ninjas.Close)

	return f
}

func newTestSERP(f *fakeOlostep, model messageCreator) *SERPGenerator {
	return &SERPGenerator{
		serpKey:     "serp-key",
		geoKey:      "geo-key",
		olostepBase: f.server.URL,
		ninjasURL:   f.ninjas.URL,
		client:      f.server.Client(),
		model:       model,
		log:         logger.Noop(),
		pollBase:    time.Millisecond,
	}
}

func TestSERPGenerate(t *testing.T) {
	fake := newFakeOlostep(t)
	model := &stubModel{responses: []string{
		"Here are the events:\n" + extractedEventsArray,
		"A lively week in McLean.",
	}}
	generator := newTestSERP(fake, model)

	response, err := generator.Generate(context.Background(), "22101")
	require.NoError(t, err)

	require.Len(t, response.Events, 2)
	assert.Equal(t, "Fall Festival", response.Events[0].Title)
	assert.Equal(t, "A lively week in McLean.", response.Summary)
	assert.Equal(t, 2, fake.batchPolls)

	// Both scraped pages end up in the extraction corpus.
	require.Len(t, model.requests, 2)
	corpus := model.requests[0].Messages[0].Content[0].OfText.Text
	assert.Contains(t, corpus, "Page r-0")
	assert.Contains(t, corpus, "Page r-1")
}

func TestSERPGenerateNoEvents(t *testing.T) {
	fake := newFakeOlostep(t)
	model := &stubModel{responses: []string{"[]", "[]"}}
	generator := newTestSERP(fake, model)

	_, err := generator.Generate(context.Background(), "22101")

	var notFound *events.NoEventsFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSERPLocationLookup(t *testing.T) {
	fake := newFakeOlostep(t)
	generator := newTestSERP(fake, &stubModel{})

	assert.Equal(t, "McLean, Virginia", generator.location(context.Background(), "22101"))

	generator.geoKey = ""
	assert.Equal(t, "", generator.location(context.Background(), "22101"))
}
