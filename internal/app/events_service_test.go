//go:build unit
// +build unit

package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

type stubGenerator struct {
	response *events.EventsResponse
	err      error
	calls    int
}

func (s *stubGenerator) Generate(context.Context, string) (*events.EventsResponse, error) {
	s.calls++
	return s.response, s.err
}

type memoryStore struct {
	saved map[string]*events.EventsResponse
	fresh map[string]*events.StoredEvents
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		saved: make(map[string]*events.EventsResponse),
		fresh: make(map[string]*events.StoredEvents),
	}
}

func (s *memoryStore) FreshEvents(_ context.Context, zipCode string) (*events.StoredEvents, error) {
	return s.fresh[zipCode], nil
}

func (s *memoryStore) Save(_ context.Context, zipCode string, response *events.EventsResponse) error {
	s.saved[zipCode] = response
	return nil
}

func digest(summary string) *events.EventsResponse {
	return &events.EventsResponse{
		Summary: summary,
		Events:  []events.Event{{Title: "Fall Festival", Date: "September 3", Description: "Downtown."}},
	}
}

func TestEventsServiceGeneratesAndCaches(t *testing.T) {
	generator := &stubGenerator{response: digest("Fresh.")}
	store := newMemoryStore()
	service := NewEventsService(generator, store, logger.Noop())

	response, err := service.EventsForZip(context.Background(), "22101")
	require.NoError(t, err)
	assert.Equal(t, "Fresh.", response.Summary)
	assert.Equal(t, 1, generator.calls)
	assert.Equal(t, response, store.saved["22101"])
}

func TestEventsServicePrefersCache(t *testing.T) {
	generator := &stubGenerator{response: digest("Fresh.")}
	store := newMemoryStore()
	store.fresh["22101"] = &events.StoredEvents{
		ZipCode:   "22101",
		Response:  *digest("Cached."),
		CreatedAt: time.Now(),
	}
	service := NewEventsService(generator, store, logger.Noop())

	response, err := service.EventsForZip(context.Background(), "22101")
	require.NoError(t, err)
	assert.Equal(t, "Cached.", response.Summary)
	assert.Equal(t, 0, generator.calls)
}

func TestEventsServiceWithoutStore(t *testing.T) {
	generator := &stubGenerator{response: digest("Fresh.")}
	service := NewEventsService(generator, nil, nil)

	_, err := service.EventsForZip(context.Background(), "22101")
	require.NoError(t, err)

	_, err = service.EventsForZip(context.Background(), "22101")
	require.NoError(t, err)
	assert.Equal(t, 2, generator.calls)
}

func TestEventsServiceGeneratorFailure(t *testing.T) {
	wantErr := errors.New("search unavailable")
	service := NewEventsService(&stubGenerator{err: wantErr}, newMemoryStore(), logger.Noop())

	_, err := service.EventsForZip(context.Background(), "22101")
	require.ErrorIs(t, err, wantErr)
}

func TestEventsServicePDF(t *testing.T) {
	service := NewEventsService(&stubGenerator{response: digest("Fresh.")}, nil, logger.Noop())

	pdf, err := service.PDFForZip(context.Background(), "22101")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
