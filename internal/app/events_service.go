package app

import (
	"context"
	"fmt"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/eventgen"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// EventsService serves local-event digests, preferring the cache over a
// fresh generation.
type EventsService struct {
	generator events.Generator
	store     events.Store
	logger    logger.Logger
}

// NewEventsService creates an EventsService. store may be nil, in which
// case every request regenerates.
func NewEventsService(generator events.Generator, store events.Store, log logger.Logger) *EventsService {
	if log == nil {
		log = logger.Noop()
	}

	return &EventsService{
		generator: generator,
		store:     store,
		logger:    log,
	}
}

// EventsForZip returns the digest for the zip code, generating and caching
// it when no fresh cached copy exists.
func (s *EventsService) EventsForZip(ctx context.Context, zipCode string) (*events.EventsResponse, error) {
	if s.store != nil {
		cached, err := s.store.FreshEvents(ctx, zipCode)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			s.logger.Debug("Serving cached events for zip ", zipCode)
			return &cached.Response, nil
		}
	}

	response, err := s.generator.Generate(ctx, zipCode)
	if err != nil {
		return nil, fmt.Errorf("failed to generate events for %s: %w", zipCode, err)
	}

	if s.store != nil {
		// Caching is best effort.
		if err := s.store.Save(ctx, zipCode, response); err != nil {
			s.logger.Warn("Failed to cache events for ", zipCode, ": ", err)
		}
	}
	return response, nil
}

// PDFForZip returns the digest for the zip code rendered as a one-page PDF.
func (s *EventsService) PDFForZip(ctx context.Context, zipCode string) ([]byte, error) {
	response, err := s.EventsForZip(ctx, zipCode)
	if err != nil {
		return nil, err
	}
	return eventgen.RenderPDF(response)
}
