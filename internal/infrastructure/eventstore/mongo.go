// Package eventstore caches generated event digests in MongoDB so repeated
// requests for the same zip code do not pay for regeneration.
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/config"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const (
	defaultCollection    = "events"
	defaultFreshnessDays = 7
)

// storedDigest is the Mongo document for one cached digest.
type storedDigest struct {
	ZipCode   string         `bson:"zip_code"`
	Events    []events.Event `bson:"events"`
	Summary   string         `bson:"summary"`
	CreatedAt time.Time      `bson:"created_at"`
}

// MongoStore implements events.Store on a MongoDB collection keyed by zip
// code.
type MongoStore struct {
	collection *mongo.Collection
	freshness  time.Duration
	log        logger.Logger

	// now is injected in tests.
	now func() time.Time
}

// NewMongoStore connects to MongoDB and returns a store over the configured
// collection.
func NewMongoStore(ctx context.Context, settings config.EventStoreSettings, log logger.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(settings.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("event store is unreachable: %w", err)
	}

	collection := settings.Collection
	if collection == "" {
		collection = defaultCollection
	}
	freshnessDays := settings.FreshnessDays
	if freshnessDays <= 0 {
		freshnessDays = defaultFreshnessDays
	}

	return &MongoStore{
		collection: client.Database(settings.Database).Collection(collection),
		freshness:  time.Duration(freshnessDays) * 24 * time.Hour,
		log:        log,
		now:        time.Now,
	}, nil
}

// FreshEvents returns the cached digest for the zip code if it was created
// inside the freshness window, or nil when the caller must regenerate.
func (s *MongoStore) FreshEvents(ctx context.Context, zipCode string) (*events.StoredEvents, error) {
	cutoff := s.now().Add(-s.freshness)
	filter := bson.M{
		"zip_code":   zipCode,
		"created_at": bson.M{"$gte": cutoff},
	}

	var doc storedDigest
	err := s.collection.FindOne(ctx, filter, options.FindOne().SetSort(bson.M{"created_at": -1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached events for %s: %w", zipCode, err)
	}

	return &events.StoredEvents{
		ZipCode:   doc.ZipCode,
		Response:  events.EventsResponse{Events: doc.Events, Summary: doc.Summary},
		CreatedAt: doc.CreatedAt,
	}, nil
}

// Save stores a digest for the zip code, replacing any previous entry.
func (s *MongoStore) Save(ctx context.Context, zipCode string, response *events.EventsResponse) error {
	doc := storedDigest{
		ZipCode:   zipCode,
		Events:    response.Events,
		Summary:   response.Summary,
		CreatedAt: s.now(),
	}

	filter := bson.M{"zip_code": zipCode}
	_, err := s.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to cache events for %s: %w", zipCode, err)
	}
	s.log.Debug("Cached event digest for zip ", zipCode)
	return nil
}
