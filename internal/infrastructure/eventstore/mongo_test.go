//go:build integration
// +build integration

package eventstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/config"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// Requires a running MongoDB, e.g. docker run -p 27017:27017 mongo.
func newTestStore(t *testing.T) *MongoStore {
	t.Helper()

	uri := os.Getenv("EVENT_STORE_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewMongoStore(ctx, config.EventStoreSettings{
		URI:        uri,
		Database:   "real_intent_test",
		Collection: "events_test",
	}, logger.Noop())
	require.NoError(t, err)

	require.NoError(t, store.collection.Drop(ctx))
	return store
}

func TestMongoStoreSaveAndFetch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	response := &events.EventsResponse{
		Summary: "A lively week.",
		Events:  []events.Event{{Title: "Fall Festival", Date: "September 3", Description: "Downtown."}},
	}
	require.NoError(t, store.Save(ctx, "22101", response))

	stored, err := store.FreshEvents(ctx, "22101")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "22101", stored.ZipCode)
	assert.Equal(t, *response, stored.Response)

	missing, err := store.FreshEvents(ctx, "99999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMongoStoreStaleEntriesAreSkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	response := &events.EventsResponse{Summary: "Old news."}
	require.NoError(t, store.Save(ctx, "22101", response))

	// Move the clock past the freshness window.
	store.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	stored, err := store.FreshEvents(ctx, "22101")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMongoStoreSaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "22101", &events.EventsResponse{Summary: "First."}))
	require.NoError(t, store.Save(ctx, "22101", &events.EventsResponse{Summary: "Second."}))

	stored, err := store.FreshEvents(ctx, "22101")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Second.", stored.Response.Summary)
}
