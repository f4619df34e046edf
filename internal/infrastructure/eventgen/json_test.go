//go:build unit
// +build unit

package eventgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

func TestExtractJSONObject(t *testing.T) {
	raw, err := ExtractJSONObject("Sure, here you go:\n```json\n{\"summary\": \"hi\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"summary": "hi"}`, raw)
}

func TestExtractJSONObjectNoJSON(t *testing.T) {
	_, err := ExtractJSONObject("sorry, I cannot help with that")

	var jsonErr *events.NoValidJSONError
	require.ErrorAs(t, err, &jsonErr)
}

func TestExtractJSONArray(t *testing.T) {
	raw, err := ExtractJSONArray("The events are: [{\"title\": \"Fair\"}] as requested")
	require.NoError(t, err)
	assert.Equal(t, `[{"title": "Fair"}]`, raw)
}

func TestExtractJSONArrayNoJSON(t *testing.T) {
	_, err := ExtractJSONArray("] nothing opens here")

	var jsonErr *events.NoValidJSONError
	require.ErrorAs(t, err, &jsonErr)
}

func TestRetryGenerationRecovers(t *testing.T) {
	calls := 0
	response, err := retryGeneration(context.Background(), logger.Noop(), 2, func(context.Context) (*events.EventsResponse, error) {
		calls++
		if calls == 1 {
			return nil, &events.NoValidJSONError{Content: "garbage"}
		}
		return &events.EventsResponse{Summary: "ok"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "ok", response.Summary)
}

func TestRetryGenerationExhausted(t *testing.T) {
	wantErr := errors.New("model unavailable")
	_, err := retryGeneration(context.Background(), logger.Noop(), 2, func(context.Context) (*events.EventsResponse, error) {
		return nil, wantErr
	})

	require.ErrorIs(t, err, wantErr)
}
