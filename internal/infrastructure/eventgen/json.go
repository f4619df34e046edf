// Package eventgen implements the local-event digest generators. Each
// generator gathers raw event information for a zip code from a different
// source and normalizes it into an events.EventsResponse.
package eventgen

import (
	"context"
	"strings"
	"time"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const generationAttempts = 2

// ExtractJSONObject returns the substring of content spanning the first "{"
// through the last "}". Model responses often wrap their JSON payload in
// prose or code fences, so everything outside the braces is discarded.
func ExtractJSONObject(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", &events.NoValidJSONError{Content: content}
	}
	return content[start : end+1], nil
}

// ExtractJSONArray returns the substring of content spanning the first "["
// through the last "]".
func ExtractJSONArray(content string) (string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return "", &events.NoValidJSONError{Content: content}
	}
	return content[start : end+1], nil
}

// retryGeneration runs fn up to attempts times, pausing briefly between
// attempts. Model output is nondeterministic, so a malformed response on one
// attempt frequently succeeds on the next.
func retryGeneration(ctx context.Context, log logger.Logger, attempts int, fn func(context.Context) (*events.EventsResponse, error)) (*events.EventsResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := fn(ctx)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if attempt < attempts {
			log.Warn("Event generation attempt ", attempt, " failed, retrying: ", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	return nil, lastErr
}
