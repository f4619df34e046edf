// Package deliver implements lead output channels: CSV formatting, CRM
// integrations and generic webhooks.
package deliver

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// EventType classifies the CRM event created for a delivered lead.
type EventType string

const (
	EventRegistration        EventType = "Registration"
	EventInquiry             EventType = "Inquiry"
	EventSellerInquiry       EventType = "Seller Inquiry"
	EventPropertyInquiry     EventType = "Property Inquiry"
	EventGeneralInquiry      EventType = "General Inquiry"
	EventViewedProperty      EventType = "Viewed Property"
	EventSavedProperty       EventType = "Saved Property"
	EventVisitedWebsite      EventType = "Visited Website"
	EventIncomingCall        EventType = "Incoming Call"
	EventUnsubscribed        EventType = "Unsubscribed"
	EventPropertySearch      EventType = "Property Search"
	EventSavedPropertySearch EventType = "Saved Property Search"
	EventVisitedOpenHouse    EventType = "Visited Open House"
	EventViewedPage          EventType = "Viewed Page"
)

// InvalidCRMCredentialsError is returned when a CRM rejects the configured
// API credentials.
type InvalidCRMCredentialsError struct {
	CRM string
}

func (e *InvalidCRMCredentialsError) Error() string {
	return fmt.Sprintf("invalid API credentials provided for %s", e.CRM)
}

// CRMAccountInactiveError is returned when the CRM account exists but is
// not active.
type CRMAccountInactiveError struct {
	CRM string
}

func (e *CRMAccountInactiveError) Error() string {
	return fmt.Sprintf("%s account is inactive", e.CRM)
}

const rateLimitRetries = 10

// rateLimitedError marks a 429 response so the retry helper can honor the
// Retry-After header.
type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.retryAfter)
}

// retryAfterDelay reads the Retry-After header, defaulting to 10 seconds.
func retryAfterDelay(resp *http.Response) time.Duration {
	retryAfter := 10
	if header := resp.Header.Get("Retry-After"); header != "" {
		if parsed, err := strconv.Atoi(header); err == nil {
			retryAfter = parsed
		}
	}
	return time.Duration(retryAfter) * time.Second
}

// withRateLimit runs fn, retrying up to rateLimitRetries times whenever it
// reports a 429. Other errors pass through untouched.
func withRateLimit(ctx context.Context, crm string, log logger.Logger, fn func() error) error {
	for attempt := 0; attempt < rateLimitRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		rateErr, ok := err.(*rateLimitedError)
		if !ok {
			return err
		}

		// Small jitter on top of Retry-After keeps concurrent workers apart.
		delay := rateErr.retryAfter + 500*time.Millisecond + time.Duration(rand.Int63n(int64(500*time.Millisecond)))
		log.Warn("Rate limit hit for ", crm, ". Trying again in ", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("max retries (%d) exceeded due to rate limiting for %s", rateLimitRetries, crm)
}

// shortSentences reduces taxonomy paths to their last segment and joins
// them for display.
func shortSentences(sentences []string) string {
	short := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		if idx := strings.LastIndex(sentence, ">"); idx >= 0 {
			sentence = sentence[idx+1:]
		}
		short = append(short, sentence)
	}
	return strings.Join(short, ", ")
}
