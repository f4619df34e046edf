package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const millionVerifierURL = "https://api.millionverifier.com/api/v3"

const contactCheckRetries = 3

// retryBackoff sleeps for a random 3 to 5 seconds between contact check
// attempts, honoring context cancellation.
func retryBackoff(ctx context.Context) error {
	backoff := 3*time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

// Email removes email addresses deemed invalid by the MillionVerifier API
// (resultcode != 1). Leads themselves are kept; only their emails change.
type Email struct {
	httpClient *http.Client
	logger     logger.Logger
	apiKey     string
	maxThreads int
	baseURL    string
}

// NewEmail creates an Email validator with a MillionVerifier API key.
func NewEmail(apiKey string, log logger.Logger) *Email {
	if log == nil {
		log = logger.Noop()
	}
	return &Email{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		apiKey:     apiKey,
		maxThreads: 10,
		baseURL:    millionVerifierURL,
	}
}

func (v *Email) Name() string { return "Email" }

type millionVerifierResponse struct {
	ResultCode *int `json:"resultcode"`
}

func (v *Email) checkEmail(ctx context.Context, email string) (bool, error) {
	params := url.Values{
		"api":     {v.apiKey},
		"email":   {email},
		"timeout": {"10"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("million verifier returned %d: %s", resp.StatusCode, body)
	}

	var response millionVerifierResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return false, err
	}

	if response.ResultCode == nil {
		return false, fmt.Errorf("unexpected response from million verifier for %s", email)
	}

	return *response.ResultCode == 1, nil
}

func (v *Email) checkEmailWithRetry(ctx context.Context, email string) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= contactCheckRetries; attempt++ {
		valid, err := v.checkEmail(ctx, email)
		if err == nil {
			return valid, nil
		}

		lastErr = err
		if attempt < contactCheckRetries {
			v.logger.Warn("Email check attempt ", attempt, " failed for ", email, ", trying again")
			if err := retryBackoff(ctx); err != nil {
				return false, err
			}
		}
	}

	v.logger.Error("All email check attempts failed for ", email)
	return false, lastErr
}

func (v *Email) Validate(ctx context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	var allEmails []string
	for _, lead := range batch {
		allEmails = append(allEmails, lead.PII.Emails...)
	}

	valid := make(map[string]bool, len(allEmails))
	results := make([]bool, len(allEmails))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.maxThreads)

	for i, email := range allEmails {
		group.Go(func() error {
			ok, err := v.checkEmailWithRetry(groupCtx, email)
			if err != nil {
				return err
			}
			results[i] = ok
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	for i, email := range allEmails {
		if results[i] {
			valid[email] = true
		}
	}

	for i := range batch {
		kept := make([]string, 0, len(batch[i].PII.Emails))
		for _, email := range batch[i].PII.Emails {
			if valid[email] {
				kept = append(kept, email)
			}
		}
		batch[i].PII.Emails = kept
	}

	return batch, nil
}

// HasEmail removes leads without an email address. Use after Email so that
// remaining addresses are known valid.
type HasEmail struct{}

func (v HasEmail) Name() string { return "HasEmail" }

func (v HasEmail) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if len(lead.PII.Emails) > 0 {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}
