package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

const (
	filloutBaseURL  = "https://api.fillout.com/v1/api"
	filloutPageSize = 150
)

// FilloutDNS removes leads with an email on the Do Not Sell blacklist,
// pulled from submissions to a Fillout form. The blacklist is fetched on
// construction and cached for the validator's lifetime.
type FilloutDNS struct {
	httpClient *http.Client
	apiKey     string
	formID     string
	questionID string
	baseURL    string

	blacklist map[string]struct{}
}

// NewFilloutDNS creates a FilloutDNS validator and pulls the blacklist.
func NewFilloutDNS(ctx context.Context, apiKey, formID, questionID string) (*FilloutDNS, error) {
	validator := &FilloutDNS{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		formID:     formID,
		questionID: questionID,
		baseURL:    filloutBaseURL,
	}

	if err := validator.RefreshBlacklist(ctx); err != nil {
		return nil, err
	}

	return validator, nil
}

func (v *FilloutDNS) Name() string { return "FilloutDNS" }

type filloutQuestion struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type filloutSubmission struct {
	Questions []filloutQuestion `json:"questions"`
}

type filloutSubmissionsResponse struct {
	Responses []filloutSubmission `json:"responses"`
}

func (v *FilloutDNS) fetchPage(ctx context.Context, offset int) ([]filloutSubmission, error) {
	requestURL := fmt.Sprintf(
		"%s/forms/%s/submissions?limit=%d&offset=%d",
		v.baseURL, v.formID, filloutPageSize, offset,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fillout returned %d: %s", resp.StatusCode, body)
	}

	var response filloutSubmissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	return response.Responses, nil
}

// RefreshBlacklist re-pulls every submission from the Fillout form and
// rebuilds the email blacklist.
func (v *FilloutDNS) RefreshBlacklist(ctx context.Context) error {
	blacklist := make(map[string]struct{})

	for offset := 0; ; offset += filloutPageSize {
		submissions, err := v.fetchPage(ctx, offset)
		if err != nil {
			return err
		}

		for _, submission := range submissions {
			email, err := v.emailFromSubmission(submission)
			if err != nil {
				return err
			}
			blacklist[email] = struct{}{}
		}

		if len(submissions) < filloutPageSize {
			break
		}
	}

	v.blacklist = blacklist
	return nil
}

func (v *FilloutDNS) emailFromSubmission(submission filloutSubmission) (string, error) {
	if len(submission.Questions) == 0 {
		return "", fmt.Errorf("no questions found in submission")
	}

	for _, question := range submission.Questions {
		if question.ID == v.questionID {
			return fmt.Sprint(question.Value), nil
		}
	}

	return "", fmt.Errorf("no email question found in submission")
}

func (v *FilloutDNS) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))

	for _, lead := range batch {
		blocked := false
		for _, email := range lead.PII.Emails {
			if _, onList := v.blacklist[email]; onList {
				blocked = true
				break
			}
		}
		if !blocked {
			kept = append(kept, lead)
		}
	}

	return kept, nil
}
