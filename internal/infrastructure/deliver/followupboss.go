package deliver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const followUpBossBaseURL = "https://api.followupboss.com/v1"

// FollowUpBossConfig configures a FollowUpBoss deliverer.
type FollowUpBossConfig struct {
	APIKey    string
	System    string
	SystemKey string

	Tags       []string
	AddZipTags bool
	EventType  EventType
	BaseURL    string

	// InsightsByMD5, when set, attaches each lead's insight as a note.
	InsightsByMD5 map[string]string
}

// FollowUpBoss delivers leads to the FollowUpBoss CRM as events.
type FollowUpBoss struct {
	httpClient *http.Client
	logger     logger.Logger
	config     FollowUpBossConfig

	maxWorkers int
}

// NewFollowUpBoss creates a FollowUpBoss deliverer and verifies the API
// credentials and account state.
func NewFollowUpBoss(ctx context.Context, config FollowUpBossConfig, log logger.Logger) (*FollowUpBoss, error) {
	if log == nil {
		log = logger.Noop()
	}
	if config.BaseURL == "" {
		config.BaseURL = followUpBossBaseURL
	}
	if config.EventType == "" {
		config.EventType = EventRegistration
	}

	deliverer := &FollowUpBoss{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		config:     config,
		maxWorkers: 5,
	}

	credentialsValid, err := deliverer.checkEndpoint(ctx, "/identity")
	if err != nil {
		return nil, err
	}
	if !credentialsValid {
		return nil, &InvalidCRMCredentialsError{CRM: "FollowUpBoss"}
	}

	// The people route returns 403 when the account is inactive.
	accountActive, err := deliverer.checkEndpoint(ctx, "/people")
	if err != nil {
		return nil, err
	}
	if !accountActive {
		return nil, &CRMAccountInactiveError{CRM: "FollowUpBoss"}
	}

	return deliverer, nil
}

func (d *FollowUpBoss) headers(req *http.Request) {
	encoded := base64.StdEncoding.EncodeToString([]byte(d.config.APIKey + ":"))
	req.Header.Set("Authorization", "Basic "+encoded)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-System", d.config.System)
	req.Header.Set("X-System-Key", d.config.SystemKey)
}

// checkEndpoint reports whether a GET on the path succeeds, retrying
// through rate limits.
func (d *FollowUpBoss) checkEndpoint(ctx context.Context, path string) (bool, error) {
	var ok bool

	err := withRateLimit(ctx, "FollowUpBoss", d.logger, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.config.BaseURL+path, nil)
		if err != nil {
			return err
		}
		d.headers(req)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			return &rateLimitedError{retryAfter: retryAfterDelay(resp)}
		}

		ok = resp.StatusCode >= 200 && resp.StatusCode <= 299
		return nil
	})

	return ok, err
}

func (d *FollowUpBoss) warnDNC(batch []leads.MD5WithPII) {
	for _, lead := range batch {
		for _, phone := range lead.PII.MobilePhones {
			if phone.DoNotCall {
				d.logger.Warn("At least 1 lead in the FollowUpBoss deliverer was on the DNC list. Validate leads before delivery.")
				return
			}
		}
	}
}

func (d *FollowUpBoss) eventPayload(lead leads.MD5WithPII) map[string]any {
	person := map[string]any{}

	if lead.PII.FirstName != "" {
		person["firstName"] = lead.PII.FirstName
	}
	if lead.PII.LastName != "" {
		person["lastName"] = lead.PII.LastName
	}

	if len(lead.PII.Emails) > 0 {
		emails := make([]map[string]string, 0, len(lead.PII.Emails))
		for _, email := range lead.PII.Emails {
			emails = append(emails, map[string]string{"value": email})
		}
		person["emails"] = emails
	}

	if len(lead.PII.MobilePhones) > 0 {
		phones := make([]map[string]string, 0, len(lead.PII.MobilePhones))
		for _, phone := range lead.PII.MobilePhones {
			phones = append(phones, map[string]string{"value": phone.Phone})
		}
		person["phones"] = phones
	}

	if lead.PII.Address != "" && lead.PII.City != "" && lead.PII.State != "" && lead.PII.ZipCode != "" {
		person["addresses"] = []map[string]string{{
			"type":   "home",
			"street": lead.PII.Address,
			"city":   lead.PII.City,
			"state":  lead.PII.State,
			"code":   lead.PII.ZipCode,
		}}
	}

	tags := append([]string{}, d.config.Tags...)
	if d.config.AddZipTags && lead.PII.ZipCode != "" {
		tags = append(tags, lead.PII.ZipCode)
	}
	person["tags"] = tags

	return map[string]any{
		"source":      d.config.System,
		"system":      d.config.System,
		"description": fmt.Sprintf("Intents: %s.", shortSentences(lead.Sentences)),
		"type":        string(d.config.EventType),
		"person":      person,
	}
}

// sendEvent posts one event. A 204 means the lead flow for the source was
// archived, which FollowUpBoss treats as an ignore rather than an error.
func (d *FollowUpBoss) sendEvent(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var result map[string]any

	err := withRateLimit(ctx, "FollowUpBoss", d.logger, func() error {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.BaseURL+"/events", bytes.NewReader(body))
		if err != nil {
			return err
		}
		d.headers(req)

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			return &rateLimitedError{retryAfter: retryAfterDelay(resp)}
		}

		if resp.StatusCode == http.StatusNoContent {
			d.logger.Debug("Lead flow associated with this source has been archived and ignored.")
			result = map[string]any{"status": "ignored"}
			return nil
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			responseBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("FollowUpBoss event returned %d: %s", resp.StatusCode, responseBody)
		}

		return json.NewDecoder(resp.Body).Decode(&result)
	})

	return result, err
}

// addNote attaches a note to a person, retrying once when the contact has
// not propagated yet.
func (d *FollowUpBoss) addNote(ctx context.Context, personID int, body, subject string) error {
	attempt := func() (retryable bool, err error) {
		noteErr := withRateLimit(ctx, "FollowUpBoss", d.logger, func() error {
			payload, err := json.Marshal(map[string]any{
				"personId": personID,
				"body":     body,
				"subject":  subject,
			})
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.BaseURL+"/notes", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			d.headers(req)

			resp, err := d.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode == http.StatusTooManyRequests {
				return &rateLimitedError{retryAfter: retryAfterDelay(resp)}
			}

			if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
				return nil
			}

			responseBody, _ := io.ReadAll(resp.Body)
			if strings.Contains(strings.ToLower(string(responseBody)), "contact not found") {
				retryable = true
			}
			return fmt.Errorf("failed to add note to person %d: %s", personID, responseBody)
		})

		return retryable, noteErr
	}

	retryable, err := attempt()
	if err == nil {
		return nil
	}

	if retryable {
		d.logger.Warn("Contact not found for person ", personID, ". Trying again.")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5*time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))):
		}
		_, err = attempt()
	}

	return err
}

func (d *FollowUpBoss) deliverOne(ctx context.Context, lead leads.MD5WithPII) error {
	response, err := d.sendEvent(ctx, d.eventPayload(lead))
	if err != nil {
		return err
	}

	insight := d.config.InsightsByMD5[lead.MD5]
	if insight == "" {
		return nil
	}

	personID, ok := eventPersonID(response)
	if !ok {
		return nil
	}

	if err := d.addNote(ctx, personID, insight, "Real Intent Insight"); err != nil {
		d.logger.Error("Failed to add insight note for ", lead.MD5, ": ", err)
	}
	return nil
}

// Deliver sends every lead in the batch to FollowUpBoss as an event, with
// the insight attached as a note when available. Leads are delivered
// concurrently with a bounded worker pool.
func (d *FollowUpBoss) Deliver(ctx context.Context, batch []leads.MD5WithPII) error {
	d.warnDNC(batch)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.maxWorkers)

	for _, lead := range batch {
		group.Go(func() error {
			return d.deliverOne(groupCtx, lead)
		})
	}

	return group.Wait()
}

// eventPersonID digs the person id out of an event creation response.
func eventPersonID(response map[string]any) (int, bool) {
	person, ok := response["person"].(map[string]any)
	if !ok {
		return 0, false
	}
	id, ok := person["id"].(float64)
	if !ok {
		return 0, false
	}
	return int(id), true
}
