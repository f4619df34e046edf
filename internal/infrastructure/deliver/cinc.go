package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const cincBaseURL = "https://public.cincapi.com/v2/site"

// CINCConfig configures a CINC deliverer.
type CINCConfig struct {
	APIKey  string
	System  string
	BaseURL string

	// InsightsByMD5, when set, pins each lead's insight as a note.
	InsightsByMD5 map[string]string
}

// CINC delivers leads to the CINC CRM.
type CINC struct {
	httpClient *http.Client
	logger     logger.Logger
	config     CINCConfig
	now        func() time.Time

	maxWorkers int
}

// NewCINC creates a CINC deliverer and verifies the API credentials.
func NewCINC(ctx context.Context, config CINCConfig, log logger.Logger) (*CINC, error) {
	if log == nil {
		log = logger.Noop()
	}
	if config.BaseURL == "" {
		config.BaseURL = cincBaseURL
	}

	deliverer := &CINC{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		config:     config,
		now:        time.Now,
		maxWorkers: 5,
	}

	credentialsValid, err := deliverer.checkCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if !credentialsValid {
		return nil, &InvalidCRMCredentialsError{CRM: "CINC"}
	}

	return deliverer, nil
}

func (d *CINC) headers(req *http.Request) {
	req.Header.Set("Authorization", d.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func (d *CINC) checkCredentials(ctx context.Context) (bool, error) {
	var ok bool

	err := withRateLimit(ctx, "CINC", d.logger, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.config.BaseURL+"/me", nil)
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

func (d *CINC) leadPayload(lead leads.MD5WithPII) map[string]any {
	timestamp := d.now().UTC().Format("2006-01-02T15:04:05Z")

	contact := map[string]any{
		"first_name": lead.PII.FirstName,
		"last_name":  lead.PII.LastName,
	}

	if len(lead.PII.Emails) > 0 {
		contact["email"] = lead.PII.Emails[0]
	}

	if len(lead.PII.MobilePhones) > 0 {
		phones := map[string]any{
			"cell_phone":   nil,
			"home_phone":   nil,
			"work_phone":   nil,
			"office_phone": nil,
		}
		slots := []string{"cell_phone", "home_phone", "work_phone", "office_phone"}
		for i, phone := range lead.PII.MobilePhones {
			if i >= len(slots) {
				break
			}
			phones[slots[i]] = phone.Phone
		}
		contact["phone_numbers"] = phones
	}

	if lead.PII.Address != "" && lead.PII.City != "" && lead.PII.State != "" && lead.PII.ZipCode != "" {
		contact["mailing_address"] = map[string]string{
			"street":        lead.PII.Address,
			"city":          lead.PII.City,
			"state":         lead.PII.State,
			"postal_or_zip": lead.PII.ZipCode,
		}
	}

	var notes []map[string]any
	if len(lead.Sentences) > 0 {
		notes = append(notes, map[string]any{
			"content":      shortSentences(lead.Sentences),
			"category":     "info",
			"created_by":   d.config.System,
			"created_date": timestamp,
		})
	}
	if insight := d.config.InsightsByMD5[lead.MD5]; insight != "" {
		notes = append(notes, map[string]any{
			"content":      insight,
			"category":     "info",
			"created_by":   d.config.System,
			"created_date": timestamp,
			"is_pinned":    true,
		})
	}

	return map[string]any{
		"registered_date": timestamp,
		"info": map[string]any{
			"status":  "unworked",
			"source":  d.config.System,
			"contact": contact,
		},
		"notes": notes,
	}
}

func (d *CINC) sendLead(ctx context.Context, payload map[string]any) error {
	return withRateLimit(ctx, "CINC", d.logger, func() error {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.BaseURL+"/leads", bytes.NewReader(body))
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

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			responseBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("CINC lead returned %d: %s", resp.StatusCode, responseBody)
		}

		return nil
	})
}

func (d *CINC) warnDNC(batch []leads.MD5WithPII) {
	for _, lead := range batch {
		for _, phone := range lead.PII.MobilePhones {
			if phone.DoNotCall {
				d.logger.Warn("At least 1 lead in the CINC deliverer was on the DNC list. Validate leads before delivery.")
				return
			}
		}
	}
}

// Deliver sends every lead in the batch to CINC, concurrently with a
// bounded worker pool.
func (d *CINC) Deliver(ctx context.Context, batch []leads.MD5WithPII) error {
	d.warnDNC(batch)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.maxWorkers)

	for _, lead := range batch {
		group.Go(func() error {
			return d.sendLead(groupCtx, d.leadPayload(lead))
		})
	}

	return group.Wait()
}
