package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const postmarkEmailURL = "https://api.postmarkapp.com/email"

// KVCoreConfig configures a kvCORE deliverer.
type KVCoreConfig struct {
	PostmarkServerToken string
	FromEmail           string

	// InboxingAddress is the email address kvCORE uses to import leads.
	InboxingAddress string

	// Tag is the hashtag kvCORE applies to imported leads.
	Tag string

	PostmarkURL string
}

// KVCore delivers leads to kvCORE. It does not use an API; each lead is
// emailed to the account's inboxing address via Postmark.
type KVCore struct {
	httpClient *http.Client
	logger     logger.Logger
	config     KVCoreConfig
}

// NewKVCore creates a kvCORE deliverer.
func NewKVCore(config KVCoreConfig, log logger.Logger) *KVCore {
	if log == nil {
		log = logger.Noop()
	}
	if config.PostmarkURL == "" {
		config.PostmarkURL = postmarkEmailURL
	}

	return &KVCore{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		config:     config,
	}
}

// emailBody renders one lead into the inboxing format. First name, last
// name and an email are required; the rest is optional.
func (d *KVCore) emailBody(lead leads.MD5WithPII) (string, error) {
	if lead.PII.FirstName == "" || lead.PII.LastName == "" || len(lead.PII.Emails) == 0 {
		return "", fmt.Errorf("missing required PII for kvCORE: first name, last name, or email for %s", lead.MD5)
	}

	body := fmt.Sprintf(
		"First Name: %s\nLast Name: %s\nEmail: %s",
		lead.PII.FirstName, lead.PII.LastName, lead.PII.Emails[0],
	)

	if len(lead.PII.MobilePhones) > 0 {
		if lead.PII.MobilePhones[0].DoNotCall {
			d.logger.Warn("Importing a DNC phone number into kvCORE.")
		}
		body += "\nPhone: " + lead.PII.MobilePhones[0].Phone
	}

	if lead.PII.ZipCode != "" {
		body += "\nZipcode: " + lead.PII.ZipCode
	}

	if d.config.Tag != "" {
		body += "\nHashtag: " + d.config.Tag
	}

	return body, nil
}

func (d *KVCore) deliverOne(ctx context.Context, lead leads.MD5WithPII) error {
	emailBody, err := d.emailBody(lead)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"From":     d.config.FromEmail,
		"To":       d.config.InboxingAddress,
		"Subject":  "Add Contact",
		"TextBody": emailBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.PostmarkURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", d.config.PostmarkServerToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		responseBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send email to kvCORE with status %d: %s", resp.StatusCode, responseBody)
	}

	return nil
}

// Deliver emails every lead in the batch into kvCORE.
func (d *KVCore) Deliver(ctx context.Context, batch []leads.MD5WithPII) error {
	for _, lead := range batch {
		if err := d.deliverOne(ctx, lead); err != nil {
			return err
		}
	}
	return nil
}
