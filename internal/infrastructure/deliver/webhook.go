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

// Webhook posts each lead to a webhook URL as its own request.
type Webhook struct {
	httpClient *http.Client
	logger     logger.Logger

	URL           string
	InsightsByMD5 map[string]string

	maxWorkers int
	now        func() time.Time
}

// NewWebhook creates a webhook deliverer.
func NewWebhook(webhookURL string, insightsByMD5 map[string]string, log logger.Logger) *Webhook {
	if log == nil {
		log = logger.Noop()
	}

	return &Webhook{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        log,
		URL:           webhookURL,
		InsightsByMD5: insightsByMD5,
		maxWorkers:    5,
		now:           time.Now,
	}
}

func (d *Webhook) deliverOne(ctx context.Context, lead leads.MD5WithPII) error {
	payload, err := json.Marshal(map[string]any{
		"md5":       lead.MD5,
		"pii":       lead.PII.LeadExport(),
		"insight":   d.InsightsByMD5[lead.MD5],
		"sentences": lead.Sentences,
		"timestamp": d.now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		responseBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to deliver to webhook with status %d: %s", resp.StatusCode, responseBody)
	}

	return nil
}

// Deliver sends the batch to the webhook, one request per lead.
func (d *Webhook) Deliver(ctx context.Context, batch []leads.MD5WithPII) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.maxWorkers)

	for _, lead := range batch {
		group.Go(func() error {
			return d.deliverOne(groupCtx, lead)
		})
	}

	return group.Wait()
}
