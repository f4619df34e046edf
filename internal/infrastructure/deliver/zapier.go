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

// Zapier posts a whole batch to a Zapier webhook as one request, with
// sentences flattened into numbered attributes.
type Zapier struct {
	httpClient *http.Client
	logger     logger.Logger

	URL           string
	ClientEmail   string
	InsightsByMD5 map[string]string
}

// NewZapier creates a Zapier deliverer.
func NewZapier(webhookURL, clientEmail string, insightsByMD5 map[string]string, log logger.Logger) *Zapier {
	if log == nil {
		log = logger.Noop()
	}

	return &Zapier{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        log,
		URL:           webhookURL,
		ClientEmail:   clientEmail,
		InsightsByMD5: insightsByMD5,
	}
}

func (d *Zapier) format(batch []leads.MD5WithPII) []map[string]any {
	formatted := make([]map[string]any, 0, len(batch))

	for _, lead := range batch {
		entry := map[string]any{
			"md5":          lead.MD5,
			"pii":          lead.PII.LeadExport(),
			"insight":      d.InsightsByMD5[lead.MD5],
			"client_email": d.ClientEmail,
		}
		for pos, sentence := range lead.Sentences {
			entry[fmt.Sprintf("sentence_%d", pos+1)] = sentence
		}
		formatted = append(formatted, entry)
	}

	return formatted
}

// Deliver posts the formatted batch to the Zapier webhook.
func (d *Zapier) Deliver(ctx context.Context, batch []leads.MD5WithPII) error {
	payload, err := json.Marshal(d.format(batch))
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
		return fmt.Errorf("failed to deliver to Zapier webhook with status %d: %s", resp.StatusCode, responseBody)
	}

	return nil
}
