package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const numverifyURL = "https://apilayer.net/api/validate"

// normalizePhone strips the US country code prefixes from a phone number.
// The second return is false when the result is not 10 digits.
func normalizePhone(phone string) (string, bool) {
	phone = strings.TrimPrefix(phone, "+1")
	if len(phone) == 11 && strings.HasPrefix(phone, "1") {
		phone = phone[1:]
	}
	return phone, len(phone) == 10
}

// Phone removes mobile numbers that are malformed or marked invalid by the
// Numverify API. Leads themselves are kept; only their phones change.
type Phone struct {
	httpClient *http.Client
	logger     logger.Logger
	apiKey     string
	maxThreads int
	baseURL    string
}

// NewPhone creates a Phone validator with a Numverify API key.
func NewPhone(apiKey string, log logger.Logger) *Phone {
	if log == nil {
		log = logger.Noop()
	}
	return &Phone{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		apiKey:     apiKey,
		maxThreads: 10,
		baseURL:    numverifyURL,
	}
}

func (v *Phone) Name() string { return "Phone" }

type numverifyResponse struct {
	Valid *bool `json:"valid"`
}

func (v *Phone) checkPhone(ctx context.Context, phone string) (bool, error) {
	normalized, ok := normalizePhone(phone)
	if !ok {
		return false, nil
	}

	params := url.Values{
		"access_key":   {v.apiKey},
		"number":       {normalized},
		"country_code": {"US"},
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
		return false, fmt.Errorf("numverify returned %d: %s", resp.StatusCode, body)
	}

	var response numverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return false, err
	}

	if response.Valid == nil {
		return false, fmt.Errorf("unexpected response from numverify for %s", phone)
	}

	return *response.Valid, nil
}

func (v *Phone) checkPhoneWithRetry(ctx context.Context, phone string) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= contactCheckRetries; attempt++ {
		valid, err := v.checkPhone(ctx, phone)
		if err == nil {
			return valid, nil
		}

		lastErr = err
		if attempt < contactCheckRetries {
			if err := retryBackoff(ctx); err != nil {
				return false, err
			}
		}
	}

	v.logger.Error("All phone check attempts failed for ", phone)
	return false, lastErr
}

func (v *Phone) Validate(ctx context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	var allPhones []string
	for _, lead := range batch {
		for _, phone := range lead.PII.MobilePhones {
			allPhones = append(allPhones, phone.Phone)
		}
	}

	results := make([]bool, len(allPhones))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.maxThreads)

	for i, phone := range allPhones {
		group.Go(func() error {
			ok, err := v.checkPhoneWithRetry(groupCtx, phone)
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

	valid := make(map[string]bool, len(allPhones))
	for i, phone := range allPhones {
		if results[i] {
			valid[phone] = true
		}
	}

	for i := range batch {
		kept := make([]leads.MobilePhone, 0, len(batch[i].PII.MobilePhones))
		for _, phone := range batch[i].PII.MobilePhones {
			if valid[phone.Phone] {
				kept = append(kept, phone)
			}
		}
		batch[i].PII.MobilePhones = kept
	}

	return batch, nil
}

// HasPhone removes leads without a phone number. Use after Phone so that
// remaining numbers are known valid.
type HasPhone struct{}

func (v HasPhone) Name() string { return "HasPhone" }

func (v HasPhone) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if len(lead.PII.MobilePhones) > 0 {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// DNC removes leads based on Do Not Call status. In normal mode a lead is
// removed when its primary phone is on the DNC list. In strict mode a lead
// is removed when any of its phones is on the list. Leads without phones
// are always kept.
type DNC struct {
	StrictMode bool
}

func (v DNC) Name() string { return "DNC" }

func (v DNC) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if len(lead.PII.MobilePhones) == 0 {
			kept = append(kept, lead)
			continue
		}

		if v.StrictMode {
			clean := true
			for _, phone := range lead.PII.MobilePhones {
				if phone.DoNotCall {
					clean = false
					break
				}
			}
			if clean {
				kept = append(kept, lead)
			}
			continue
		}

		if !lead.PII.MobilePhones[0].DoNotCall {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// DNCPhoneRemover strips phone numbers on the DNC list without removing
// any leads.
type DNCPhoneRemover struct{}

func (v DNCPhoneRemover) Name() string { return "DNCPhoneRemover" }

func (v DNCPhoneRemover) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	for i := range batch {
		kept := make([]leads.MobilePhone, 0, len(batch[i].PII.MobilePhones))
		for _, phone := range batch[i].PII.MobilePhones {
			if !phone.DoNotCall {
				kept = append(kept, phone)
			}
		}
		batch[i].PII.MobilePhones = kept
	}
	return batch, nil
}

// Callable removes leads without a phone or with a primary phone on the
// DNC list.
type Callable struct {
	PhoneValidator leads.Validator
	DNCValidator   leads.Validator
}

func (v Callable) Name() string { return "Callable" }

func (v Callable) Validate(ctx context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	phoneValidator := v.PhoneValidator
	if phoneValidator == nil {
		phoneValidator = HasPhone{}
	}
	dncValidator := v.DNCValidator
	if dncValidator == nil {
		dncValidator = DNC{}
	}

	batch, err := phoneValidator.Validate(ctx, batch)
	if err != nil {
		return nil, err
	}
	return dncValidator.Validate(ctx, batch)
}
