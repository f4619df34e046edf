// Package intentapi implements the client for the BigDBM intent data
// platform: OAuth2 token handling, intent job lifecycle, and PII hydration.
package intentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/config"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// JobStatusDone is the checkList status of a finished job. Anything above
// it signals a failed job.
const JobStatusDone = 100

// Defaults applied when the settings leave them unset.
const (
	defaultPollInterval = 3 * time.Second
	defaultPageWorkers  = 30
	defaultOutputID     = 10008
)

// tokenSlack is subtracted from the token lifetime so a token is refreshed
// slightly before the server expires it.
const tokenSlack = 10 * time.Second

// APIError is returned when the intent platform reports a failure.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the intent data platform. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logger.Logger

	clientID     string
	clientSecret string
	authURL      string
	intentURL    string
	dataURL      string

	pollInterval time.Duration
	pageWorkers  int

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new intent API client from the settings.
func NewClient(settings *config.IntentAPISettings, log logger.Logger) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	if log == nil {
		log = logger.Noop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if settings.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RateLimit), 1)
	}

	pollInterval := defaultPollInterval
	if settings.PollIntervalSeconds > 0 {
		pollInterval = time.Duration(settings.PollIntervalSeconds) * time.Second
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		limiter:      limiter,
		logger:       log,
		clientID:     settings.ClientID,
		clientSecret: settings.ClientSecret,
		authURL:      settings.AuthURL,
		intentURL:    settings.IntentURL,
		dataURL:      settings.DataURL,
		pollInterval: pollInterval,
		pageWorkers:  defaultPageWorkers,
	}

	if client.authURL == "" {
		client.authURL = config.DefaultAuthURL
	}
	if client.intentURL == "" {
		client.intentURL = config.DefaultIntentURL
	}
	if client.dataURL == "" {
		client.dataURL = config.DefaultDataURL
	}

	return client, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a valid access token, refreshing it when missing or expired.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{Message: fmt.Sprintf("token request returned %d: %s", resp.StatusCode, body)}
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenSlack)
	c.logger.Debug("Updated access token")

	return c.accessToken, nil
}

// request performs an authenticated JSON request. A failed attempt is
// retried once after a 10 second pause.
func (c *Client) request(ctx context.Context, method, requestURL string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	attempt := func() error {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to marshal request body: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			responseBody, _ := io.ReadAll(resp.Body)
			return &APIError{Message: fmt.Sprintf("%s %s returned %d: %s", method, requestURL, resp.StatusCode, responseBody)}
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		return nil
	}

	err := attempt()
	if err == nil {
		return nil
	}

	c.logger.Warn("Request failed, waiting 10 seconds and trying again: ", err)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
	}

	if err := attempt(); err != nil {
		c.logger.Error("Request failed again: ", err)
		return err
	}

	return nil
}

type configResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ConfigDates gets the configuration dates from the config route.
func (c *Client) ConfigDates(ctx context.Context) (leads.ConfigDates, error) {
	var response configResponse
	if err := c.request(ctx, http.MethodGet, c.intentURL+"/configData", nil, &response); err != nil {
		return leads.ConfigDates{}, err
	}

	return leads.ConfigDates{StartDate: response.StartDate, EndDate: response.EndDate}, nil
}

type createListResponse struct {
	ListQueueID json.Number `json:"listQueueId"`
}

// CreateJob creates an intent job and returns its list queue id. It does
// not wait for the job to finish.
func (c *Client) CreateJob(ctx context.Context, job leads.IABJob) (int, error) {
	if err := job.Validate(); err != nil {
		return 0, err
	}

	configDates, err := c.ConfigDates(ctx)
	if err != nil {
		return 0, err
	}

	payload := job.Payload()
	payload["StartDate"] = configDates.StartDate
	payload["EndDate"] = configDates.EndDate

	var response createListResponse
	if err := c.request(ctx, http.MethodPost, c.intentURL+"/createList", payload, &response); err != nil {
		return 0, err
	}

	listQueueID, err := parseNumber(response.ListQueueID)
	if err != nil {
		return 0, fmt.Errorf("unexpected listQueueId: %w", err)
	}

	c.logger.Debug("Created intent job with listQueueId ", listQueueID)
	return listQueueID, nil
}

type checkListResponse struct {
	Status json.Number `json:"status"`
}

// JobStatus gets the processing status of a list.
func (c *Client) JobStatus(ctx context.Context, listQueueID int) (int, error) {
	requestURL := fmt.Sprintf("%s/checkList?listQueueId=%d", c.intentURL, listQueueID)

	var response checkListResponse
	if err := c.request(ctx, http.MethodGet, requestURL, nil, &response); err != nil {
		return 0, err
	}

	status, err := parseNumber(response.Status)
	if err != nil {
		return 0, fmt.Errorf("unexpected status: %w", err)
	}

	return status, nil
}

// WaitUntilComplete polls until the job has finished processing.
func (c *Client) WaitUntilComplete(ctx context.Context, listQueueID int) error {
	for {
		status, err := c.JobStatus(ctx, listQueueID)
		if err != nil {
			return err
		}

		if status == JobStatusDone {
			return nil
		}
		if status > JobStatusDone {
			return &APIError{Message: fmt.Sprintf("list %d had an error (status %d)", listQueueID, status)}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// CreateAndWait creates an intent job and waits until it has processed.
func (c *Client) CreateAndWait(ctx context.Context, job leads.IABJob) (int, error) {
	listQueueID, err := c.CreateJob(ctx, job)
	if err != nil {
		return 0, err
	}

	if err := c.WaitUntilComplete(ctx, listQueueID); err != nil {
		return 0, err
	}

	return listQueueID, nil
}

type resultObject struct {
	MD5      string `json:"mD5"`
	Sentence string `json:"sentence"`
}

type resultResponse struct {
	TotalCount int            `json:"totalCount"`
	Result     []resultObject `json:"result"`
}

func (c *Client) fetchResultPage(ctx context.Context, listQueueID, page int) (resultResponse, error) {
	payload := map[string]any{"ListQueueId": listQueueID, "Page": page}

	var response resultResponse
	if err := c.request(ctx, http.MethodPost, c.intentURL+"/result", payload, &response); err != nil {
		return resultResponse{}, err
	}

	return response, nil
}

func extractIntentEvents(response resultResponse) []leads.IntentEvent {
	intentEvents := make([]leads.IntentEvent, 0, len(response.Result))
	for _, obj := range response.Result {
		intentEvents = append(intentEvents, leads.IntentEvent{MD5: obj.MD5, Sentence: obj.Sentence})
	}
	return intentEvents
}

// RetrieveMD5s pulls every intent event from a finished job. The first page
// reveals the page count; remaining pages are fetched concurrently with a
// bounded worker pool, and the result keeps page order.
func (c *Client) RetrieveMD5s(ctx context.Context, listQueueID int) ([]leads.IntentEvent, error) {
	first, err := c.fetchResultPage(ctx, listQueueID, 1)
	if err != nil {
		return nil, err
	}

	pageCount := first.TotalCount
	c.logger.Debug("Retrieved page 1 of ", pageCount, " pages")

	// The first page's events are kept regardless of the reported page
	// count; a job with no intent data reports totalCount 0.
	intentEvents := extractIntentEvents(first)
	if pageCount <= 1 {
		c.logger.Debug("Retrieved all ", len(intentEvents), " intent events")
		return intentEvents, nil
	}

	pages := make([][]leads.IntentEvent, pageCount+1)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.pageWorkers)

	for page := 2; page <= pageCount; page++ {
		group.Go(func() error {
			response, err := c.fetchResultPage(groupCtx, listQueueID, page)
			if err != nil {
				return err
			}
			pages[page] = extractIntentEvents(response)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	for page := 2; page <= pageCount; page++ {
		intentEvents = append(intentEvents, pages[page]...)
	}

	c.logger.Debug("Retrieved all ", len(intentEvents), " intent events")
	return intentEvents, nil
}

// UniquifyMD5s collapses raw intent events into unique MD5s, each carrying
// all of its sentences.
func (c *Client) UniquifyMD5s(intentEvents []leads.IntentEvent) []leads.UniqueMD5 {
	order := make([]string, 0, len(intentEvents))
	sentences := make(map[string][]string, len(intentEvents))

	for _, event := range intentEvents {
		if _, ok := sentences[event.MD5]; !ok {
			order = append(order, event.MD5)
		}
		sentences[event.MD5] = append(sentences[event.MD5], event.Sentence)
	}

	uniqueMD5s := make([]leads.UniqueMD5, 0, len(order))
	for _, md5 := range order {
		uniqueMD5s = append(uniqueMD5s, leads.NewUniqueMD5(md5, sentences[md5]))
	}

	c.logger.Debug("Uniquified ", len(uniqueMD5s), " MD5s")
	return uniqueMD5s
}

type piiResponse struct {
	ReturnData map[string][]map[string]any `json:"returnData"`
}

// PIIForUniqueMD5s pulls PII for a list of unique MD5s. The result is
// usually shorter than the input since the PII hit rate is below 1.00.
func (c *Client) PIIForUniqueMD5s(ctx context.Context, uniqueMD5s []leads.UniqueMD5) ([]leads.MD5WithPII, error) {
	md5List := make([]string, 0, len(uniqueMD5s))
	for _, md5 := range uniqueMD5s {
		md5List = append(md5List, md5.MD5)
	}

	payload := map[string]any{
		"RequestId":  uuid.New().String(),
		"ObjectList": md5List,
		"OutputId":   defaultOutputID,
	}

	var response piiResponse
	if err := c.request(ctx, http.MethodPost, c.dataURL+"/GetDataBy/Md5", payload, &response); err != nil {
		return nil, err
	}

	hydrated := make([]leads.MD5WithPII, 0, len(uniqueMD5s))
	for _, md5 := range uniqueMD5s {
		objects, ok := response.ReturnData[md5.MD5]
		if !ok || len(objects) == 0 {
			continue
		}

		hydrated = append(hydrated, leads.MD5WithPII{
			MD5:       md5.MD5,
			Sentences: md5.Sentences,
			PII:       leads.PIIFromAPI(objects[0]),
		})
	}

	if len(uniqueMD5s) > 0 {
		c.logger.Debug(fmt.Sprintf(
			"Retrieved %d PII for %d initial MD5s, hit rate: %.2f",
			len(hydrated), len(uniqueMD5s), float64(len(hydrated))/float64(len(uniqueMD5s)),
		))
	}

	return hydrated, nil
}

// CheckNumbers reports the availability of intent data for a job as total
// and unique event counts. Availability caps at the job's hem count.
func (c *Client) CheckNumbers(ctx context.Context, job leads.IABJob) (map[string]int, error) {
	listQueueID, err := c.CreateAndWait(ctx, job)
	if err != nil {
		return nil, err
	}

	intentEvents, err := c.RetrieveMD5s(ctx, listQueueID)
	if err != nil {
		return nil, err
	}

	uniqueMD5s := c.UniquifyMD5s(intentEvents)

	c.logger.Info("Checked numbers. Total: ", len(intentEvents), ", Unique: ", len(uniqueMD5s))
	return map[string]int{
		"total":  len(intentEvents),
		"unique": len(uniqueMD5s),
	}, nil
}

func parseNumber(n json.Number) (int, error) {
	value, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return int(value), nil
}
