//go:build unit
// +build unit

package intentapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/config"
)

func testJob() leads.IABJob {
	return leads.IABJob{
		IntentCategories: []string{"Real Estate>Real Estate Buying and Selling"},
		Zips:             []string{"22101"},
		Keywords:         []string{},
		Domains:          []string{},
		NHems:            25,
	}
}

// fakePlatform is a stub of the intent data platform used by the client
// tests. It serves the token, intent and data routes from one mux.
type fakePlatform struct {
	server       *httptest.Server
	tokenCount   atomic.Int64
	statusCalls  atomic.Int64
	statusSeries []int
	pageEvents   map[int][]map[string]string
	piiData      map[string][]map[string]any
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()

	platform := &fakePlatform{
		statusSeries: []int{100},
		pageEvents: map[int][]map[string]string{
			1: {{"mD5": "abc", "sentence": "first-time home buyer"}},
		},
		piiData: map[string][]map[string]any{},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		platform.tokenCount.Add(1)
		writeJSON(w, map[string]any{"access_token": "tok", "expires_in": 3600})
	})

	mux.HandleFunc("/configData", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		writeJSON(w, map[string]any{"startDate": "2026/08/01", "endDate": "2026/08/28"})
	})

	mux.HandleFunc("/createList", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		writeJSON(w, map[string]any{"listQueueId": 4242})
	})

	mux.HandleFunc("/checkList", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		call := int(platform.statusCalls.Add(1)) - 1
		if call >= len(platform.statusSeries) {
			call = len(platform.statusSeries) - 1
		}
		writeJSON(w, map[string]any{"status": platform.statusSeries[call]})
	})

	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		var body struct {
			Page int `json:"Page"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, map[string]any{
			"totalCount": len(platform.pageEvents),
			"result":     platform.pageEvents[body.Page],
		})
	})

	mux.HandleFunc("/GetDataBy/Md5", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		writeJSON(w, map[string]any{"returnData": platform.piiData})
	})

	platform.server = httptest.NewServer(mux)
	t.Cleanup(platform.server.Close)
	return platform
}

func (p *fakePlatform) client(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(&config.IntentAPISettings{
		ClientID:            "id",
		ClientSecret:        "secret",
		AuthURL:             p.server.URL + "/token",
		IntentURL:           p.server.URL,
		DataURL:             p.server.URL,
		PollIntervalSeconds: 1,
	}, nil)
	require.NoError(t, err)
	client.pollInterval = 10 * time.Millisecond
	return client
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func requireBearer(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func TestClientTokenIsReused(t *testing.T) {
	platform := newFakePlatform(t)
	client := platform.client(t)

	_, err := client.ConfigDates(context.Background())
	require.NoError(t, err)
	_, err = client.ConfigDates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), platform.tokenCount.Load())
}

func TestClientConfigDates(t *testing.T) {
	platform := newFakePlatform(t)
	client := platform.client(t)

	configDates, err := client.ConfigDates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2026/08/01", configDates.StartDate)
	assert.Equal(t, "2026/08/28", configDates.EndDate)
}

func TestClientCreateJob(t *testing.T) {
	platform := newFakePlatform(t)
	client := platform.client(t)

	listQueueID, err := client.CreateJob(context.Background(), testJob())

	require.NoError(t, err)
	assert.Equal(t, 4242, listQueueID)
}

func TestClientCreateJobRejectsEmptyJob(t *testing.T) {
	platform := newFakePlatform(t)
	client := platform.client(t)

	_, err := client.CreateJob(context.Background(), leads.IABJob{NHems: 25})

	assert.Error(t, err)
}

func TestClientWaitUntilCompletePolls(t *testing.T) {
	platform := newFakePlatform(t)
	platform.statusSeries = []int{10, 50, 100}
	client := platform.client(t)

	err := client.WaitUntilComplete(context.Background(), 4242)

	require.NoError(t, err)
	assert.Equal(t, int64(3), platform.statusCalls.Load())
}

func TestClientWaitUntilCompleteFailedJob(t *testing.T) {
	platform := newFakePlatform(t)
	platform.statusSeries = []int{150}
	client := platform.client(t)

	err := client.WaitUntilComplete(context.Background(), 4242)

	require.Error(t, err)
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestClientRetrieveMD5sKeepsPageOrder(t *testing.T) {
	platform := newFakePlatform(t)
	platform.pageEvents = map[int][]map[string]string{
		1: {{"mD5": "aaa", "sentence": "s1"}},
		2: {{"mD5": "bbb", "sentence": "s2"}},
		3: {{"mD5": "aaa", "sentence": "s3"}},
	}
	client := platform.client(t)

	intentEvents, err := client.RetrieveMD5s(context.Background(), 4242)

	require.NoError(t, err)
	require.Len(t, intentEvents, 3)
	assert.Equal(t, "aaa", intentEvents[0].MD5)
	assert.Equal(t, "bbb", intentEvents[1].MD5)
	assert.Equal(t, "s3", intentEvents[2].Sentence)
}

func TestClientRetrieveMD5sEmptyJob(t *testing.T) {
	platform := newFakePlatform(t)
	platform.pageEvents = map[int][]map[string]string{}
	client := platform.client(t)

	intentEvents, err := client.RetrieveMD5s(context.Background(), 4242)

	require.NoError(t, err)
	assert.Empty(t, intentEvents)
}

func TestClientUniquifyMD5s(t *testing.T) {
	platform := newFakePlatform(t)
	client := platform.client(t)

	uniqueMD5s := client.UniquifyMD5s([]leads.IntentEvent{
		{MD5: "aaa", Sentence: "s1"},
		{MD5: "bbb", Sentence: "s2"},
		{MD5: "aaa", Sentence: "s3"},
	})

	require.Len(t, uniqueMD5s, 2)
	assert.Equal(t, "aaa", uniqueMD5s[0].MD5)
	assert.Equal(t, []string{"s1", "s3"}, uniqueMD5s[0].Sentences)
	assert.Equal(t, []string{"s2"}, uniqueMD5s[1].Sentences)
}

func TestClientPIIForUniqueMD5sSkipsMisses(t *testing.T) {
	platform := newFakePlatform(t)
	platform.piiData = map[string][]map[string]any{
		"aaa": {{"First_Name": "Ada", "Last_Name": "Lovelace", "Zip": "22101"}},
	}
	client := platform.client(t)

	hydrated, err := client.PIIForUniqueMD5s(context.Background(), []leads.UniqueMD5{
		{MD5: "aaa", Sentences: []string{"s1"}},
		{MD5: "missing", Sentences: []string{"s2"}},
	})

	require.NoError(t, err)
	require.Len(t, hydrated, 1)
	assert.Equal(t, "aaa", hydrated[0].MD5)
	assert.Equal(t, "Ada", hydrated[0].PII.FirstName)
}

func TestClientCheckNumbers(t *testing.T) {
	platform := newFakePlatform(t)
	platform.pageEvents = map[int][]map[string]string{
		1: {{"mD5": "aaa", "sentence": "s1"}, {"mD5": "aaa", "sentence": "s2"}},
	}
	client := platform.client(t)

	numbers, err := client.CheckNumbers(context.Background(), testJob())

	require.NoError(t, err)
	assert.Equal(t, 2, numbers["total"])
	assert.Equal(t, 1, numbers["unique"])
}
