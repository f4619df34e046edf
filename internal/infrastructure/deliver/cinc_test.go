//go:build unit
// +build unit

package deliver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

func newCINCServer(t *testing.T, received *[]map[string]any) *httptest.Server {
	t.Helper()

	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key", r.Header.Get("Authorization"))
	})
	mux.HandleFunc("/leads", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		*received = append(*received, payload)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "lead-1"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCINCDeliversLeadWithNotes(t *testing.T) {
	var received []map[string]any
	server := newCINCServer(t, &received)

	deliverer, err := NewCINC(context.Background(), CINCConfig{
		APIKey:        "key",
		System:        "Real Intent",
		BaseURL:       server.URL,
		InsightsByMD5: map[string]string{"aaa": "motivated seller"},
	}, nil)
	require.NoError(t, err)

	err = deliverer.Deliver(context.Background(), []leads.MD5WithPII{
		testLead("aaa", "Real Estate>Sellers"),
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	payload := received[0]

	info, ok := payload["info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unworked", info["status"])
	assert.Equal(t, "Real Intent", info["source"])

	contact, ok := info["contact"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", contact["first_name"])
	assert.Equal(t, "ada@example.com", contact["email"])

	phones, ok := contact["phone_numbers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "7035551234", phones["cell_phone"])
	assert.Nil(t, phones["home_phone"])

	notes, ok := payload["notes"].([]any)
	require.True(t, ok)
	require.Len(t, notes, 2)
	insightNote := notes[1].(map[string]any)
	assert.Equal(t, "motivated seller", insightNote["content"])
	assert.Equal(t, true, insightNote["is_pinned"])
}

func TestCINCDeliversBatchConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/leads", func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "lead-1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	deliverer, err := NewCINC(context.Background(), CINCConfig{
		APIKey:  "key",
		System:  "Real Intent",
		BaseURL: server.URL,
	}, nil)
	require.NoError(t, err)

	err = deliverer.Deliver(context.Background(), []leads.MD5WithPII{
		testLead("aaa", "s"),
		testLead("bbb", "s"),
		testLead("ccc", "s"),
		testLead("ddd", "s"),
	})
	require.NoError(t, err)

	assert.Greater(t, peak.Load(), int64(1))
}

func TestCINCRejectsBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewCINC(context.Background(), CINCConfig{APIKey: "bad", BaseURL: server.URL}, nil)

	var credErr *InvalidCRMCredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "CINC", credErr.CRM)
}
