//go:build unit
// +build unit

package deliver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

func TestWebhookDeliversOneRequestPerLead(t *testing.T) {
	var mu sync.Mutex
	var payloads []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		payloads = append(payloads, payload)
		mu.Unlock()
	}))
	defer server.Close()

	deliverer := NewWebhook(server.URL, map[string]string{"aaa": "hot lead"}, nil)

	err := deliverer.Deliver(context.Background(), []leads.MD5WithPII{
		testLead("aaa", "s1"),
		testLead("bbb", "s2"),
	})
	require.NoError(t, err)

	require.Len(t, payloads, 2)

	byMD5 := map[string]map[string]any{}
	for _, payload := range payloads {
		byMD5[payload["md5"].(string)] = payload
	}

	assert.Equal(t, "hot lead", byMD5["aaa"]["insight"])
	assert.Equal(t, "", byMD5["bbb"]["insight"])

	pii, ok := byMD5["aaa"]["pii"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", pii["first_name"])
	assert.NotEmpty(t, byMD5["aaa"]["timestamp"])
}

func TestWebhookFailsOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	deliverer := NewWebhook(server.URL, nil, nil)

	err := deliverer.Deliver(context.Background(), []leads.MD5WithPII{testLead("aaa", "s")})
	assert.Error(t, err)
}

func TestZapierDeliversBatchAsOneRequest(t *testing.T) {
	var batches [][]map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		batches = append(batches, payload)
	}))
	defer server.Close()

	deliverer := NewZapier(server.URL, "client@example.com", map[string]string{"aaa": "hot lead"}, nil)

	err := deliverer.Deliver(context.Background(), []leads.MD5WithPII{
		testLead("aaa", "s1", "s2"),
	})
	require.NoError(t, err)

	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)

	entry := batches[0][0]
	assert.Equal(t, "aaa", entry["md5"])
	assert.Equal(t, "hot lead", entry["insight"])
	assert.Equal(t, "client@example.com", entry["client_email"])
	assert.Equal(t, "s1", entry["sentence_1"])
	assert.Equal(t, "s2", entry["sentence_2"])
	assert.NotContains(t, entry, "sentences")
}
