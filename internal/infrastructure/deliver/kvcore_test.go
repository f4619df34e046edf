//go:build unit
// +build unit

package deliver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

func TestKVCoreEmailsLeadIntoInbox(t *testing.T) {
	var received []map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token", r.Header.Get("X-Postmark-Server-Token"))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received = append(received, payload)
	}))
	defer server.Close()

	deliverer := NewKVCore(KVCoreConfig{
		PostmarkServerToken: "token",
		FromEmail:           "sender@example.com",
		InboxingAddress:     "inbox@kvcore.com",
		Tag:                 "realintent",
		PostmarkURL:         server.URL,
	}, nil)

	err := deliverer.Deliver(context.Background(), []leads.MD5WithPII{testLead("aaa", "s")})
	require.NoError(t, err)

	require.Len(t, received, 1)
	email := received[0]
	assert.Equal(t, "sender@example.com", email["From"])
	assert.Equal(t, "inbox@kvcore.com", email["To"])
	assert.Equal(t, "Add Contact", email["Subject"])
	assert.Equal(
		t,
		"First Name: Ada\nLast Name: Lovelace\nEmail: ada@example.com\nPhone: 7035551234\nZipcode: 22101\nHashtag: realintent",
		email["TextBody"],
	)
}

func TestKVCoreRequiresNameAndEmail(t *testing.T) {
	deliverer := NewKVCore(KVCoreConfig{PostmarkURL: "http://unused.invalid"}, nil)

	err := deliverer.Deliver(context.Background(), []leads.MD5WithPII{
		{MD5: "aaa", Sentences: []string{"s"}, PII: leads.PII{FirstName: "Ada"}},
	})

	assert.Error(t, err)
}
