//go:build unit
// +build unit

package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/validate"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// fakeIntentClient serves a fixed MD5 bank and records how the processors
// pull from it.
type fakeIntentClient struct {
	md5s     []string
	pii      map[string]leads.PII
	job      leads.IABJob
	piiPulls [][]string
}

func (f *fakeIntentClient) CreateAndWait(_ context.Context, job leads.IABJob) (int, error) {
	f.job = job
	return 4242, nil
}

func (f *fakeIntentClient) RetrieveMD5s(_ context.Context, listQueueID int) ([]leads.IntentEvent, error) {
	if listQueueID != 4242 {
		return nil, fmt.Errorf("unknown list queue id %d", listQueueID)
	}
	intentEvents := make([]leads.IntentEvent, len(f.md5s))
	for i, md5 := range f.md5s {
		intentEvents[i] = leads.IntentEvent{MD5: md5, Sentence: "Real Estate>Sellers"}
	}
	return intentEvents, nil
}

func (f *fakeIntentClient) UniquifyMD5s(intentEvents []leads.IntentEvent) []leads.UniqueMD5 {
	seen := make(map[string]bool)
	var unique []leads.UniqueMD5
	for _, event := range intentEvents {
		if seen[event.MD5] {
			continue
		}
		seen[event.MD5] = true
		unique = append(unique, leads.NewUniqueMD5(event.MD5, []string{event.Sentence}))
	}
	return unique
}

func (f *fakeIntentClient) PIIForUniqueMD5s(_ context.Context, uniqueMD5s []leads.UniqueMD5) ([]leads.MD5WithPII, error) {
	var pulled []string
	var batch []leads.MD5WithPII
	for _, unique := range uniqueMD5s {
		pulled = append(pulled, unique.MD5)
		pii, ok := f.pii[unique.MD5]
		if !ok {
			continue
		}
		batch = append(batch, leads.MD5WithPII{MD5: unique.MD5, Sentences: unique.Sentences, PII: pii})
	}
	f.piiPulls = append(f.piiPulls, pulled)
	return batch, nil
}

func contactablePII() leads.PII {
	return leads.PII{FirstName: "Ada", LastName: "Lovelace", Emails: []string{"ada@example.com"}}
}

// dropMD5s removes specific leads, standing in for any filtering validator.
type dropMD5s map[string]bool

func (v dropMD5s) Name() string { return "DropMD5s" }

func (v dropMD5s) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	var kept []leads.MD5WithPII
	for _, lead := range batch {
		if !v[lead.MD5] {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

func TestSimpleProcessor(t *testing.T) {
	client := &fakeIntentClient{
		md5s: []string{"aaa", "bbb", "aaa", "ccc"},
		pii: map[string]leads.PII{
			"aaa": contactablePII(),
			"bbb": {FirstName: "No", LastName: "Contact"},
			"ccc": contactablePII(),
		},
	}

	processor := NewSimpleProcessor(client, logger.Noop()).
		AddDefaultValidators().
		AddValidator(dropMD5s{"ccc": true}, false)

	batch, err := processor.Process(context.Background(), leads.IABJob{IntentCategories: []string{"Real Estate>Sellers"}, NHems: 3})
	require.NoError(t, err)

	// bbb fails Contactable, ccc is dropped, duplicates collapse.
	require.Len(t, batch, 1)
	assert.Equal(t, "aaa", batch[0].MD5)
	assert.Equal(t, 3, client.job.NHems)
}

func TestFillProcessorOversamplesAndFills(t *testing.T) {
	client := &fakeIntentClient{
		md5s: []string{"aaa", "bbb", "ccc", "ddd", "eee"},
		pii: map[string]leads.PII{
			"aaa": contactablePII(),
			"ccc": contactablePII(),
			"ddd": contactablePII(),
		},
	}

	processor := NewFillProcessor(client, logger.Noop()).AddDefaultValidators()

	batch, err := processor.Process(context.Background(), leads.IABJob{IntentCategories: []string{"Real Estate>Sellers"}, NHems: 2})
	require.NoError(t, err)

	require.Len(t, batch, 2)
	assert.Equal(t, "aaa", batch[0].MD5)
	assert.Equal(t, "ccc", batch[1].MD5)

	// The intent pull is oversampled, PII is hydrated in quota-sized slices.
	assert.Equal(t, 5, client.job.NHems)
	assert.Equal(t, [][]string{{"aaa", "bbb"}, {"ccc"}}, client.piiPulls)
}

func TestFillProcessorRetriesWithoutFallback(t *testing.T) {
	client := &fakeIntentClient{
		md5s: []string{"aaa", "bbb", "ccc"},
		pii: map[string]leads.PII{
			"aaa": contactablePII(),
			"bbb": contactablePII(),
			"ccc": contactablePII(),
		},
	}

	processor := NewFillProcessor(client, logger.Noop()).
		AddValidator(dropMD5s{"bbb": true, "ccc": true}, true)

	batch, err := processor.Process(context.Background(), leads.IABJob{IntentCategories: []string{"Real Estate>Sellers"}, NHems: 3})
	require.NoError(t, err)

	// The fallback validator blocked bbb and ccc, so the retry without it
	// fills the quota while keeping aaa.
	require.Len(t, batch, 3)
	assert.Equal(t, "aaa", batch[0].MD5)
	assert.ElementsMatch(t, []string{"bbb", "ccc"}, []string{batch[1].MD5, batch[2].MD5})
}

func TestFillProcessorShortfallWithoutFallbackValidators(t *testing.T) {
	client := &fakeIntentClient{
		md5s: []string{"aaa", "bbb"},
		pii:  map[string]leads.PII{"aaa": contactablePII()},
	}

	processor := NewFillProcessor(client, logger.Noop()).AddDefaultValidators()

	batch, err := processor.Process(context.Background(), leads.IABJob{IntentCategories: []string{"Real Estate>Sellers"}, NHems: 5})
	require.NoError(t, err)
	require.Len(t, batch, 1)
}

func TestProcessorsDefaultNilLogger(t *testing.T) {
	client := &fakeIntentClient{
		md5s: []string{"aaa"},
		pii:  map[string]leads.PII{"aaa": contactablePII()},
	}
	job := leads.IABJob{IntentCategories: []string{"Real Estate>Sellers"}, NHems: 1}

	batch, err := NewSimpleProcessor(client, nil).AddDefaultValidators().Process(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	batch, err = NewFillProcessor(client, nil).AddDefaultValidators().Process(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, batch, 1)
}

func TestValidationInfo(t *testing.T) {
	processor := NewFillProcessor(&fakeIntentClient{}, logger.Noop())
	assert.Equal(t, "No validations were applied.", processor.ValidationInfo())

	processor.AddValidator(validate.Contactable{}, false).
		AddValidator(validate.HasPhone{}, true)

	info := processor.ValidationInfo()
	assert.Contains(t, info, "Required validations: Contactable.")
	assert.Contains(t, info, "Fallback validations")
	assert.Contains(t, info, "HasPhone")

	processor.ClearValidators()
	assert.Equal(t, "No validations were applied.", processor.ValidationInfo())
}
