//go:build unit
// +build unit

package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

func lead(md5 string, pii leads.PII, sentences ...string) leads.MD5WithPII {
	return leads.MD5WithPII{MD5: md5, Sentences: sentences, PII: pii}
}

func TestZipCodeKeepsMatchingLeads(t *testing.T) {
	validator := NewZipCode([]string{"22101", "22102"})

	kept, err := validator.Validate(context.Background(), []leads.MD5WithPII{
		lead("a", leads.PII{ZipCode: "22101"}, "s"),
		lead("b", leads.PII{ZipCode: "90210"}, "s"),
	})

	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].MD5)
}

func TestContactableRequiresPhoneOrEmail(t *testing.T) {
	validator := Contactable{}

	kept, err := validator.Validate(context.Background(), []leads.MD5WithPII{
		lead("a", leads.PII{Emails: []string{"a@example.com"}}, "s"),
		lead("b", leads.PII{MobilePhones: []leads.MobilePhone{{Phone: "7035551234"}}}, "s"),
		lead("c", leads.PII{}, "s"),
	})

	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].MD5)
	assert.Equal(t, "b", kept[1].MD5)
}

func TestMD5BlacklistRemovesListedLeads(t *testing.T) {
	validator := NewMD5Blacklist([]string{"bad"})

	kept, err := validator.Validate(context.Background(), []leads.MD5WithPII{
		lead("bad", leads.PII{}, "s"),
		lead("good", leads.PII{}, "s"),
	})

	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "good", kept[0].MD5)
}

func TestSamePersonMergesSentences(t *testing.T) {
	validator := SamePerson{}
	pii := leads.PII{FirstName: "Ada", LastName: "Lovelace", ZipCode: "22101"}

	kept, err := validator.Validate(context.Background(), []leads.MD5WithPII{
		lead("a", pii, "s1"),
		lead("b", pii, "s2"),
		lead("c", leads.PII{FirstName: "Grace"}, "s3"),
	})

	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].MD5)
	assert.Equal(t, []string{"s1", "s2"}, kept[0].Sentences)
}

func TestNumSentencesTotalAndUnique(t *testing.T) {
	batch := []leads.MD5WithPII{
		lead("a", leads.PII{}, "s1", "s1", "s1"),
		lead("b", leads.PII{}, "s1", "s2"),
	}

	kept, err := NumSentences{MinSentences: 3}.Validate(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].MD5)

	kept, err = NumSentences{MinSentences: 2, UseUnique: true}.Validate(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "b", kept[0].MD5)
}
