//go:build unit
// +build unit

package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIABJobValidate(t *testing.T) {
	job := IABJob{
		IntentCategories: []string{"Real Estate"},
		Zips:             []string{"22101"},
		NHems:            25,
	}
	require.NoError(t, job.Validate())

	noTarget := IABJob{Zips: []string{"22101"}, NHems: 25}
	assert.Error(t, noTarget.Validate())

	noHems := IABJob{IntentCategories: []string{"Real Estate"}}
	assert.Error(t, noHems.Validate())
}

func TestIABJobPayload(t *testing.T) {
	job := IABJob{
		IntentCategories: []string{"Real Estate", "Home & Garden"},
		Zips:             []string{"22101", "22102"},
		Keywords:         []string{"moving"},
		NHems:            100,
	}

	payload := job.Payload()
	assert.Equal(t, "Real Estate,Home & Garden", payload["IABs"])
	assert.Equal(t, "22101,22102", payload["Zips"])
	assert.Equal(t, "moving", payload["Keywords"])
	assert.Equal(t, "", payload["Domains"])
	assert.Equal(t, 100, payload["NumberOfHems"])
}

func TestNewUniqueMD5DeduplicatesAndTranslatesCodes(t *testing.T) {
	unique := NewUniqueMD5("abc", []string{"1", "moving soon", "moving soon", "1"})

	assert.Equal(t, "abc", unique.MD5)
	assert.Equal(t, []string{"Automotive", "moving soon"}, unique.Sentences)
}

func TestPIIFromAPI(t *testing.T) {
	pii := PIIFromAPI(map[string]any{
		"First_Name":         "Ada",
		"Last_Name":          "Lovelace",
		"Zip":                "22101",
		"Age":                "47",
		"Latitude":           "38.93",
		"Gender":             "F",
		"HeadOfHousehold":    "1",
		"Email_Array":        []any{"ada@example.com", ""},
		"Mobile_Phone_1":     "7035551234",
		"Mobile_Phone_1_DNC": "1",
		"Mobile_Phone_2":     "7035555678",
		"Pet_Owner":          "1",
	})

	assert.Equal(t, "Ada", pii.FirstName)
	assert.Equal(t, "22101", pii.ZipCode)
	assert.Equal(t, 47, pii.Age)
	assert.InDelta(t, 38.93, pii.Latitude, 0.001)
	assert.Equal(t, GenderFemale, pii.Gender)
	assert.True(t, pii.HeadOfHousehold)
	assert.Equal(t, []string{"ada@example.com"}, pii.Emails)
	require.Len(t, pii.MobilePhones, 2)
	assert.True(t, pii.MobilePhones[0].DoNotCall)
	assert.False(t, pii.MobilePhones[1].DoNotCall)
	assert.True(t, pii.PetOwner)
}

func TestPIIFromAPIToleratesMissingKeys(t *testing.T) {
	pii := PIIFromAPI(map[string]any{})

	assert.Equal(t, "", pii.FirstName)
	assert.Equal(t, 0, pii.Age)
	assert.Equal(t, GenderUnknown, pii.Gender)
	assert.Empty(t, pii.Emails)
	assert.Empty(t, pii.MobilePhones)
	assert.False(t, pii.PetOwner)
}

func TestLeadExportFlattensContactColumns(t *testing.T) {
	pii := PII{
		FirstName: "Ada",
		Emails:    []string{"a@example.com", "b@example.com"},
		MobilePhones: []MobilePhone{
			{Phone: "7035551234", DoNotCall: true},
		},
	}

	export := pii.LeadExport()
	assert.Equal(t, "Ada", export["first_name"])
	assert.Equal(t, "a@example.com", export["email_1"])
	assert.Equal(t, "b@example.com", export["email_2"])
	assert.Nil(t, export["email_3"])
	assert.Equal(t, "7035551234", export["phone_1"])
	assert.Equal(t, true, export["phone_1_dnc"])
	assert.Nil(t, export["phone_2"])
	assert.NotContains(t, export, "id")
}

func TestUniqueSentenceCount(t *testing.T) {
	lead := MD5WithPII{MD5: "abc", Sentences: []string{"a", "b", "a"}}
	assert.Equal(t, 2, lead.UniqueSentenceCount())
}
