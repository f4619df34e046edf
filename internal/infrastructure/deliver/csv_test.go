//go:build unit
// +build unit

package deliver

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

func testLead(md5 string, sentences ...string) leads.MD5WithPII {
	return leads.MD5WithPII{
		MD5:       md5,
		Sentences: sentences,
		PII: leads.PII{
			FirstName: "Ada",
			LastName:  "Lovelace",
			ZipCode:   "22101",
			Emails:    []string{"ada@example.com"},
			MobilePhones: []leads.MobilePhone{
				{Phone: "7035551234", DoNotCall: true},
			},
		},
	}
}

func parseCSV(t *testing.T, raw string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVFormatterEmptyBatch(t *testing.T) {
	formatter := &CSVFormatter{}

	out, err := formatter.Format(nil)

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCSVFormatterSentenceColumnsFirst(t *testing.T) {
	formatter := &CSVFormatter{}

	out, err := formatter.Format([]leads.MD5WithPII{
		testLead("aaa", "Real Estate>Sellers", "Real Estate>Pre-Movers"),
		testLead("bbb", "Real Estate>Sellers"),
	})
	require.NoError(t, err)

	records := parseCSV(t, out)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "Sellers", header[0])
	assert.Equal(t, "Pre-Movers", header[1])
	assert.Equal(t, "first_name", header[2])
	assert.Equal(t, "md5", header[len(header)-1])

	assert.Equal(t, "x", records[1][0])
	assert.Equal(t, "x", records[1][1])
	assert.Equal(t, "x", records[2][0])
	assert.Equal(t, "", records[2][1])
	assert.Equal(t, "bbb", records[2][len(header)-1])
}

func TestCSVFormatterExportsContactColumns(t *testing.T) {
	formatter := &CSVFormatter{}

	out, err := formatter.Format([]leads.MD5WithPII{testLead("aaa", "s")})
	require.NoError(t, err)

	records := parseCSV(t, out)
	header, row := records[0], records[1]

	byColumn := map[string]string{}
	for i, column := range header {
		byColumn[column] = row[i]
	}

	assert.Equal(t, "Ada", byColumn["first_name"])
	assert.Equal(t, "ada@example.com", byColumn["email_1"])
	assert.Equal(t, "", byColumn["email_2"])
	assert.Equal(t, "7035551234", byColumn["phone_1"])
	assert.Equal(t, "True", byColumn["phone_1_dnc"])
	assert.Equal(t, "", byColumn["phone_2_dnc"])
}

func TestCSVFormatterRenames(t *testing.T) {
	formatter := &CSVFormatter{Renames: map[string]string{"first_name": "First Name"}}

	out, err := formatter.Format([]leads.MD5WithPII{testLead("aaa", "s")})
	require.NoError(t, err)

	header := parseCSV(t, out)[0]
	assert.Contains(t, header, "First Name")
	assert.NotContains(t, header, "first_name")
}

func TestCSVFormatterInsightColumn(t *testing.T) {
	formatter := &CSVFormatter{
		InsightsByMD5: map[string]string{"aaa": "motivated seller"},
	}

	out, err := formatter.Format([]leads.MD5WithPII{testLead("aaa", "s")})
	require.NoError(t, err)

	records := parseCSV(t, out)
	header, row := records[0], records[1]

	assert.Equal(t, "insight", header[len(header)-1])
	assert.Equal(t, "motivated seller", row[len(row)-1])
}
