package deliver

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

// outputColumns is the default column order for lead exports, after the
// intent sentence columns.
var outputColumns = []string{
	"first_name",
	"last_name",
	"email_1",
	"email_2",
	"email_3",
	"phone_1",
	"phone_1_dnc",
	"phone_2",
	"phone_2_dnc",
	"phone_3",
	"phone_3_dnc",
	"address",
	"city",
	"state",
	"zip_code",
	"zip4",
	"fips_state_code",
	"fips_county_code",
	"county_name",
	"latitude",
	"longitude",
	"age",
	"gender",
	"address_type",
	"cbsa",
	"census_tract",
	"census_block_group",
	"census_block",
	"scf",
	"dma",
	"msa",
	"congressional_district",
	"head_of_household",
	"birth_month_and_year",
	"prop_type",
	"n_household_children",
	"credit_range",
	"household_income",
	"household_net_worth",
	"home_owner_status",
	"marital_status",
	"occupation",
	"median_home_value",
	"education",
	"length_of_residence",
	"n_household_adults",
	"political_party",
	"health_beauty_products",
	"cosmetics",
	"jewelry",
	"investment_type",
	"investments",
	"pet_owner",
	"pets_affinity",
	"health_affinity",
	"diet_affinity",
	"fitness_affinity",
	"outdoors_affinity",
	"boating_sailing_affinity",
	"camping_hiking_climbing_affinity",
	"fishing_affinity",
	"hunting_affinity",
	"aerobics",
	"nascar",
	"scuba",
	"weight_lifting",
	"healthy_living_interest",
	"motor_racing",
	"foreign_travel",
	"self_improvement",
	"walking",
	"fitness",
	"ethnicity_detail",
	"ethnic_group",
	"md5",
}

// CSVFormatter formats leads as a CSV export. The first columns are one
// per unique intent sentence with an "x" marking each lead it applies to,
// reduced to the last taxonomy segment for readability, followed by the
// output columns.
type CSVFormatter struct {
	OutputColumns []string
	Renames       map[string]string

	// InsightsByMD5, when set, appends an insight column mapped by lead MD5.
	InsightsByMD5 map[string]string
}

// uniqueSentences collects every sentence across the batch in first-seen
// order.
func uniqueSentences(batch []leads.MD5WithPII) []string {
	seen := make(map[string]struct{})
	var sentences []string
	for _, lead := range batch {
		for _, sentence := range lead.Sentences {
			if _, ok := seen[sentence]; ok {
				continue
			}
			seen[sentence] = struct{}{}
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}

func cellValue(value any) string {
	if value == nil {
		return ""
	}

	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		if typed {
			return "True"
		}
		return "False"
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", typed), "0"), ".")
	default:
		return fmt.Sprint(value)
	}
}

// Format renders the batch into a CSV string. An empty batch returns an
// empty string.
func (f *CSVFormatter) Format(batch []leads.MD5WithPII) (string, error) {
	var builder strings.Builder
	if err := f.write(&builder, batch); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func (f *CSVFormatter) write(w io.Writer, batch []leads.MD5WithPII) error {
	if len(batch) == 0 {
		return nil
	}

	columns := f.OutputColumns
	if columns == nil {
		columns = outputColumns
	}

	sentences := uniqueSentences(batch)

	header := make([]string, 0, len(sentences)+len(columns)+1)
	for _, sentence := range sentences {
		name := sentence
		if idx := strings.LastIndex(name, ">"); idx >= 0 {
			name = name[idx+1:]
		}
		header = append(header, f.rename(name))
	}
	for _, column := range columns {
		header = append(header, f.rename(column))
	}
	if f.InsightsByMD5 != nil {
		header = append(header, f.rename("insight"))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, lead := range batch {
		export := lead.PII.LeadExport()
		export["md5"] = lead.MD5

		applies := make(map[string]struct{}, len(lead.Sentences))
		for _, sentence := range lead.Sentences {
			applies[sentence] = struct{}{}
		}

		row := make([]string, 0, len(header))
		for _, sentence := range sentences {
			if _, ok := applies[sentence]; ok {
				row = append(row, "x")
			} else {
				row = append(row, "")
			}
		}
		for _, column := range columns {
			row = append(row, cellValue(export[column]))
		}
		if f.InsightsByMD5 != nil {
			row = append(row, f.InsightsByMD5[lead.MD5])
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (f *CSVFormatter) rename(column string) string {
	if renamed, ok := f.Renames[column]; ok {
		return renamed
	}
	return column
}

// CSVDeliverer writes the CSV export of a batch to an io.Writer.
type CSVDeliverer struct {
	Formatter CSVFormatter
	Out       io.Writer
}

func (d *CSVDeliverer) Deliver(_ context.Context, batch []leads.MD5WithPII) error {
	return d.Formatter.write(d.Out, batch)
}
