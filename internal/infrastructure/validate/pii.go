package validate

import (
	"context"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

// Gender removes leads whose gender is not in the allowed set.
type Gender struct {
	genders map[leads.Gender]struct{}
}

// NewGender creates a Gender validator keeping only the given genders.
func NewGender(genders ...leads.Gender) *Gender {
	keep := make(map[leads.Gender]struct{}, len(genders))
	for _, gender := range genders {
		keep[gender] = struct{}{}
	}
	return &Gender{genders: keep}
}

func (v *Gender) Name() string { return "Gender" }

func (v *Gender) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if _, ok := v.genders[lead.PII.Gender]; ok {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// Age removes leads with an age outside the inclusive range. Leads with an
// unknown age (zero) are removed unless the range includes zero.
type Age struct {
	MinAge int
	MaxAge int
}

func (v Age) Name() string { return "Age" }

func (v Age) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if lead.PII.Age >= v.MinAge && lead.PII.Age <= v.MaxAge {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// RemoveOccupations removes leads with any of the configured occupations.
type RemoveOccupations struct {
	occupations map[string]struct{}
}

// NewRemoveOccupations creates a RemoveOccupations validator from the
// occupations to filter out.
func NewRemoveOccupations(occupations ...string) *RemoveOccupations {
	remove := make(map[string]struct{}, len(occupations))
	for _, occupation := range occupations {
		remove[occupation] = struct{}{}
	}
	return &RemoveOccupations{occupations: remove}
}

func (v *RemoveOccupations) Name() string { return "RemoveOccupations" }

func (v *RemoveOccupations) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if _, blocked := v.occupations[lead.PII.Occupation]; !blocked {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// NewNoRealEstateAgent creates a validator removing leads that are real
// estate agents.
func NewNoRealEstateAgent() *RemoveOccupations {
	return NewRemoveOccupations("Real Estate/Realtor")
}

// Income tier strings as they appear in the PII data.
var (
	midIncomeLevels = []string{
		"D. $30,000-$39,999",
		"E. $40,000-$49,999",
		"F. $50,000-$59,999",
		"G. $60,000-$74,999",
		"H. $75,000-$99,999",
		"K. $100,000-$149,999",
		"L. $150,000-$174,999",
		"M. $175,000-$199,999",
		"N. $200,000-$249,999",
		"O. $250K +",
	}

	highIncomeLevels = []string{
		"H. $75,000-$99,999",
		"K. $100,000-$149,999",
		"L. $150,000-$174,999",
		"M. $175,000-$199,999",
		"N. $200,000-$249,999",
		"O. $250K +",
	}

	mnwIncomeLevels = []string{
		"K. $100,000-$149,999",
		"L. $150,000-$174,999",
		"M. $175,000-$199,999",
		"N. $200,000-$249,999",
		"O. $250K +",
	}

	mnwNetWorthLevels = []string{
		"H. $100,000 - $249,999",
		"I. $250,000 - $499,999",
		"J. Greater than $499,999",
	}

	hnwIncomeLevels = []string{
		"N. $200,000-$249,999",
		"O. $250K +",
	}

	hnwNetWorthLevels = []string{
		"I. $250,000 - $499,999",
		"J. Greater than $499,999",
	}
)

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

// wealthTier keeps leads whose income, and optionally net worth, is in the
// configured tiers.
type wealthTier struct {
	name            string
	incomeLevels    map[string]struct{}
	netWorthLevels  map[string]struct{}
	requireNetWorth bool
}

func (v *wealthTier) Name() string { return v.name }

func (v *wealthTier) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if _, ok := v.incomeLevels[lead.PII.HouseholdIncome]; !ok {
			continue
		}
		if v.requireNetWorth {
			if _, ok := v.netWorthLevels[lead.PII.HouseholdNetWorth]; !ok {
				continue
			}
		}
		kept = append(kept, lead)
	}
	return kept, nil
}

// NewMidIncome creates a validator removing leads below $30k income.
func NewMidIncome() leads.Validator {
	return &wealthTier{name: "MidIncome", incomeLevels: toSet(midIncomeLevels)}
}

// NewHighIncome creates a validator removing leads below $75k income.
func NewHighIncome() leads.Validator {
	return &wealthTier{name: "HighIncome", incomeLevels: toSet(highIncomeLevels)}
}

// NewMediumNetWorth creates a validator removing leads below $100k income
// or $100k net worth.
func NewMediumNetWorth() leads.Validator {
	return &wealthTier{
		name:            "MediumNetWorth",
		incomeLevels:    toSet(mnwIncomeLevels),
		netWorthLevels:  toSet(mnwNetWorthLevels),
		requireNetWorth: true,
	}
}

// NewHighNetWorth creates a validator removing leads below $200k income or
// $250k net worth.
func NewHighNetWorth() leads.Validator {
	return &wealthTier{
		name:            "HighNetWorth",
		incomeLevels:    toSet(hnwIncomeLevels),
		netWorthLevels:  toSet(hnwNetWorthLevels),
		requireNetWorth: true,
	}
}

// NotRenter removes leads whose home owner status marks them as renters.
type NotRenter struct{}

func (v NotRenter) Name() string { return "NotRenter" }

func (v NotRenter) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if lead.PII.HomeOwnerStatus != "Renter" {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// NotApartment removes leads whose address type indicates an apartment.
type NotApartment struct{}

func (v NotApartment) Name() string { return "NotApartment" }

func (v NotApartment) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if lead.PII.AddressType != "H" {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}
