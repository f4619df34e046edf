package leads

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Standard-Labs/real-intent/internal/domain/taxonomy"
)

// ConfigDates holds the start and end dates returned by the intent API's
// config route.
type ConfigDates struct {
	StartDate string
	EndDate   string
}

// IABJob is the payload for creating an intent data job.
type IABJob struct {
	IntentCategories []string
	Zips             []string
	Keywords         []string
	Domains          []string
	NHems            int `validate:"required,min=1"`
}

// Validate makes sure the job has enough information to run. A job must
// target at least one of intent categories, keywords, or domains.
func (j *IABJob) Validate() error {
	validate := validator.New()
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("validation failed for IABJob: %w", err)
	}

	if len(j.IntentCategories) == 0 && len(j.Keywords) == 0 && len(j.Domains) == 0 {
		return fmt.Errorf("need at least one of intent categories, keywords, or domains")
	}

	return nil
}

// Payload converts the job into the request body expected by the createList
// route.
func (j *IABJob) Payload() map[string]any {
	return map[string]any{
		"IABs":         strings.Join(j.IntentCategories, ","),
		"Zips":         strings.Join(j.Zips, ","),
		"Keywords":     strings.Join(j.Keywords, ","),
		"Domains":      strings.Join(j.Domains, ","),
		"NumberOfHems": j.NHems,
	}
}

// IntentEvent is a single MD5 intent event as returned by the API.
type IntentEvent struct {
	MD5      string
	Sentence string
}

// UniqueMD5 is a unique MD5 with all of its associated sentences.
// Sentences are deduplicated and numeric IAB codes are translated into
// category names.
type UniqueMD5 struct {
	MD5       string
	Sentences []string
}

// NewUniqueMD5 builds a UniqueMD5 from raw sentences, removing duplicates
// and converting valid IAB codes into category strings.
func NewUniqueMD5(md5 string, sentences []string) UniqueMD5 {
	seen := make(map[string]struct{}, len(sentences))
	unique := make([]string, 0, len(sentences))

	for _, sentence := range sentences {
		if isNumeric(sentence) {
			sentence = taxonomy.CodeToCategory(sentence)
		}

		if _, ok := seen[sentence]; ok {
			continue
		}
		seen[sentence] = struct{}{}
		unique = append(unique, sentence)
	}

	return UniqueMD5{MD5: md5, Sentences: unique}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// MobilePhone is an individual's phone number with its Do Not Call status.
type MobilePhone struct {
	Phone     string
	DoNotCall bool
}

// Gender classifications as used by the PII output.
type Gender string

// Gender values
const (
	GenderMale    Gender = "Male"
	GenderFemale  Gender = "Female"
	GenderUnknown Gender = "Unknown"
)

// PII is the personal data in output code 10026 as returned by the data API.
// Instantiate with PIIFromAPI to get the mobile phone and gender handling
// right.
type PII struct {
	ID                    string
	FirstName             string
	LastName              string
	Address               string
	City                  string
	State                 string
	ZipCode               string
	Zip4                  string
	FIPSStateCode         string
	FIPSCountyCode        string
	CountyName            string
	Latitude              float64
	Longitude             float64
	AddressType           string
	CBSA                  string
	CensusTract           string
	CensusBlockGroup      int
	CensusBlock           string
	Gender                Gender
	SCF                   string
	DMA                   string
	MSA                   string
	CongressionalDistrict string
	HeadOfHousehold       bool
	BirthMonthAndYear     string
	Age                   int
	PropType              string
	Emails                []string
	MobilePhones          []MobilePhone
	NHouseholdChildren    int
	CreditRange           string
	HouseholdIncome       string
	HouseholdNetWorth     string
	HomeOwnerStatus       string
	MaritalStatus         string
	Occupation            string
	MedianHomeValue       int
	Education             string
	LengthOfResidence     int
	NHouseholdAdults      int
	PoliticalParty        string

	HealthBeautyProducts          bool
	Cosmetics                     bool
	Jewelry                       bool
	InvestmentType                bool
	Investments                   bool
	PetOwner                      bool
	PetsAffinity                  bool
	HealthAffinity                bool
	DietAffinity                  bool
	FitnessAffinity               bool
	OutdoorsAffinity              bool
	BoatingSailingAffinity        bool
	CampingHikingClimbingAffinity bool
	FishingAffinity               bool
	HuntingAffinity               bool
	Aerobics                      bool
	NASCAR                        bool
	Scuba                         bool
	WeightLifting                 bool
	HealthyLivingInterest         bool
	MotorRacing                   bool
	ForeignTravel                 bool
	SelfImprovement               bool
	Walking                       bool
	Fitness                       bool

	EthnicityDetail string
	EthnicGroup     string
}

// PIIFromAPI reads the raw 10026 output object and parses the mobile phones
// and gender. Missing keys are tolerated: strings default to empty, numbers
// to zero, flags to false.
func PIIFromAPI(raw map[string]any) PII {
	pii := PII{
		ID:                    str(raw, "Id"),
		FirstName:             str(raw, "First_Name"),
		LastName:              str(raw, "Last_Name"),
		Address:               str(raw, "Address"),
		City:                  str(raw, "City"),
		State:                 str(raw, "State"),
		ZipCode:               str(raw, "Zip"),
		Zip4:                  str(raw, "Zip4"),
		FIPSStateCode:         str(raw, "Fips_State_Code"),
		FIPSCountyCode:        str(raw, "Fips_County_Code"),
		CountyName:            str(raw, "County_Name"),
		Latitude:              flt(raw, "Latitude"),
		Longitude:             flt(raw, "Longitude"),
		AddressType:           str(raw, "Address_Type"),
		CBSA:                  str(raw, "Cbsa"),
		CensusTract:           str(raw, "Census_Tract"),
		CensusBlockGroup:      num(raw, "Census_Block_Group"),
		CensusBlock:           str(raw, "Census_Block"),
		SCF:                   str(raw, "SCF"),
		DMA:                   str(raw, "DMA"),
		MSA:                   str(raw, "MSA"),
		CongressionalDistrict: str(raw, "Congressional_District"),
		HeadOfHousehold:       flag(raw, "HeadOfHousehold"),
		BirthMonthAndYear:     str(raw, "Birth_Month_and_Year"),
		Age:                   num(raw, "Age"),
		PropType:              str(raw, "Prop_Type"),
		NHouseholdChildren:    num(raw, "Children_HH"),
		CreditRange:           str(raw, "Credit_Range"),
		HouseholdIncome:       str(raw, "Income_HH"),
		HouseholdNetWorth:     str(raw, "Net_Worth_HH"),
		HomeOwnerStatus:       str(raw, "Home_Owner"),
		MaritalStatus:         str(raw, "Marital_Status"),
		Occupation:            str(raw, "Occupation_Detail"),
		MedianHomeValue:       num(raw, "Median_Home_Value"),
		Education:             str(raw, "Education"),
		LengthOfResidence:     num(raw, "Length_of_Residence"),
		NHouseholdAdults:      num(raw, "Num_Adults_HH"),
		PoliticalParty:        str(raw, "Political_Party"),

		HealthBeautyProducts:          flag(raw, "Health_Beauty_Products"),
		Cosmetics:                     flag(raw, "Cosmetics"),
		Jewelry:                       flag(raw, "Jewelry"),
		InvestmentType:                flag(raw, "Investment_Type"),
		Investments:                   flag(raw, "Investments"),
		PetOwner:                      flag(raw, "Pet_Owner"),
		PetsAffinity:                  flag(raw, "Pets_Affinity"),
		HealthAffinity:                flag(raw, "Health_Affinity"),
		DietAffinity:                  flag(raw, "Diet_Affinity"),
		FitnessAffinity:               flag(raw, "Fitness_Affinity"),
		OutdoorsAffinity:              flag(raw, "Outdoors_Affinity"),
		BoatingSailingAffinity:        flag(raw, "Boating_Sailing_Affinity"),
		CampingHikingClimbingAffinity: flag(raw, "Camping_Hiking_Climbing_Affinity"),
		FishingAffinity:               flag(raw, "Fishing_Affinity"),
		HuntingAffinity:               flag(raw, "Hunting_Affinity"),
		Aerobics:                      flag(raw, "Aerobics"),
		NASCAR:                        flag(raw, "NASCAR"),
		Scuba:                         flag(raw, "Scuba"),
		WeightLifting:                 flag(raw, "Weight_Lifting"),
		HealthyLivingInterest:         flag(raw, "Healthy_Living_Interest"),
		MotorRacing:                   flag(raw, "Motor_Racing"),
		ForeignTravel:                 flag(raw, "Travel_Foreign"),
		SelfImprovement:               flag(raw, "Self_Improvement"),
		Walking:                       flag(raw, "Walking"),
		Fitness:                       flag(raw, "Fitness"),

		EthnicityDetail: str(raw, "Ethnicity_Detail"),
		EthnicGroup:     str(raw, "Ethnic_Group"),
	}

	// Gender comes back as "M" or "F" in the 10026 output
	switch str(raw, "Gender") {
	case "M", "Male":
		pii.Gender = GenderMale
	case "F", "Female":
		pii.Gender = GenderFemale
	default:
		pii.Gender = GenderUnknown
	}

	// Email_Array may be nil or a list of strings
	if emails, ok := raw["Email_Array"].([]any); ok {
		for _, e := range emails {
			if s, ok := e.(string); ok && s != "" {
				pii.Emails = append(pii.Emails, s)
			}
		}
	}

	// Mobile phones come as Mobile_Phone_{1..3} with a matching _DNC flag
	for i := 1; i <= 3; i++ {
		phone := str(raw, fmt.Sprintf("Mobile_Phone_%d", i))
		if phone == "" {
			continue
		}

		dnc := str(raw, fmt.Sprintf("Mobile_Phone_%d_DNC", i)) == "1"
		pii.MobilePhones = append(pii.MobilePhones, MobilePhone{Phone: phone, DoNotCall: dnc})
	}

	return pii
}

// Hash returns an approximate identity for the person behind the PII.
func (p *PII) Hash() string {
	return fmt.Sprintf(
		"%s %s %s %d %s %s",
		p.FirstName, p.LastName, p.ZipCode, p.Age, p.HouseholdNetWorth, p.HouseholdIncome,
	)
}

// LeadExport flattens the PII into a map ready for insertion into a lead
// export. Emails and phone numbers are separated into unique attributes and
// the person id is dropped.
func (p *PII) LeadExport() map[string]any {
	export := map[string]any{
		"first_name":             p.FirstName,
		"last_name":              p.LastName,
		"address":                p.Address,
		"city":                   p.City,
		"state":                  p.State,
		"zip_code":               p.ZipCode,
		"zip4":                   p.Zip4,
		"fips_state_code":        p.FIPSStateCode,
		"fips_county_code":       p.FIPSCountyCode,
		"county_name":            p.CountyName,
		"latitude":               p.Latitude,
		"longitude":              p.Longitude,
		"address_type":           p.AddressType,
		"cbsa":                   p.CBSA,
		"census_tract":           p.CensusTract,
		"census_block_group":     p.CensusBlockGroup,
		"census_block":           p.CensusBlock,
		"gender":                 string(p.Gender),
		"scf":                    p.SCF,
		"dma":                    p.DMA,
		"msa":                    p.MSA,
		"congressional_district": p.CongressionalDistrict,
		"head_of_household":      p.HeadOfHousehold,
		"birth_month_and_year":   p.BirthMonthAndYear,
		"age":                    p.Age,
		"prop_type":              p.PropType,
		"n_household_children":   p.NHouseholdChildren,
		"credit_range":           p.CreditRange,
		"household_income":       p.HouseholdIncome,
		"household_net_worth":    p.HouseholdNetWorth,
		"home_owner_status":      p.HomeOwnerStatus,
		"marital_status":         p.MaritalStatus,
		"occupation":             p.Occupation,
		"median_home_value":      p.MedianHomeValue,
		"education":              p.Education,
		"length_of_residence":    p.LengthOfResidence,
		"n_household_adults":     p.NHouseholdAdults,
		"political_party":        p.PoliticalParty,

		"health_beauty_products":           p.HealthBeautyProducts,
		"cosmetics":                        p.Cosmetics,
		"jewelry":                          p.Jewelry,
		"investment_type":                  p.InvestmentType,
		"investments":                      p.Investments,
		"pet_owner":                        p.PetOwner,
		"pets_affinity":                    p.PetsAffinity,
		"health_affinity":                  p.HealthAffinity,
		"diet_affinity":                    p.DietAffinity,
		"fitness_affinity":                 p.FitnessAffinity,
		"outdoors_affinity":                p.OutdoorsAffinity,
		"boating_sailing_affinity":         p.BoatingSailingAffinity,
		"camping_hiking_climbing_affinity": p.CampingHikingClimbingAffinity,
		"fishing_affinity":                 p.FishingAffinity,
		"hunting_affinity":                 p.HuntingAffinity,
		"aerobics":                         p.Aerobics,
		"nascar":                           p.NASCAR,
		"scuba":                            p.Scuba,
		"weight_lifting":                   p.WeightLifting,
		"healthy_living_interest":          p.HealthyLivingInterest,
		"motor_racing":                     p.MotorRacing,
		"foreign_travel":                   p.ForeignTravel,
		"self_improvement":                 p.SelfImprovement,
		"walking":                          p.Walking,
		"fitness":                          p.Fitness,

		"ethnicity_detail": p.EthnicityDetail,
		"ethnic_group":     p.EthnicGroup,
	}

	for i := 1; i <= 3; i++ {
		export[fmt.Sprintf("email_%d", i)] = nil
		export[fmt.Sprintf("phone_%d", i)] = nil
		export[fmt.Sprintf("phone_%d_dnc", i)] = nil
	}

	for pos, email := range p.Emails {
		if pos == 3 {
			break
		}
		export[fmt.Sprintf("email_%d", pos+1)] = email
	}

	for pos, phone := range p.MobilePhones {
		if pos == 3 {
			break
		}
		export[fmt.Sprintf("phone_%d", pos+1)] = phone.Phone
		export[fmt.Sprintf("phone_%d_dnc", pos+1)] = phone.DoNotCall
	}

	return export
}

// MD5WithPII is a unique MD5 with its sentences and the PII returned by the
// data API.
type MD5WithPII struct {
	MD5       string
	Sentences []string
	PII       PII
}

// Hash returns the approximate person identity behind the lead.
func (m *MD5WithPII) Hash() string {
	return m.PII.Hash()
}

// UniqueSentenceCount counts the distinct sentences attached to the lead.
func (m *MD5WithPII) UniqueSentenceCount() int {
	seen := make(map[string]struct{}, len(m.Sentences))
	for _, s := range m.Sentences {
		seen[s] = struct{}{}
	}
	return len(seen)
}

// Raw value helpers tolerant of the API's mixed string/number typing.

func str(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func num(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func flt(raw map[string]any, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func flag(raw map[string]any, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	case float64:
		return v != 0
	default:
		return false
	}
}
