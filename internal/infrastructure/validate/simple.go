// Package validate provides lead validators. A validator takes a batch of
// hydrated leads and returns the batch with invalid leads or invalid
// contact methods removed.
package validate

import (
	"context"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

// ZipCode removes leads whose zip code is not in the configured list.
type ZipCode struct {
	zipCodes map[string]struct{}
}

// NewZipCode creates a ZipCode validator keeping only the given zip codes.
func NewZipCode(zipCodes []string) *ZipCode {
	keep := make(map[string]struct{}, len(zipCodes))
	for _, zip := range zipCodes {
		keep[zip] = struct{}{}
	}
	return &ZipCode{zipCodes: keep}
}

func (v *ZipCode) Name() string { return "ZipCode" }

func (v *ZipCode) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if _, ok := v.zipCodes[lead.PII.ZipCode]; ok {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// Contactable removes leads without a contact method, mobile or email.
type Contactable struct{}

func (v Contactable) Name() string { return "Contactable" }

func (v Contactable) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if len(lead.PII.MobilePhones) > 0 || len(lead.PII.Emails) > 0 {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// MD5Blacklist removes leads with specific MD5 hashes.
type MD5Blacklist struct {
	blacklist map[string]struct{}
}

// NewMD5Blacklist creates an MD5Blacklist validator from a list of MD5s
// to remove.
func NewMD5Blacklist(md5s []string) *MD5Blacklist {
	blacklist := make(map[string]struct{}, len(md5s))
	for _, md5 := range md5s {
		blacklist[md5] = struct{}{}
	}
	return &MD5Blacklist{blacklist: blacklist}
}

func (v *MD5Blacklist) Name() string { return "MD5Blacklist" }

func (v *MD5Blacklist) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if _, blocked := v.blacklist[lead.MD5]; !blocked {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}

// SamePerson removes duplicate leads likely representing the same person.
// Duplicates are identified by the lead hash, and the survivor absorbs the
// duplicate's sentences.
type SamePerson struct{}

func (v SamePerson) Name() string { return "SamePerson" }

func (v SamePerson) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	seen := make(map[string]int, len(batch))
	kept := make([]leads.MD5WithPII, 0, len(batch))

	for _, lead := range batch {
		hash := lead.Hash()
		if idx, ok := seen[hash]; ok {
			kept[idx].Sentences = append(kept[idx].Sentences, lead.Sentences...)
			continue
		}
		seen[hash] = len(kept)
		kept = append(kept, lead)
	}

	return kept, nil
}

// NumSentences removes leads with fewer than a minimum number of intent
// events. With UseUnique it counts distinct sentences instead of total.
type NumSentences struct {
	MinSentences int
	UseUnique    bool
}

func (v NumSentences) Name() string { return "NumSentences" }

func (v NumSentences) Validate(_ context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		count := len(lead.Sentences)
		if v.UseUnique {
			count = lead.UniqueSentenceCount()
		}
		if count >= v.MinSentences {
			kept = append(kept, lead)
		}
	}
	return kept, nil
}
