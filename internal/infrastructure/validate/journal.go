package validate

import (
	"context"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

// NotYetDelivered removes leads a client has already received, based on
// the delivery journal.
type NotYetDelivered struct {
	journal  leads.Journal
	clientID string
}

// NewNotYetDelivered creates a NotYetDelivered validator for one client.
func NewNotYetDelivered(journal leads.Journal, clientID string) *NotYetDelivered {
	return &NotYetDelivered{journal: journal, clientID: clientID}
}

func (v *NotYetDelivered) Name() string { return "NotYetDelivered" }

func (v *NotYetDelivered) Validate(ctx context.Context, batch []leads.MD5WithPII) ([]leads.MD5WithPII, error) {
	delivered, err := v.journal.DeliveredMD5s(ctx, v.clientID)
	if err != nil {
		return nil, err
	}

	deliveredSet := make(map[string]struct{}, len(delivered))
	for _, md5 := range delivered {
		deliveredSet[md5] = struct{}{}
	}

	kept := make([]leads.MD5WithPII, 0, len(batch))
	for _, lead := range batch {
		if _, seen := deliveredSet[lead.MD5]; !seen {
			kept = append(kept, lead)
		}
	}

	return kept, nil
}
