package leads

import (
	"context"
	"time"
)

// Validator filters a batch of leads down to the ones considered valid.
// Implementations must not assume ownership of the input slice.
type Validator interface {
	// Validate removes leads that are considered invalid based on the
	// implemented criteria and returns the survivors.
	Validate(ctx context.Context, batch []MD5WithPII) ([]MD5WithPII, error)

	// Name identifies the validator in logs.
	Name() string
}

// Deliverer takes a batch of validated leads and hands it to an output
// channel: a CRM, a webhook, a file format.
type Deliverer interface {
	// Deliver sends the batch. A non-nil error means at least one lead was
	// not delivered.
	Deliver(ctx context.Context, batch []MD5WithPII) error
}

// Analyzer produces a textual analysis over a batch of leads.
type Analyzer interface {
	// Analyze returns the analysis result for the batch.
	Analyze(ctx context.Context, batch []MD5WithPII) (string, error)
}

// Processor turns an IABJob into hydrated, validated leads.
type Processor interface {
	// Process runs the job end to end and returns the leads with PII.
	Process(ctx context.Context, job IABJob) ([]MD5WithPII, error)
}

// JournalEntry records one delivered lead for one client.
type JournalEntry struct {
	ID          string
	MD5         string
	ClientID    string
	Deliverer   string
	DeliveredAt time.Time
}

// Journal persists delivery records so later runs can skip leads a client
// already received.
type Journal interface {
	// Record stores one journal entry per lead in the batch.
	Record(ctx context.Context, clientID, deliverer string, batch []MD5WithPII) error

	// DeliveredMD5s returns every MD5 already delivered to the client.
	DeliveredMD5s(ctx context.Context, clientID string) ([]string, error)

	// List returns the most recent entries for a client, newest first.
	List(ctx context.Context, clientID string, limit int) ([]JournalEntry, error)
}
