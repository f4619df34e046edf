//go:build unit
// +build unit

package v1

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

// MockIntentClient is a mock implementation of app.IntentClient
type MockIntentClient struct {
	mock.Mock
}

func (m *MockIntentClient) CreateAndWait(ctx context.Context, job leads.IABJob) (int, error) {
	args := m.Called(ctx, job)
	return args.Int(0), args.Error(1)
}

func (m *MockIntentClient) RetrieveMD5s(ctx context.Context, listQueueID int) ([]leads.IntentEvent, error) {
	args := m.Called(ctx, listQueueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leads.IntentEvent), args.Error(1)
}

func (m *MockIntentClient) UniquifyMD5s(intentEvents []leads.IntentEvent) []leads.UniqueMD5 {
	args := m.Called(intentEvents)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]leads.UniqueMD5)
}

func (m *MockIntentClient) PIIForUniqueMD5s(ctx context.Context, uniqueMD5s []leads.UniqueMD5) ([]leads.MD5WithPII, error) {
	args := m.Called(ctx, uniqueMD5s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leads.MD5WithPII), args.Error(1)
}

// MockJournal is a mock implementation of leads.Journal
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, clientID, deliverer string, batch []leads.MD5WithPII) error {
	args := m.Called(ctx, clientID, deliverer, batch)
	return args.Error(0)
}

func (m *MockJournal) DeliveredMD5s(ctx context.Context, clientID string) ([]string, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockJournal) List(ctx context.Context, clientID string, limit int) ([]leads.JournalEntry, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leads.JournalEntry), args.Error(1)
}

// MockEventsProvider is a mock implementation of EventsProvider
type MockEventsProvider struct {
	mock.Mock
}

func (m *MockEventsProvider) EventsForZip(ctx context.Context, zipCode string) (*events.EventsResponse, error) {
	args := m.Called(ctx, zipCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*events.EventsResponse), args.Error(1)
}

func (m *MockEventsProvider) PDFForZip(ctx context.Context, zipCode string) ([]byte, error) {
	args := m.Called(ctx, zipCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
