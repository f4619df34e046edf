package models

import (
	"time"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
)

// JournalEntryModel is the GORM database model for delivery journal entries
// (infrastructure concern)
type JournalEntryModel struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	MD5         string    `gorm:"not null;index;type:varchar(32)"`
	ClientID    string    `gorm:"not null;index;type:varchar(255)"`
	Deliverer   string    `gorm:"type:varchar(64)"`
	DeliveredAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (JournalEntryModel) TableName() string {
	return "delivery_journal"
}

// ToDomain converts GORM model to domain entity
func (m *JournalEntryModel) ToDomain() leads.JournalEntry {
	return leads.JournalEntry{
		ID:          m.ID,
		MD5:         m.MD5,
		ClientID:    m.ClientID,
		Deliverer:   m.Deliverer,
		DeliveredAt: m.DeliveredAt,
	}
}

// FromDomain converts domain entity to GORM model
func (m *JournalEntryModel) FromDomain(e leads.JournalEntry) {
	m.ID = e.ID
	m.MD5 = e.MD5
	m.ClientID = e.ClientID
	m.Deliverer = e.Deliverer
	m.DeliveredAt = e.DeliveredAt
}
