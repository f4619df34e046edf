package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/persistence/models"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

type gormJournalRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormJournalRepository creates a new GORM-based delivery journal and
// migrates its table.
func NewGormJournalRepository(db *gorm.DB, logger logger.Logger) (leads.Journal, error) {
	if err := db.AutoMigrate(&models.JournalEntryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate delivery journal: %w", err)
	}
	return &gormJournalRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *gormJournalRepository) Record(ctx context.Context, clientID, deliverer string, batch []leads.MD5WithPII) error {
	if len(batch) == 0 {
		return nil
	}

	now := time.Now().UTC()
	entries := make([]models.JournalEntryModel, len(batch))
	for i, lead := range batch {
		entries[i] = models.JournalEntryModel{
			ID:          uuid.New().String(),
			MD5:         lead.MD5,
			ClientID:    clientID,
			Deliverer:   deliverer,
			DeliveredAt: now,
		}
	}

	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to record deliveries: %w", err)
	}

	r.logger.Info("Recorded ", len(entries), " deliveries for client ", clientID)
	return nil
}

func (r *gormJournalRepository) DeliveredMD5s(ctx context.Context, clientID string) ([]string, error) {
	var md5s []string
	err := r.db.WithContext(ctx).
		Model(&models.JournalEntryModel{}).
		Where("client_id = ?", clientID).
		Distinct().
		Pluck("md5", &md5s).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch delivered md5s: %w", err)
	}
	return md5s, nil
}

func (r *gormJournalRepository) List(ctx context.Context, clientID string, limit int) ([]leads.JournalEntry, error) {
	var modelList []models.JournalEntryModel
	query := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("delivered_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch journal entries: %w", err)
	}

	entries := make([]leads.JournalEntry, len(modelList))
	for i, model := range modelList {
		entries[i] = model.ToDomain()
	}
	return entries, nil
}
