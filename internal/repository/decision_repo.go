package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DecisionRecordRepository is append-only: records are never updated or
// deleted, so the interface offers no way to.
type DecisionRecordRepository interface {
	Append(ctx context.Context, record *model.DecisionRecord) error
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.DecisionRecord, error)
}

type decisionRecordRepository struct {
	db *gorm.DB
}

func NewDecisionRecordRepository(db *gorm.DB) DecisionRecordRepository {
	return &decisionRecordRepository{db: db}
}

func (r *decisionRecordRepository) Append(ctx context.Context, record *model.DecisionRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *decisionRecordRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.DecisionRecord, error) {
	var records []model.DecisionRecord
	if err := GetDB(ctx, r.db).
		Preload("Decider").
		Where("application_id = ?", applicationID).
		Order("decided_at asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
