package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoanApplicationRepository interface {
	Create(ctx context.Context, app *model.LoanApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error)
	// FindByIDForUpdate locks the application row for the duration of the
	// surrounding transaction. Decisions are one-shot; the lock makes the
	// status check and the status write a single unit.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error)
	List(ctx context.Context, status string, page, limit int) ([]model.LoanApplication, int64, error)
	Update(ctx context.Context, app *model.LoanApplication) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type loanApplicationRepository struct {
	db *gorm.DB
}

func NewLoanApplicationRepository(db *gorm.DB) LoanApplicationRepository {
	return &loanApplicationRepository{db: db}
}

func (r *loanApplicationRepository) Create(ctx context.Context, app *model.LoanApplication) error {
	return GetDB(ctx, r.db).Create(app).Error
}

func (r *loanApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error) {
	var app model.LoanApplication
	if err := GetDB(ctx, r.db).
		Preload("Customer").Preload("LoanType").Preload("Branch").
		First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *loanApplicationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error) {
	var app model.LoanApplication
	if err := ForUpdate(GetDB(ctx, r.db)).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *loanApplicationRepository) List(ctx context.Context, status string, page, limit int) ([]model.LoanApplication, int64, error) {
	var apps []model.LoanApplication
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.LoanApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Customer").Preload("LoanType").Preload("Branch")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *loanApplicationRepository) Update(ctx context.Context, app *model.LoanApplication) error {
	return GetDB(ctx, r.db).Save(app).Error
}

func (r *loanApplicationRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.LoanApplication{}).
		Where("application_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
