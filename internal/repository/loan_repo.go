package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	// FindByIDForUpdate locks the loan row for the duration of the
	// surrounding transaction. Balance mutations are read-modify-write, so
	// at most one may be in flight per loan.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	FindByNumber(ctx context.Context, loanNumber string) (*model.Loan, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Loan, int64, error)
	Update(ctx context.Context, loan *model.Loan) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *model.Loan) error {
	return GetDB(ctx, r.db).Create(loan).Error
}

func (r *loanRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	if err := GetDB(ctx, r.db).
		Preload("Customer").Preload("LoanType").
		First(&loan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	if err := ForUpdate(GetDB(ctx, r.db)).First(&loan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByNumber(ctx context.Context, loanNumber string) (*model.Loan, error) {
	var loan model.Loan
	if err := GetDB(ctx, r.db).
		Preload("Customer").Preload("LoanType").
		First(&loan, "loan_number = ?", loanNumber).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, status string, page, limit int) ([]model.Loan, int64, error) {
	var loans []model.Loan
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Loan{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Customer").Preload("LoanType")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&loans).Error; err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *model.Loan) error {
	return GetDB(ctx, r.db).Save(loan).Error
}

func (r *loanRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Loan{}).
		Where("loan_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
