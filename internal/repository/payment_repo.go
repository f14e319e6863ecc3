package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentAggregates are derived sums over completed payments only. Pending
// and rejected payments are excluded; reversed payments stop counting the
// moment they are reversed.
type PaymentAggregates struct {
	TotalPaid     decimal.Decimal `json:"total_paid"`
	PrincipalPaid decimal.Decimal `json:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid"`
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	// FindByIDForUpdate locks the payment row so verification and reversal
	// stay one-shot under concurrent calls.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID, page, limit int) ([]model.Payment, int64, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Payment, int64, error)
	Update(ctx context.Context, payment *model.Payment) error
	// CountByLoan counts every payment ever recorded for the loan, reversed
	// and rejected included. Payment numbers are never reused.
	CountByLoan(ctx context.Context, loanID uuid.UUID) (int64, error)
	Aggregates(ctx context.Context, loanID uuid.UUID) (PaymentAggregates, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).
		Preload("Loan").Preload("Recorder").Preload("Verifier").
		First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := ForUpdate(GetDB(ctx, r.db)).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Payment{}).Where("loan_id = ?", loanID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("loan_id = ?", loanID).
		Order("payment_number asc").
		Offset(offset).Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) List(ctx context.Context, status string, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Payment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Loan")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Save(payment).Error
}

func (r *paymentRepository) CountByLoan(ctx context.Context, loanID uuid.UUID) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Where("loan_id = ?", loanID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *paymentRepository) Aggregates(ctx context.Context, loanID uuid.UUID) (PaymentAggregates, error) {
	var row struct {
		TotalPaid     decimal.Decimal
		PrincipalPaid decimal.Decimal
		InterestPaid  decimal.Decimal
	}

	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total_paid, COALESCE(SUM(principal_amount), 0) as principal_paid, COALESCE(SUM(interest_amount), 0) as interest_paid").
		Where("loan_id = ? AND status = ?", loanID, model.PaymentCompleted).
		Scan(&row).Error
	if err != nil {
		return PaymentAggregates{}, err
	}

	return PaymentAggregates{
		TotalPaid:     row.TotalPaid,
		PrincipalPaid: row.PrincipalPaid,
		InterestPaid:  row.InterestPaid,
	}, nil
}
