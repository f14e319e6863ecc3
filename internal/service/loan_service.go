package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type LoanFilter struct {
	Status string
	Page   int
	Limit  int
}

type LoanResponse struct {
	ID               string  `json:"id"`
	LoanNumber       string  `json:"loan_number"`
	ApplicationID    string  `json:"application_id"`
	CustomerID       string  `json:"customer_id"`
	CustomerName     string  `json:"customer_name,omitempty"`
	LoanTypeID       string  `json:"loan_type_id"`
	LoanTypeName     string  `json:"loan_type_name,omitempty"`
	PrincipalAmount  string  `json:"principal_amount"`
	InterestRate     string  `json:"interest_rate"`
	TermMonths       int     `json:"term_months"`
	Balance          string  `json:"balance"`
	Status           string  `json:"status"`
	DisbursementDate string  `json:"disbursement_date"`
	DueDate          string  `json:"due_date"`
	EndDate          *string `json:"end_date"`
	LastPaymentDate  *string `json:"last_payment_date"`
	CreatedAt        string  `json:"created_at"`
}

// --- Interface ---

// LoanService owns the loan balance. ApplyPayment and ReversePayment expect
// to run inside the caller's transaction (the payment ledger's verify and
// reverse paths); they lock the loan row so balance mutations serialize per
// loan.
type LoanService interface {
	CreateFromApplication(ctx context.Context, app *model.LoanApplication, loanType *model.LoanType, decidedAt time.Time) (*model.Loan, error)
	ApplyPayment(ctx context.Context, loanID uuid.UUID, principalDelta, interestDelta decimal.Decimal, paymentDate time.Time) (*model.Loan, error)
	ReversePayment(ctx context.Context, loanID uuid.UUID, principalDelta, interestDelta decimal.Decimal) (*model.Loan, error)
	// MarkDefaulted is the hook point for an external overdue scan; nothing
	// in this service transitions a loan to defaulted on its own.
	MarkDefaulted(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)
	Get(ctx context.Context, id string) (*LoanResponse, error)
	GetByNumber(ctx context.Context, loanNumber string) (*LoanResponse, error)
	List(ctx context.Context, filter LoanFilter) ([]LoanResponse, int64, error)
}

type loanService struct {
	loans     repository.LoanRepository
	txManager repository.TransactionManager
	db        *gorm.DB
}

func NewLoanService(db *gorm.DB, loans repository.LoanRepository, txManager repository.TransactionManager) LoanService {
	return &loanService{loans: loans, txManager: txManager, db: db}
}

// --- Implementation ---

// CreateFromApplication disburses a loan for an approved application. Runs
// inside the decision transaction: if loan creation fails, the decision is
// rolled back with it.
func (s *loanService) CreateFromApplication(ctx context.Context, app *model.LoanApplication, loanType *model.LoanType, decidedAt time.Time) (*model.Loan, error) {
	loanNumber, err := s.generateLoanNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate loan number: %w", err)
	}

	loan := &model.Loan{
		LoanNumber:       loanNumber,
		ApplicationID:    app.ID,
		CustomerID:       app.CustomerID,
		LoanTypeID:       app.LoanTypeID,
		PrincipalAmount:  app.PrincipalAmount,
		InterestRate:     loanType.AnnualInterestRate, // snapshot; later rate changes never touch this loan
		TermMonths:       app.TermMonths,
		Balance:          app.PrincipalAmount,
		Status:           model.LoanActive,
		DisbursementDate: decidedAt,
		DueDate:          decidedAt.AddDate(0, app.TermMonths, 0),
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	return loan, nil
}

func (s *loanService) ApplyPayment(ctx context.Context, loanID uuid.UUID, principalDelta, interestDelta decimal.Decimal, paymentDate time.Time) (*model.Loan, error) {
	loan, err := s.loans.FindByIDForUpdate(ctx, loanID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan not found")
	}

	if loan.Status == model.LoanCancelled {
		return nil, apperr.InvalidState("cannot apply a payment to cancelled loan %s", loan.LoanNumber)
	}
	if principalDelta.GreaterThan(loan.Balance) {
		// The allocation rule clamps principal to the balance before this
		// point; reaching here means a double-apply or a split computed
		// against a stale balance.
		return nil, apperr.Overpayment("principal %s exceeds remaining balance %s on loan %s",
			principalDelta, loan.Balance, loan.LoanNumber)
	}

	loan.Balance = loan.Balance.Sub(principalDelta)
	loan.LastPaymentDate = &paymentDate
	if loan.Balance.IsZero() && loan.Status != model.LoanPaid {
		// Interest-only payments on an already-paid loan must not move the
		// payoff date.
		loan.Status = model.LoanPaid
		end := paymentDate
		loan.EndDate = &end
	}

	if err := s.loans.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to update loan balance: %w", err)
	}

	return loan, nil
}

func (s *loanService) ReversePayment(ctx context.Context, loanID uuid.UUID, principalDelta, interestDelta decimal.Decimal) (*model.Loan, error) {
	loan, err := s.loans.FindByIDForUpdate(ctx, loanID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan not found")
	}

	if loan.Status == model.LoanCancelled {
		return nil, apperr.InvalidState("cannot reverse a payment on cancelled loan %s", loan.LoanNumber)
	}

	loan.Balance = loan.Balance.Add(principalDelta)
	if loan.Status == model.LoanPaid && loan.Balance.GreaterThan(decimal.Zero) {
		loan.Status = model.LoanActive
		loan.EndDate = nil
	}

	if err := s.loans.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to restore loan balance: %w", err)
	}

	return loan, nil
}

func (s *loanService) MarkDefaulted(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	var loan *model.Loan
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		loan, err = s.loans.FindByIDForUpdate(txCtx, loanID)
		if err != nil {
			return apperr.Wrap(apperr.KindNotFound, err, "loan not found")
		}

		if loan.Status != model.LoanActive {
			return apperr.InvalidState("only active loans can default, loan %s is %s", loan.LoanNumber, loan.Status)
		}

		loan.Status = model.LoanDefaulted
		if err := s.loans.Update(txCtx, loan); err != nil {
			return fmt.Errorf("failed to mark loan defaulted: %w", err)
		}

		audit := model.AuditLog{
			Action:     model.ActionMarkLoanDefaulted,
			EntityID:   loan.ID.String(),
			EntityName: loan.LoanNumber,
		}
		return repository.GetDB(txCtx, s.db).Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *loanService) Get(ctx context.Context, id string) (*LoanResponse, error) {
	loanID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid loan id: %v", err)
	}

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan not found")
	}

	resp := toLoanResponse(loan)
	return &resp, nil
}

func (s *loanService) GetByNumber(ctx context.Context, loanNumber string) (*LoanResponse, error) {
	loan, err := s.loans.FindByNumber(ctx, loanNumber)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan not found")
	}

	resp := toLoanResponse(loan)
	return &resp, nil
}

func (s *loanService) List(ctx context.Context, filter LoanFilter) ([]LoanResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	loans, total, err := s.loans.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch loans: %w", err)
	}

	result := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		result = append(result, toLoanResponse(&loans[i]))
	}
	return result, total, nil
}

func (s *loanService) generateLoanNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "LN-" + today + "-"

	db := repository.GetDB(ctx, s.db)
	repository.AdvisoryLock(db, prefix)

	count, err := s.loans.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// --- Helpers ---

func toLoanResponse(l *model.Loan) LoanResponse {
	resp := LoanResponse{
		ID:               l.ID.String(),
		LoanNumber:       l.LoanNumber,
		ApplicationID:    l.ApplicationID.String(),
		CustomerID:       l.CustomerID.String(),
		LoanTypeID:       l.LoanTypeID.String(),
		PrincipalAmount:  l.PrincipalAmount.StringFixed(2),
		InterestRate:     l.InterestRate.String(),
		TermMonths:       l.TermMonths,
		Balance:          l.Balance.StringFixed(2),
		Status:           l.Status,
		DisbursementDate: l.DisbursementDate.Format(time.RFC3339),
		DueDate:          l.DueDate.Format(time.RFC3339),
		CreatedAt:        l.CreatedAt.Format(time.RFC3339),
	}

	if l.Customer != nil {
		resp.CustomerName = l.Customer.FullName
	}
	if l.LoanType != nil {
		resp.LoanTypeName = l.LoanType.Name
	}
	if l.EndDate != nil {
		s := l.EndDate.Format(time.RFC3339)
		resp.EndDate = &s
	}
	if l.LastPaymentDate != nil {
		s := l.LastPaymentDate.Format(time.RFC3339)
		resp.LastPaymentDate = &s
	}

	return resp
}
