package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const minReferenceLength = 3

// --- DTOs ---

type RecordPaymentRequest struct {
	LoanID      string `json:"loan_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	PaymentDate string `json:"payment_date" binding:"required"` // RFC 3339 or YYYY-MM-DD
	Method      string `json:"method" binding:"required,oneof=cash bank_transfer mobile_money check other"`
	Reference   string `json:"reference" binding:"required"`
	Notes       string `json:"notes"`
}

type VerifyPaymentRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Reason string `json:"reason"`
}

type PaymentFilter struct {
	Status string
	Page   int
	Limit  int
}

type PaymentResponse struct {
	ID              string  `json:"id"`
	LoanID          string  `json:"loan_id"`
	LoanNumber      string  `json:"loan_number,omitempty"`
	PaymentNumber   int     `json:"payment_number"`
	Amount          string  `json:"amount"`
	PrincipalAmount string  `json:"principal_amount"`
	InterestAmount  string  `json:"interest_amount"`
	PaymentDate     string  `json:"payment_date"`
	Method          string  `json:"method"`
	Reference       string  `json:"reference"`
	Notes           string  `json:"notes"`
	Status          string  `json:"status"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	RecordedBy      *string `json:"recorded_by"`
	VerifiedBy      *string `json:"verified_by"`
	VerifiedAt      *string `json:"verified_at"`
	CreatedAt       string  `json:"created_at"`
}

type PaymentAggregatesResponse struct {
	LoanID        string `json:"loan_id"`
	TotalPaid     string `json:"total_paid"`
	PrincipalPaid string `json:"principal_paid"`
	InterestPaid  string `json:"interest_paid"`
}

// --- Interface ---

// PaymentService is the payment ledger: it records provisional payments,
// runs them through verification, and is the only caller of the loan
// account's balance mutations.
type PaymentService interface {
	Record(ctx context.Context, req RecordPaymentRequest, recordedBy string) (*PaymentResponse, error)
	Verify(ctx context.Context, id string, req VerifyPaymentRequest, verifiedBy string) (*PaymentResponse, error)
	Reverse(ctx context.Context, id string, reversedBy string) (*PaymentResponse, error)
	Get(ctx context.Context, id string) (*PaymentResponse, error)
	List(ctx context.Context, filter PaymentFilter) ([]PaymentResponse, int64, error)
	ListByLoan(ctx context.Context, loanID string, page, limit int) ([]PaymentResponse, int64, error)
	Aggregates(ctx context.Context, loanID string) (*PaymentAggregatesResponse, error)
}

type paymentService struct {
	db        *gorm.DB
	payments  repository.PaymentRepository
	loanRepo  repository.LoanRepository
	loans     LoanService
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewPaymentService(
	db *gorm.DB,
	payments repository.PaymentRepository,
	loanRepo repository.LoanRepository,
	loans LoanService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) PaymentService {
	return &paymentService{
		db:        db,
		payments:  payments,
		loanRepo:  loanRepo,
		loans:     loans,
		txManager: txManager,
		hub:       hub,
	}
}

// --- Implementation ---

func (s *paymentService) Record(ctx context.Context, req RecordPaymentRequest, recordedBy string) (*PaymentResponse, error) {
	loanID, err := uuid.Parse(req.LoanID)
	if err != nil {
		return nil, apperr.Validation("invalid loan_id: %v", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, apperr.Validation("invalid amount: %v", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validation("amount must be greater than zero, got %s", amount)
	}

	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		return nil, err
	}
	if paymentDate.After(time.Now()) {
		return nil, apperr.Validation("payment date %s is in the future", paymentDate.Format("2006-01-02"))
	}

	reference := strings.TrimSpace(req.Reference)
	if len(reference) < minReferenceLength {
		return nil, apperr.Validation("reference must be at least %d characters", minReferenceLength)
	}

	var recorderID *uuid.UUID
	if recordedBy != "" {
		if parsed, parseErr := uuid.Parse(recordedBy); parseErr == nil {
			recorderID = &parsed
		}
	}

	var payment model.Payment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Lock the loan row: the allocation reads the balance and the
		// payment number must stay gap-free, so recording races with
		// verification on the same loan.
		loan, findErr := s.loanRepo.FindByIDForUpdate(txCtx, loanID)
		if findErr != nil {
			return apperr.Wrap(apperr.KindNotFound, findErr, "loan not found")
		}
		if loan.Status == model.LoanCancelled {
			return apperr.InvalidState("cannot record a payment against cancelled loan %s", loan.LoanNumber)
		}

		// Principal-first allocation: principal up to the remaining
		// balance, any excess attributed to interest.
		principalPortion := decimal.Min(loan.Balance, amount)
		interestPortion := amount.Sub(principalPortion)

		count, countErr := s.payments.CountByLoan(txCtx, loanID)
		if countErr != nil {
			return fmt.Errorf("failed to count payments: %w", countErr)
		}

		payment = model.Payment{
			LoanID:          loanID,
			PaymentNumber:   int(count) + 1,
			Amount:          amount,
			PrincipalAmount: principalPortion,
			InterestAmount:  interestPortion,
			PaymentDate:     paymentDate,
			Method:          req.Method,
			Reference:       reference,
			Notes:           req.Notes,
			Status:          model.PaymentPending,
			RecordedBy:      recorderID,
		}
		if createErr := s.payments.Create(txCtx, &payment); createErr != nil {
			return fmt.Errorf("failed to record payment: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"loan_number":    loan.LoanNumber,
			"payment_number": payment.PaymentNumber,
			"amount":         amount.StringFixed(2),
			"principal":      principalPortion.StringFixed(2),
			"interest":       interestPortion.StringFixed(2),
			"method":         req.Method,
			"reference":      reference,
		})
		audit := model.AuditLog{
			UserID:     recorderID,
			Action:     model.ActionRecordPayment,
			EntityID:   payment.ID.String(),
			EntityName: loan.LoanNumber,
			Details:    string(details),
		}
		return repository.GetDB(txCtx, s.db).Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, payment.ID.String())
}

func (s *paymentService) Verify(ctx context.Context, id string, req VerifyPaymentRequest, verifiedBy string) (*PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid payment id: %v", err)
	}

	if req.Action == "reject" && strings.TrimSpace(req.Reason) == "" {
		return nil, apperr.Validation("a reason is required to reject a payment")
	}

	var verifierID *uuid.UUID
	if verifiedBy != "" {
		if parsed, parseErr := uuid.Parse(verifiedBy); parseErr == nil {
			verifierID = &parsed
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payment, findErr := s.payments.FindByIDForUpdate(txCtx, paymentID)
		if findErr != nil {
			return apperr.Wrap(apperr.KindNotFound, findErr, "payment not found")
		}

		// Verification is one-shot; a second approve on a completed payment
		// must fail here rather than double-debit the loan.
		if payment.Status != model.PaymentPending {
			return apperr.InvalidState("payment #%d is already %s", payment.PaymentNumber, payment.Status)
		}

		now := time.Now()
		action := model.ActionRejectPayment

		if req.Action == "approve" {
			if _, applyErr := s.loans.ApplyPayment(txCtx, payment.LoanID, payment.PrincipalAmount, payment.InterestAmount, payment.PaymentDate); applyErr != nil {
				return applyErr
			}
			payment.Status = model.PaymentCompleted
			action = model.ActionApprovePayment
		} else {
			payment.Status = model.PaymentRejected
			payment.RejectionReason = strings.TrimSpace(req.Reason)
		}

		payment.VerifiedBy = verifierID
		payment.VerifiedAt = &now
		if saveErr := s.payments.Update(txCtx, payment); saveErr != nil {
			return fmt.Errorf("failed to update payment: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"payment_number": payment.PaymentNumber,
			"action":         req.Action,
			"reason":         payment.RejectionReason,
			"amount":         payment.Amount.StringFixed(2),
		})
		audit := model.AuditLog{
			UserID:   verifierID,
			Action:   action,
			EntityID: payment.ID.String(),
			Details:  string(details),
		}
		return repository.GetDB(txCtx, s.db).Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.hub.Publish("payment.verified", resp)
	return resp, nil
}

func (s *paymentService) Reverse(ctx context.Context, id string, reversedBy string) (*PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid payment id: %v", err)
	}

	var reverserID *uuid.UUID
	if reversedBy != "" {
		if parsed, parseErr := uuid.Parse(reversedBy); parseErr == nil {
			reverserID = &parsed
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payment, findErr := s.payments.FindByIDForUpdate(txCtx, paymentID)
		if findErr != nil {
			return apperr.Wrap(apperr.KindNotFound, findErr, "payment not found")
		}

		if payment.Status != model.PaymentCompleted {
			return apperr.InvalidState("only completed payments can be reversed, payment #%d is %s",
				payment.PaymentNumber, payment.Status)
		}

		if _, revErr := s.loans.ReversePayment(txCtx, payment.LoanID, payment.PrincipalAmount, payment.InterestAmount); revErr != nil {
			return revErr
		}

		// The payment number stays: the audit trail never reuses slots.
		payment.Status = model.PaymentReversed
		if saveErr := s.payments.Update(txCtx, payment); saveErr != nil {
			return fmt.Errorf("failed to update payment: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"payment_number": payment.PaymentNumber,
			"amount":         payment.Amount.StringFixed(2),
			"principal":      payment.PrincipalAmount.StringFixed(2),
		})
		audit := model.AuditLog{
			UserID:   reverserID,
			Action:   model.ActionReversePayment,
			EntityID: payment.ID.String(),
			Details:  string(details),
		}
		return repository.GetDB(txCtx, s.db).Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.hub.Publish("payment.reversed", resp)
	return resp, nil
}

func (s *paymentService) Get(ctx context.Context, id string) (*PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid payment id: %v", err)
	}

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "payment not found")
	}

	resp := toPaymentResponse(payment)
	return &resp, nil
}

func (s *paymentService) List(ctx context.Context, filter PaymentFilter) ([]PaymentResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	payments, total, err := s.payments.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	result := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, toPaymentResponse(&payments[i]))
	}
	return result, total, nil
}

func (s *paymentService) ListByLoan(ctx context.Context, loanID string, page, limit int) ([]PaymentResponse, int64, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return nil, 0, apperr.Validation("invalid loan id: %v", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	payments, total, err := s.payments.ListByLoan(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	result := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, toPaymentResponse(&payments[i]))
	}
	return result, total, nil
}

func (s *paymentService) Aggregates(ctx context.Context, loanID string) (*PaymentAggregatesResponse, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return nil, apperr.Validation("invalid loan id: %v", err)
	}

	if _, err := s.loanRepo.FindByID(ctx, id); err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan not found")
	}

	agg, err := s.payments.Aggregates(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to compute payment aggregates: %w", err)
	}

	return &PaymentAggregatesResponse{
		LoanID:        loanID,
		TotalPaid:     agg.TotalPaid.StringFixed(2),
		PrincipalPaid: agg.PrincipalPaid.StringFixed(2),
		InterestPaid:  agg.InterestPaid.StringFixed(2),
	}, nil
}

// --- Helpers ---

func parsePaymentDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("invalid payment_date %q, expected RFC 3339 or YYYY-MM-DD", raw)
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:              p.ID.String(),
		LoanID:          p.LoanID.String(),
		PaymentNumber:   p.PaymentNumber,
		Amount:          p.Amount.StringFixed(2),
		PrincipalAmount: p.PrincipalAmount.StringFixed(2),
		InterestAmount:  p.InterestAmount.StringFixed(2),
		PaymentDate:     p.PaymentDate.Format(time.RFC3339),
		Method:          p.Method,
		Reference:       p.Reference,
		Notes:           p.Notes,
		Status:          p.Status,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}

	if p.Loan != nil {
		resp.LoanNumber = p.Loan.LoanNumber
	}
	if p.RecordedBy != nil {
		v := p.RecordedBy.String()
		resp.RecordedBy = &v
	}
	if p.VerifiedBy != nil {
		v := p.VerifiedBy.String()
		resp.VerifiedBy = &v
	}
	if p.VerifiedAt != nil {
		v := p.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &v
	}

	return resp
}
