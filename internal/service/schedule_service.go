package service

import (
	"context"
	"time"

	"backend/internal/repository"
	"backend/pkg/amortization"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type SchedulePreviewRequest struct {
	Principal  string `json:"principal" binding:"required"`
	AnnualRate string `json:"annual_rate" binding:"required"` // fractional, "0.12" = 12%/yr
	TermMonths int    `json:"term_months" binding:"required,gt=0"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD, defaults to today
}

type InstallmentResponse struct {
	Number  int    `json:"installment_number"`
	DueDate string `json:"due_date"`
	Amount  string `json:"amount"`
}

type ScheduleResponse struct {
	LoanID        string                `json:"loan_id,omitempty"`
	LoanNumber    string                `json:"loan_number,omitempty"`
	Principal     string                `json:"principal"`
	AnnualRate    string                `json:"annual_rate"`
	TermMonths    int                   `json:"term_months"`
	TotalInterest string                `json:"total_interest"`
	Installments  []InstallmentResponse `json:"installments"`
}

// --- Interface ---

// ScheduleService wraps the amortization calculator: a projection for an
// existing loan, or an ad-hoc preview while an application is being filled
// in. Read-only on both ends.
type ScheduleService interface {
	ProjectForLoan(ctx context.Context, loanID string) (*ScheduleResponse, error)
	Preview(ctx context.Context, req SchedulePreviewRequest) (*ScheduleResponse, error)
}

type scheduleService struct {
	loans repository.LoanRepository
}

func NewScheduleService(loans repository.LoanRepository) ScheduleService {
	return &scheduleService{loans: loans}
}

// --- Implementation ---

func (s *scheduleService) ProjectForLoan(ctx context.Context, loanID string) (*ScheduleResponse, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return nil, apperr.Validation("invalid loan id: %v", err)
	}

	loan, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan not found")
	}

	schedule, err := amortization.Project(loan.PrincipalAmount, loan.InterestRate, loan.TermMonths, loan.DisbursementDate)
	if err != nil {
		return nil, err
	}

	resp := toScheduleResponse(loan.PrincipalAmount, loan.InterestRate, loan.TermMonths, schedule)
	resp.LoanID = loan.ID.String()
	resp.LoanNumber = loan.LoanNumber
	return resp, nil
}

func (s *scheduleService) Preview(ctx context.Context, req SchedulePreviewRequest) (*ScheduleResponse, error) {
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return nil, apperr.Validation("invalid principal: %v", err)
	}
	rate, err := decimal.NewFromString(req.AnnualRate)
	if err != nil {
		return nil, apperr.Validation("invalid annual_rate: %v", err)
	}

	start := time.Now()
	if req.StartDate != "" {
		parsed, parseErr := time.Parse("2006-01-02", req.StartDate)
		if parseErr != nil {
			return nil, apperr.Validation("invalid start_date %q, expected YYYY-MM-DD", req.StartDate)
		}
		start = parsed
	}

	schedule, err := amortization.Project(principal, rate, req.TermMonths, start)
	if err != nil {
		return nil, err
	}

	return toScheduleResponse(principal, rate, req.TermMonths, schedule), nil
}

// --- Helpers ---

func toScheduleResponse(principal, rate decimal.Decimal, termMonths int, schedule []amortization.Installment) *ScheduleResponse {
	installments := make([]InstallmentResponse, 0, len(schedule))
	for _, inst := range schedule {
		installments = append(installments, InstallmentResponse{
			Number:  inst.Number,
			DueDate: inst.DueDate.Format("2006-01-02"),
			Amount:  inst.Amount.StringFixed(2),
		})
	}

	return &ScheduleResponse{
		Principal:     principal.StringFixed(2),
		AnnualRate:    rate.String(),
		TermMonths:    termMonths,
		TotalInterest: amortization.TotalInterest(principal, rate, termMonths).StringFixed(2),
		Installments:  installments,
	}
}
