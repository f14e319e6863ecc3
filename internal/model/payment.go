package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod enum constants
const (
	MethodCash         = "cash"
	MethodBankTransfer = "bank_transfer"
	MethodMobileMoney  = "mobile_money"
	MethodCheck        = "check"
	MethodOther        = "other"
)

// PaymentStatus enum constants. A payment is provisional until verified:
// only completed payments affect the loan balance.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentReversed  = "reversed"
	PaymentRejected  = "rejected"
)

// Payment records one repayment attempt against a loan. The principal/
// interest split is fixed at recording time (principal-first up to the
// remaining balance) and replayed verbatim on verification and reversal.
// Invariant: Amount = PrincipalAmount + InterestAmount exactly.
type Payment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LoanID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_loan_payment_no,priority:1" json:"loan_id"`
	Loan            *Loan           `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	PaymentNumber   int             `gorm:"not null;uniqueIndex:idx_loan_payment_no,priority:2" json:"payment_number"` // 1-based, gap-free per loan; retained on reversal
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"principal_amount"`
	InterestAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"interest_amount"`
	PaymentDate     time.Time       `gorm:"not null" json:"payment_date"`
	Method          string          `gorm:"type:varchar(20);not null" json:"method"`
	Reference       string          `gorm:"type:varchar(100);not null" json:"reference"` // external receipt id
	Notes           string          `gorm:"type:text" json:"notes"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	RecordedBy      *uuid.UUID      `gorm:"type:uuid" json:"recorded_by"`
	Recorder        *User           `gorm:"foreignKey:RecordedBy" json:"recorder,omitempty"`
	VerifiedBy      *uuid.UUID      `gorm:"type:uuid" json:"verified_by"`
	Verifier        *User           `gorm:"foreignKey:VerifiedBy" json:"verifier,omitempty"`
	VerifiedAt      *time.Time      `json:"verified_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
