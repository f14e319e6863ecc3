package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanStatus enum constants
const (
	LoanPending   = "pending"
	LoanActive    = "active"
	LoanPaid      = "paid"
	LoanDefaulted = "defaulted"
	LoanCancelled = "cancelled"
)

// Loan is the authoritative record of an approved credit. Balance is the
// remaining principal owed and is mutated only through verified payments;
// never written directly by handlers.
type Loan struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	LoanNumber      string           `gorm:"type:varchar(30);uniqueIndex;not null" json:"loan_number"`
	ApplicationID   uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"application_id"`
	Application     *LoanApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	CustomerID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer        *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	LoanTypeID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"loan_type_id"`
	LoanType        *LoanType        `gorm:"foreignKey:LoanTypeID" json:"loan_type,omitempty"`
	PrincipalAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"principal_amount"`
	InterestRate    decimal.Decimal  `gorm:"type:decimal(10,6);not null" json:"interest_rate"` // copied from LoanType at decision time
	TermMonths      int              `gorm:"not null" json:"term_months"`
	Balance         decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"balance"`
	Status          string           `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	DisbursementDate time.Time       `gorm:"not null" json:"disbursement_date"`
	DueDate         time.Time        `gorm:"not null" json:"due_date"` // last installment due date
	EndDate         *time.Time       `json:"end_date"`
	LastPaymentDate *time.Time       `json:"last_payment_date"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
