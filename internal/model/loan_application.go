package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplicationStatus enum constants. pending is the only non-terminal state;
// a decision is one-shot.
const (
	ApplicationPending   = "pending"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
	ApplicationCancelled = "cancelled"
)

// LoanApplication is a request for credit. Its principal and term must fall
// within the bounds of the referenced LoanType at submission time.
type LoanApplication struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationNumber string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"application_number"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer          *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	LoanTypeID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"loan_type_id"`
	LoanType          *LoanType       `gorm:"foreignKey:LoanTypeID" json:"loan_type,omitempty"`
	BranchID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch            *Branch         `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	SavingAccountID   *uuid.UUID      `gorm:"type:uuid;index" json:"saving_account_id"`
	SavingAccount     *SavingAccount  `gorm:"foreignKey:SavingAccountID" json:"saving_account,omitempty"`
	PrincipalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"principal_amount"`
	TermMonths        int             `gorm:"not null" json:"term_months"`
	Purpose           string          `gorm:"type:text" json:"purpose"`
	Status            string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	FinalDecisionDate *time.Time      `json:"final_decision_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (a *LoanApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DecisionRecord is one append-only audit entry in an application's decision
// history. Never updated or deleted. A nil DecidedBy means the record was
// written by the system (e.g. the submission snapshot).
type DecisionRecord struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"application_id"`
	Status        string     `gorm:"type:varchar(20);not null" json:"status"`
	DecidedBy     *uuid.UUID `gorm:"type:uuid" json:"decided_by"`
	Decider       *User      `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
	DecidedAt     time.Time  `gorm:"not null;index" json:"decided_at"`
	Comments      string     `gorm:"type:text" json:"comments"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (d *DecisionRecord) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
