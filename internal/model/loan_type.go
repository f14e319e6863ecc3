package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanType is a lending product: it bounds what applicants may request and
// fixes the annual interest rate copied onto loans approved under it.
type LoanType struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	MinAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"min_amount"`
	MaxAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"max_amount"`
	MinTermMonths      int             `gorm:"not null" json:"min_term_months"`
	MaxTermMonths      int             `gorm:"not null" json:"max_term_months"`
	AnnualInterestRate decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"annual_interest_rate"` // fractional, 0.12 = 12%/yr
	IsActive           bool            `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (t *LoanType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
