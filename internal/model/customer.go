package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SavingAccountStatus enum constants
const (
	SavingAccountActive = "active"
	SavingAccountClosed = "closed"
)

// Customer is a member of the institution. Kept thin here; member
// management screens are a separate surface; lending only needs the
// reference.
type Customer struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName   string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone      string     `gorm:"type:varchar(20)" json:"phone"`
	Email      string     `gorm:"type:varchar(255)" json:"email"`
	NationalID string     `gorm:"type:varchar(50);index" json:"national_id"`
	BranchID   *uuid.UUID `gorm:"type:uuid;index" json:"branch_id"`
	Branch     *Branch    `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Branch is an office of the institution. Applications are tied to the
// branch that received them.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// SavingAccount is read-only inside lending: an application may link one as
// collateral/reference, but deposits and withdrawals live elsewhere.
type SavingAccount struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountNumber string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"account_number"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"balance"`
	Status        string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (s *SavingAccount) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
