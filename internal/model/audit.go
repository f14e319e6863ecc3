package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Application workflow actions
	ActionSubmitApplication  = "SUBMIT_APPLICATION"
	ActionApproveApplication = "APPROVE_APPLICATION"
	ActionRejectApplication  = "REJECT_APPLICATION"
	ActionCancelApplication  = "CANCEL_APPLICATION"
	ActionDisburseLoan       = "DISBURSE_LOAN"

	// Loan account actions
	ActionMarkLoanDefaulted = "MARK_LOAN_DEFAULTED"

	// Payment ledger actions
	ActionRecordPayment  = "RECORD_PAYMENT"
	ActionApprovePayment = "APPROVE_PAYMENT"
	ActionRejectPayment  = "REJECT_PAYMENT"
	ActionReversePayment = "REVERSE_PAYMENT"

	// Catalog actions
	ActionCreateCustomer = "CREATE_CUSTOMER"
	ActionCreateBranch   = "CREATE_BRANCH"
	ActionCreateLoanType = "CREATE_LOAN_TYPE"
	ActionUpdateLoanType = "UPDATE_LOAN_TYPE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for system-originated entries
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
