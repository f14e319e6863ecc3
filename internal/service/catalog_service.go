package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCustomerRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone"`
	Email      string `json:"email" binding:"omitempty,email"`
	NationalID string `json:"national_id"`
	BranchID   string `json:"branch_id"`
}

type CreateBranchRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

type CreateLoanTypeRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	MinAmount          string `json:"min_amount" binding:"required"`
	MaxAmount          string `json:"max_amount" binding:"required"`
	MinTermMonths      int    `json:"min_term_months" binding:"required,gt=0"`
	MaxTermMonths      int    `json:"max_term_months" binding:"required,gt=0"`
	AnnualInterestRate string `json:"annual_interest_rate" binding:"required"`
}

type UpdateLoanTypeRequest struct {
	Description        string `json:"description"`
	MinAmount          string `json:"min_amount"`
	MaxAmount          string `json:"max_amount"`
	MinTermMonths      int    `json:"min_term_months"`
	MaxTermMonths      int    `json:"max_term_months"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	IsActive           *bool  `json:"is_active"`
}

type LoanTypeResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	MinAmount          string `json:"min_amount"`
	MaxAmount          string `json:"max_amount"`
	MinTermMonths      int    `json:"min_term_months"`
	MaxTermMonths      int    `json:"max_term_months"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	IsActive           bool   `json:"is_active"`
	CreatedAt          string `json:"created_at"`
}

// --- Interface ---

// CatalogService covers the reference data the lending workflow validates
// against: customers, branches, loan types, and the read-only savings link.
type CatalogService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest, createdBy string) (*model.Customer, error)
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	ListCustomers(ctx context.Context, page, limit int) ([]model.Customer, int64, error)

	CreateBranch(ctx context.Context, req CreateBranchRequest, createdBy string) (*model.Branch, error)
	ListBranches(ctx context.Context) ([]model.Branch, error)

	CreateLoanType(ctx context.Context, req CreateLoanTypeRequest, createdBy string) (*LoanTypeResponse, error)
	UpdateLoanType(ctx context.Context, id string, req UpdateLoanTypeRequest, updatedBy string) (*LoanTypeResponse, error)
	GetLoanType(ctx context.Context, id string) (*LoanTypeResponse, error)
	ListLoanTypes(ctx context.Context) ([]LoanTypeResponse, error)

	GetSavingAccount(ctx context.Context, id string) (*model.SavingAccount, error)
}

type catalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) CatalogService {
	return &catalogService{db: db}
}

// --- Implementation ---

func (s *catalogService) CreateCustomer(ctx context.Context, req CreateCustomerRequest, createdBy string) (*model.Customer, error) {
	customer := model.Customer{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Email:      req.Email,
		NationalID: req.NationalID,
	}

	if req.BranchID != "" {
		branchID, err := uuid.Parse(req.BranchID)
		if err != nil {
			return nil, apperr.Validation("invalid branch_id: %v", err)
		}
		if err := s.db.WithContext(ctx).First(&model.Branch{}, "id = ?", branchID).Error; err != nil {
			return nil, apperr.NotFound("branch %s does not exist", branchID)
		}
		customer.BranchID = &branchID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return s.writeAudit(tx, createdBy, model.ActionCreateCustomer, customer.ID.String(), customer.FullName, nil)
	})
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (s *catalogService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid customer id: %v", err)
	}

	var customer model.Customer
	if err := s.db.WithContext(ctx).Preload("Branch").First(&customer, "id = ?", customerID).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "customer not found")
	}
	return &customer, nil
}

func (s *catalogService) ListCustomers(ctx context.Context, page, limit int) ([]model.Customer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var customers []model.Customer
	var total int64

	if err := s.db.WithContext(ctx).Model(&model.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Preload("Branch").
		Order("full_name asc").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

func (s *catalogService) CreateBranch(ctx context.Context, req CreateBranchRequest, createdBy string) (*model.Branch, error) {
	branch := model.Branch{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&branch).Error; err != nil {
			return fmt.Errorf("failed to create branch: %w", err)
		}
		return s.writeAudit(tx, createdBy, model.ActionCreateBranch, branch.ID.String(), branch.Code, nil)
	})
	if err != nil {
		return nil, err
	}

	return &branch, nil
}

func (s *catalogService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	if err := s.db.WithContext(ctx).Order("code asc").Find(&branches).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch branches: %w", err)
	}
	return branches, nil
}

func (s *catalogService) CreateLoanType(ctx context.Context, req CreateLoanTypeRequest, createdBy string) (*LoanTypeResponse, error) {
	minAmount, maxAmount, rate, err := parseLoanTypeAmounts(req.MinAmount, req.MaxAmount, req.AnnualInterestRate)
	if err != nil {
		return nil, err
	}
	if maxAmount.LessThan(minAmount) {
		return nil, apperr.Validation("max_amount %s is below min_amount %s", maxAmount, minAmount)
	}
	if req.MaxTermMonths < req.MinTermMonths {
		return nil, apperr.Validation("max_term_months %d is below min_term_months %d", req.MaxTermMonths, req.MinTermMonths)
	}

	loanType := model.LoanType{
		Name:               req.Name,
		Description:        req.Description,
		MinAmount:          minAmount,
		MaxAmount:          maxAmount,
		MinTermMonths:      req.MinTermMonths,
		MaxTermMonths:      req.MaxTermMonths,
		AnnualInterestRate: rate,
		IsActive:           true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&loanType).Error; err != nil {
			return fmt.Errorf("failed to create loan type: %w", err)
		}
		details := map[string]interface{}{"rate": rate.String()}
		return s.writeAudit(tx, createdBy, model.ActionCreateLoanType, loanType.ID.String(), loanType.Name, details)
	})
	if err != nil {
		return nil, err
	}

	resp := toLoanTypeResponse(loanType)
	return &resp, nil
}

// UpdateLoanType changes the product definition going forward. Loans already
// approved keep the rate snapshotted at decision time.
func (s *catalogService) UpdateLoanType(ctx context.Context, id string, req UpdateLoanTypeRequest, updatedBy string) (*LoanTypeResponse, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid loan type id: %v", err)
	}

	var loanType model.LoanType
	if err := s.db.WithContext(ctx).First(&loanType, "id = ?", typeID).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan type not found")
	}

	if req.Description != "" {
		loanType.Description = req.Description
	}
	if req.MinAmount != "" {
		v, parseErr := decimal.NewFromString(req.MinAmount)
		if parseErr != nil {
			return nil, apperr.Validation("invalid min_amount: %v", parseErr)
		}
		loanType.MinAmount = v
	}
	if req.MaxAmount != "" {
		v, parseErr := decimal.NewFromString(req.MaxAmount)
		if parseErr != nil {
			return nil, apperr.Validation("invalid max_amount: %v", parseErr)
		}
		loanType.MaxAmount = v
	}
	if req.MinTermMonths > 0 {
		loanType.MinTermMonths = req.MinTermMonths
	}
	if req.MaxTermMonths > 0 {
		loanType.MaxTermMonths = req.MaxTermMonths
	}
	if req.AnnualInterestRate != "" {
		v, parseErr := decimal.NewFromString(req.AnnualInterestRate)
		if parseErr != nil {
			return nil, apperr.Validation("invalid annual_interest_rate: %v", parseErr)
		}
		if v.IsNegative() {
			return nil, apperr.Validation("annual_interest_rate must not be negative")
		}
		loanType.AnnualInterestRate = v
	}
	if req.IsActive != nil {
		loanType.IsActive = *req.IsActive
	}

	if loanType.MaxAmount.LessThan(loanType.MinAmount) {
		return nil, apperr.Validation("max_amount %s is below min_amount %s", loanType.MaxAmount, loanType.MinAmount)
	}
	if loanType.MaxTermMonths < loanType.MinTermMonths {
		return nil, apperr.Validation("max_term_months %d is below min_term_months %d", loanType.MaxTermMonths, loanType.MinTermMonths)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&loanType).Error; err != nil {
			return fmt.Errorf("failed to update loan type: %w", err)
		}
		return s.writeAudit(tx, updatedBy, model.ActionUpdateLoanType, loanType.ID.String(), loanType.Name, nil)
	})
	if err != nil {
		return nil, err
	}

	resp := toLoanTypeResponse(loanType)
	return &resp, nil
}

func (s *catalogService) GetLoanType(ctx context.Context, id string) (*LoanTypeResponse, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid loan type id: %v", err)
	}

	var loanType model.LoanType
	if err := s.db.WithContext(ctx).First(&loanType, "id = ?", typeID).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "loan type not found")
	}

	resp := toLoanTypeResponse(loanType)
	return &resp, nil
}

func (s *catalogService) ListLoanTypes(ctx context.Context) ([]LoanTypeResponse, error) {
	var types []model.LoanType
	if err := s.db.WithContext(ctx).Order("name asc").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch loan types: %w", err)
	}

	res := make([]LoanTypeResponse, 0, len(types))
	for _, t := range types {
		res = append(res, toLoanTypeResponse(t))
	}
	return res, nil
}

func (s *catalogService) GetSavingAccount(ctx context.Context, id string) (*model.SavingAccount, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid saving account id: %v", err)
	}

	var account model.SavingAccount
	if err := s.db.WithContext(ctx).Preload("Customer").First(&account, "id = ?", accountID).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "saving account not found")
	}
	return &account, nil
}

// --- Helpers ---

func (s *catalogService) writeAudit(tx *gorm.DB, userID, action, entityID, entityName string, details map[string]interface{}) error {
	var uid *uuid.UUID
	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
	}

	payload := ""
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = string(raw)
	}

	audit := model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
		CreatedAt:  time.Now(),
	}
	return tx.Create(&audit).Error
}

func parseLoanTypeAmounts(minAmount, maxAmount, rate string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	minV, err := decimal.NewFromString(minAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperr.Validation("invalid min_amount: %v", err)
	}
	maxV, err := decimal.NewFromString(maxAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperr.Validation("invalid max_amount: %v", err)
	}
	rateV, err := decimal.NewFromString(rate)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperr.Validation("invalid annual_interest_rate: %v", err)
	}
	if rateV.IsNegative() {
		return decimal.Zero, decimal.Zero, decimal.Zero, apperr.Validation("annual_interest_rate must not be negative")
	}
	return minV, maxV, rateV, nil
}

func toLoanTypeResponse(t model.LoanType) LoanTypeResponse {
	return LoanTypeResponse{
		ID:                 t.ID.String(),
		Name:               t.Name,
		Description:        t.Description,
		MinAmount:          t.MinAmount.StringFixed(2),
		MaxAmount:          t.MaxAmount.StringFixed(2),
		MinTermMonths:      t.MinTermMonths,
		MaxTermMonths:      t.MaxTermMonths,
		AnnualInterestRate: t.AnnualInterestRate.String(),
		IsActive:           t.IsActive,
		CreatedAt:          t.CreatedAt.Format(time.RFC3339),
	}
}
