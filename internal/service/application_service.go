package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitApplicationRequest struct {
	CustomerID      string `json:"customer_id" binding:"required"`
	LoanTypeID      string `json:"loan_type_id" binding:"required"`
	PrincipalAmount string `json:"principal_amount" binding:"required"`
	TermMonths      int    `json:"term_months" binding:"required,gt=0"`
	Purpose         string `json:"purpose"`
	BranchID        string `json:"branch_id" binding:"required"`
	SavingAccountID string `json:"saving_account_id"`
}

type DecideApplicationRequest struct {
	Status   string `json:"status" binding:"required,oneof=approved rejected cancelled"`
	Comments string `json:"comments"`
}

type ApplicationFilter struct {
	Status string
	Page   int
	Limit  int
}

type ApplicationResponse struct {
	ID                string  `json:"id"`
	ApplicationNumber string  `json:"application_number"`
	CustomerID        string  `json:"customer_id"`
	CustomerName      string  `json:"customer_name,omitempty"`
	LoanTypeID        string  `json:"loan_type_id"`
	LoanTypeName      string  `json:"loan_type_name,omitempty"`
	BranchID          string  `json:"branch_id"`
	SavingAccountID   *string `json:"saving_account_id"`
	PrincipalAmount   string  `json:"principal_amount"`
	TermMonths        int     `json:"term_months"`
	Purpose           string  `json:"purpose"`
	Status            string  `json:"status"`
	FinalDecisionDate *string `json:"final_decision_date"`
	LoanID            *string `json:"loan_id,omitempty"` // set when a decision created a loan
	CreatedAt         string  `json:"created_at"`
}

type DecisionRecordResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	DecidedBy   *string `json:"decided_by"`
	DeciderName string  `json:"decider_name"` // "System" when decided_by is null
	DecidedAt   string  `json:"decided_at"`
	Comments    string  `json:"comments"`
}

// --- Interface ---

// ApplicationService runs the loan-application workflow: submission,
// one-shot decision, and the append-only decision history.
type ApplicationService interface {
	Submit(ctx context.Context, req SubmitApplicationRequest, submittedBy string) (*ApplicationResponse, error)
	Decide(ctx context.Context, id string, req DecideApplicationRequest, decidedBy string) (*ApplicationResponse, error)
	GetHistory(ctx context.Context, id string) ([]DecisionRecordResponse, error)
	Get(ctx context.Context, id string) (*ApplicationResponse, error)
	List(ctx context.Context, filter ApplicationFilter) ([]ApplicationResponse, int64, error)
}

type applicationService struct {
	db        *gorm.DB
	apps      repository.LoanApplicationRepository
	decisions repository.DecisionRecordRepository
	loans     LoanService
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewApplicationService(
	db *gorm.DB,
	apps repository.LoanApplicationRepository,
	decisions repository.DecisionRecordRepository,
	loans LoanService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ApplicationService {
	return &applicationService{
		db:        db,
		apps:      apps,
		decisions: decisions,
		loans:     loans,
		txManager: txManager,
		hub:       hub,
	}
}

// --- Implementation ---

func (s *applicationService) Submit(ctx context.Context, req SubmitApplicationRequest, submittedBy string) (*ApplicationResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, apperr.Validation("invalid customer_id: %v", err)
	}
	loanTypeID, err := uuid.Parse(req.LoanTypeID)
	if err != nil {
		return nil, apperr.Validation("invalid loan_type_id: %v", err)
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, apperr.Validation("invalid branch_id: %v", err)
	}
	principal, err := decimal.NewFromString(req.PrincipalAmount)
	if err != nil {
		return nil, apperr.Validation("invalid principal_amount: %v", err)
	}

	var savingAccountID *uuid.UUID
	if req.SavingAccountID != "" {
		parsed, parseErr := uuid.Parse(req.SavingAccountID)
		if parseErr != nil {
			return nil, apperr.Validation("invalid saving_account_id: %v", parseErr)
		}
		savingAccountID = &parsed
	}

	var submitterID *uuid.UUID
	if submittedBy != "" {
		if parsed, parseErr := uuid.Parse(submittedBy); parseErr == nil {
			submitterID = &parsed
		}
	}

	// Referential checks outside the write transaction; the FK constraints
	// back them up.
	var loanType model.LoanType
	if err := s.db.WithContext(ctx).First(&loanType, "id = ?", loanTypeID).Error; err != nil {
		return nil, apperr.NotFound("loan type %s does not exist", loanTypeID)
	}
	if !loanType.IsActive {
		return nil, apperr.Validation("loan type %q is no longer offered", loanType.Name)
	}
	if err := s.db.WithContext(ctx).First(&model.Branch{}, "id = ?", branchID).Error; err != nil {
		return nil, apperr.NotFound("branch %s does not exist", branchID)
	}
	if err := s.db.WithContext(ctx).First(&model.Customer{}, "id = ?", customerID).Error; err != nil {
		return nil, apperr.NotFound("customer %s does not exist", customerID)
	}
	if savingAccountID != nil {
		if err := s.db.WithContext(ctx).First(&model.SavingAccount{}, "id = ?", *savingAccountID).Error; err != nil {
			return nil, apperr.NotFound("saving account %s does not exist", *savingAccountID)
		}
	}

	// Bounds are checked against the loan type as it stands at submission.
	if principal.LessThan(loanType.MinAmount) || principal.GreaterThan(loanType.MaxAmount) {
		return nil, apperr.Validation("principal %s is outside the %q range [%s, %s]",
			principal, loanType.Name, loanType.MinAmount, loanType.MaxAmount)
	}
	if req.TermMonths < loanType.MinTermMonths || req.TermMonths > loanType.MaxTermMonths {
		return nil, apperr.Validation("term of %d months is outside the %q range [%d, %d]",
			req.TermMonths, loanType.Name, loanType.MinTermMonths, loanType.MaxTermMonths)
	}

	app := model.LoanApplication{
		CustomerID:      customerID,
		LoanTypeID:      loanTypeID,
		BranchID:        branchID,
		SavingAccountID: savingAccountID,
		PrincipalAmount: principal,
		TermMonths:      req.TermMonths,
		Purpose:         req.Purpose,
		Status:          model.ApplicationPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, genErr := s.generateApplicationNumber(txCtx)
		if genErr != nil {
			return fmt.Errorf("failed to generate application number: %w", genErr)
		}
		app.ApplicationNumber = number

		if createErr := s.apps.Create(txCtx, &app); createErr != nil {
			return fmt.Errorf("failed to create application: %w", createErr)
		}

		// Submission snapshot: the first entry of the decision history.
		record := model.DecisionRecord{
			ApplicationID: app.ID,
			Status:        model.ApplicationPending,
			DecidedBy:     submitterID,
			DecidedAt:     time.Now(),
		}
		if appendErr := s.decisions.Append(txCtx, &record); appendErr != nil {
			return fmt.Errorf("failed to append decision record: %w", appendErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"application_number": app.ApplicationNumber,
			"principal":          principal.StringFixed(2),
			"term_months":        req.TermMonths,
		})
		audit := model.AuditLog{
			UserID:     submitterID,
			Action:     model.ActionSubmitApplication,
			EntityID:   app.ID.String(),
			EntityName: app.ApplicationNumber,
			Details:    string(details),
		}
		return repository.GetDB(txCtx, s.db).Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, app.ID.String())
}

func (s *applicationService) Decide(ctx context.Context, id string, req DecideApplicationRequest, decidedBy string) (*ApplicationResponse, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid application id: %v", err)
	}

	var deciderID *uuid.UUID
	if decidedBy != "" {
		if parsed, parseErr := uuid.Parse(decidedBy); parseErr == nil {
			deciderID = &parsed
		}
	}

	var loan *model.Loan
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		app, findErr := s.apps.FindByIDForUpdate(txCtx, appID)
		if findErr != nil {
			return apperr.Wrap(apperr.KindNotFound, findErr, "application not found")
		}

		// Decisions are one-shot: approved/rejected/cancelled are terminal.
		if app.Status != model.ApplicationPending {
			return apperr.InvalidState("application %s is already %s", app.ApplicationNumber, app.Status)
		}

		now := time.Now()
		app.Status = req.Status
		app.FinalDecisionDate = &now

		if req.Status == model.ApplicationApproved {
			var loanType model.LoanType
			if ltErr := repository.GetDB(txCtx, s.db).First(&loanType, "id = ?", app.LoanTypeID).Error; ltErr != nil {
				return fmt.Errorf("loan type not found: %w", ltErr)
			}
			var createErr error
			loan, createErr = s.loans.CreateFromApplication(txCtx, app, &loanType, now)
			if createErr != nil {
				// Rolls back the whole decision: approving without a loan
				// would leave the application terminal with nothing to repay.
				return createErr
			}
		}

		if saveErr := s.apps.Update(txCtx, app); saveErr != nil {
			return fmt.Errorf("failed to update application: %w", saveErr)
		}

		record := model.DecisionRecord{
			ApplicationID: app.ID,
			Status:        req.Status,
			DecidedBy:     deciderID,
			DecidedAt:     now,
			Comments:      req.Comments,
		}
		if appendErr := s.decisions.Append(txCtx, &record); appendErr != nil {
			return fmt.Errorf("failed to append decision record: %w", appendErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"application_number": app.ApplicationNumber,
			"decision":           req.Status,
			"comments":           req.Comments,
		})
		audit := model.AuditLog{
			UserID:     deciderID,
			Action:     decisionAuditAction(req.Status),
			EntityID:   app.ID.String(),
			EntityName: app.ApplicationNumber,
			Details:    string(details),
		}
		if auditErr := repository.GetDB(txCtx, s.db).Create(&audit).Error; auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		if loan != nil {
			loanDetails, _ := json.Marshal(map[string]interface{}{
				"loan_number": loan.LoanNumber,
				"principal":   loan.PrincipalAmount.StringFixed(2),
			})
			loanAudit := model.AuditLog{
				UserID:     deciderID,
				Action:     model.ActionDisburseLoan,
				EntityID:   loan.ID.String(),
				EntityName: loan.LoanNumber,
				Details:    string(loanDetails),
			}
			if auditErr := repository.GetDB(txCtx, s.db).Create(&loanAudit).Error; auditErr != nil {
				return fmt.Errorf("failed to write loan audit log: %w", auditErr)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.hub.Publish("application.decided", resp)
	return resp, nil
}

func (s *applicationService) GetHistory(ctx context.Context, id string) ([]DecisionRecordResponse, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid application id: %v", err)
	}

	if _, err := s.apps.FindByID(ctx, appID); err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "application not found")
	}

	records, err := s.decisions.ListByApplication(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch decision history: %w", err)
	}

	result := make([]DecisionRecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, toDecisionResponse(r))
	}
	return result, nil
}

func (s *applicationService) Get(ctx context.Context, id string) (*ApplicationResponse, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid application id: %v", err)
	}

	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "application not found")
	}

	resp := s.toApplicationResponse(ctx, app)
	return &resp, nil
}

func (s *applicationService) List(ctx context.Context, filter ApplicationFilter) ([]ApplicationResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	apps, total, err := s.apps.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch applications: %w", err)
	}

	result := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		result = append(result, s.toApplicationResponse(ctx, &apps[i]))
	}
	return result, total, nil
}

func (s *applicationService) generateApplicationNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "APP-" + today + "-"

	db := repository.GetDB(ctx, s.db)
	repository.AdvisoryLock(db, prefix)

	count, err := s.apps.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// --- Helpers ---

func decisionAuditAction(status string) string {
	switch status {
	case model.ApplicationApproved:
		return model.ActionApproveApplication
	case model.ApplicationRejected:
		return model.ActionRejectApplication
	default:
		return model.ActionCancelApplication
	}
}

func (s *applicationService) toApplicationResponse(ctx context.Context, a *model.LoanApplication) ApplicationResponse {
	resp := ApplicationResponse{
		ID:                a.ID.String(),
		ApplicationNumber: a.ApplicationNumber,
		CustomerID:        a.CustomerID.String(),
		LoanTypeID:        a.LoanTypeID.String(),
		BranchID:          a.BranchID.String(),
		PrincipalAmount:   a.PrincipalAmount.StringFixed(2),
		TermMonths:        a.TermMonths,
		Purpose:           a.Purpose,
		Status:            a.Status,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}

	if a.Customer != nil {
		resp.CustomerName = a.Customer.FullName
	}
	if a.LoanType != nil {
		resp.LoanTypeName = a.LoanType.Name
	}
	if a.SavingAccountID != nil {
		v := a.SavingAccountID.String()
		resp.SavingAccountID = &v
	}
	if a.FinalDecisionDate != nil {
		v := a.FinalDecisionDate.Format(time.RFC3339)
		resp.FinalDecisionDate = &v
	}

	if a.Status == model.ApplicationApproved {
		var loan model.Loan
		if err := s.db.WithContext(ctx).Select("id").First(&loan, "application_id = ?", a.ID).Error; err == nil {
			v := loan.ID.String()
			resp.LoanID = &v
		}
	}

	return resp
}

func toDecisionResponse(r model.DecisionRecord) DecisionRecordResponse {
	resp := DecisionRecordResponse{
		ID:          r.ID.String(),
		Status:      r.Status,
		DeciderName: "System",
		DecidedAt:   r.DecidedAt.Format(time.RFC3339),
		Comments:    r.Comments,
	}

	if r.DecidedBy != nil {
		v := r.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if r.Decider != nil {
		resp.DeciderName = r.Decider.Username
	}

	return resp
}
