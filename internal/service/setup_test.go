package service

import (
	"context"
	"fmt"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack against an in-memory SQLite database.
type testEnv struct {
	db        *gorm.DB
	apps      ApplicationService
	loans     LoanService
	payments  PaymentService
	schedules ScheduleService
	catalog   CatalogService

	branch   model.Branch
	customer model.Customer
	loanType model.LoanType
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Unique DSN per test so parallel tests never share a database. A single
	// connection keeps the in-memory database alive for the test's duration.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	txManager := repository.NewTransactionManager(db)
	appRepo := repository.NewLoanApplicationRepository(db)
	decisionRepo := repository.NewDecisionRecordRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	loans := NewLoanService(db, loanRepo, txManager)

	env := &testEnv{
		db:        db,
		loans:     loans,
		apps:      NewApplicationService(db, appRepo, decisionRepo, loans, txManager, nil),
		payments:  NewPaymentService(db, paymentRepo, loanRepo, loans, txManager, nil),
		schedules: NewScheduleService(loanRepo),
		catalog:   NewCatalogService(db),
	}
	env.seed(t)
	return env
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()

	e.branch = model.Branch{Code: "HQ", Name: "Head Office", Address: "1 Main St"}
	require.NoError(t, e.db.Create(&e.branch).Error)

	e.customer = model.Customer{
		FullName:   "Awa Diallo",
		Phone:      "0700000001",
		Email:      "awa@example.com",
		NationalID: "CU-001",
		BranchID:   &e.branch.ID,
	}
	require.NoError(t, e.db.Create(&e.customer).Error)

	e.loanType = model.LoanType{
		Name:               "Standard Loan",
		Description:        "General purpose credit",
		MinAmount:          decimal.NewFromInt(100),
		MaxAmount:          decimal.NewFromInt(100000),
		MinTermMonths:      1,
		MaxTermMonths:      60,
		AnnualInterestRate: decimal.RequireFromString("0.12"),
		IsActive:           true,
	}
	require.NoError(t, e.db.Create(&e.loanType).Error)
}

// submitApplication submits a pending application for the seeded customer.
func (e *testEnv) submitApplication(t *testing.T, principal string, termMonths int) *ApplicationResponse {
	t.Helper()
	app, err := e.apps.Submit(context.Background(), SubmitApplicationRequest{
		CustomerID:      e.customer.ID.String(),
		LoanTypeID:      e.loanType.ID.String(),
		BranchID:        e.branch.ID.String(),
		PrincipalAmount: principal,
		TermMonths:      termMonths,
		Purpose:         "working capital",
	}, "")
	require.NoError(t, err)
	return app
}

// approveApplication decides an application as approved and returns the loan id.
func (e *testEnv) approveApplication(t *testing.T, appID string) string {
	t.Helper()
	decided, err := e.apps.Decide(context.Background(), appID, DecideApplicationRequest{
		Status:   model.ApplicationApproved,
		Comments: "ok",
	}, "")
	require.NoError(t, err)
	require.NotNil(t, decided.LoanID)
	return *decided.LoanID
}

// recordPayment records a pending payment against a loan.
func (e *testEnv) recordPayment(t *testing.T, loanID, amount string) *PaymentResponse {
	t.Helper()
	payment, err := e.payments.Record(context.Background(), RecordPaymentRequest{
		LoanID:      loanID,
		Amount:      amount,
		PaymentDate: "2026-08-01",
		Method:      model.MethodCash,
		Reference:   "RCPT-001",
	}, "")
	require.NoError(t, err)
	return payment
}

// approvePayment verifies a pending payment as approved.
func (e *testEnv) approvePayment(t *testing.T, paymentID string) *PaymentResponse {
	t.Helper()
	payment, err := e.payments.Verify(context.Background(), paymentID, VerifyPaymentRequest{Action: "approve"}, "")
	require.NoError(t, err)
	return payment
}

func (e *testEnv) loanBalance(t *testing.T, loanID string) decimal.Decimal {
	t.Helper()
	loan, err := e.loans.Get(context.Background(), loanID)
	require.NoError(t, err)
	return decimal.RequireFromString(loan.Balance)
}
