package service

import (
	"context"
	"testing"

	"backend/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLoanTypeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.catalog.CreateLoanType(ctx, CreateLoanTypeRequest{
		Name:               "Backwards",
		MinAmount:          "1000",
		MaxAmount:          "500",
		MinTermMonths:      1,
		MaxTermMonths:      12,
		AnnualInterestRate: "0.1",
	}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = env.catalog.CreateLoanType(ctx, CreateLoanTypeRequest{
		Name:               "Negative",
		MinAmount:          "100",
		MaxAmount:          "1000",
		MinTermMonths:      1,
		MaxTermMonths:      12,
		AnnualInterestRate: "-0.1",
	}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateLoanTypeKeepsExistingLoanRates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	// Raise the product rate after the loan was approved
	_, err := env.catalog.UpdateLoanType(ctx, env.loanType.ID.String(), UpdateLoanTypeRequest{
		AnnualInterestRate: "0.25",
	}, "")
	require.NoError(t, err)

	loan, err := env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, "0.12", loan.InterestRate)
}

func TestDeactivatedLoanTypeBlocksNewApplications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inactive := false
	_, err := env.catalog.UpdateLoanType(ctx, env.loanType.ID.String(), UpdateLoanTypeRequest{
		IsActive: &inactive,
	}, "")
	require.NoError(t, err)

	_, err = env.apps.Submit(ctx, SubmitApplicationRequest{
		CustomerID:      env.customer.ID.String(),
		LoanTypeID:      env.loanType.ID.String(),
		BranchID:        env.branch.ID.String(),
		PrincipalAmount: "5000",
		TermMonths:      12,
	}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCustomerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.catalog.CreateCustomer(ctx, CreateCustomerRequest{
		FullName:   "Moussa Traoré",
		Phone:      "0700000009",
		NationalID: "CU-002",
		BranchID:   env.branch.ID.String(),
	}, "")
	require.NoError(t, err)

	fetched, err := env.catalog.GetCustomer(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Moussa Traoré", fetched.FullName)
	require.NotNil(t, fetched.Branch)
	assert.Equal(t, env.branch.Code, fetched.Branch.Code)

	_, _, err = env.catalog.ListCustomers(ctx, 1, 20)
	require.NoError(t, err)

	_, err = env.catalog.CreateCustomer(ctx, CreateCustomerRequest{
		FullName: "No Branch",
		BranchID: "a6a1bb58-0000-0000-0000-000000000000",
	}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
