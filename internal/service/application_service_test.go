package service

import (
	"context"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitApplication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)

	assert.Equal(t, model.ApplicationPending, app.Status)
	assert.Equal(t, "5000.00", app.PrincipalAmount)
	assert.Equal(t, 12, app.TermMonths)
	assert.True(t, strings.HasPrefix(app.ApplicationNumber, "APP-"), "got %s", app.ApplicationNumber)
	assert.Nil(t, app.FinalDecisionDate)
	assert.Nil(t, app.LoanID)

	// Submission writes the first decision record
	history, err := env.apps.GetHistory(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ApplicationPending, history[0].Status)
	assert.Equal(t, "System", history[0].DeciderName)

	// And an audit entry
	var count int64
	require.NoError(t, env.db.Model(&model.AuditLog{}).
		Where("action = ?", model.ActionSubmitApplication).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitApplicationNumbersAreSequential(t *testing.T) {
	env := newTestEnv(t)

	first := env.submitApplication(t, "1000", 6)
	second := env.submitApplication(t, "2000", 6)

	assert.NotEqual(t, first.ApplicationNumber, second.ApplicationNumber)
	assert.True(t, strings.HasSuffix(first.ApplicationNumber, "-00001"), "got %s", first.ApplicationNumber)
	assert.True(t, strings.HasSuffix(second.ApplicationNumber, "-00002"), "got %s", second.ApplicationNumber)
}

func TestSubmitApplicationBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := SubmitApplicationRequest{
		CustomerID: env.customer.ID.String(),
		LoanTypeID: env.loanType.ID.String(),
		BranchID:   env.branch.ID.String(),
		TermMonths: 12,
	}

	t.Run("principal below minimum", func(t *testing.T) {
		req := base
		req.PrincipalAmount = "50"
		_, err := env.apps.Submit(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("principal above maximum", func(t *testing.T) {
		req := base
		req.PrincipalAmount = "500000"
		_, err := env.apps.Submit(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("term above maximum", func(t *testing.T) {
		req := base
		req.PrincipalAmount = "5000"
		req.TermMonths = 120
		_, err := env.apps.Submit(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("unknown loan type", func(t *testing.T) {
		req := base
		req.PrincipalAmount = "5000"
		req.LoanTypeID = "a6a1bb58-0000-0000-0000-000000000000"
		_, err := env.apps.Submit(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})

	t.Run("malformed principal", func(t *testing.T) {
		req := base
		req.PrincipalAmount = "not-a-number"
		_, err := env.apps.Submit(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}

func TestSubmitApplicationInactiveLoanType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.db.Model(&model.LoanType{}).
		Where("id = ?", env.loanType.ID).Update("is_active", false).Error)

	_, err := env.apps.Submit(ctx, SubmitApplicationRequest{
		CustomerID:      env.customer.ID.String(),
		LoanTypeID:      env.loanType.ID.String(),
		BranchID:        env.branch.ID.String(),
		PrincipalAmount: "5000",
		TermMonths:      12,
	}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestApproveApplicationCreatesLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	loan, err := env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanActive, loan.Status)
	assert.Equal(t, "5000.00", loan.PrincipalAmount)
	assert.Equal(t, "5000.00", loan.Balance)
	assert.Equal(t, 12, loan.TermMonths)
	assert.Equal(t, app.ID, loan.ApplicationID)
	assert.True(t, strings.HasPrefix(loan.LoanNumber, "LN-"), "got %s", loan.LoanNumber)

	// Rate snapshotted from the loan type at decision time
	rate := decimal.RequireFromString(loan.InterestRate)
	assert.True(t, rate.Equal(env.loanType.AnnualInterestRate))

	// Application is terminal with a decision date
	decided, err := env.apps.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationApproved, decided.Status)
	assert.NotNil(t, decided.FinalDecisionDate)

	// History holds submission + approval, in order
	history, err := env.apps.GetHistory(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ApplicationPending, history[0].Status)
	assert.Equal(t, model.ApplicationApproved, history[1].Status)
	assert.Equal(t, "ok", history[1].Comments)
}

func TestRejectApplicationCreatesNoLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	decided, err := env.apps.Decide(ctx, app.ID, DecideApplicationRequest{
		Status:   model.ApplicationRejected,
		Comments: "insufficient income",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, model.ApplicationRejected, decided.Status)
	assert.Nil(t, decided.LoanID)

	var loanCount int64
	require.NoError(t, env.db.Model(&model.Loan{}).Count(&loanCount).Error)
	assert.EqualValues(t, 0, loanCount)
}

func TestDecisionIsOneShot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	env.approveApplication(t, app.ID)

	for _, status := range []string{model.ApplicationApproved, model.ApplicationRejected, model.ApplicationCancelled} {
		_, err := env.apps.Decide(ctx, app.ID, DecideApplicationRequest{Status: status}, "")
		require.Error(t, err, "second decision %q must fail", status)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	}

	// The failed attempts must not append history
	history, err := env.apps.GetHistory(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCancelApplication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	decided, err := env.apps.Decide(ctx, app.ID, DecideApplicationRequest{
		Status:   model.ApplicationCancelled,
		Comments: "withdrawn by applicant",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationCancelled, decided.Status)

	// Terminal: no further decisions
	_, err = env.apps.Decide(ctx, app.ID, DecideApplicationRequest{Status: model.ApplicationApproved}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestListApplicationsFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.submitApplication(t, "1000", 6)
	env.submitApplication(t, "2000", 6)
	env.approveApplication(t, first.ID)

	pending, total, err := env.apps.List(ctx, ApplicationFilter{Status: model.ApplicationPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, model.ApplicationPending, pending[0].Status)

	all, total, err := env.apps.List(ctx, ApplicationFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)
}
