package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoanByNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	loan, err := env.loans.Get(ctx, loanID)
	require.NoError(t, err)

	byNumber, err := env.loans.GetByNumber(ctx, loan.LoanNumber)
	require.NoError(t, err)
	assert.Equal(t, loan.ID, byNumber.ID)

	_, err = env.loans.GetByNumber(ctx, "LN-19700101-99999")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestMarkDefaulted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)
	id := uuid.MustParse(loanID)

	loan, err := env.loans.MarkDefaulted(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.LoanDefaulted, loan.Status)

	// Already defaulted: not active anymore
	_, err = env.loans.MarkDefaulted(ctx, id)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	// Audit entry written
	var count int64
	require.NoError(t, env.db.Model(&model.AuditLog{}).
		Where("action = ?", model.ActionMarkLoanDefaulted).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMarkDefaultedRejectsPaidLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "1000", 6)
	loanID := env.approveApplication(t, app.ID)

	p := env.recordPayment(t, loanID, "1000")
	env.approvePayment(t, p.ID)

	_, err := env.loans.MarkDefaulted(ctx, uuid.MustParse(loanID))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestListLoansFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	appA := env.submitApplication(t, "1000", 6)
	loanA := env.approveApplication(t, appA.ID)
	appB := env.submitApplication(t, "2000", 6)
	env.approveApplication(t, appB.ID)

	p := env.recordPayment(t, loanA, "1000")
	env.approvePayment(t, p.ID)

	active, total, err := env.loans.List(ctx, LoanFilter{Status: model.LoanActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, active, 1)
	assert.Equal(t, "2000.00", active[0].PrincipalAmount)

	paid, total, err := env.loans.List(ctx, LoanFilter{Status: model.LoanPaid})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, paid, 1)
	assert.Equal(t, loanA, paid[0].ID)
}
