package service

import (
	"context"
	"testing"

	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulePreview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	schedule, err := env.schedules.Preview(ctx, SchedulePreviewRequest{
		Principal:  "1000",
		AnnualRate: "0.12",
		TermMonths: 12,
		StartDate:  "2026-01-15",
	})
	require.NoError(t, err)

	assert.Equal(t, "120.00", schedule.TotalInterest)
	require.Len(t, schedule.Installments, 12)

	// Equal installments except the last, which absorbs the rounding remainder
	assert.Equal(t, "93.33", schedule.Installments[0].Amount)
	assert.Equal(t, "93.37", schedule.Installments[11].Amount)

	// Installments sum exactly to principal + interest
	sum := decimal.Zero
	for _, inst := range schedule.Installments {
		sum = sum.Add(decimal.RequireFromString(inst.Amount))
	}
	assert.True(t, sum.Equal(decimal.RequireFromString("1120")), "sum %s", sum)

	// Due dates are monthly from the start date
	assert.Equal(t, "2026-02-15", schedule.Installments[0].DueDate)
	assert.Equal(t, "2027-01-15", schedule.Installments[11].DueDate)
}

func TestSchedulePreviewValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.schedules.Preview(ctx, SchedulePreviewRequest{
		Principal:  "0",
		AnnualRate: "0.12",
		TermMonths: 12,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = env.schedules.Preview(ctx, SchedulePreviewRequest{
		Principal:  "1000",
		AnnualRate: "-0.01",
		TermMonths: 12,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestProjectForLoanUsesOriginalTerms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "2400", 24)
	loanID := env.approveApplication(t, app.ID)

	schedule, err := env.schedules.ProjectForLoan(ctx, loanID)
	require.NoError(t, err)

	assert.Equal(t, loanID, schedule.LoanID)
	assert.NotEmpty(t, schedule.LoanNumber)
	assert.Equal(t, 24, schedule.TermMonths)
	assert.Equal(t, "2400.00", schedule.Principal)
	require.Len(t, schedule.Installments, 24)

	// The projection stays anchored to the original principal even after
	// payments move the balance.
	p := env.recordPayment(t, loanID, "500")
	env.approvePayment(t, p.ID)

	again, err := env.schedules.ProjectForLoan(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, schedule.Installments[0].Amount, again.Installments[0].Amount)
}
