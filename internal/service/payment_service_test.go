package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPaymentAllocation(t *testing.T) {
	env := newTestEnv(t)

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	payment := env.recordPayment(t, loanID, "1200")

	assert.Equal(t, model.PaymentPending, payment.Status)
	assert.Equal(t, 1, payment.PaymentNumber)
	assert.Equal(t, "1200.00", payment.Amount)
	assert.Equal(t, "1200.00", payment.PrincipalAmount)
	assert.Equal(t, "0.00", payment.InterestAmount)

	// Recording alone never moves the balance
	assert.True(t, env.loanBalance(t, loanID).Equal(decimal.NewFromInt(5000)))
}

func TestRecordPaymentExcessGoesToInterest(t *testing.T) {
	env := newTestEnv(t)

	app := env.submitApplication(t, "1000", 6)
	loanID := env.approveApplication(t, app.ID)

	// Amount above the remaining balance: principal clamps to the balance,
	// the rest is interest.
	payment := env.recordPayment(t, loanID, "1150")

	assert.Equal(t, "1000.00", payment.PrincipalAmount)
	assert.Equal(t, "150.00", payment.InterestAmount)

	total := decimal.RequireFromString(payment.PrincipalAmount).
		Add(decimal.RequireFromString(payment.InterestAmount))
	assert.True(t, total.Equal(decimal.RequireFromString(payment.Amount)))
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	base := RecordPaymentRequest{
		LoanID:      loanID,
		Amount:      "100",
		PaymentDate: "2026-08-01",
		Method:      model.MethodCash,
		Reference:   "RCPT-001",
	}

	t.Run("zero amount", func(t *testing.T) {
		req := base
		req.Amount = "0"
		_, err := env.payments.Record(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("negative amount", func(t *testing.T) {
		req := base
		req.Amount = "-50"
		_, err := env.payments.Record(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("future payment date", func(t *testing.T) {
		req := base
		req.PaymentDate = "2099-01-01"
		_, err := env.payments.Record(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("short reference", func(t *testing.T) {
		req := base
		req.Reference = "  x "
		_, err := env.payments.Record(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("unknown loan", func(t *testing.T) {
		req := base
		req.LoanID = "a6a1bb58-0000-0000-0000-000000000000"
		_, err := env.payments.Record(ctx, req, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}

func TestVerifyPaymentAppliesBalance(t *testing.T) {
	env := newTestEnv(t)

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	payment := env.recordPayment(t, loanID, "1200")
	verified := env.approvePayment(t, payment.ID)

	assert.Equal(t, model.PaymentCompleted, verified.Status)
	assert.NotNil(t, verified.VerifiedAt)
	assert.True(t, env.loanBalance(t, loanID).Equal(decimal.NewFromInt(3800)))
}

func TestVerifyPaymentIsOneShot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	payment := env.recordPayment(t, loanID, "1200")
	env.approvePayment(t, payment.ID)

	// A second approve must fail without touching the balance again
	_, err := env.payments.Verify(ctx, payment.ID, VerifyPaymentRequest{Action: "approve"}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	assert.True(t, env.loanBalance(t, loanID).Equal(decimal.NewFromInt(3800)))
}

func TestRejectPaymentRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)
	payment := env.recordPayment(t, loanID, "1200")

	_, err := env.payments.Verify(ctx, payment.ID, VerifyPaymentRequest{Action: "reject"}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	rejected, err := env.payments.Verify(ctx, payment.ID, VerifyPaymentRequest{
		Action: "reject",
		Reason: "receipt does not match deposit",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRejected, rejected.Status)
	assert.Equal(t, "receipt does not match deposit", rejected.RejectionReason)

	// Rejection leaves the balance alone
	assert.True(t, env.loanBalance(t, loanID).Equal(decimal.NewFromInt(5000)))
}

func TestFullRepaymentMarksLoanPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "3000", 6)
	loanID := env.approveApplication(t, app.ID)

	for _, amount := range []string{"1000", "1000", "1000"} {
		p := env.recordPayment(t, loanID, amount)
		env.approvePayment(t, p.ID)
	}

	loan, err := env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanPaid, loan.Status)
	assert.Equal(t, "0.00", loan.Balance)
	assert.NotNil(t, loan.EndDate)
	assert.NotNil(t, loan.LastPaymentDate)
}

func TestVerifyRejectsStaleAllocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "3000", 6)
	loanID := env.approveApplication(t, app.ID)

	// Both payments are recorded while the full balance is outstanding, so
	// each carries a principal split of 3000.
	first := env.recordPayment(t, loanID, "3000")
	second := env.recordPayment(t, loanID, "3000")

	env.approvePayment(t, first.ID)

	// The second split is now stale: applying it would drive the balance
	// negative, so verification must refuse rather than double-debit.
	_, err := env.payments.Verify(ctx, second.ID, VerifyPaymentRequest{Action: "approve"}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindOverpayment))

	loan, err := env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanPaid, loan.Status)
	assert.Equal(t, "0.00", loan.Balance)

	// The failed verification rolled back, the payment is still pending
	stale, err := env.payments.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, stale.Status)
}

func TestInterestOnlyPaymentKeepsPayoffDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "3000", 6)
	loanID := env.approveApplication(t, app.ID)

	payoff := env.recordPayment(t, loanID, "3000")
	env.approvePayment(t, payoff.ID)

	loan, err := env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	require.Equal(t, model.LoanPaid, loan.Status)
	require.NotNil(t, loan.EndDate)
	payoffDate := *loan.EndDate

	// A payment recorded after payoff allocates wholly to interest. Applying
	// it keeps the loan paid and must not move the payoff date.
	late, err := env.payments.Record(ctx, RecordPaymentRequest{
		LoanID:      loanID,
		Amount:      "150",
		PaymentDate: "2026-08-15",
		Method:      model.MethodCash,
		Reference:   "RCPT-002",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "0.00", late.PrincipalAmount)
	assert.Equal(t, "150.00", late.InterestAmount)

	env.approvePayment(t, late.ID)

	loan, err = env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanPaid, loan.Status)
	assert.Equal(t, "0.00", loan.Balance)
	require.NotNil(t, loan.EndDate)
	assert.Equal(t, payoffDate, *loan.EndDate)
}

func TestReversePaymentRestoresBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "3000", 6)
	loanID := env.approveApplication(t, app.ID)

	payment := env.recordPayment(t, loanID, "3000")
	env.approvePayment(t, payment.ID)

	loan, err := env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	require.Equal(t, model.LoanPaid, loan.Status)

	reversed, err := env.payments.Reverse(ctx, payment.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentReversed, reversed.Status)
	// The sequence slot is retained
	assert.Equal(t, payment.PaymentNumber, reversed.PaymentNumber)

	// Loan reopens with the balance restored
	loan, err = env.loans.Get(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanActive, loan.Status)
	assert.Equal(t, "3000.00", loan.Balance)
	assert.Nil(t, loan.EndDate)
}

func TestReverseRequiresCompletedPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "3000", 6)
	loanID := env.approveApplication(t, app.ID)
	payment := env.recordPayment(t, loanID, "500")

	_, err := env.payments.Reverse(ctx, payment.ID, "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestPaymentNumbersAreSequentialPerLoan(t *testing.T) {
	env := newTestEnv(t)

	appA := env.submitApplication(t, "5000", 12)
	loanA := env.approveApplication(t, appA.ID)
	appB := env.submitApplication(t, "4000", 12)
	loanB := env.approveApplication(t, appB.ID)

	first := env.recordPayment(t, loanA, "100")
	second := env.recordPayment(t, loanA, "100")
	other := env.recordPayment(t, loanB, "100")

	assert.Equal(t, 1, first.PaymentNumber)
	assert.Equal(t, 2, second.PaymentNumber)
	assert.Equal(t, 1, other.PaymentNumber)
}

func TestPaymentAggregatesCountCompletedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	completed := env.recordPayment(t, loanID, "1200")
	env.approvePayment(t, completed.ID)

	env.recordPayment(t, loanID, "700") // stays pending

	rejected := env.recordPayment(t, loanID, "300")
	_, err := env.payments.Verify(ctx, rejected.ID, VerifyPaymentRequest{Action: "reject", Reason: "bad receipt"}, "")
	require.NoError(t, err)

	agg, err := env.payments.Aggregates(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", agg.TotalPaid)
	assert.Equal(t, "1200.00", agg.PrincipalPaid)
	assert.Equal(t, "0.00", agg.InterestPaid)
}

// Balance conservation: sum of completed principal portions plus the
// remaining balance always equals the original principal.
func TestBalanceConservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	app := env.submitApplication(t, "5000", 12)
	loanID := env.approveApplication(t, app.ID)

	for _, amount := range []string{"1200", "800", "1500"} {
		p := env.recordPayment(t, loanID, amount)
		env.approvePayment(t, p.ID)
	}

	agg, err := env.payments.Aggregates(ctx, loanID)
	require.NoError(t, err)

	principalPaid := decimal.RequireFromString(agg.PrincipalPaid)
	balance := env.loanBalance(t, loanID)
	assert.True(t, principalPaid.Add(balance).Equal(decimal.NewFromInt(5000)),
		"principal paid %s + balance %s should equal 5000", principalPaid, balance)
}
