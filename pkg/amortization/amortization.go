package amortization

import (
	"time"

	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
)

var (
	twelve = decimal.NewFromInt(12)
)

// Installment is one row of a projected repayment schedule.
type Installment struct {
	Number  int             `json:"installment_number"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// Project builds a flat-rate repayment schedule: total interest is
// principal * annualRate * termMonths/12, and the sum of principal and
// interest is spread evenly across termMonths installments due one month
// apart starting one month after start.
//
// Each installment is rounded down to 2 decimal places; the final
// installment absorbs the rounding remainder so the schedule sums exactly to
// the rounded total owed. Rounding down keeps every earlier installment at or
// below the even share, so the remainder is never negative regardless of how
// small the principal is relative to the term. Pure: no I/O, identical inputs
// give identical output.
func Project(principal, annualRate decimal.Decimal, termMonths int, start time.Time) ([]Installment, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.Validation("principal must be greater than zero, got %s", principal)
	}
	if annualRate.IsNegative() {
		return nil, apperr.Validation("annual rate must not be negative, got %s", annualRate)
	}
	if termMonths <= 0 {
		return nil, apperr.Validation("term must be at least one month, got %d", termMonths)
	}

	months := decimal.NewFromInt(int64(termMonths))
	totalInterest := principal.Mul(annualRate).Mul(months).Div(twelve)
	total := principal.Add(totalInterest).Round(2)
	monthly := total.Div(months).RoundDown(2)

	schedule := make([]Installment, termMonths)
	paid := decimal.Zero
	for i := 1; i <= termMonths; i++ {
		amount := monthly
		if i == termMonths {
			amount = total.Sub(paid)
		}
		schedule[i-1] = Installment{
			Number:  i,
			DueDate: start.AddDate(0, i, 0),
			Amount:  amount,
		}
		paid = paid.Add(amount)
	}

	return schedule, nil
}

// TotalInterest returns the flat-rate interest charged over the full term.
func TotalInterest(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	months := decimal.NewFromInt(int64(termMonths))
	return principal.Mul(annualRate).Mul(months).Div(twelve).Round(2)
}
