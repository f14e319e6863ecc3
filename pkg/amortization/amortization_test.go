package amortization

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestProjectFlatRate(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	schedule, err := Project(d("1000"), d("0.12"), 12, start)
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	// 1000 * 0.12 * 12/12 = 120 interest, 1120 total, 93.33/month.
	assert.True(t, schedule[0].Amount.Equal(d("93.33")), "got %s", schedule[0].Amount)
	assert.Equal(t, 1, schedule[0].Number)
	assert.Equal(t, start.AddDate(0, 1, 0), schedule[0].DueDate)
	assert.Equal(t, start.AddDate(0, 12, 0), schedule[11].DueDate)

	// The final installment absorbs the rounding remainder.
	assert.True(t, schedule[11].Amount.Equal(d("93.37")), "got %s", schedule[11].Amount)

	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(d("1120")), "schedule sums to %s", sum)
}

func TestProjectZeroRate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	schedule, err := Project(d("600"), decimal.Zero, 6, start)
	require.NoError(t, err)
	require.Len(t, schedule, 6)

	for _, inst := range schedule {
		assert.True(t, inst.Amount.Equal(d("100")), "installment %d got %s", inst.Number, inst.Amount)
	}
}

func TestProjectTinyPrincipalLongTerm(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	// 0.50 over 100 months: the even share is half a cent, which must round
	// down to zero, leaving the whole amount on the final installment. With
	// half-up rounding the first 99 installments would overshoot the total
	// and drive the final installment negative.
	schedule, err := Project(d("0.50"), decimal.Zero, 100, start)
	require.NoError(t, err)
	require.Len(t, schedule, 100)

	sum := decimal.Zero
	for _, inst := range schedule {
		assert.False(t, inst.Amount.IsNegative(), "installment %d got %s", inst.Number, inst.Amount)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(d("0.50")), "schedule sums to %s", sum)
	assert.True(t, schedule[99].Amount.Equal(d("0.50")), "got %s", schedule[99].Amount)
}

func TestProjectDeterministic(t *testing.T) {
	start := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

	first, err := Project(d("5000"), d("0.155"), 36, start)
	require.NoError(t, err)
	second, err := Project(d("5000"), d("0.155"), 36, start)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProjectRejectsInvalidInputs(t *testing.T) {
	start := time.Now()

	_, err := Project(decimal.Zero, d("0.1"), 12, start)
	assert.Error(t, err)

	_, err = Project(d("-5"), d("0.1"), 12, start)
	assert.Error(t, err)

	_, err = Project(d("1000"), d("-0.1"), 12, start)
	assert.Error(t, err)

	_, err = Project(d("1000"), d("0.1"), 0, start)
	assert.Error(t, err)
}
