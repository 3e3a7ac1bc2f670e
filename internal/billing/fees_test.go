package billing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/gymflow/internal/models"
)

func TestOneTimeApplicationFee_Floor(t *testing.T) {
	cases := map[int64]int64{
		0:      0,
		-500:   0,
		1:      0,
		19:     0,
		20:     1,
		39:     1,
		9990:   499,
		19990:  999,
		100000: 5000,
	}
	for amount, want := range cases {
		assert.Equal(t, want, OneTimeApplicationFee(amount), "amount=%d", amount)
	}
}

func TestOneTimeApplicationFee_MatchesFloorOfRate(t *testing.T) {
	for a := int64(0); a < 50_000; a += 7 {
		want := int64(math.Floor(float64(a) * PlatformCommissionRate))
		require.Equal(t, want, OneTimeApplicationFee(a), "amount=%d", a)
		require.LessOrEqual(t, OneTimeApplicationFee(a)*20, a)
	}
}

func TestRecurringPercentIndependentOfAmount(t *testing.T) {
	for _, a := range []int64{1, 999, 123456789} {
		s := SplitFor(Price{UnitAmount: a, Interval: models.IntervalMonth}, true)
		require.NotNil(t, s.ApplicationFeePercent)
		assert.Nil(t, s.ApplicationFeeAmount)
		assert.Equal(t, 5.0, *s.ApplicationFeePercent)
	}
}

func TestSplitFor_OneTime(t *testing.T) {
	s := SplitFor(Price{UnitAmount: 14990}, false)
	require.NotNil(t, s.ApplicationFeeAmount)
	assert.Nil(t, s.ApplicationFeePercent)
	assert.Equal(t, int64(749), *s.ApplicationFeeAmount)
}

func TestEstimateFees_UsesHighestCostMethod(t *testing.T) {
	cases := []struct {
		amount    string
		method    PaymentMethod
		processor string
		platform  string
		net       string
	}{
		// карта: 199.90*3.99% + 0.39 = 8.37
		{"199.90", MethodCard, "8.37", "9.99", "181.54"},
		// мелкая сумма: boleto 3.45 дороже карты
		{"50", MethodBoleto, "3.45", "2.5", "44.05"},
		{"0", MethodBoleto, "3.45", "0", "0"},
	}
	for _, c := range cases {
		t.Run(c.amount, func(t *testing.T) {
			e := EstimateFees(decimal.RequireFromString(c.amount))
			assert.Equal(t, c.method, e.Method)
			assert.True(t, e.ProcessorFee.Equal(decimal.RequireFromString(c.processor)), e.ProcessorFee.String())
			assert.True(t, e.PlatformFee.Equal(decimal.RequireFromString(c.platform)), e.PlatformFee.String())
			assert.True(t, e.Net.Equal(decimal.RequireFromString(c.net)), e.Net.String())
		})
	}
}

func TestEstimateFees_PlatformFeeIsEstimateOnly(t *testing.T) {
	// оценка в валюте и реальная комиссия в центах считаются независимо
	e := EstimateFees(decimal.RequireFromString("100.00"))
	assert.True(t, e.PlatformFee.Equal(decimal.NewFromInt(5)), e.PlatformFee.String())
	assert.Equal(t, int64(500), OneTimeApplicationFee(10000))
}
