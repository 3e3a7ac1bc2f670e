// Package billing — комиссия платформы, платёжные ссылки Stripe Connect и продление записей по оплате.
package billing

import "github.com/Spok95/gymflow/internal/models"

const (
	PlatformCommissionRate    = 0.05
	PlatformCommissionPercent = 5.0

	commissionNumerator   = 5
	commissionDenominator = 100
)

// Price — цена процессора в минимальных единицах валюты.
type Price struct {
	ID         string
	UnitAmount int64
	Currency   string
	Interval   models.Interval
}

func (p Price) IsRecurring() bool { return p.Interval != models.IntervalNone }

// Split — ровно одно из полей задано.
type Split struct {
	ApplicationFeeAmount  *int64
	ApplicationFeePercent *float64
}

// OneTimeApplicationFee — floor(amount * 5%); процессор принимает только целые центы,
// округляем вниз.
func OneTimeApplicationFee(unitAmount int64) int64 {
	if unitAmount <= 0 {
		return 0
	}
	return unitAmount * commissionNumerator / commissionDenominator
}

// RecurringApplicationFeePercent — процент считает сам процессор в каждом цикле.
func RecurringApplicationFeePercent() float64 {
	return PlatformCommissionPercent
}

func SplitFor(price Price, recurring bool) Split {
	if recurring {
		pct := RecurringApplicationFeePercent()
		return Split{ApplicationFeePercent: &pct}
	}
	fee := OneTimeApplicationFee(price.UnitAmount)
	return Split{ApplicationFeeAmount: &fee}
}
