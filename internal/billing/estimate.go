package billing

import "github.com/shopspring/decimal"

// Оценка для экрана перед созданием ссылки. К реальному split не относится:
// настоящая стоимость процессора зависит от способа оплаты и известна только после оплаты.

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodBoleto PaymentMethod = "boleto"
	MethodPix    PaymentMethod = "pix"
)

type methodSchedule struct {
	method  PaymentMethod
	percent decimal.Decimal
	fixed   decimal.Decimal
}

var methodSchedules = []methodSchedule{
	{MethodCard, decimal.RequireFromString("3.99"), decimal.RequireFromString("0.39")},
	{MethodBoleto, decimal.Zero, decimal.RequireFromString("3.45")},
	{MethodPix, decimal.RequireFromString("1.19"), decimal.Zero},
}

var hundred = decimal.NewFromInt(100)

type Estimate struct {
	Gross        decimal.Decimal `json:"gross"`
	ProcessorFee decimal.Decimal `json:"processorFee"`
	PlatformFee  decimal.Decimal `json:"platformFee"`
	Net          decimal.Decimal `json:"net"`
	Method       PaymentMethod   `json:"method"`
}

// EstimateFees — худший по стоимости способ оплаты плюс 5% платформы, всё округлено до центов.
func EstimateFees(amount decimal.Decimal) Estimate {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	worst := methodSchedules[0]
	worstFee := processorFee(amount, worst)
	for _, s := range methodSchedules[1:] {
		if fee := processorFee(amount, s); fee.GreaterThan(worstFee) {
			worst, worstFee = s, fee
		}
	}
	platform := amount.Mul(decimal.NewFromFloat(PlatformCommissionPercent)).Div(hundred).RoundFloor(2)
	net := amount.Sub(worstFee).Sub(platform)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return Estimate{
		Gross:        amount.Round(2),
		ProcessorFee: worstFee,
		PlatformFee:  platform,
		Net:          net,
		Method:       worst.method,
	}
}

func processorFee(amount decimal.Decimal, s methodSchedule) decimal.Decimal {
	return amount.Mul(s.percent).Div(hundred).Add(s.fixed).Round(2)
}
