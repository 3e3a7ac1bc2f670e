package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/Spok95/gymflow/internal/models"
)

// StripeGateway — прямые платежи на подключённом аккаунте (заголовок Stripe-Account).
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) GetPrice(ctx context.Context, accountID, priceID string) (Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	params.SetStripeAccount(accountID)
	sp, err := g.api.Prices.Get(priceID, params)
	if err != nil {
		return Price{}, err
	}
	return priceFromStripe(sp)
}

func priceFromStripe(sp *stripe.Price) (Price, error) {
	p := Price{ID: sp.ID, UnitAmount: sp.UnitAmount, Currency: string(sp.Currency)}
	if sp.Recurring != nil {
		iv, err := models.ParseInterval(string(sp.Recurring.Interval))
		if err != nil {
			// day не продаём
			return Price{}, fmt.Errorf("price %s: %w", sp.ID, err)
		}
		p.Interval = iv
	}
	return p, nil
}

func (g *StripeGateway) CreatePaymentLink(ctx context.Context, lp LinkParams) (string, error) {
	params := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(lp.PriceID), Quantity: stripe.Int64(1)},
		},
		Metadata: lp.Metadata,
	}
	if lp.Recurring {
		params.SubscriptionData = &stripe.PaymentLinkSubscriptionDataParams{Metadata: lp.Metadata}
		if lp.Split.ApplicationFeePercent != nil {
			params.ApplicationFeePercent = stripe.Float64(*lp.Split.ApplicationFeePercent)
		}
	} else {
		params.PaymentIntentData = &stripe.PaymentLinkPaymentIntentDataParams{Metadata: lp.Metadata}
		if lp.Split.ApplicationFeeAmount != nil {
			params.ApplicationFeeAmount = stripe.Int64(*lp.Split.ApplicationFeeAmount)
		}
	}
	params.Context = ctx
	params.SetStripeAccount(lp.AccountID)

	link, err := g.api.PaymentLinks.New(params)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(link.URL) == "" {
		return "", fmt.Errorf("payment link %s without url", link.ID)
	}
	return link.URL, nil
}
