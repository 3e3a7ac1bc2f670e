package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Interval string

const (
	IntervalNone  Interval = ""
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

func ParseInterval(s string) (Interval, error) {
	switch Interval(strings.ToLower(strings.TrimSpace(s))) {
	case IntervalNone:
		return IntervalNone, nil
	case IntervalWeek:
		return IntervalWeek, nil
	case IntervalMonth:
		return IntervalMonth, nil
	case IntervalYear:
		return IntervalYear, nil
	}
	return IntervalNone, fmt.Errorf("unknown interval %q", s)
}

type Product struct {
	ID                uuid.UUID  `db:"id"`
	OrganizationID    uuid.UUID  `db:"organization_id"`
	ModalityID        *uuid.UUID `db:"modality_id"`
	Name              string     `db:"name"`
	PriceCents        int64      `db:"price_cents"`
	RecurringInterval Interval   `db:"recurring_interval"`
	IsPhysical        bool       `db:"is_physical"`
	StockQuantity     *int       `db:"stock_quantity"`
	StripeProductID   *string    `db:"stripe_product_id"`
	StripePriceID     *string    `db:"stripe_price_id"`
}

// ItemID — что продлевается при оплате: модальность продукта, если привязана, иначе сам продукт.
func (p *Product) ItemID() uuid.UUID {
	if p.ModalityID != nil {
		return *p.ModalityID
	}
	return p.ID
}
