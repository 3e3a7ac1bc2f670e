package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Spok95/gymflow/internal/models"
)

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var interval sql.NullString
	err := row.Scan(&p.ID, &p.OrganizationID, &p.ModalityID, &p.Name, &p.PriceCents, &interval,
		&p.IsPhysical, &p.StockQuantity, &p.StripeProductID, &p.StripePriceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.RecurringInterval = models.Interval(interval.String)
	return &p, nil
}

const productColumns = `id, organization_id, modality_id, name, price_cents, recurring_interval,
	is_physical, stock_quantity, stripe_product_id, stripe_price_id`

// ProductByStripePrice — локальное зеркало цены Stripe.
func ProductByStripePrice(ctx context.Context, database *sql.DB, priceID string) (*models.Product, error) {
	row := database.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE stripe_price_id = $1`, priceID)
	return scanProduct(row)
}

// ProductInterval — интервал продления конкретного продукта.
// Продукта нет — IntervalNone без ошибки (разовая покупка).
func ProductInterval(ctx context.Context, database *sql.DB, productID uuid.UUID) (models.Interval, error) {
	var interval sql.NullString
	err := database.QueryRowContext(ctx,
		`SELECT recurring_interval FROM products WHERE id = $1`, productID).Scan(&interval)
	if errors.Is(err, sql.ErrNoRows) {
		return models.IntervalNone, nil
	}
	if err != nil {
		return models.IntervalNone, err
	}
	return models.Interval(interval.String), nil
}
