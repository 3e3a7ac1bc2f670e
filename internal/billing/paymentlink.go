package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/db"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/models"
)

var (
	ErrPayoutAccountNotActive = errors.New("payout account not active")
	ErrOrganizationNotFound   = errors.New("organization not found")
	ErrRecurringMismatch      = errors.New("recurring flag does not match price")
)

// Ключи metadata, по которым вебхук оплаты находит, что продлевать.
const (
	MetaOrganizationID = "organization_id"
	MetaStudentID      = "student_id"
	MetaItemID         = "item_id"
	MetaProductID      = "product_id"
	MetaInterval       = "interval"
)

// IntervalOneTime — значение interval в metadata для разовой цены.
// Пустую строку Stripe трактует как удаление ключа, поэтому нужен явный маркер.
const IntervalOneTime = "one_time"

// intervalMeta — интервал купленной цены в том виде, в каком он уходит в metadata.
func intervalMeta(iv models.Interval) string {
	if iv == models.IntervalNone {
		return IntervalOneTime
	}
	return string(iv)
}

type LinkParams struct {
	AccountID string
	PriceID   string
	Recurring bool
	Split     Split
	Metadata  map[string]string
}

// Gateway — платёжный процессор; все вызовы от имени подключённого аккаунта.
type Gateway interface {
	GetPrice(ctx context.Context, accountID, priceID string) (Price, error)
	CreatePaymentLink(ctx context.Context, p LinkParams) (string, error)
}

type LinkStore interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ProductByStripePrice(ctx context.Context, priceID string) (*models.Product, error)
}

type LinkRequest struct {
	PriceID        string     `json:"stripePriceId"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	Recurring      bool       `json:"recurring"`
	StudentID      *uuid.UUID `json:"studentId,omitempty"`
}

type PaymentLinks struct {
	store   LinkStore
	gateway Gateway
	log     *zap.Logger
}

func NewPaymentLinks(store LinkStore, gateway Gateway, log *zap.Logger) *PaymentLinks {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentLinks{store: store, gateway: gateway, log: log}
}

// Create — ссылка на оплату с автоматическим удержанием комиссии платформы.
// Проверка аккаунта выплат идёт до любого обращения к процессору.
func (p *PaymentLinks) Create(ctx context.Context, req LinkRequest) (string, error) {
	log := logging.With(ctx, p.log)

	org, err := p.store.GetOrganization(ctx, req.OrganizationID)
	if errors.Is(err, db.ErrNotFound) {
		metrics.PaymentLinks.WithLabelValues("org_not_found").Inc()
		return "", fmt.Errorf("%w: %s", ErrOrganizationNotFound, req.OrganizationID)
	}
	if err != nil {
		return "", fmt.Errorf("lookup organization: %w", err)
	}
	if !org.PayoutsEnabled() {
		metrics.PaymentLinks.WithLabelValues("account_not_active").Inc()
		return "", ErrPayoutAccountNotActive
	}
	account := *org.StripeAccountID

	price, err := p.gateway.GetPrice(ctx, account, req.PriceID)
	if err != nil {
		metrics.PaymentLinks.WithLabelValues("gateway_error").Inc()
		return "", fmt.Errorf("get price: %w", err)
	}
	if req.Recurring != price.IsRecurring() {
		metrics.PaymentLinks.WithLabelValues("recurring_mismatch").Inc()
		return "", fmt.Errorf("%w: recurring=%t, price %s interval=%q",
			ErrRecurringMismatch, req.Recurring, req.PriceID, price.Interval)
	}

	meta := map[string]string{MetaOrganizationID: org.ID.String()}
	if req.StudentID != nil {
		meta[MetaStudentID] = req.StudentID.String()
	}
	meta[MetaInterval] = intervalMeta(price.Interval)
	product, err := p.store.ProductByStripePrice(ctx, req.PriceID)
	switch {
	case err == nil:
		meta[MetaItemID] = product.ItemID().String()
		meta[MetaProductID] = product.ID.String()
	case errors.Is(err, db.ErrNotFound):
		log.Warn("no local product for price, renewal will not find item", zap.String("price_id", req.PriceID))
	default:
		return "", fmt.Errorf("lookup product: %w", err)
	}

	url, err := p.gateway.CreatePaymentLink(ctx, LinkParams{
		AccountID: account,
		PriceID:   req.PriceID,
		Recurring: req.Recurring,
		Split:     SplitFor(price, req.Recurring),
		Metadata:  meta,
	})
	if err != nil {
		metrics.PaymentLinks.WithLabelValues("gateway_error").Inc()
		return "", fmt.Errorf("create payment link: %w", err)
	}
	metrics.PaymentLinks.WithLabelValues("created").Inc()
	log.Info("payment link created",
		zap.String("price_id", req.PriceID),
		zap.Bool("recurring", req.Recurring),
		zap.Int64("unit_amount", price.UnitAmount))
	return url, nil
}
