package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/models"
)

type AccountStore interface {
	SetAccountStatusByStripeAccount(ctx context.Context, accountID string, status models.AccountStatus) (bool, error)
}

// AccountStatusFor — состояние подключённого аккаунта по событию account.updated.
func AccountStatusFor(a *stripe.Account) models.AccountStatus {
	if a == nil {
		return models.AccountPending
	}
	if a.ChargesEnabled && a.PayoutsEnabled {
		return models.AccountEnabled
	}
	if a.Requirements != nil && a.Requirements.DisabledReason != "" {
		return models.AccountRestricted
	}
	if a.DetailsSubmitted && !a.ChargesEnabled {
		return models.AccountRestricted
	}
	return models.AccountPending
}

type AccountSync struct {
	store AccountStore
	log   *zap.Logger
}

func NewAccountSync(store AccountStore, log *zap.Logger) *AccountSync {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountSync{store: store, log: log}
}

// Apply — обновляет статус организации; неизвестный аккаунт логируем и пропускаем.
func (s *AccountSync) Apply(ctx context.Context, a *stripe.Account) (models.AccountStatus, error) {
	if a == nil || a.ID == "" {
		return "", errors.New("account without id")
	}
	status := AccountStatusFor(a)
	found, err := s.store.SetAccountStatusByStripeAccount(ctx, a.ID, status)
	if err != nil {
		return "", fmt.Errorf("update account status: %w", err)
	}
	log := logging.With(ctx, s.log).With(zap.String("stripe_account", a.ID), zap.String("status", string(status)))
	if !found {
		log.Warn("account.updated for unknown connected account")
		return status, nil
	}
	log.Info("connected account status synced")
	return status, nil
}
