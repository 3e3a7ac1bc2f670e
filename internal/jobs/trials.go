package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type TrialStore interface {
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
}

// ExpireTrials — организации с истёкшим пробным периодом переводятся в inactive.
func ExpireTrials(store TrialStore, now func() time.Time, log *zap.Logger) Job {
	return func(ctx context.Context) error {
		n, err := store.ExpireTrials(ctx, now())
		if err != nil {
			return fmt.Errorf("expire trials: %w", err)
		}
		if n > 0 {
			log.Info("trial organizations deactivated", zap.Int64("count", n))
		}
		return nil
	}
}
