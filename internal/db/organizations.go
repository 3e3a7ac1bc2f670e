package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/gymflow/internal/models"
)

const organizationColumns = `id, name, gympass_gym_id, totalpass_gym_code, gympass_api_key, totalpass_api_key,
	stripe_account_id, stripe_account_status, subscription_status, trial_ends_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Name, &o.GympassGymID, &o.TotalPassGymCode, &o.GympassAPIKey, &o.TotalPassAPIKey,
		&o.StripeAccountID, &o.StripeAccountStatus, &o.SubscriptionStatus, &o.TrialEndsAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func GetOrganization(ctx context.Context, database *sql.DB, id uuid.UUID) (*models.Organization, error) {
	row := database.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrganization(row)
}

// OrganizationByGympassID — тенант по числовому коду интеграции Gympass.
func OrganizationByGympassID(ctx context.Context, database *sql.DB, gymID int64) (*models.Organization, error) {
	row := database.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE gympass_gym_id = $1`, gymID)
	return scanOrganization(row)
}

// OrganizationByTotalPassCode — тенант по буквенно-цифровому коду TotalPass.
func OrganizationByTotalPassCode(ctx context.Context, database *sql.DB, code string) (*models.Organization, error) {
	row := database.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE totalpass_gym_code = $1`, code)
	return scanOrganization(row)
}

// SetAccountStatusByStripeAccount — синхронизация статуса подключённого аккаунта.
// false — аккаунт не привязан ни к одному тенанту.
func SetAccountStatusByStripeAccount(ctx context.Context, database *sql.DB, accountID string, status models.AccountStatus) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE organizations
		SET stripe_account_status = $1, updated_at = now()
		WHERE stripe_account_id = $2
	`, string(status), accountID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ExpireTrials — переводит тенантов с истёкшим триалом в inactive.
func ExpireTrials(ctx context.Context, database *sql.DB, now time.Time) (int64, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE organizations
		SET subscription_status = 'inactive', updated_at = now()
		WHERE subscription_status = 'trial'
		  AND trial_ends_at IS NOT NULL
		  AND trial_ends_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
