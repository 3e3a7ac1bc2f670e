//go:build testutil
// +build testutil

package testdb

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
)

// MustSeedOrg — тенант с кодами обоих партнёров.
func MustSeedOrg(t *testing.T, dbx *sql.DB, gympassID int64, totalpassCode, accountStatus string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	acct := "acct_" + uuid.NewString()[:8]
	err := dbx.QueryRow(`
		INSERT INTO organizations (name, gympass_gym_id, totalpass_gym_code, stripe_account_id, stripe_account_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, "Studio "+totalpassCode, gympassID, totalpassCode, acct, accountStatus).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func MustSeedStudent(t *testing.T, dbx *sql.DB, orgID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := dbx.QueryRow(`INSERT INTO students (organization_id, name) VALUES ($1, $2) RETURNING id`, orgID, name).Scan(&id); err != nil {
		t.Fatal(err)
	}
	return id
}

func MustSeedModality(t *testing.T, dbx *sql.DB, orgID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := dbx.QueryRow(`INSERT INTO modalities (organization_id, name) VALUES ($1, $2) RETURNING id`, orgID, name).Scan(&id); err != nil {
		t.Fatal(err)
	}
	return id
}

func MustSeedEnrollment(t *testing.T, dbx *sql.DB, studentID, modalityID uuid.UUID, expiry time.Time) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := dbx.QueryRow(`
		INSERT INTO enrollments (student_id, modality_id, expiry_date, price_cents)
		VALUES ($1, $2, $3::date, 10000)
		RETURNING id`, studentID, modalityID, expiry.Format("2006-01-02")).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}
