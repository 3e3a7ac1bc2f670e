package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Spok95/gymflow/internal/models"
)

// LatestEnrollment — самая свежая запись ученика по модальности.
func LatestEnrollment(ctx context.Context, database *sql.DB, studentID, modalityID uuid.UUID) (*models.Enrollment, error) {
	var e models.Enrollment
	err := database.QueryRowContext(ctx, `
		SELECT id, student_id, modality_id, expiry_date, price_cents, last_reminder_on, created_at, updated_at
		FROM enrollments
		WHERE student_id = $1 AND modality_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, studentID, modalityID).Scan(&e.ID, &e.StudentID, &e.ModalityID, &e.ExpiryDate, &e.PriceCents,
		&e.LastReminderOn, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SetEnrollmentExpiry — пишет только дату, без времени.
func SetEnrollmentExpiry(ctx context.Context, database *sql.DB, id uuid.UUID, expiry time.Time) error {
	res, err := database.ExecContext(ctx, `
		UPDATE enrollments SET expiry_date = $1::date, updated_at = now() WHERE id = $2
	`, expiry.Format(dateLayout), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DueForReminder — записи, истекающие в день on, по которым ещё не напоминали.
func DueForReminder(ctx context.Context, database *sql.DB, on time.Time, batch int) ([]models.ExpiringEnrollment, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT e.id, s.name, s.phone, m.name, o.name, e.expiry_date, o.id
		FROM enrollments e
		JOIN students s      ON s.id = e.student_id
		JOIN modalities m    ON m.id = e.modality_id
		JOIN organizations o ON o.id = s.organization_id
		WHERE e.expiry_date = $1::date
		  AND s.phone IS NOT NULL AND s.phone <> ''
		  AND (e.last_reminder_on IS NULL OR e.last_reminder_on < $1::date)
		ORDER BY e.id
		LIMIT $2
	`, on.Format(dateLayout), batch)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ExpiringEnrollment
	for rows.Next() {
		var e models.ExpiringEnrollment
		if err := rows.Scan(&e.EnrollmentID, &e.StudentName, &e.Phone, &e.ModalityName, &e.Organization,
			&e.ExpiryDate, &e.OrganizationID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkReminded — пометить, что напоминание за дату on отправлено.
func MarkReminded(ctx context.Context, database *sql.DB, ids []uuid.UUID, on time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	_, err := database.ExecContext(ctx, `
		UPDATE enrollments
		SET last_reminder_on = $1::date, updated_at = now()
		WHERE id = ANY($2::uuid[])
	`, on.Format(dateLayout), pq.Array(strs))
	return err
}
