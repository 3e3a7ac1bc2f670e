package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/gymflow/internal/models"
)

const dateLayout = "2006-01-02"

// InsertCheckIn — без ON CONFLICT: повтор за день отбивает ограничение
// check_ins_one_per_day, вызывающий сам решает, что это не ошибка.
func InsertCheckIn(ctx context.Context, database *sql.DB, c *models.CheckIn) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := database.ExecContext(ctx, `
		INSERT INTO check_ins (id, student_id, organization_id, checked_in_at, check_in_date, source)
		VALUES ($1, $2, $3, $4, $5::date, $6)
	`, c.ID, c.StudentID, c.OrganizationID, c.CheckedInAt, c.CheckInDate.Format(dateLayout), c.Source)
	return err
}

// ListCheckIns — чекины тенанта в окне [from, to) по дате чекина.
func ListCheckIns(ctx context.Context, database *sql.DB, orgID uuid.UUID, from, to time.Time) ([]models.CheckInRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT c.checked_in_at, s.name, s.phone, c.source
		FROM check_ins c
		JOIN students s ON s.id = c.student_id
		WHERE c.organization_id = $1
		  AND c.check_in_date >= $2::date AND c.check_in_date < $3::date
		ORDER BY c.checked_in_at
	`, orgID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.CheckInRow
	for rows.Next() {
		var r models.CheckInRow
		var phone sql.NullString
		if err := rows.Scan(&r.CheckedInAt, &r.StudentName, &phone, &r.Source); err != nil {
			return nil, err
		}
		r.Phone = phone.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountCheckIns — число чекинов ученика в тенанте.
func CountCheckIns(ctx context.Context, database *sql.DB, studentID, orgID uuid.UUID) (int, error) {
	var n int
	err := database.QueryRowContext(ctx,
		`SELECT count(*) FROM check_ins WHERE student_id = $1 AND organization_id = $2`, studentID, orgID).Scan(&n)
	return n, err
}
