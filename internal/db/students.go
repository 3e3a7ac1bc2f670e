package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Spok95/gymflow/internal/models"
)

const studentColumns = `id, organization_id, name, phone, email, gympass_token, totalpass_token, is_synthetic_name, created_at, updated_at`

func scanStudent(row rowScanner) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Phone, &s.Email, &s.GympassToken, &s.TotalPassToken,
		&s.IsSyntheticName, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// StudentByPartnerToken — ученик тенанта по токену партнёра.
func StudentByPartnerToken(ctx context.Context, database *sql.DB, orgID uuid.UUID, partner models.Partner, token string) (*models.Student, error) {
	col := partner.TokenColumn()
	if col == "" {
		return nil, fmt.Errorf("unknown partner %q", partner)
	}
	// col из белого списка Partner.TokenColumn
	row := database.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE organization_id = $1 AND `+col+` = $2`, orgID, token)
	return scanStudent(row)
}

func GetStudent(ctx context.Context, database *sql.DB, id uuid.UUID) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

// CreateStudent — вставка; ID генерируется, если не задан.
func CreateStudent(ctx context.Context, database *sql.DB, s *models.Student) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return database.QueryRowContext(ctx, `
		INSERT INTO students (id, organization_id, name, phone, email, gympass_token, totalpass_token, is_synthetic_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, s.ID, s.OrganizationID, s.Name, s.Phone, s.Email, s.GympassToken, s.TotalPassToken, s.IsSyntheticName).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// UpdateStudentIdentity — имя, email и признак синтетического имени.
func UpdateStudentIdentity(ctx context.Context, database *sql.DB, s *models.Student) error {
	res, err := database.ExecContext(ctx, `
		UPDATE students
		SET name = $1, email = $2, is_synthetic_name = $3, updated_at = now()
		WHERE id = $4
	`, s.Name, s.Email, s.IsSyntheticName, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
