package models

import (
	"time"

	"github.com/google/uuid"
)

type CheckIn struct {
	ID             uuid.UUID `db:"id"`
	StudentID      uuid.UUID `db:"student_id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	CheckedInAt    time.Time `db:"checked_in_at"`
	CheckInDate    time.Time `db:"check_in_date"`
	Source         string    `db:"source"` // staff, gympass, totalpass
}

// CheckInRow — чекин с именем ученика, для выгрузки.
type CheckInRow struct {
	CheckedInAt time.Time
	StudentName string
	Phone       string
	Source      string
}
