package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment — подписка ученика на модальность; активность определяется только ExpiryDate.
type Enrollment struct {
	ID             uuid.UUID  `db:"id"`
	StudentID      uuid.UUID  `db:"student_id"`
	ModalityID     uuid.UUID  `db:"modality_id"`
	ExpiryDate     time.Time  `db:"expiry_date"` // только дата
	PriceCents     int64      `db:"price_cents"`
	LastReminderOn *time.Time `db:"last_reminder_on"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

type Modality struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Name           string    `db:"name"`
}

// ExpiringEnrollment — строка для напоминаний об окончании.
type ExpiringEnrollment struct {
	EnrollmentID   uuid.UUID
	StudentName    string
	Phone          string
	ModalityName   string
	Organization   string
	ExpiryDate     time.Time
	OrganizationID uuid.UUID
}
