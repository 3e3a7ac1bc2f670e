package models

import (
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID              uuid.UUID `db:"id"`
	OrganizationID  uuid.UUID `db:"organization_id"`
	Name            string    `db:"name"`
	Phone           *string   `db:"phone"`
	Email           *string   `db:"email"`
	GympassToken    *string   `db:"gympass_token"`
	TotalPassToken  *string   `db:"totalpass_token"`
	IsSyntheticName bool      `db:"is_synthetic_name"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// PartnerToken — токен партнёра, привязанный к ученику.
func (s *Student) PartnerToken(p Partner) *string {
	switch p {
	case PartnerGympass:
		return s.GympassToken
	case PartnerTotalPass:
		return s.TotalPassToken
	}
	return nil
}

func (s *Student) SetPartnerToken(p Partner, token string) {
	switch p {
	case PartnerGympass:
		s.GympassToken = &token
	case PartnerTotalPass:
		s.TotalPassToken = &token
	}
}
