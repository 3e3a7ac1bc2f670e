package models

import (
	"errors"
	"fmt"
	"strings"
)

// Partner — агрегатор фитнес-бенефитов, присылающий чекины своих пользователей.
type Partner string

const (
	PartnerGympass   Partner = "gympass"
	PartnerTotalPass Partner = "totalpass"
)

var ErrUnknownPartner = errors.New("unknown partner")

func ParsePartner(s string) (Partner, error) {
	switch Partner(strings.ToLower(strings.TrimSpace(s))) {
	case PartnerGympass:
		return PartnerGympass, nil
	case PartnerTotalPass:
		return PartnerTotalPass, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownPartner, s)
}

// DisplayName — как партнёр пишется в синтетических именах и в source чекина.
func (p Partner) DisplayName() string {
	switch p {
	case PartnerGympass:
		return "Gympass"
	case PartnerTotalPass:
		return "TotalPass"
	}
	return string(p)
}

// NumericCode — код интеграции у Gympass числовой, у TotalPass буквенно-цифровой.
func (p Partner) NumericCode() bool { return p == PartnerGympass }

// TokenColumn — колонка students с токеном пользователя партнёра.
func (p Partner) TokenColumn() string {
	switch p {
	case PartnerGympass:
		return "gympass_token"
	case PartnerTotalPass:
		return "totalpass_token"
	}
	return ""
}

// SignatureHeader — заголовок, в котором партнёр присылает подпись тела.
func (p Partner) SignatureHeader() string {
	switch p {
	case PartnerGympass:
		return "X-Gympass-Signature"
	case PartnerTotalPass:
		return "X-TotalPass-Signature"
	}
	return ""
}
