// Package signature проверяет подписи входящих вебхуков партнёров.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/models"
)

var ErrSignatureInvalid = errors.New("signature invalid")

// SignHMACSHA1 — HMAC-SHA1 тела в верхнем регистре hex, как его считает Gympass.
func SignHMACSHA1(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifyHMACSHA1 — заголовок может начинаться с 0x.
func VerifyHMACSHA1(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	got := strings.TrimSpace(header)
	if strings.HasPrefix(got, "0x") || strings.HasPrefix(got, "0X") {
		got = got[2:]
	}
	return ConstantTimeEqual(SignHMACSHA1(secret, body), got)
}

// ConstantTimeEqual — XOR-накопление по всей длине; разная длина сразу false.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var acc byte
	for i := 0; i < len(a); i++ {
		acc |= a[i] ^ b[i]
	}
	return acc == 0
}

// SecretSource — секрет подписи по имени партнёра (общий для деплоя).
type SecretSource interface {
	PartnerSecret(partner string) string
}

type Verifier struct {
	secrets SecretSource
	log     *zap.Logger
}

func NewVerifier(secrets SecretSource, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{secrets: secrets, log: log}
}

// Verify — true, если тело подписано партнёром.
func (v *Verifier) Verify(partner models.Partner, body []byte, header string) bool {
	switch partner {
	case models.PartnerGympass:
		return VerifyHMACSHA1(v.secrets.PartnerSecret(string(partner)), body, header)
	case models.PartnerTotalPass:
		// Алгоритм подписи TotalPass не документирован; пропускаем всё, пока партнёр его не опишет.
		v.log.Warn("totalpass signature verification not implemented, accepting payload",
			zap.Bool("header_present", header != ""))
		return true
	}
	return false
}
