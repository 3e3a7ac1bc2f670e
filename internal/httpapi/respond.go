package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Spok95/gymflow/internal/billing"
	"github.com/Spok95/gymflow/internal/checkin"
	"github.com/Spok95/gymflow/internal/messaging"
	"github.com/Spok95/gymflow/internal/models"
	"github.com/Spok95/gymflow/internal/signature"
)

const (
	maxBodyBytes = 1 << 20
	msgInternal  = "internal error"
)

var errBodyTooLarge = errors.New("request body too large")

type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errBodyTooLarge
	}
	return body, err
}

func readBodyJSON(w http.ResponseWriter, r *http.Request, out any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// statusFor — единственное место, где ошибки домена превращаются в HTTP-коды.
// Для 500 наружу уходит общий текст, подробности только в лог.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, signature.ErrSignatureInvalid):
		return http.StatusUnauthorized, "invalid signature"
	case errors.Is(err, models.ErrUnknownPartner):
		return http.StatusBadRequest, "unknown partner"
	case errors.Is(err, checkin.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid payload"
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "payload too large"
	case errors.Is(err, checkin.ErrOrganizationNotFound),
		errors.Is(err, billing.ErrOrganizationNotFound):
		return http.StatusNotFound, "organization not found"
	case errors.Is(err, billing.ErrPayoutAccountNotActive):
		return http.StatusUnprocessableEntity, "payout account is not active; finish Stripe onboarding first"
	case errors.Is(err, billing.ErrRecurringMismatch):
		return http.StatusBadRequest, "recurring flag does not match the price"
	case errors.Is(err, messaging.ErrInvalidRecipient):
		return http.StatusBadRequest, "invalid recipient"
	}
	return http.StatusInternalServerError, msgInternal
}
