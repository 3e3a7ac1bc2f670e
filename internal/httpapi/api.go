package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/billing"
	"github.com/Spok95/gymflow/internal/ctxutil"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/observability"
)

type paymentLinkResponse struct {
	PaymentLinkURL string `json:"paymentLinkUrl"`
}

func (s *Server) handlePaymentLink(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "api.payment_link")

	var req billing.LinkRequest
	if err := readBodyJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	req.PriceID = strings.TrimSpace(req.PriceID)
	if req.PriceID == "" || req.OrganizationID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "stripePriceId and organizationId are required"})
		return
	}
	ctx = ctxutil.WithOrganizationID(ctx, req.OrganizationID.String())

	ctx, cancel := ctxutil.WithTimeout(ctx, ctxutil.DefaultOutboundTimeout)
	defer cancel()
	url, err := s.links.Create(ctx, req)
	if err != nil {
		s.apiError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentLinkResponse{PaymentLinkURL: url})
}

// handleEstimate — только оценка для экрана; реальная комиссия считается в billing.SplitFor.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.URL.Query().Get("amount")))
	if err != nil || amount.IsNegative() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "amount must be a non-negative decimal"})
		return
	}
	writeJSON(w, http.StatusOK, billing.EstimateFees(amount))
}

type messageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "api.message")

	var req messageRequest
	if err := readBodyJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "to and message are required"})
		return
	}
	ctx, cancel := ctxutil.WithTimeout(ctx, ctxutil.DefaultOutboundTimeout)
	defer cancel()
	if err := s.sender.Send(ctx, req.To, req.Message); err != nil {
		s.apiError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: "success", Message: "message sent"})
}

func (s *Server) apiError(ctx context.Context, w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	log := logging.With(ctx, s.log)
	switch {
	case code >= http.StatusInternalServerError:
		metrics.HandlerErrors.Inc()
		observability.CaptureCtx(ctx, err)
		log.Error("api request failed", zap.Error(err))
	case errors.Is(err, billing.ErrPayoutAccountNotActive):
		log.Info("payment link refused, payout account not active")
	default:
		log.Warn("api request rejected", zap.Error(err), zap.Int("status", code))
	}
	writeJSON(w, code, errorBody{Error: msg})
}
