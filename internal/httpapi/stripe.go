package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/billing"
	"github.com/Spok95/gymflow/internal/ctxutil"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/observability"
)

const (
	eventAccountUpdated         = "account.updated"
	eventCheckoutCompleted      = "checkout.session.completed"
	eventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
)

type checkoutSession struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

type stripeAck struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
}

// handleStripe — после проверки подписи всегда 200: деньги уже списаны,
// повтор Stripe не должен приводить к повторной обработке.
func (s *Server) handleStripe(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "webhook.stripe")
	log := logging.With(ctx, s.log)

	secret := ""
	if s.cfg != nil {
		secret = s.cfg.StripeWebhookSecret
	}
	if secret == "" {
		s.stripeReject(w, http.StatusServiceUnavailable, "stripe webhook secret is not configured")
		return
	}
	payload, err := readBody(w, r)
	if err != nil {
		s.stripeReject(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sig) == "" {
		s.stripeReject(w, http.StatusBadRequest, "invalid stripe signature")
		return
	}
	event, err := webhook.ConstructEventWithOptions(payload, sig, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn("stripe signature rejected", zap.Error(err))
		s.stripeReject(w, http.StatusBadRequest, "invalid stripe signature")
		return
	}
	log = log.With(zap.String("event_id", event.ID), zap.String("type", string(event.Type)))

	first, err := s.dedupe.Claim(ctx, event.ID)
	if err != nil {
		// без дедупликации обрабатываем как новое
		log.Warn("stripe event dedupe unavailable", zap.Error(err))
		first = true
	}
	if !first {
		log.Info("stripe event already processed")
		s.stripeAck(w, "duplicate")
		return
	}

	if err := s.handleStripeEvent(ctx, &event); err != nil {
		metrics.HandlerErrors.Inc()
		observability.CaptureCtx(ctx, err)
		log.Error("stripe event processing failed, acknowledged anyway", zap.Error(err))
	}
	s.stripeAck(w, "processed")
}

func (s *Server) handleStripeEvent(ctx context.Context, event *stripe.Event) error {
	log := logging.With(ctx, s.log).With(zap.String("event_id", event.ID))

	switch string(event.Type) {
	case eventAccountUpdated:
		var acct stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
			return fmt.Errorf("decode account: %w", err)
		}
		_, err := s.accounts.Apply(ctx, &acct)
		return err

	case eventCheckoutCompleted, eventCheckoutAsyncSucceeded:
		var sess checkoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout.session: %w", err)
		}
		// boleto: деньги придут позже отдельным async_payment_succeeded
		if string(event.Type) == eventCheckoutCompleted && sess.PaymentStatus == "unpaid" {
			log.Info("checkout completed without payment yet, waiting for async payment", zap.String("session_id", sess.ID))
			return nil
		}
		req, err := billing.RenewalFromMetadata(sess.Metadata)
		if err != nil {
			log.Warn("checkout session without renewal metadata", zap.String("session_id", sess.ID), zap.Error(err))
			return nil
		}
		if org := sess.Metadata[billing.MetaOrganizationID]; org != "" {
			ctx = ctxutil.WithOrganizationID(ctx, org)
		}
		_, err = s.renewer.Renew(ctx, req)
		if errors.Is(err, billing.ErrRenewalTargetNotFound) {
			return nil
		}
		return err

	default:
		log.Info("stripe event ignored (unhandled type)", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *Server) stripeAck(w http.ResponseWriter, status string) {
	metrics.WebhookRequests.WithLabelValues("stripe", "200").Inc()
	writeJSON(w, http.StatusOK, stripeAck{Received: true, Status: status})
}

func (s *Server) stripeReject(w http.ResponseWriter, code int, msg string) {
	metrics.WebhookRequests.WithLabelValues("stripe", strconv.Itoa(code)).Inc()
	writeJSON(w, code, errorBody{Error: msg})
}
