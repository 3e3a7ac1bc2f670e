package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/checkin"
	"github.com/Spok95/gymflow/internal/ctxutil"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/models"
	"github.com/Spok95/gymflow/internal/observability"
	"github.com/Spok95/gymflow/internal/signature"
)

const headerPartner = "X-Partner"

// handleCheckIn — подпись проверяется до любого обращения к БД.
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "webhook.checkin")
	log := logging.With(ctx, s.log)

	partner, err := models.ParsePartner(r.Header.Get(headerPartner))
	if err != nil {
		s.checkinError(w, r, "unknown", err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.checkinError(w, r, string(partner), err)
		return
	}
	if !s.verifier.Verify(partner, body, r.Header.Get(partner.SignatureHeader())) {
		s.checkinError(w, r, string(partner), signature.ErrSignatureInvalid)
		return
	}
	id, err := checkin.Decode(partner, r.Header.Get("Content-Type"), body)
	if err != nil {
		s.checkinError(w, r, string(partner), err)
		return
	}

	res, err := s.checkins.Handle(ctx, id)
	if err != nil {
		s.checkinError(w, r.WithContext(ctx), string(partner), err)
		return
	}

	msg := "check-in recorded"
	if res.Duplicate {
		msg = "check-in already recorded today"
	}
	log.Info("partner check-in handled",
		zap.String("partner", string(partner)),
		zap.String("organization_id", res.OrganizationID.String()),
		zap.String("student_id", res.StudentID.String()),
		zap.Bool("student_created", res.StudentCreated),
		zap.Bool("duplicate", res.Duplicate))
	metrics.WebhookRequests.WithLabelValues(string(partner), "200").Inc()
	writeJSON(w, http.StatusOK, statusBody{Status: "success", Message: msg})
}

func (s *Server) checkinError(w http.ResponseWriter, r *http.Request, source string, err error) {
	code, msg := statusFor(err)
	log := logging.With(r.Context(), s.log).With(zap.String("partner", source), zap.Int("status", code))
	if code >= http.StatusInternalServerError {
		metrics.HandlerErrors.Inc()
		observability.CaptureCtx(r.Context(), err)
		log.Error("check-in webhook failed", zap.Error(err))
	} else {
		log.Warn("check-in webhook rejected", zap.Error(err))
	}
	metrics.WebhookRequests.WithLabelValues(source, strconv.Itoa(code)).Inc()
	writeJSON(w, code, statusBody{Status: "error", Message: msg})
}
