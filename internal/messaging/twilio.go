package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/ctxutil"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/observability"
)

const whatsappPrefix = "whatsapp:"

type twilioMessage struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	ErrorCode *int   `json:"error_code"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// TwilioSender — WhatsApp через Twilio Messages API.
type TwilioSender struct {
	http       *resty.Client
	accountSID string
	from       string
	log        *zap.Logger
}

func NewTwilioSender(baseURL, accountSID, authToken, from string, log *zap.Logger) *TwilioSender {
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(ctxutil.DefaultOutboundTimeout).
		SetBasicAuth(accountSID, authToken).
		SetHeader("Accept", "application/json")
	return &TwilioSender{http: client, accountSID: accountSID, from: whatsappAddr(from), log: log}
}

func whatsappAddr(n string) string {
	n = strings.TrimSpace(n)
	if n == "" || strings.HasPrefix(n, whatsappPrefix) {
		return n
	}
	return whatsappPrefix + n
}

// Send — без повторов: повтор мог бы задвоить уже доставленное сообщение.
func (s *TwilioSender) Send(ctx context.Context, to, message string) error {
	to = whatsappAddr(to)
	if to == "" {
		return ErrInvalidRecipient
	}
	log := logging.With(ctx, s.log)

	var (
		out    twilioMessage
		apiErr twilioError
	)
	resp, err := s.http.R().
		SetContext(ctx).
		SetPathParam("sid", s.accountSID).
		SetFormData(map[string]string{"To": to, "From": s.from, "Body": message}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		metrics.MessagesSent.WithLabelValues("twilio", "error").Inc()
		observability.CaptureCtx(ctx, err)
		return fmt.Errorf("twilio send: %w", err)
	}
	if resp.IsError() {
		metrics.MessagesSent.WithLabelValues("twilio", "rejected").Inc()
		err := fmt.Errorf("twilio send: status %d code %d: %s", resp.StatusCode(), apiErr.Code, apiErr.Message)
		if resp.StatusCode() >= 500 || resp.StatusCode() == 429 {
			observability.CaptureCtx(ctx, err)
		}
		log.Warn("twilio rejected message", zap.Int("status", resp.StatusCode()), zap.Int("code", apiErr.Code))
		return err
	}
	metrics.MessagesSent.WithLabelValues("twilio", "sent").Inc()
	log.Info("whatsapp message queued", zap.String("sid", out.SID), zap.String("status", out.Status))
	return nil
}
