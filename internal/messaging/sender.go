// Package messaging — исходящие сообщения ученикам и персоналу (WhatsApp через Twilio, Telegram).
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/config"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
)

var ErrInvalidRecipient = errors.New("invalid recipient")

type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// NewSender — провайдер по MESSAGING_PROVIDER.
func NewSender(cfg config.MessagingConfig, log *zap.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "twilio":
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFrom == "" {
			return nil, errors.New("twilio: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_FROM are required")
		}
		return NewTwilioSender(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, log), nil
	case "telegram":
		if cfg.TelegramToken == "" {
			return nil, errors.New("telegram: TELEGRAM_BOT_TOKEN is required")
		}
		return NewTelegramSender(cfg.TelegramToken, log)
	case "log":
		return NewLogSender(log), nil
	}
	return nil, fmt.Errorf("unknown messaging provider %q", cfg.Provider)
}

// LogSender — для dev: ничего не отправляет, только пишет в лог.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, message string) error {
	if strings.TrimSpace(to) == "" {
		return ErrInvalidRecipient
	}
	logging.With(ctx, s.log).Info("message (log provider)", zap.String("to", to), zap.Int("len", len(message)))
	metrics.MessagesSent.WithLabelValues("log", "sent").Inc()
	return nil
}
