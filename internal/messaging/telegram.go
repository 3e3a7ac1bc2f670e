package messaging

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/observability"
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender — уведомления персоналу; to — числовой chat id.
type TelegramSender struct {
	bot botAPI
	log *zap.Logger
}

func NewTelegramSender(token string, log *zap.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramSender(bot, log), nil
}

func newTelegramSender(bot botAPI, log *zap.Logger) *TelegramSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramSender{bot: bot, log: log}
}

// Системными считаем 5xx, 429 и таймауты; ошибки валидации телеграма в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "502") ||
		strings.Contains(s, "503") || strings.Contains(s, "timeout")
}

func (s *TelegramSender) Send(ctx context.Context, to, message string) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a chat id", ErrInvalidRecipient, to)
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, message)); err != nil {
		metrics.MessagesSent.WithLabelValues("telegram", "error").Inc()
		if isSystemErr(err) {
			observability.CaptureCtx(ctx, err)
		}
		return fmt.Errorf("telegram send: %w", err)
	}
	metrics.MessagesSent.WithLabelValues("telegram", "sent").Inc()
	logging.With(ctx, s.log).Info("telegram message sent", zap.Int64("chat_id", chatID))
	return nil
}
