package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Location    *time.Location
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string

	// Общие для всего деплоя секреты партнёров: имя партнёра -> секрет подписи.
	PartnerSecrets map[string]string

	StripeSecretKey     string
	StripeWebhookSecret string

	Messaging MessagingConfig

	RedisURL string
	// Пустой ключ — /api/* без проверки (dev).
	APIKey string

	ReminderDaysBefore int
}

type MessagingConfig struct {
	Provider         string // twilio|telegram|log
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioBaseURL    string
	TelegramToken    string
}

// LoadDotenv подтягивает .env, если он есть; отсутствие файла не ошибка.
func LoadDotenv() {
	_ = godotenv.Load()
}

func Load() (*Config, error) {
	tz := getenv("TZ", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("required env DATABASE_URL is empty")
	}

	reminderDays, err := parseInt(getenv("REMINDER_DAYS_BEFORE", "3"))
	if err != nil {
		return nil, fmt.Errorf("REMINDER_DAYS_BEFORE: %w", err)
	}

	cfg := &Config{
		DatabaseURL: dbURL,
		Location:    loc,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Release:     os.Getenv("RELEASE"),
		PartnerSecrets: map[string]string{
			"gympass":   os.Getenv("GYMPASS_WEBHOOK_SECRET"),
			"totalpass": os.Getenv("TOTALPASS_WEBHOOK_SECRET"),
		},
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET")),
		Messaging: MessagingConfig{
			Provider:         strings.ToLower(getenv("MESSAGING_PROVIDER", "twilio")),
			TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			TwilioFrom:       os.Getenv("TWILIO_WHATSAPP_FROM"),
			TwilioBaseURL:    getenv("TWILIO_BASE_URL", "https://api.twilio.com"),
			TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		RedisURL:           os.Getenv("REDIS_URL"),
		APIKey:             os.Getenv("API_KEY"),
		ReminderDaysBefore: reminderDays,
	}
	return cfg, nil
}

// PartnerSecret — секрет подписи партнёра (не тенанта).
func (c *Config) PartnerSecret(partner string) string {
	if c == nil || c.PartnerSecrets == nil {
		return ""
	}
	return c.PartnerSecrets[strings.ToLower(partner)]
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0, fmt.Errorf("bad int %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("bad int %q: negative", s)
	}
	return n, nil
}
