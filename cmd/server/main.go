package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/app"
	"github.com/Spok95/gymflow/internal/billing"
	"github.com/Spok95/gymflow/internal/config"
	"github.com/Spok95/gymflow/internal/db"
	"github.com/Spok95/gymflow/internal/dedupe"
	"github.com/Spok95/gymflow/internal/httpapi"
	"github.com/Spok95/gymflow/internal/jobs"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/messaging"
	"github.com/Spok95/gymflow/internal/observability"
)

func main() {
	config.LoadDotenv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close() }()
	if err := db.Migrate(ctx, database); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	store := db.NewStore(database)

	var deduper dedupe.Deduper = dedupe.Noop{}
	if cfg.RedisURL != "" {
		rc, err := dedupe.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = rc.Close() }()
		deduper = dedupe.NewRedis(rc, dedupe.DefaultTTL)
	} else {
		logger.Warn("REDIS_URL not set, stripe events are not deduplicated")
	}

	sender, err := messaging.NewSender(cfg.Messaging, logger)
	if err != nil {
		logger.Warn("messaging provider unavailable, falling back to log", zap.Error(err))
		sender = messaging.NewLogSender(logger)
	}

	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, payment links will fail")
	}
	api := httpapi.New(httpapi.Deps{
		Config:  cfg,
		Log:     logger,
		Store:   store,
		Gateway: billing.NewStripeGateway(cfg.StripeSecretKey, nil),
		Dedupe:  deduper,
		Sender:  sender,
	})
	srv := app.StartHTTP(ctx, cfg.HTTPAddr, api.Handler(), logger)

	runner := jobs.New(ctx, logger)
	runner.Every(time.Hour, "expire_trials", jobs.ExpireTrials(store, time.Now, logger))
	reminders := jobs.NewReminders(store, sender, cfg.Location, cfg.ReminderDaysBefore, logger)
	runner.Every(6*time.Hour, "expiry_reminders", reminders.Run)

	logger.Info("gymflow started", zap.String("env", cfg.Env))
	<-ctx.Done()
	logger.Info("shutting down")
	srv.Wait()
}
