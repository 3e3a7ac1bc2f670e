// Package httpapi — HTTP-маршруты сервиса: вебхуки партнёров и Stripe, API дашборда, health и метрики.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/billing"
	"github.com/Spok95/gymflow/internal/checkin"
	"github.com/Spok95/gymflow/internal/config"
	"github.com/Spok95/gymflow/internal/dedupe"
	"github.com/Spok95/gymflow/internal/messaging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/signature"
)

// Store — всё, что маршрутам нужно от хранилища; реализуется db.Store.
type Store interface {
	checkin.Store
	billing.LinkStore
	billing.RenewalStore
	billing.AccountStore
	Ping(ctx context.Context) error
}

type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	Store   Store
	Gateway billing.Gateway
	Dedupe  dedupe.Deduper
	Sender  messaging.Sender
}

type Server struct {
	cfg   *config.Config
	log   *zap.Logger
	store Store

	verifier *signature.Verifier
	checkins *checkin.Service
	links    *billing.PaymentLinks
	renewer  *billing.Renewer
	accounts *billing.AccountSync
	dedupe   dedupe.Deduper
	sender   messaging.Sender
}

func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	loc := time.UTC
	if d.Config != nil && d.Config.Location != nil {
		loc = d.Config.Location
	}
	dd := d.Dedupe
	if dd == nil {
		dd = dedupe.Noop{}
	}
	sender := d.Sender
	if sender == nil {
		sender = messaging.NewLogSender(log)
	}
	return &Server{
		cfg:      d.Config,
		log:      log,
		store:    d.Store,
		verifier: signature.NewVerifier(d.Config, log),
		checkins: checkin.NewService(d.Store, loc, log),
		links:    billing.NewPaymentLinks(d.Store, d.Gateway, log),
		renewer:  billing.NewRenewer(d.Store, loc, log),
		accounts: billing.NewAccountSync(d.Store, log),
		dedupe:   dd,
		sender:   sender,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhooks/checkin", s.handleCheckIn)
	mux.HandleFunc("POST /webhooks/stripe", s.handleStripe)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/payment-links", s.handlePaymentLink)
	api.HandleFunc("GET /api/fees/estimate", s.handleEstimate)
	api.HandleFunc("POST /api/messages", s.handleMessage)
	mux.Handle("/api/", s.requireAPIKey(api))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return s.recoverPanics(withRequestID(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}
