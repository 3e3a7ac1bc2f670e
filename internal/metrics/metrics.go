package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WebhookRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymflow", Name: "webhook_requests_total", Help: "Inbound webhook requests by source and HTTP status",
	}, []string{"source", "status"})
	CheckIns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymflow", Name: "checkins_total", Help: "Partner check-ins by result (recorded|duplicate)",
	}, []string{"partner", "result"})
	StudentsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymflow", Name: "partner_students_created_total", Help: "Students auto-created from partner webhooks",
	}, []string{"partner"})
	Renewals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymflow", Name: "renewals_total", Help: "Enrollment renewals by outcome",
	}, []string{"outcome"})
	PaymentLinks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymflow", Name: "payment_links_total", Help: "Payment links by outcome",
	}, []string{"outcome"})
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymflow", Name: "messages_total", Help: "Outbound messages by provider and outcome",
	}, []string{"provider", "outcome"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymflow", Name: "handler_errors_total", Help: "Handler errors answered with 5xx",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gymflow", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(WebhookRequests, CheckIns, StudentsCreated, Renewals, PaymentLinks, MessagesSent, HandlerErrors, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
