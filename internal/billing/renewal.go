package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/db"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/models"
)

var (
	ErrRenewalTargetNotFound = errors.New("renewal target not found")
	ErrIncompleteMetadata    = errors.New("payment metadata incomplete")
)

// oneTimeExtensionDays — продление для разовой покупки без интервала.
const oneTimeExtensionDays = 30

type RenewalStore interface {
	LatestEnrollment(ctx context.Context, studentID, modalityID uuid.UUID) (*models.Enrollment, error)
	SetEnrollmentExpiry(ctx context.Context, id uuid.UUID, expiry time.Time) error
	ProductInterval(ctx context.Context, productID uuid.UUID) (models.Interval, error)
}

type RenewalRequest struct {
	StudentID uuid.UUID
	ItemID    uuid.UUID
	// ProductID — купленный продукт; uuid.Nil, если неизвестен.
	ProductID uuid.UUID
	Interval  models.Interval
	// IntervalKnown — интервал пришёл в metadata (в том числе one_time).
	// Иначе берём интервал продукта по ProductID.
	IntervalKnown bool
}

type Outcome struct {
	EnrollmentID   uuid.UUID
	PreviousExpiry time.Time
	NewExpiry      time.Time
	Interval       models.Interval
}

// RenewalFromMetadata — разбирает metadata сессии оплаты, выставленную PaymentLinks.Create.
func RenewalFromMetadata(meta map[string]string) (RenewalRequest, error) {
	sid := strings.TrimSpace(meta[MetaStudentID])
	iid := strings.TrimSpace(meta[MetaItemID])
	if sid == "" || iid == "" {
		return RenewalRequest{}, fmt.Errorf("%w: student_id=%q item_id=%q", ErrIncompleteMetadata, sid, iid)
	}
	studentID, err := uuid.Parse(sid)
	if err != nil {
		return RenewalRequest{}, fmt.Errorf("%w: student_id: %v", ErrIncompleteMetadata, err)
	}
	itemID, err := uuid.Parse(iid)
	if err != nil {
		return RenewalRequest{}, fmt.Errorf("%w: item_id: %v", ErrIncompleteMetadata, err)
	}
	req := RenewalRequest{StudentID: studentID, ItemID: itemID}
	if pid := strings.TrimSpace(meta[MetaProductID]); pid != "" {
		req.ProductID, err = uuid.Parse(pid)
		if err != nil {
			return RenewalRequest{}, fmt.Errorf("%w: product_id: %v", ErrIncompleteMetadata, err)
		}
	}
	if raw, ok := meta[MetaInterval]; ok {
		req.IntervalKnown = true
		if strings.TrimSpace(raw) != IntervalOneTime {
			req.Interval, err = models.ParseInterval(raw)
			if err != nil {
				return RenewalRequest{}, fmt.Errorf("%w: %v", ErrIncompleteMetadata, err)
			}
		}
	}
	return req, nil
}

// NextExpiry — от будущей даты окончания продлеваем без потерь, от прошедшей или сегодняшней — от today.
func NextExpiry(current, today time.Time, interval models.Interval) time.Time {
	cur, now := dateOf(current), dateOf(today)
	base := now
	if cur.After(now) {
		base = cur
	}
	switch interval {
	case models.IntervalWeek:
		return base.AddDate(0, 0, 7)
	case models.IntervalMonth:
		return base.AddDate(0, 1, 0)
	case models.IntervalYear:
		return base.AddDate(1, 0, 0)
	default:
		return base.AddDate(0, 0, oneTimeExtensionDays)
	}
}

// dateOf — календарная дата как полночь UTC.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Renewer struct {
	store RenewalStore
	loc   *time.Location
	now   func() time.Time
	log   *zap.Logger
}

func NewRenewer(store RenewalStore, loc *time.Location, log *zap.Logger) *Renewer {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renewer{store: store, loc: loc, now: time.Now, log: log}
}

// Renew — продлевает ровно одну, самую свежую, запись ученика по item.
func (r *Renewer) Renew(ctx context.Context, req RenewalRequest) (Outcome, error) {
	log := logging.With(ctx, r.log).With(
		zap.String("student_id", req.StudentID.String()),
		zap.String("item_id", req.ItemID.String()))

	e, err := r.store.LatestEnrollment(ctx, req.StudentID, req.ItemID)
	if errors.Is(err, db.ErrNotFound) {
		metrics.Renewals.WithLabelValues("not_found").Inc()
		log.Warn("payment completed but no enrollment to renew")
		return Outcome{}, ErrRenewalTargetNotFound
	}
	if err != nil {
		metrics.Renewals.WithLabelValues("error").Inc()
		return Outcome{}, fmt.Errorf("lookup enrollment: %w", err)
	}

	interval := req.Interval
	if !req.IntervalKnown && req.ProductID != uuid.Nil {
		interval, err = r.store.ProductInterval(ctx, req.ProductID)
		if err != nil {
			metrics.Renewals.WithLabelValues("error").Inc()
			return Outcome{}, fmt.Errorf("lookup product interval: %w", err)
		}
	}

	today := r.now().In(r.loc)
	next := NextExpiry(e.ExpiryDate, today, interval)
	if err := r.store.SetEnrollmentExpiry(ctx, e.ID, next); err != nil {
		metrics.Renewals.WithLabelValues("error").Inc()
		return Outcome{}, fmt.Errorf("update expiry: %w", err)
	}
	metrics.Renewals.WithLabelValues("renewed").Inc()
	log.Info("enrollment renewed",
		zap.String("enrollment_id", e.ID.String()),
		zap.String("previous_expiry", e.ExpiryDate.Format(time.DateOnly)),
		zap.String("new_expiry", next.Format(time.DateOnly)),
		zap.String("interval", string(interval)))
	return Outcome{EnrollmentID: e.ID, PreviousExpiry: e.ExpiryDate, NewExpiry: next, Interval: interval}, nil
}
