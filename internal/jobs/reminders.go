package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/messaging"
	"github.com/Spok95/gymflow/internal/models"
	"github.com/Spok95/gymflow/internal/observability"
)

const reminderBatch = 100

type ReminderStore interface {
	DueForReminder(ctx context.Context, on time.Time, batch int) ([]models.ExpiringEnrollment, error)
	MarkReminded(ctx context.Context, ids []uuid.UUID, on time.Time) error
}

type Reminders struct {
	store      ReminderStore
	sender     messaging.Sender
	loc        *time.Location
	daysBefore int
	now        func() time.Time
	log        *zap.Logger
}

func NewReminders(store ReminderStore, sender messaging.Sender, loc *time.Location, daysBefore int, log *zap.Logger) *Reminders {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reminders{store: store, sender: sender, loc: loc, daysBefore: daysBefore, now: time.Now, log: log}
}

func ReminderText(e models.ExpiringEnrollment) string {
	return fmt.Sprintf("Olá, %s! Sua matrícula em %s na %s vence em %s. Renove para continuar treinando.",
		e.StudentName, e.ModalityName, e.Organization, e.ExpiryDate.Format("02/01/2006"))
}

// Run — один проход: кандидаты -> отправка -> пометка. Ошибка одной отправки не останавливает остальные.
func (r *Reminders) Run(ctx context.Context) error {
	local := r.now().In(r.loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, r.daysBefore)

	due, err := r.store.DueForReminder(ctx, target, reminderBatch)
	if err != nil {
		return fmt.Errorf("due for reminder: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	done := make([]uuid.UUID, 0, len(due))
	var failed int
	for _, e := range due {
		if err := r.sender.Send(ctx, e.Phone, ReminderText(e)); err != nil {
			failed++
			if !errors.Is(err, messaging.ErrInvalidRecipient) {
				observability.CaptureCtx(ctx, err)
			}
			r.log.Warn("expiry reminder not sent",
				zap.String("enrollment_id", e.EnrollmentID.String()), zap.Error(err))
			continue
		}
		done = append(done, e.EnrollmentID)
	}

	if len(done) > 0 {
		if err := r.store.MarkReminded(ctx, done, target); err != nil {
			return fmt.Errorf("mark reminded: %w", err)
		}
	}
	r.log.Info("expiry reminders sent",
		zap.String("expiry_date", target.Format(time.DateOnly)),
		zap.Int("sent", len(done)), zap.Int("failed", failed))
	return nil
}
