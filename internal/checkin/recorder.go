package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/db"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/models"
)

type Recorder struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	log   *zap.Logger
}

func NewRecorder(store Store, loc *time.Location, log *zap.Logger) *Recorder {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, loc: loc, now: time.Now, log: log}
}

// Record — один чекин «сейчас». Повтор в тот же день (уникальное ограничение)
// не ошибка: duplicate=true.
func (r *Recorder) Record(ctx context.Context, studentID, orgID uuid.UUID, source string) (duplicate bool, err error) {
	now := r.now().In(r.loc)
	c := &models.CheckIn{
		StudentID:      studentID,
		OrganizationID: orgID,
		CheckedInAt:    now,
		CheckInDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Source:         source,
	}
	if err := r.store.InsertCheckIn(ctx, c); err != nil {
		if db.IsUniqueViolation(err) {
			logging.With(ctx, r.log).Info("duplicate check-in ignored",
				zap.String("student_id", studentID.String()),
				zap.String("date", c.CheckInDate.Format("2006-01-02")),
				zap.String("source", source))
			return true, nil
		}
		return false, fmt.Errorf("insert check-in: %w", err)
	}
	return false, nil
}
