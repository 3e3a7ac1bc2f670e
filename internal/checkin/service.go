// Package checkin сопоставляет чекины партнёров с учениками тенанта и записывает посещение.
package checkin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/ctxutil"
	"github.com/Spok95/gymflow/internal/metrics"
)

type Result struct {
	OrganizationID uuid.UUID
	StudentID      uuid.UUID
	StudentCreated bool
	Duplicate      bool
}

type Service struct {
	resolver *Resolver
	recorder *Recorder
}

func NewService(store Store, loc *time.Location, log *zap.Logger) *Service {
	return &Service{
		resolver: NewResolver(store, log),
		recorder: NewRecorder(store, loc, log),
	}
}

// Handle — организация -> ученик -> чекин, строго последовательно.
func (s *Service) Handle(ctx context.Context, id Identity) (Result, error) {
	org, err := s.resolver.Organization(ctx, id.Partner, id.GymCode)
	if err != nil {
		return Result{}, err
	}
	ctx = ctxutil.WithOrganizationID(ctx, org.ID.String())

	st, created, err := s.resolver.Student(ctx, org, id)
	if err != nil {
		return Result{}, err
	}

	dup, err := s.recorder.Record(ctx, st.ID, org.ID, string(id.Partner))
	if err != nil {
		return Result{}, err
	}
	outcome := "recorded"
	if dup {
		outcome = "duplicate"
	}
	metrics.CheckIns.WithLabelValues(string(id.Partner), outcome).Inc()

	return Result{
		OrganizationID: org.ID,
		StudentID:      st.ID,
		StudentCreated: created,
		Duplicate:      dup,
	}, nil
}
