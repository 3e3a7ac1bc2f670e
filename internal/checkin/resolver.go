package checkin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/db"
	"github.com/Spok95/gymflow/internal/logging"
	"github.com/Spok95/gymflow/internal/metrics"
	"github.com/Spok95/gymflow/internal/models"
)

var ErrOrganizationNotFound = errors.New("organization not found")

const placeholderMarker = "Beneficiário"

// Store — то, что резолверу и рекордеру нужно от БД.
type Store interface {
	OrganizationByGympassID(ctx context.Context, gymID int64) (*models.Organization, error)
	OrganizationByTotalPassCode(ctx context.Context, code string) (*models.Organization, error)
	StudentByPartnerToken(ctx context.Context, orgID uuid.UUID, partner models.Partner, token string) (*models.Student, error)
	CreateStudent(ctx context.Context, s *models.Student) error
	UpdateStudentIdentity(ctx context.Context, s *models.Student) error
	InsertCheckIn(ctx context.Context, c *models.CheckIn) error
}

// PlaceholderName — имя для ученика, о котором партнёр ничего не сообщил.
func PlaceholderName(p models.Partner, token string) string {
	frag := token
	if r := []rune(token); len(r) > 8 {
		frag = string(r[:8])
	}
	return fmt.Sprintf("%s %s %s", p.DisplayName(), placeholderMarker, frag)
}

// IsPlaceholderName — имя похоже на ранее синтезированное ("<Partner> Beneficiário").
// Эвристика нужна для старых строк без is_synthetic_name.
func IsPlaceholderName(name string) bool {
	for _, p := range []models.Partner{models.PartnerGympass, models.PartnerTotalPass} {
		if strings.Contains(name, p.DisplayName()+" "+placeholderMarker) {
			return true
		}
	}
	return false
}

type Resolver struct {
	store Store
	log   *zap.Logger
}

func NewResolver(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// Organization — тенант по коду интеграции партнёра.
func (r *Resolver) Organization(ctx context.Context, p models.Partner, code string) (*models.Organization, error) {
	var (
		org *models.Organization
		err error
	)
	if p.NumericCode() {
		gymID, perr := strconv.ParseInt(strings.TrimSpace(code), 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("%w: %s gym id %q", ErrOrganizationNotFound, p, code)
		}
		org, err = r.store.OrganizationByGympassID(ctx, gymID)
	} else {
		org, err = r.store.OrganizationByTotalPassCode(ctx, strings.TrimSpace(code))
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s gym %q", ErrOrganizationNotFound, p, code)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup organization: %w", err)
	}
	return org, nil
}

// Student — находит или заводит ученика по токену партнёра; created=true, если заведён.
func (r *Resolver) Student(ctx context.Context, org *models.Organization, id Identity) (*models.Student, bool, error) {
	log := logging.With(ctx, r.log)

	st, err := r.store.StudentByPartnerToken(ctx, org.ID, id.Partner, id.UserToken)
	if err == nil {
		if r.applyIdentity(st, id) {
			if err := r.store.UpdateStudentIdentity(ctx, st); err != nil {
				return nil, false, fmt.Errorf("update student: %w", err)
			}
			log.Info("student identity updated from partner", zap.String("student_id", st.ID.String()))
		}
		return st, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup student: %w", err)
	}

	st = &models.Student{OrganizationID: org.ID, Name: id.Name}
	if st.Name == "" || IsPlaceholderName(st.Name) {
		st.Name = PlaceholderName(id.Partner, id.UserToken)
		st.IsSyntheticName = true
	}
	if id.Email != "" {
		email := id.Email
		st.Email = &email
	}
	if id.Phone != "" {
		phone := id.Phone
		st.Phone = &phone
	}
	st.SetPartnerToken(id.Partner, id.UserToken)

	if err := r.store.CreateStudent(ctx, st); err != nil {
		if db.IsUniqueViolation(err) {
			// параллельный вебхук успел создать того же ученика
			existing, ferr := r.store.StudentByPartnerToken(ctx, org.ID, id.Partner, id.UserToken)
			if ferr != nil {
				return nil, false, fmt.Errorf("lookup student after conflict: %w", ferr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create student: %w", err)
	}
	metrics.StudentsCreated.WithLabelValues(string(id.Partner)).Inc()
	log.Info("student created from partner webhook",
		zap.String("student_id", st.ID.String()),
		zap.String("partner", string(id.Partner)),
		zap.Bool("synthetic_name", st.IsSyntheticName))
	return st, true, nil
}

// applyIdentity — имя меняем только на непустое, отличающееся и не синтетическое;
// email — на непустой и отличающийся.
func (r *Resolver) applyIdentity(st *models.Student, id Identity) bool {
	changed := false
	if id.Name != "" && id.Name != st.Name && !IsPlaceholderName(id.Name) {
		st.Name = id.Name
		st.IsSyntheticName = false
		changed = true
	}
	if id.Email != "" && (st.Email == nil || *st.Email != id.Email) {
		email := id.Email
		st.Email = &email
		changed = true
	}
	return changed
}
