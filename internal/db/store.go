package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/gymflow/internal/ctxutil"
	"github.com/Spok95/gymflow/internal/models"
)

// Store — те же функции пакета, но методами; сервисы зависят от интерфейсов,
// в тестах подставляются фейки. Каждый вызов под WithDBTimeout.
type Store struct {
	DB *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{DB: database} }

func (s *Store) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return GetOrganization(ctx, s.DB, id)
}

func (s *Store) OrganizationByGympassID(ctx context.Context, gymID int64) (*models.Organization, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return OrganizationByGympassID(ctx, s.DB, gymID)
}

func (s *Store) OrganizationByTotalPassCode(ctx context.Context, code string) (*models.Organization, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return OrganizationByTotalPassCode(ctx, s.DB, code)
}

func (s *Store) SetAccountStatusByStripeAccount(ctx context.Context, accountID string, status models.AccountStatus) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return SetAccountStatusByStripeAccount(ctx, s.DB, accountID, status)
}

func (s *Store) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return ExpireTrials(ctx, s.DB, now)
}

func (s *Store) StudentByPartnerToken(ctx context.Context, orgID uuid.UUID, partner models.Partner, token string) (*models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return StudentByPartnerToken(ctx, s.DB, orgID, partner, token)
}

func (s *Store) CreateStudent(ctx context.Context, st *models.Student) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return CreateStudent(ctx, s.DB, st)
}

func (s *Store) UpdateStudentIdentity(ctx context.Context, st *models.Student) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return UpdateStudentIdentity(ctx, s.DB, st)
}

func (s *Store) InsertCheckIn(ctx context.Context, c *models.CheckIn) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return InsertCheckIn(ctx, s.DB, c)
}

func (s *Store) ListCheckIns(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.CheckInRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return ListCheckIns(ctx, s.DB, orgID, from, to)
}

func (s *Store) LatestEnrollment(ctx context.Context, studentID, modalityID uuid.UUID) (*models.Enrollment, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return LatestEnrollment(ctx, s.DB, studentID, modalityID)
}

func (s *Store) SetEnrollmentExpiry(ctx context.Context, id uuid.UUID, expiry time.Time) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return SetEnrollmentExpiry(ctx, s.DB, id, expiry)
}

func (s *Store) DueForReminder(ctx context.Context, on time.Time, batch int) ([]models.ExpiringEnrollment, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return DueForReminder(ctx, s.DB, on, batch)
}

func (s *Store) MarkReminded(ctx context.Context, ids []uuid.UUID, on time.Time) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return MarkReminded(ctx, s.DB, ids, on)
}

func (s *Store) ProductByStripePrice(ctx context.Context, priceID string) (*models.Product, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return ProductByStripePrice(ctx, s.DB, priceID)
}

func (s *Store) ProductInterval(ctx context.Context, productID uuid.UUID) (models.Interval, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return ProductInterval(ctx, s.DB, productID)
}

// Ping — для /healthz.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
