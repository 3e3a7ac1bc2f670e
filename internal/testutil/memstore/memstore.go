// Package memstore — хранилище в памяти с теми же методами, что db.Store, для тестов сервисов и HTTP.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/gymflow/internal/db"
	"github.com/Spok95/gymflow/internal/models"
)

type Store struct {
	mu sync.Mutex

	Orgs        map[uuid.UUID]*models.Organization
	Students    map[uuid.UUID]*models.Student
	CheckIns    []models.CheckIn
	Enrollments map[uuid.UUID]*models.Enrollment
	Products    map[uuid.UUID]*models.Product

	// Writes — число успешных и неуспешных попыток записи.
	Writes int
	// FailWrites — если задано, любая запись возвращает эту ошибку.
	FailWrites error
	// FailReads — если задано, любое чтение возвращает эту ошибку.
	FailReads error
}

func New() *Store {
	return &Store{
		Orgs:        map[uuid.UUID]*models.Organization{},
		Students:    map[uuid.UUID]*models.Student{},
		Enrollments: map[uuid.UUID]*models.Enrollment{},
		Products:    map[uuid.UUID]*models.Product{},
	}
}

func uniqueErr(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func (s *Store) AddOrg(o models.Organization) *models.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	s.Orgs[o.ID] = &o
	return &o
}

func (s *Store) AddStudent(st models.Student) *models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	s.Students[st.ID] = &st
	return &st
}

func (s *Store) AddEnrollment(e models.Enrollment) *models.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.Enrollments[e.ID] = &e
	return &e
}

func (s *Store) AddProduct(p models.Product) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.Products[p.ID] = &p
	return &p
}

func (s *Store) GetOrganization(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	o, ok := s.Orgs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) OrganizationByGympassID(_ context.Context, gymID int64) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	for _, o := range s.Orgs {
		if o.GympassGymID != nil && *o.GympassGymID == gymID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) OrganizationByTotalPassCode(_ context.Context, code string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	for _, o := range s.Orgs {
		if o.TotalPassGymCode != nil && *o.TotalPassGymCode == code {
			cp := *o
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) SetAccountStatusByStripeAccount(_ context.Context, accountID string, status models.AccountStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrites != nil {
		return false, s.FailWrites
	}
	for _, o := range s.Orgs {
		if o.StripeAccountID != nil && *o.StripeAccountID == accountID {
			o.StripeAccountStatus = status
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ExpireTrials(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	var n int64
	for _, o := range s.Orgs {
		if o.SubscriptionStatus == models.SubscriptionTrial && o.TrialEndsAt != nil && o.TrialEndsAt.Before(now) {
			o.SubscriptionStatus = models.SubscriptionInactive
			n++
		}
	}
	return n, nil
}

func (s *Store) StudentByPartnerToken(_ context.Context, orgID uuid.UUID, partner models.Partner, token string) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	for _, st := range s.Students {
		if st.OrganizationID != orgID {
			continue
		}
		if t := st.PartnerToken(partner); t != nil && *t == token {
			cp := *st
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) CreateStudent(_ context.Context, st *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	for _, p := range []models.Partner{models.PartnerGympass, models.PartnerTotalPass} {
		tok := st.PartnerToken(p)
		if tok == nil {
			continue
		}
		for _, ex := range s.Students {
			if ex.OrganizationID == st.OrganizationID && ex.PartnerToken(p) != nil && *ex.PartnerToken(p) == *tok {
				return uniqueErr("students_organization_id_" + p.TokenColumn() + "_key")
			}
		}
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	st.CreatedAt, st.UpdatedAt = time.Now(), time.Now()
	cp := *st
	s.Students[st.ID] = &cp
	return nil
}

func (s *Store) UpdateStudentIdentity(_ context.Context, st *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	ex, ok := s.Students[st.ID]
	if !ok {
		return db.ErrNotFound
	}
	ex.Name, ex.Email, ex.IsSyntheticName = st.Name, st.Email, st.IsSyntheticName
	return nil
}

func (s *Store) InsertCheckIn(_ context.Context, c *models.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	day := c.CheckInDate.Format("2006-01-02")
	for _, ex := range s.CheckIns {
		if ex.StudentID == c.StudentID && ex.OrganizationID == c.OrganizationID && ex.CheckInDate.Format("2006-01-02") == day {
			return uniqueErr("check_ins_one_per_day")
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.CheckIns = append(s.CheckIns, *c)
	return nil
}

func (s *Store) ListCheckIns(_ context.Context, orgID uuid.UUID, from, to time.Time) ([]models.CheckInRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var out []models.CheckInRow
	for _, c := range s.CheckIns {
		if c.OrganizationID != orgID || c.CheckInDate.Before(from) || !c.CheckInDate.Before(to) {
			continue
		}
		row := models.CheckInRow{CheckedInAt: c.CheckedInAt, Source: c.Source}
		if st, ok := s.Students[c.StudentID]; ok {
			row.StudentName = st.Name
			if st.Phone != nil {
				row.Phone = *st.Phone
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedInAt.Before(out[j].CheckedInAt) })
	return out, nil
}

func (s *Store) LatestEnrollment(_ context.Context, studentID, modalityID uuid.UUID) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var best *models.Enrollment
	for _, e := range s.Enrollments {
		if e.StudentID != studentID || e.ModalityID != modalityID {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, db.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *Store) SetEnrollmentExpiry(_ context.Context, id uuid.UUID, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	e, ok := s.Enrollments[id]
	if !ok {
		return db.ErrNotFound
	}
	e.ExpiryDate = time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

func (s *Store) DueForReminder(_ context.Context, on time.Time, batch int) ([]models.ExpiringEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	day := on.Format("2006-01-02")
	var out []models.ExpiringEnrollment
	for _, e := range s.Enrollments {
		if e.ExpiryDate.Format("2006-01-02") != day {
			continue
		}
		if e.LastReminderOn != nil && e.LastReminderOn.Format("2006-01-02") >= day {
			continue
		}
		st, ok := s.Students[e.StudentID]
		if !ok || st.Phone == nil || *st.Phone == "" {
			continue
		}
		orgName := ""
		if o, ok := s.Orgs[st.OrganizationID]; ok {
			orgName = o.Name
		}
		out = append(out, models.ExpiringEnrollment{
			EnrollmentID:   e.ID,
			StudentName:    st.Name,
			Phone:          *st.Phone,
			ModalityName:   "modality",
			Organization:   orgName,
			ExpiryDate:     e.ExpiryDate,
			OrganizationID: st.OrganizationID,
		})
		if len(out) >= batch {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkReminded(_ context.Context, ids []uuid.UUID, on time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.FailWrites != nil {
		return s.FailWrites
	}
	for _, id := range ids {
		if e, ok := s.Enrollments[id]; ok {
			d := on
			e.LastReminderOn = &d
		}
	}
	return nil
}

func (s *Store) ProductByStripePrice(_ context.Context, priceID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	for _, p := range s.Products {
		if p.StripePriceID != nil && *p.StripePriceID == priceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) ProductInterval(_ context.Context, productID uuid.UUID) (models.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReads != nil {
		return models.IntervalNone, s.FailReads
	}
	if p, ok := s.Products[productID]; ok {
		return p.RecurringInterval, nil
	}
	return models.IntervalNone, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Student — копия ученика по id (для проверок в тестах).
func (s *Store) Student(id uuid.UUID) (models.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.Students[id]
	if !ok {
		return models.Student{}, false
	}
	return *st, true
}

func (s *Store) CheckInCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.CheckIns)
}

func (s *Store) StudentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Students)
}
