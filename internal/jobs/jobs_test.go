package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/messaging"
	"github.com/Spok95/gymflow/internal/models"
	"github.com/Spok95/gymflow/internal/testutil/memstore"
)

type recordingSender struct {
	sent    map[string]string
	failFor string
}

func (s *recordingSender) Send(_ context.Context, to, message string) error {
	if to == s.failFor {
		return errors.New("twilio send: status 500")
	}
	s.sent[to] = message
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestReminders_SendsOncePerExpiry(t *testing.T) {
	ms := memstore.New()
	org := ms.AddOrg(models.Organization{Name: "Studio Sol"})
	ana := ms.AddStudent(models.Student{OrganizationID: org.ID, Name: "Ana", Phone: ptr("+5511911110000")})
	bia := ms.AddStudent(models.Student{OrganizationID: org.ID, Name: "Bia", Phone: ptr("+5511922220000")})
	noPhone := ms.AddStudent(models.Student{OrganizationID: org.ID, Name: "Caio"})

	expiry := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
	ms.AddEnrollment(models.Enrollment{StudentID: ana.ID, ExpiryDate: expiry})
	ms.AddEnrollment(models.Enrollment{StudentID: bia.ID, ExpiryDate: expiry})
	ms.AddEnrollment(models.Enrollment{StudentID: noPhone.ID, ExpiryDate: expiry})
	ms.AddEnrollment(models.Enrollment{StudentID: ana.ID, ExpiryDate: expiry.AddDate(0, 0, 1)})

	sender := &recordingSender{sent: map[string]string{}, failFor: "+5511922220000"}
	r := NewReminders(ms, sender, time.UTC, 3, zap.NewNop())
	r.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("want 1 message, got %v", sender.sent)
	}
	msg := sender.sent["+5511911110000"]
	if !strings.Contains(msg, "Olá, Ana!") || !strings.Contains(msg, "18/03/2024") {
		t.Fatalf("unexpected text: %q", msg)
	}

	// Ana помечена, Bia нет — повторный прогон шлёт только Bia
	sender.failFor = ""
	sender.sent = map[string]string{}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := sender.sent["+5511922220000"]; !ok || len(sender.sent) != 1 {
		t.Fatalf("second run must send only to Bia, got %v", sender.sent)
	}

	sender.sent = map[string]string{}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("third run sent %v", sender.sent)
	}
}

func TestReminders_StoreError(t *testing.T) {
	ms := memstore.New()
	ms.FailReads = errors.New("db down")
	r := NewReminders(ms, messaging.NewLogSender(nil), time.UTC, 3, nil)
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestExpireTrials(t *testing.T) {
	ms := memstore.New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expired := ms.AddOrg(models.Organization{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: ptr(now.Add(-time.Hour))})
	running := ms.AddOrg(models.Organization{SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: ptr(now.Add(time.Hour))})
	paying := ms.AddOrg(models.Organization{SubscriptionStatus: models.SubscriptionActive, TrialEndsAt: ptr(now.Add(-time.Hour))})

	job := ExpireTrials(ms, func() time.Time { return now }, zap.NewNop())
	if err := job(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, c := range []struct {
		name string
		org  *models.Organization
		want models.SubscriptionStatus
	}{
		{"expired", expired, models.SubscriptionInactive},
		{"running", running, models.SubscriptionTrial},
		{"paying", paying, models.SubscriptionActive},
	} {
		if got := ms.Orgs[c.org.ID].SubscriptionStatus; got != c.want {
			t.Fatalf("%s: status %q, want %q", c.name, got, c.want)
		}
	}
}

func TestRunner_RunOnceRecoversPanic(t *testing.T) {
	r := New(context.Background(), zap.NewNop())
	err := r.RunOnce("boom", func(context.Context) error { panic("nil map") })
	if err == nil || !strings.Contains(err.Error(), "nil map") {
		t.Fatalf("want recovered panic, got %v", err)
	}
	if err := r.RunOnce("ok", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
}

func TestRunner_EveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, zap.NewNop())
	runs := make(chan struct{}, 10)
	r.Every(5*time.Millisecond, "tick", func(context.Context) error {
		select {
		case runs <- struct{}{}:
		default:
		}
		return nil
	})

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
}
