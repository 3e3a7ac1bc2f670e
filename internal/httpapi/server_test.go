package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/Spok95/gymflow/internal/billing"
	"github.com/Spok95/gymflow/internal/config"
	"github.com/Spok95/gymflow/internal/messaging"
	"github.com/Spok95/gymflow/internal/models"
	"github.com/Spok95/gymflow/internal/signature"
	"github.com/Spok95/gymflow/internal/testutil/memstore"
)

const (
	gympassSecret = "gp-secret"
	stripeSecret  = "whsec_test"
)

type fakeGateway struct {
	calls int
	price billing.Price
	err   error
}

func (f *fakeGateway) GetPrice(_ context.Context, _, priceID string) (billing.Price, error) {
	f.calls++
	p := f.price
	p.ID = priceID
	return p, f.err
}

func (f *fakeGateway) CreatePaymentLink(_ context.Context, p billing.LinkParams) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://buy.stripe.com/" + p.PriceID, nil
}

type fakeSender struct {
	to, message string
	err         error
}

func (f *fakeSender) Send(_ context.Context, to, message string) error {
	f.to, f.message = to, message
	return f.err
}

type memDedupe struct{ seen map[string]bool }

func (m *memDedupe) Claim(_ context.Context, id string) (bool, error) {
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

type harness struct {
	h      http.Handler
	store  *memstore.Store
	gw     *fakeGateway
	sender *fakeSender
	org    *models.Organization
	cfg    *config.Config
}

func ptr[T any](v T) *T { return &v }

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := &config.Config{
		Location:            time.UTC,
		PartnerSecrets:      map[string]string{"gympass": gympassSecret},
		StripeWebhookSecret: stripeSecret,
	}
	for _, m := range mutate {
		m(cfg)
	}
	ms := memstore.New()
	org := ms.AddOrg(models.Organization{
		Name:                "Academia Centro",
		GympassGymID:        ptr(int64(4242)),
		TotalPassGymCode:    ptr("TPCENTRO"),
		StripeAccountID:     ptr("acct_centro"),
		StripeAccountStatus: models.AccountEnabled,
	})
	gw := &fakeGateway{price: billing.Price{UnitAmount: 10000}}
	sender := &fakeSender{}
	srv := New(Deps{
		Config:  cfg,
		Log:     zap.NewNop(),
		Store:   ms,
		Gateway: gw,
		Dedupe:  &memDedupe{seen: map[string]bool{}},
		Sender:  sender,
	})
	return &harness{h: srv.Handler(), store: ms, gw: gw, sender: sender, org: org, cfg: cfg}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func gympassBody(gymID int64, token, name string) []byte {
	return []byte(fmt.Sprintf(`{"event_type":"gympass:checkin","event_data":{"user":{"unique_token":%q,"name":%q},"gym":{"id":%d}}}`,
		token, name, gymID))
}

func checkinRequest(partner string, body []byte, sig string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/checkin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerPartner, partner)
	if sig != "" {
		req.Header.Set("X-Gympass-Signature", sig)
	}
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCheckIn_ValidSignatureRecords(t *testing.T) {
	h := newHarness(t)
	body := gympassBody(4242, "tok-0001", "Marina Costa")

	rec := h.do(checkinRequest("gympass", body, signature.SignHMACSHA1(gympassSecret, body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[statusBody](t, rec)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, 1, h.store.CheckInCount())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestCheckIn_TamperedSignatureNoWrites(t *testing.T) {
	h := newHarness(t)
	body := gympassBody(4242, "tok-0001", "Marina")
	sig := signature.SignHMACSHA1(gympassSecret, body)

	tampered := append([]byte{}, body...)
	tampered[len(tampered)-3] = '9'
	badSig := []byte(sig)
	if badSig[0] == 'A' {
		badSig[0] = 'B'
	} else {
		badSig[0] = 'A'
	}

	for name, c := range map[string]struct {
		body []byte
		sig  string
	}{
		"body":      {tampered, sig},
		"signature": {body, string(badSig)},
		"missing":   {body, ""},
	} {
		rec := h.do(checkinRequest("gympass", c.body, c.sig))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
	assert.Zero(t, h.store.Writes)
	assert.Zero(t, h.store.StudentCount())
}

func TestCheckIn_UnknownGym404NoStudent(t *testing.T) {
	h := newHarness(t)
	body := gympassBody(999, "tok-x", "")
	rec := h.do(checkinRequest("gympass", body, signature.SignHMACSHA1(gympassSecret, body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decode[statusBody](t, rec).Status)
	assert.Zero(t, h.store.StudentCount())
}

func TestCheckIn_SamePayloadTwiceIsIdempotent(t *testing.T) {
	h := newHarness(t)
	body := gympassBody(4242, "tok-dup", "Rafael")
	sig := signature.SignHMACSHA1(gympassSecret, body)

	first := h.do(checkinRequest("gympass", body, sig))
	second := h.do(checkinRequest("gympass", body, sig))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "check-in already recorded today", decode[statusBody](t, second).Message)
	assert.Equal(t, 1, h.store.CheckInCount())
}

func TestCheckIn_TotalPassFormAcceptedWithoutSignature(t *testing.T) {
	h := newHarness(t)
	form := url.Values{"gym_code": {"TPCENTRO"}, "token": {"tp-77"}, "name": {"Lia"}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/checkin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(headerPartner, "TotalPass")

	rec := h.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, h.store.StudentCount())
}

func TestCheckIn_BadRequests(t *testing.T) {
	h := newHarness(t)

	rec := h.do(checkinRequest("classpass", []byte(`{}`), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := []byte(`{"event_data":{"user":{}}}`)
	rec = h.do(checkinRequest("gympass", body, signature.SignHMACSHA1(gympassSecret, body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, h.store.Writes)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/webhooks/checkin", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCheckIn_DatabaseError500Generic(t *testing.T) {
	h := newHarness(t)
	h.store.FailReads = errors.New("pq: password authentication failed for user gymflow")
	body := gympassBody(4242, "tok", "")

	rec := h.do(checkinRequest("gympass", body, signature.SignHMACSHA1(gympassSecret, body)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, decode[statusBody](t, rec).Message)
	assert.NotContains(t, rec.Body.String(), "password")
}

func stripeRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    stripeSecret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func checkoutEvent(id string, meta map[string]string, paymentStatus string) string {
	m, _ := json.Marshal(meta)
	return fmt.Sprintf(`{"id":%q,"object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":%q,"metadata":%s}}}`,
		id, paymentStatus, m)
}

func TestStripe_CheckoutRenewsEnrollment(t *testing.T) {
	h := newHarness(t)
	student, modality := uuid.New(), uuid.New()
	past := time.Now().UTC().AddDate(0, 0, -5)
	e := h.store.AddEnrollment(models.Enrollment{StudentID: student, ModalityID: modality, ExpiryDate: past})

	rec := h.do(stripeRequest(t, checkoutEvent("evt_1", map[string]string{
		billing.MetaStudentID: student.String(), billing.MetaItemID: modality.String(), billing.MetaInterval: "week",
	}, "paid")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "processed", decode[stripeAck](t, rec).Status)

	today := time.Now().UTC()
	want := time.Date(today.Year(), today.Month(), today.Day()+7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want.Format(time.DateOnly), h.store.Enrollments[e.ID].ExpiryDate.Format(time.DateOnly))

	// повтор того же события не продлевает второй раз
	rec = h.do(stripeRequest(t, checkoutEvent("evt_1", map[string]string{
		billing.MetaStudentID: student.String(), billing.MetaItemID: modality.String(), billing.MetaInterval: "week",
	}, "paid")))
	assert.Equal(t, "duplicate", decode[stripeAck](t, rec).Status)
	assert.Equal(t, want.Format(time.DateOnly), h.store.Enrollments[e.ID].ExpiryDate.Format(time.DateOnly))
}

func TestStripe_FailuresStillAcknowledged(t *testing.T) {
	h := newHarness(t)
	meta := map[string]string{billing.MetaStudentID: uuid.NewString(), billing.MetaItemID: uuid.NewString()}

	rec := h.do(stripeRequest(t, checkoutEvent("evt_nf", meta, "paid")))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.store.FailReads = errors.New("db down")
	rec = h.do(stripeRequest(t, checkoutEvent("evt_db", meta, "paid")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(stripeRequest(t, checkoutEvent("evt_nometa", nil, "paid")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStripe_UnpaidCheckoutWaitsForAsyncPayment(t *testing.T) {
	h := newHarness(t)
	student, modality := uuid.New(), uuid.New()
	e := h.store.AddEnrollment(models.Enrollment{StudentID: student, ModalityID: modality, ExpiryDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	meta := map[string]string{billing.MetaStudentID: student.String(), billing.MetaItemID: modality.String()}

	rec := h.do(stripeRequest(t, checkoutEvent("evt_boleto", meta, "unpaid")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2020, h.store.Enrollments[e.ID].ExpiryDate.Year())
}

func TestStripe_AccountUpdated(t *testing.T) {
	h := newHarness(t)
	h.store.Orgs[h.org.ID].StripeAccountStatus = models.AccountPending

	rec := h.do(stripeRequest(t, `{"id":"evt_acct","object":"event","type":"account.updated","data":{"object":{"id":"acct_centro","object":"account","charges_enabled":false,"payouts_enabled":false,"details_submitted":true}}}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AccountRestricted, h.store.Orgs[h.org.ID].StripeAccountStatus)
}

func TestStripe_BadSignature(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"id":"evt"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, h.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"id":"evt"}`))
	assert.Equal(t, http.StatusBadRequest, h.do(req).Code)
	assert.Zero(t, h.store.Writes)
}

func TestStripe_NoSecretConfigured(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.StripeWebhookSecret = "" })
	rec := h.do(stripeRequest(t, `{"id":"evt","object":"event","type":"ping"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func postJSON(path string, v any) *http.Request {
	b, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPaymentLink(t *testing.T) {
	h := newHarness(t)
	rec := h.do(postJSON("/api/payment-links", map[string]any{
		"stripePriceId": "price_123", "organizationId": h.org.ID, "recurring": false,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://buy.stripe.com/price_123", decode[paymentLinkResponse](t, rec).PaymentLinkURL)
}

func TestPaymentLink_Errors(t *testing.T) {
	h := newHarness(t)
	pending := h.store.AddOrg(models.Organization{Name: "Nova", StripeAccountStatus: models.AccountPending})

	rec := h.do(postJSON("/api/payment-links", map[string]any{"stripePriceId": "p", "organizationId": pending.ID}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Error, "payout account")
	assert.Zero(t, h.gw.calls)

	rec = h.do(postJSON("/api/payment-links", map[string]any{"stripePriceId": "p", "organizationId": uuid.New()}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(postJSON("/api/payment-links", map[string]any{"organizationId": h.org.ID}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(postJSON("/api/payment-links", map[string]any{
		"stripePriceId": "price_once", "organizationId": h.org.ID, "recurring": true,
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Error, "recurring")

	h.gw.err = errors.New("stripe: api key expired")
	rec = h.do(postJSON("/api/payment-links", map[string]any{"stripePriceId": "p", "organizationId": h.org.ID}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, decode[errorBody](t, rec).Error)
}

func TestEstimate(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/fees/estimate?amount=199.90", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "card", got["method"])
	assert.Equal(t, "9.99", got["platformFee"])

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/fees/estimate?amount=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessages(t *testing.T) {
	h := newHarness(t)
	rec := h.do(postJSON("/api/messages", messageRequest{To: "+5511912345678", Message: "Bem-vindo!"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+5511912345678", h.sender.to)

	rec = h.do(postJSON("/api/messages", messageRequest{To: "", Message: "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.sender.err = fmt.Errorf("wrap: %w", messaging.ErrInvalidRecipient)
	rec = h.do(postJSON("/api/messages", messageRequest{To: "abc", Message: "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.sender.err = errors.New("twilio send: status 500")
	rec = h.do(postJSON("/api/messages", messageRequest{To: "+55", Message: "x"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAPIKeyGuard(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.APIKey = "k-123" })

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/fees/estimate?amount=10", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/fees/estimate?amount=10", nil)
	req.Header.Set(headerAPIKey, "k-123")
	assert.Equal(t, http.StatusOK, h.do(req).Code)

	// вебхуки ключом не закрыты
	body := gympassBody(4242, "t", "")
	assert.Equal(t, http.StatusOK, h.do(checkinRequest("gympass", body, signature.SignHMACSHA1(gympassSecret, body))).Code)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequestIDPropagated(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-42")
	assert.Equal(t, "req-42", h.do(req).Header().Get(headerRequestID))
}
