package http_test

import (
	"braidbook/config"
	"braidbook/infras/jwt"
	kafkaMocks "braidbook/infras/kafka/mocks"
	otelMocks "braidbook/infras/otel/mocks"
	"braidbook/infras/postgres"
	s3Mocks "braidbook/infras/s3/mocks"
	"braidbook/infras/stripe"
	authService "braidbook/internal/domains/auth/service"
	availabilityRepository "braidbook/internal/domains/availability/repository"
	availabilityService "braidbook/internal/domains/availability/service"
	"braidbook/internal/domains/booking/event"
	bookingRepository "braidbook/internal/domains/booking/repository"
	bookingService "braidbook/internal/domains/booking/service"
	galleryRepository "braidbook/internal/domains/gallery/repository"
	galleryService "braidbook/internal/domains/gallery/service"
	paymentRepository "braidbook/internal/domains/payment/repository"
	paymentService "braidbook/internal/domains/payment/service"
	authHandler "braidbook/internal/handlers/auth"
	availabilityHandler "braidbook/internal/handlers/availability"
	bookingHandler "braidbook/internal/handlers/booking"
	galleryHandler "braidbook/internal/handlers/gallery"
	paymentHandler "braidbook/internal/handlers/payment"
	"braidbook/internal/testutil"
	"braidbook/permissions"
	"braidbook/shared/cache"
	cacheMocks "braidbook/shared/cache/mocks"
	"braidbook/shared/constant"
	httpTransport "braidbook/transport/http"
	"braidbook/transport/http/middleware"
	"braidbook/transport/http/router"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/mock/gomock"
)

const (
	webhookSecret = "whsec_integration"
	adminKey      = "admin-key"
	// bcrypt of "password"
	adminHash = "$2a$10$92IXUNpkjO0rOQ5byMi.Ye4oKoEa3Ro9llC/.og/at2.uheWG/igi"

	testDate    = "2026-11-02"
	testSlot    = testDate + "T09:00"
	testSlotPM  = testDate + "T13:00"
	initPath    = "/v1/bookings/init"
	webhookPath = "/v1/webhook"
)

// fakeStripe keeps checkout sessions in memory and verifies webhooks with the real signature check.
type fakeStripe struct {
	mu       sync.Mutex
	sessions map[string]stripe.Session
	order    []string
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{sessions: map[string]stripe.Session{}}
}

func (f *fakeStripe) CreateCheckoutSession(_ context.Context, params stripe.CheckoutParams) (stripe.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := fmt.Sprintf("cs_test_%d", len(f.order)+1)
	session := stripe.Session{
		ID:                id,
		URL:               "https://checkout.stripe.test/" + id,
		Status:            stripe.SessionStatusOpen,
		PaymentStatus:     stripe.PaymentStatusUnpaid,
		ClientReferenceID: params.BookingID,
		Metadata: map[string]string{
			stripe.MetadataBookingID: params.BookingID,
			stripe.MetadataSlotID:    params.SlotID,
		},
	}

	f.sessions[id] = session
	f.order = append(f.order, id)

	return session, nil
}

func (f *fakeStripe) GetCheckoutSession(_ context.Context, sessionID string) (stripe.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[sessionID]
	if !ok {
		return stripe.Session{}, stripe.ErrSessionNotFound
	}

	return session, nil
}

func (f *fakeStripe) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return stripe.ConstructEvent(payload, signatureHeader, webhookSecret, 5*time.Minute) //nolint:wrapcheck
}

func (f *fakeStripe) last(t *testing.T) stripe.Session {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.order, "no checkout session was created")

	return f.sessions[f.order[len(f.order)-1]]
}

func (f *fakeStripe) pay(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session := f.sessions[sessionID]
	session.Status = stripe.SessionStatusComplete
	session.PaymentStatus = stripe.PaymentStatusPaid
	f.sessions[sessionID] = session
}

type harness struct {
	t      *testing.T
	db     *postgres.Connection
	stripe *fakeStripe
	server *httpTransport.HTTP
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.App.Name = "braidbook-test"
	cfg.App.APIKey = adminKey
	cfg.Admin.PasswordHash = adminHash
	cfg.JWT.AccessSecret = "jwt-secret"
	cfg.JWT.AccessExpireMin = 5
	cfg.Booking.Flow = config.BookingFlowDeposit
	cfg.Booking.DailySlots = []string{"09:00", "13:00"}
	cfg.Booking.DepositAmount = 2500
	cfg.Booking.Currency = "usd"
	cfg.Booking.DepositProductName = "Deposit"
	cfg.Booking.DepositExpiryMinutes = 30
	cfg.Payment.Stripe.WebhookMaxBodyBytes = 64 << 10
	cfg.Sweeper.MaxRetries = 1
	cfg.Sweeper.RetryInitialIntervalMs = 1
	cfg.Kafka.Topics.BookingEvents = "booking-events"

	redisCache := cacheMocks.NewMockRedisCache(ctrl)
	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).AnyTimes()
	redisCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	redisCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	redisCache.EXPECT().Incr(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil).AnyTimes()

	kafkaClient := kafkaMocks.NewMockClient(ctrl)
	kafkaClient.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	t.Cleanup(func() {
		// let detached notifications finish before the controller is checked
		time.Sleep(20 * time.Millisecond)
	})

	ot := otelMocks.NewOtel()
	db := testutil.NewDB(t)
	fake := newFakeStripe()
	publisher := event.NewPublisher(kafkaClient, cfg, ot)
	jwtService := jwt.New(cfg)

	bookings := bookingRepository.New(db, ot)
	availability := availabilityRepository.New(db, ot)
	paymentEvents := paymentRepository.New(db, ot)

	payments := paymentService.New(bookings, paymentEvents, fake, publisher, cfg, redisCache, ot)

	handlers := router.DomainHandlers{
		Auth:         authHandler.New(authService.New(cfg, ot, jwtService), ot),
		Availability: availabilityHandler.New(availabilityService.New(availability, cfg, redisCache, ot), ot),
		Booking:      bookingHandler.New(bookingService.New(bookings, availability, fake, publisher, cfg, redisCache, ot), cfg, ot),
		Gallery:      galleryHandler.New(galleryService.New(galleryRepository.New(db, ot), cfg, redisCache, ot, s3Mocks.NewMockS3(ctrl)), ot),
		Payment:      paymentHandler.New(payments, cfg, ot),
	}

	appMiddleware := middleware.NewAppMiddleware(ot, cfg, redisCache)
	authRole := middleware.NewAuthRoleMiddleware(jwtService, ot, permissions.Get(), cfg)

	return &harness{
		t:      t,
		db:     db,
		stripe: fake,
		server: httpTransport.New(cfg, router.New(handlers, appMiddleware, authRole), appMiddleware),
	}
}

func (h *harness) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader *bytes.Reader

	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.server.ServeHTTP(rec, req)

	return rec
}

func (h *harness) admin(method, path string, body any) *httptest.ResponseRecorder {
	return h.do(method, path, body, map[string]string{constant.RequestHeaderAdminKey: adminKey})
}

func (h *harness) initiate(slotID, name string) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, initPath, map[string]string{
		"slotId":        slotID,
		"customerName":  name,
		"customerPhone": "+15550100",
		"serviceName":   "Knotless Braids",
	}, nil)
}

func (h *harness) deliver(eventID, eventType string, session stripe.Session) *httptest.ResponseRecorder {
	h.t.Helper()

	payload := h.eventPayload(eventID, eventType, session)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})

	return h.do(http.MethodPost, webhookPath, payload, map[string]string{constant.RequestHeaderStripeSignature: signed.Header})
}

func (h *harness) eventPayload(eventID, eventType string, session stripe.Session) []byte {
	h.t.Helper()

	object := map[string]any{
		"id":                  session.ID,
		"object":              "checkout.session",
		"status":              session.Status,
		"payment_status":      session.PaymentStatus,
		"client_reference_id": session.ClientReferenceID,
		"metadata":            session.Metadata,
	}

	payload, err := json.Marshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": object},
	})
	require.NoError(h.t, err)

	return payload
}

func (h *harness) bookingStatus(bookingID string) string {
	h.t.Helper()

	var status string
	require.NoError(h.t, h.db.Read.Get(&status, h.db.Read.Rebind("SELECT status FROM appointments WHERE id = ?"), bookingID))

	return status
}

func (h *harness) slotState(slotID string) (booked bool, version int64) {
	h.t.Helper()

	row := h.db.Read.QueryRowx(h.db.Read.Rebind("SELECT is_booked, version FROM availability_slots WHERE id = ?"), slotID)
	require.NoError(h.t, row.Scan(&booked, &version))

	return booked, version
}

func (h *harness) slotStatus(slotID string) string {
	h.t.Helper()

	rec := h.do(http.MethodGet, "/v1/slots/"+slotID, nil, nil)
	require.Equal(h.t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body.Status
}

func (h *harness) publish(date string) {
	h.t.Helper()

	rec := h.admin(http.MethodPost, "/v1/admin/availability", map[string]any{"date": date})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConcurrentIntakeAdmitsOneBooking(t *testing.T) {
	h := newHarness(t)

	const customers = 20

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)

	for i := range customers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			rec := h.initiate(testSlot, fmt.Sprintf("Customer %d", i))

			mu.Lock()
			codes[rec.Code]++
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, codes[http.StatusOK])
	assert.Equal(t, customers-1, codes[http.StatusConflict])
	assert.Equal(t, "BOOKED", h.slotStatus(testSlot))
	assert.Equal(t, "AVAILABLE", h.slotStatus(testSlotPM))
}

func TestIntakeReturnsCheckoutURL(t *testing.T) {
	h := newHarness(t)

	rec := h.initiate(testSlot, "Ama")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	session := h.stripe.last(t)
	assert.Equal(t, session.URL, body["checkoutUrl"])
	assert.Equal(t, "pending_deposit", h.bookingStatus(session.BookingID()))

	rec = h.do(http.MethodPost, initPath, map[string]string{"slotId": testSlotPM}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsBadSignatures(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.initiate(testSlot, "Ama").Code)

	session := h.stripe.last(t)
	h.stripe.pay(session.ID)
	paid, _ := h.stripe.GetCheckoutSession(context.Background(), session.ID)

	payload := h.eventPayload("evt_forged", stripe.EventCheckoutSessionCompleted, paid)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "missing signature", headers: nil},
		{name: "garbage signature", headers: map[string]string{constant.RequestHeaderStripeSignature: "t=1,v1=deadbeef"}},
		{
			name: "signed with another secret",
			headers: map[string]string{constant.RequestHeaderStripeSignature: webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
				Payload: payload, Secret: "whsec_other", Timestamp: time.Now(),
			}).Header},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, webhookPath, payload, tt.headers)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid webhook signature")
		})
	}

	assert.Equal(t, "pending_deposit", h.bookingStatus(session.BookingID()))
}

func TestWebhookDoubleDeliveryConfirmsOnce(t *testing.T) {
	h := newHarness(t)
	h.publish(testDate)

	require.Equal(t, http.StatusOK, h.initiate(testSlot, "Ama").Code)

	session := h.stripe.last(t)
	h.stripe.pay(session.ID)
	paid, _ := h.stripe.GetCheckoutSession(context.Background(), session.ID)

	for range 2 {
		rec := h.deliver("evt_paid", stripe.EventCheckoutSessionCompleted, paid)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	}

	assert.Equal(t, "confirmed", h.bookingStatus(session.BookingID()))

	booked, version := h.slotState(testSlot)
	assert.True(t, booked)
	assert.Equal(t, int64(1), version)

	var recorded int
	require.NoError(t, h.db.Read.Get(&recorded, "SELECT COUNT(*) FROM payment_events"))
	assert.Equal(t, 1, recorded)

	rec := h.deliver("evt_late_expiry", stripe.EventCheckoutSessionExpired, paid)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", h.bookingStatus(session.BookingID()), "an expiry after payment changes nothing")
}

func TestAbandonedCheckoutFreesSlot(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.initiate(testSlot, "Ama").Code)
	assert.Equal(t, http.StatusConflict, h.initiate(testSlot, "Bea").Code)

	abandoned := h.stripe.last(t)
	abandoned.Status = stripe.SessionStatusExpired

	rec := h.deliver("evt_expired", stripe.EventCheckoutSessionExpired, abandoned)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "cancelled", h.bookingStatus(abandoned.BookingID()))
	assert.Equal(t, "AVAILABLE", h.slotStatus(testSlot))
	assert.Equal(t, http.StatusOK, h.initiate(testSlot, "Bea").Code)
}

func TestReconcileRepairsLostWebhook(t *testing.T) {
	h := newHarness(t)
	h.publish(testDate)

	require.Equal(t, http.StatusOK, h.initiate(testSlot, "Ama").Code)
	paid := h.stripe.last(t)
	h.stripe.pay(paid.ID)

	require.Equal(t, http.StatusOK, h.initiate(testSlotPM, "Bea").Code)
	open := h.stripe.last(t)

	rec := h.admin(http.MethodPost, "/v1/admin/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Checked   int `json:"checked"`
			Confirmed int `json:"confirmed"`
			Released  int `json:"released"`
			Untouched int `json:"untouched"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Data.Checked)
	assert.Equal(t, 1, body.Data.Confirmed)
	assert.Equal(t, 1, body.Data.Untouched)

	assert.Equal(t, "confirmed", h.bookingStatus(paid.BookingID()))
	assert.Equal(t, "pending_deposit", h.bookingStatus(open.BookingID()))

	booked, version := h.slotState(testSlot)
	assert.True(t, booked)
	assert.Equal(t, int64(1), version)
}

func TestAvailabilityReportsBookedTimes(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.initiate(testSlotPM, "Ama").Code)

	rec := h.do(http.MethodGet, "/v1/availability?date="+testDate, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Date        string   `json:"date"`
		BookedTimes []string `json:"bookedTimes"`
		Slots       []struct {
			Time   string `json:"time"`
			Status string `json:"status"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, testDate, body.Date)
	assert.Equal(t, []string{"13:00"}, body.BookedTimes)
	require.Len(t, body.Slots, 2)
	assert.Equal(t, "AVAILABLE", body.Slots[0].Status)
	assert.Equal(t, "BOOKED", body.Slots[1].Status)
}

func TestAdminRoutesRequireCredentials(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/admin/bookings", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/admin/bookings", nil,
		map[string]string{constant.RequestHeaderAdminKey: "wrong"}).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/admin/bookings", nil,
		map[string]string{constant.RequestHeaderAuthorization: "Bearer not-a-token"}).Code)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/v1/admin/login", map[string]string{"password": "nope"}, nil).Code)

	rec := h.do(http.MethodPost, "/v1/admin/login", map[string]string{"password": "password"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Data struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)

	rec = h.do(http.MethodGet, "/v1/admin/bookings", nil,
		map[string]string{constant.RequestHeaderAuthorization: login.Data.TokenType + " " + login.Data.AccessToken})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusOK, h.admin(http.MethodGet, "/v1/admin/bookings", nil).Code)
}

func TestAdminCancelFreesSlot(t *testing.T) {
	h := newHarness(t)
	h.publish(testDate)

	require.Equal(t, http.StatusOK, h.initiate(testSlot, "Ama").Code)
	session := h.stripe.last(t)
	h.stripe.pay(session.ID)
	paid, _ := h.stripe.GetCheckoutSession(context.Background(), session.ID)

	require.Equal(t, http.StatusOK, h.deliver("evt_paid", stripe.EventCheckoutSessionCompleted, paid).Code)

	rec := h.admin(http.MethodPatch, "/v1/admin/bookings/"+session.BookingID(), map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "cancelled", h.bookingStatus(session.BookingID()))

	booked, version := h.slotState(testSlot)
	assert.False(t, booked)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, "AVAILABLE", h.slotStatus(testSlot))
}
