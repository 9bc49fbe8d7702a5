package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	stripe "github.com/stripe/stripe-go/v79"

	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/queue"
	"github.com/maquirent/rental-api/internal/service"
)

const webhookSecret = "whsec_test_secret"

type fakeBookings struct {
	userID           uint64
	sessionID        string
	lines            []service.BookingLine
	created          []model.Reservation
	alreadyProcessed bool
	err              error
	calls            int
}

func (f *fakeBookings) CreateForSession(_ context.Context, userID uint64, sessionID string, lines []service.BookingLine) ([]model.Reservation, bool, error) {
	f.calls++
	f.userID = userID
	f.sessionID = sessionID
	f.lines = lines
	if f.err != nil {
		return nil, false, f.err
	}
	return f.created, f.alreadyProcessed, nil
}

func stripeSig(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func completedEvent(sessionID, userID, cartItems string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": %q,
				"object": "checkout.session",
				"metadata": {"user_id": %q, "cart_items": %q}
			}
		}
	}`, stripe.APIVersion, sessionID, userID, cartItems))
}

func postWebhook(t *testing.T, h *WebhookHandler, payload []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/stripe/webhook", strings.NewReader(string(payload)))
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.HandleStripe(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

const cartItemsMeta = `[{"product_id":3,"rental_days":3,"start_date":"2026-09-01","end_date":"2026-09-03"}]`

func TestWebhookCreatesReservations(t *testing.T) {
	now := time.Now().UTC()
	bookings := &fakeBookings{created: []model.Reservation{{
		ID: 21, UsuarioID: 7, ProductoID: 3,
		FechaInicio: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		FechaFin:    time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		PrecioTotal: 80, Estado: model.EstadoPendiente, CreatedAt: now,
	}}}
	var published []queue.ReservationCreatedEvent
	h := NewWebhookHandler(webhookSecret, bookings, func(_ context.Context, ev queue.ReservationCreatedEvent) error {
		published = append(published, ev)
		return nil
	})

	payload := completedEvent("cs_test_9", "7", cartItemsMeta)
	rec := postWebhook(t, h, payload, stripeSig(payload, webhookSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if bookings.calls != 1 || bookings.userID != 7 || bookings.sessionID != "cs_test_9" {
		t.Fatalf("bookings called with user %d session %q (%d calls)", bookings.userID, bookings.sessionID, bookings.calls)
	}
	if len(bookings.lines) != 1 {
		t.Fatalf("lines = %+v", bookings.lines)
	}
	line := bookings.lines[0]
	if line.ProductID != 3 || line.RentalDays != 3 {
		t.Fatalf("line = %+v", line)
	}
	if len(published) != 1 || published[0].ReservationID != 21 || published[0].SessionID != "cs_test_9" {
		t.Fatalf("published = %+v", published)
	}
}

func TestWebhookRederivesRentalDays(t *testing.T) {
	// rental_days in the metadata is tampered to 30; the dates still span
	// three days, and the dates win.
	bookings := &fakeBookings{}
	h := NewWebhookHandler(webhookSecret, bookings, nil)

	meta := `[{"product_id":3,"rental_days":30,"start_date":"2026-09-01","end_date":"2026-09-03"}]`
	payload := completedEvent("cs_test_9", "7", meta)
	rec := postWebhook(t, h, payload, stripeSig(payload, webhookSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(bookings.lines) != 1 || bookings.lines[0].RentalDays != 3 {
		t.Fatalf("lines = %+v, want rental days 3", bookings.lines)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	bookings := &fakeBookings{}
	h := NewWebhookHandler(webhookSecret, bookings, nil)

	payload := completedEvent("cs_test_9", "7", cartItemsMeta)
	for name, sig := range map[string]string{
		"missing":      "",
		"wrong secret": stripeSig(payload, "whsec_other"),
		"garbage":      "t=123,v1=deadbeef",
	} {
		t.Run(name, func(t *testing.T) {
			rec := postWebhook(t, h, payload, sig)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
	if bookings.calls != 0 {
		t.Fatal("booking service reached with invalid signature")
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	bookings := &fakeBookings{}
	h := NewWebhookHandler(webhookSecret, bookings, nil)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test_2",
		"object": "event",
		"api_version": %q,
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_test_1", "object": "charge"}}
	}`, stripe.APIVersion))
	rec := postWebhook(t, h, payload, stripeSig(payload, webhookSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if bookings.calls != 0 {
		t.Fatal("booking service called for unrelated event")
	}
}

func TestWebhookMetadataValidation(t *testing.T) {
	cases := []struct {
		name      string
		userID    string
		cartItems string
	}{
		{"missing user_id", "", cartItemsMeta},
		{"non-numeric user_id", "abc", cartItemsMeta},
		{"missing cart_items", "7", ""},
		{"cart_items not JSON", "7", "{nope"},
		{"empty cart_items", "7", "[]"},
		{"bad dates", "7", `[{"product_id":3,"rental_days":3,"start_date":"soon","end_date":"later"}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &fakeBookings{}
			h := NewWebhookHandler(webhookSecret, bookings, nil)
			payload := completedEvent("cs_test_9", tc.userID, tc.cartItems)
			rec := postWebhook(t, h, payload, stripeSig(payload, webhookSecret))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
			if bookings.calls != 0 {
				t.Fatal("booking service reached with invalid metadata")
			}
		})
	}
}

func TestWebhookAlreadyProcessedSession(t *testing.T) {
	bookings := &fakeBookings{alreadyProcessed: true}
	published := 0
	h := NewWebhookHandler(webhookSecret, bookings, func(context.Context, queue.ReservationCreatedEvent) error {
		published++
		return nil
	})

	payload := completedEvent("cs_test_9", "7", cartItemsMeta)
	rec := postWebhook(t, h, payload, stripeSig(payload, webhookSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if published != 0 {
		t.Fatal("events published for an already-processed session")
	}
}

func TestWebhookBookingFailureReturns500(t *testing.T) {
	bookings := &fakeBookings{err: errors.New("db down")}
	h := NewWebhookHandler(webhookSecret, bookings, nil)

	payload := completedEvent("cs_test_9", "7", cartItemsMeta)
	rec := postWebhook(t, h, payload, stripeSig(payload, webhookSecret))

	// Non-2xx so the gateway redelivers; the idempotency guard makes the
	// retry safe.
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestWebhookPublishFailureStillSucceeds(t *testing.T) {
	bookings := &fakeBookings{created: []model.Reservation{{ID: 1, Estado: model.EstadoPendiente}}}
	h := NewWebhookHandler(webhookSecret, bookings, func(context.Context, queue.ReservationCreatedEvent) error {
		return errors.New("broker unreachable")
	})

	payload := completedEvent("cs_test_9", "7", cartItemsMeta)
	rec := postWebhook(t, h, payload, stripeSig(payload, webhookSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite publish failure", rec.Code)
	}
}
