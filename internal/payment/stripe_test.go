package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
)

const testSecret = "whsec_test_secret"

// signPayload produces a Stripe-Signature header value for the payload:
// t=<unix>,v1=hex(hmac-sha256(secret, "<unix>.<payload>")).
func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func completedPayload(sessionID, userID, cartItems string) []byte {
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

func TestVerifyEventAcceptsValidSignature(t *testing.T) {
	payload := completedPayload("cs_test_1", "7", `[{"product_id":1,"rental_days":3,"start_date":"2026-09-01","end_date":"2026-09-03"}]`)
	sig := signPayload(payload, testSecret, time.Now())

	ev, err := VerifyEvent(payload, sig, testSecret)
	if err != nil {
		t.Fatalf("VerifyEvent: %v", err)
	}
	if ev.Type != "checkout.session.completed" {
		t.Fatalf("type = %q", ev.Type)
	}
	if ev.Session == nil || ev.Session.ID != "cs_test_1" {
		t.Fatalf("session = %+v", ev.Session)
	}
	if ev.Session.Metadata["user_id"] != "7" {
		t.Fatalf("metadata = %v", ev.Session.Metadata)
	}
}

func TestVerifyEventRejectsWrongSecret(t *testing.T) {
	payload := completedPayload("cs_test_1", "7", "[]")
	sig := signPayload(payload, "whsec_other", time.Now())
	if _, err := VerifyEvent(payload, sig, testSecret); err == nil {
		t.Fatal("event verified with wrong secret")
	}
}

func TestVerifyEventRejectsTamperedPayload(t *testing.T) {
	payload := completedPayload("cs_test_1", "7", "[]")
	sig := signPayload(payload, testSecret, time.Now())
	tampered := completedPayload("cs_test_1", "8", "[]")
	if _, err := VerifyEvent(tampered, sig, testSecret); err == nil {
		t.Fatal("tampered payload verified")
	}
}

func TestVerifyEventRejectsStaleTimestamp(t *testing.T) {
	payload := completedPayload("cs_test_1", "7", "[]")
	sig := signPayload(payload, testSecret, time.Now().Add(-time.Hour))
	if _, err := VerifyEvent(payload, sig, testSecret); err == nil {
		t.Fatal("stale signature verified")
	}
}

func TestVerifyEventRejectsMissingHeader(t *testing.T) {
	payload := completedPayload("cs_test_1", "7", "[]")
	if _, err := VerifyEvent(payload, "", testSecret); err == nil {
		t.Fatal("empty signature header verified")
	}
}

func TestVerifyEventIgnoresOtherEventTypes(t *testing.T) {
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test_2",
		"object": "event",
		"api_version": %q,
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_test_1", "object": "payment_intent"}}
	}`, stripe.APIVersion))
	sig := signPayload(payload, testSecret, time.Now())

	ev, err := VerifyEvent(payload, sig, testSecret)
	if err != nil {
		t.Fatalf("VerifyEvent: %v", err)
	}
	if ev.Type != "payment_intent.succeeded" || ev.Session != nil {
		t.Fatalf("event = %+v", ev)
	}
}
