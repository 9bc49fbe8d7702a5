package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/payment"
	"github.com/maquirent/rental-api/internal/queue"
	"github.com/maquirent/rental-api/internal/service"
)

var errEmptyCart = errors.New("empty cart metadata")

// ReservationCreator is the booking operation the webhook drives.
type ReservationCreator interface {
	CreateForSession(ctx context.Context, userID uint64, sessionID string, lines []service.BookingLine) ([]model.Reservation, bool, error)
}

// WebhookHandler receives payment-gateway events.  The endpoint is
// otherwise unauthenticated: the cryptographic request signature checked
// against the server-held secret is its sole authentication mechanism,
// since the caller is the gateway, not a user.
type WebhookHandler struct {
	Secret   string
	Bookings ReservationCreator
	// Publish sends a reservation-created event to the notification queue.
	// Best effort: a publish failure never fails the webhook response,
	// because the reservation row is already committed.
	Publish func(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(secret string, bookings ReservationCreator, publish func(ctx context.Context, ev queue.ReservationCreatedEvent) error) *WebhookHandler {
	if bookings == nil {
		panic("nil booking service passed to NewWebhookHandler")
	}
	return &WebhookHandler{Secret: secret, Bookings: bookings, Publish: publish}
}

// HandleStripe handles POST /v1/stripe/webhook.  The signature is
// verified before the body is interpreted at all; an invalid or missing
// signature writes nothing.  Events other than
// checkout.session.completed are acknowledged and ignored.
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
	}
	ev, err := payment.VerifyEvent(payload, c.Request().Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed"})
	}
	if ev.Type != "checkout.session.completed" || ev.Session == nil {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	sess := ev.Session
	userIDStr, ok := sess.Metadata["user_id"]
	if !ok || userIDStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user_id metadata"})
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id metadata"})
	}
	rawLines, ok := sess.Metadata["cart_items"]
	if !ok || rawLines == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing cart_items metadata"})
	}
	lines, err := parseMetadataLines(rawLines)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cart_items metadata"})
	}

	created, alreadyProcessed, err := h.Bookings.CreateForSession(c.Request().Context(), userID, sess.ID, lines)
	if err != nil {
		// Fail the whole batch; the gateway redelivers on non-2xx and the
		// idempotency guard makes the retry safe.
		log.Printf("webhook: booking failed for session %s: %v", sess.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation write failed"})
	}
	if alreadyProcessed {
		log.Printf("webhook: session %s already processed, nothing written", sess.ID)
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	if h.Publish != nil {
		for _, res := range created {
			evt := queue.ReservationCreatedEvent{
				ReservationID: res.ID,
				UserID:        res.UsuarioID,
				ProductID:     res.ProductoID,
				FechaInicio:   res.FechaInicio.UTC().Format("2006-01-02"),
				FechaFin:      res.FechaFin.UTC().Format("2006-01-02"),
				PrecioTotal:   res.PrecioTotal,
				Estado:        res.Estado,
				SessionID:     sess.ID,
				CreatedAt:     res.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := h.Publish(c.Request().Context(), evt); err != nil {
				log.Printf("webhook: publish reservation %d failed: %v", res.ID, err)
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// parseMetadataLines decodes the cart_items metadata value and derives
// the date fields.  rental_days consistency with the range was enforced
// when the session was created; it is re-derived here rather than
// trusted.
func parseMetadataLines(raw string) ([]service.BookingLine, error) {
	var metaLines []metadataLine
	if err := json.Unmarshal([]byte(raw), &metaLines); err != nil {
		return nil, err
	}
	if len(metaLines) == 0 {
		return nil, errEmptyCart
	}
	lines := make([]service.BookingLine, 0, len(metaLines))
	for _, m := range metaLines {
		start, err := time.Parse("2006-01-02", m.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := time.Parse("2006-01-02", m.EndDate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, service.BookingLine{
			ProductID:  m.ProductID,
			RentalDays: model.RentalDays(start, end),
			StartDate:  start,
			EndDate:    end,
		})
	}
	return lines, nil
}
