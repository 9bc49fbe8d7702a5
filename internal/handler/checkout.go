package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/config"
	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/payment"
	"github.com/maquirent/rental-api/internal/repository"
)

// Rental windows are bounded to one year per line; zero-day rentals do
// not exist (both endpoints count).
const (
	minRentalDays = 1
	maxRentalDays = 365
)

// ProductReader is the slice of ProductRepo the checkout flow needs.
type ProductReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
}

// ReservationReader is the slice of ReservationRepo the checkout flow
// needs: overlap validation before a session is created and session
// lookups during reconciliation.
type ReservationReader interface {
	CountOverlapping(ctx context.Context, productID uint64, start, end time.Time) (int, error)
	ListBySessionForUser(ctx context.Context, sessionID string, userID uint64) ([]repository.ReservationDetail, error)
}

// CartClearer empties a user's cart.  The confirmation endpoint clears
// unconditionally on entry: by the time the user lands back here the
// payment is already committed.
type CartClearer interface {
	Clear(ctx context.Context, userID uint64) error
}

// CheckoutHandler drives the checkout flow: it revalidates cart lines
// against authoritative product prices, creates the hosted checkout
// session, and reconciles reservation rows after the payment redirect.
type CheckoutHandler struct {
	Cfg          config.Config
	Products     ProductReader
	Reservations ReservationReader
	Carts        CartClearer
	Gateway      payment.Gateway
}

// NewCheckoutHandler constructs a CheckoutHandler and panics on nil
// dependencies.
func NewCheckoutHandler(cfg config.Config, products ProductReader, reservations ReservationReader, carts CartClearer, gw payment.Gateway) *CheckoutHandler {
	if products == nil || reservations == nil || carts == nil || gw == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Cfg: cfg, Products: products, Reservations: reservations, Carts: carts, Gateway: gw}
}

// checkoutLine is one cart line as submitted for checkout.  Any price
// field a client might append to this JSON is simply not bound: the
// unit amount always comes from a fresh read of the productos table.
type checkoutLine struct {
	ProductID  uint64 `json:"product_id"`
	RentalDays int    `json:"rental_days"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD
	EndDate    string `json:"end_date"`   // YYYY-MM-DD
}

type checkoutReq struct {
	CartItems     []checkoutLine `json:"cart_items"`
	CustomerEmail string         `json:"customer_email"`
}

// metadataLine is the shape serialized into session metadata for the
// webhook.  Dates travel with the line so the webhook can set the
// reservation's fecha_inicio/fecha_fin.
type metadataLine struct {
	ProductID  uint64 `json:"product_id"`
	RentalDays int    `json:"rental_days"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// Create handles POST /v1/checkout.  Every line is validated and priced
// from the product table before any call leaves the process; a single
// bad line fails the whole request and no session is created.
func (h *CheckoutHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		// Also covers non-integer rental_days: JSON numbers with a
		// fractional part do not bind into an int field.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(req.CartItems) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart_items is required"})
	}
	if len(req.CustomerEmail) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer_email"})
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer_email"})
	}

	ctx := c.Request().Context()
	lineItems := make([]payment.LineItem, 0, len(req.CartItems))
	metaLines := make([]metadataLine, 0, len(req.CartItems))
	for _, line := range req.CartItems {
		if line.RentalDays < minRentalDays || line.RentalDays > maxRentalDays {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("rental_days must be between %d and %d", minRentalDays, maxRentalDays)})
		}
		start, err := time.Parse("2006-01-02", line.StartDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
		}
		end, err := time.Parse("2006-01-02", line.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		if model.RentalDays(start, end) != line.RentalDays {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rental_days does not match date range"})
		}
		p, err := h.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("product %d not found", line.ProductID)})
			}
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product lookup failed"})
		}
		if !p.Disponible {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("product %d is not available", line.ProductID)})
		}
		overlapping, err := h.Reservations.CountOverlapping(ctx, line.ProductID, start, end)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "availability check failed"})
		}
		if overlapping > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("product %d is already booked for those dates", line.ProductID)})
		}
		lineItems = append(lineItems, payment.LineItem{
			Name:       p.Nombre,
			UnitAmount: int64(math.Round(p.PrecioDiario * 100)),
			Quantity:   int64(line.RentalDays),
		})
		metaLines = append(metaLines, metadataLine{
			ProductID: line.ProductID, RentalDays: line.RentalDays,
			StartDate: line.StartDate, EndDate: line.EndDate,
		})
	}

	metaJSON, err := json.Marshal(metaLines)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "metadata encoding failed"})
	}
	sess, err := h.Gateway.CreateCheckoutSession(ctx, payment.SessionRequest{
		CustomerEmail: req.CustomerEmail,
		Currency:      h.Cfg.CheckoutCurrency,
		SuccessURL:    h.Cfg.CheckoutSuccessURL,
		CancelURL:     h.Cfg.CheckoutCancelURL,
		LineItems:     lineItems,
		Metadata: map[string]string{
			"user_id":    fmt.Sprintf("%d", userID),
			"cart_items": string(metaJSON),
		},
	})
	if err != nil {
		// Pass the client library's message through; it carries no internal
		// detail beyond what the gateway itself reports.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"url": sess.URL, "session_id": sess.ID})
}

// Confirm handles GET /v1/checkout/confirm?session_id=...  It is the
// reconciliation poller: the webhook that writes reservation rows runs
// asynchronously, so after the payment redirect the rows may not be
// visible yet.  The handler clears the cart, then reads the reservation
// table a bounded number of times with fixed delays.  Exhausting the
// retries is a distinct terminal state ("pending") that still frames
// the payment as successful.
func (h *CheckoutHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}

	ctx := c.Request().Context()
	// The payment is already committed from the user's perspective, so the
	// cart is cleared before the first read, even if reconciliation later
	// times out.
	if err := h.Carts.Clear(ctx, userID); err != nil {
		c.Logger().Warnf("confirm: cart clear failed for user %d: %v", userID, err)
	}

	attempts := h.Cfg.ConfirmMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		wait := h.Cfg.ConfirmRetryWait
		if attempt == 1 {
			wait = h.Cfg.ConfirmInitialWait
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			// Client gone; there is nobody to answer and an abandoned
			// poll is not a server error.
			return nil
		}
		rows, err := h.Reservations.ListBySessionForUser(ctx, sessionID, userID)
		if err != nil {
			c.Logger().Warnf("confirm: reservation read failed (attempt %d): %v", attempt, err)
			continue
		}
		if len(rows) > 0 {
			return c.JSON(http.StatusOK, echo.Map{
				"status":       "confirmed",
				"reservations": rows,
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "pending",
		"message": "payment received; reservations may take a little longer to appear",
	})
}
