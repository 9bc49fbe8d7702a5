package handler

import (
	"errors"   // for errors.Is comparisons
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/repository"
)

// ReservationHandler serves a customer's own reservations.  All methods
// assume JWT authentication and role validation have already been
// performed by middleware; ownership is enforced again at the
// repository level.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *repository.ReservationRepo) *ReservationHandler {
	if reservations == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

// ListMine handles GET /v1/my-reservations, newest first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/reservations/:id for the owning customer.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Reservations.GetByIDForUser(c.Request().Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel handles DELETE /v1/reservations/:id.  Customers may cancel
// their own reservation while it is still pendiente or confirmada; the
// row is kept with estado cancelada rather than deleted.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.GetByIDForUser(ctx, id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if !model.CanTransition(res.Estado, model.EstadoCancelada) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation can no longer be cancelled"})
	}
	if err := h.Reservations.UpdateEstado(ctx, id, model.EstadoCancelada); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
