package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/repository"
)

// AdminReservationHandler is the back-office view over all
// reservations.  Unlike the customer surface it can see every user's
// rows, move a reservation through its lifecycle, and hard-delete
// records.
type AdminReservationHandler struct {
	Reservations *repository.ReservationRepo
}

// NewAdminReservationHandler constructs an AdminReservationHandler.
func NewAdminReservationHandler(reservations *repository.ReservationRepo) *AdminReservationHandler {
	if reservations == nil {
		panic("nil repository passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Reservations: reservations}
}

// List handles GET /v1/admin/reservations with an optional ?estado=
// filter.
func (h *AdminReservationHandler) List(c echo.Context) error {
	estado := c.QueryParam("estado")
	if estado != "" && !model.ValidEstado(estado) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid estado filter"})
	}
	items, err := h.Reservations.ListAll(c.Request().Context(), estado)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type estadoReq struct {
	Estado string `json:"estado"`
}

// UpdateEstado handles PATCH /v1/admin/reservations/:id/status.  Only
// transitions allowed by the reservation lifecycle succeed; anything
// else is a conflict, so a double click on "complete" cannot corrupt
// state.
func (h *AdminReservationHandler) UpdateEstado(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req estadoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidEstado(req.Estado) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown estado"})
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.CanTransition(res.Estado, req.Estado) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "invalid transition from " + res.Estado + " to " + req.Estado,
		})
	}
	if err := h.Reservations.UpdateEstado(ctx, id, req.Estado); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	res.Estado = req.Estado
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /v1/admin/reservations/:id.  Hard delete,
// intended for cleaning up test or abandoned rows; the customer-facing
// cancel flow keeps the row and flips estado instead.
func (h *AdminReservationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Reservations.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
