// Package service holds business operations that span multiple
// repositories.  This file implements the webhook's write path: turning
// a paid checkout session into reservation rows.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/repository"
)

// BookingLine is one cart line recovered from checkout session
// metadata.  Prices are deliberately absent: the booking service
// re-reads them from the productos table at write time.
type BookingLine struct {
	ProductID  uint64    `json:"product_id"`
	RentalDays int       `json:"rental_days"`
	StartDate  time.Time `json:"-"`
	EndDate    time.Time `json:"-"`
}

// BookingService creates reservations for completed checkout sessions.
// All rows for a session are written in one transaction: either every
// cart line books or none does, and the gateway's redelivery (driven by
// our non-2xx response) retries the whole batch.
type BookingService struct {
	Products     *repository.ProductRepo
	Reservations *repository.ReservationRepo
}

// NewBookingService constructs a BookingService.
func NewBookingService(products *repository.ProductRepo, reservations *repository.ReservationRepo) *BookingService {
	if products == nil || reservations == nil {
		panic("nil repository passed to NewBookingService")
	}
	return &BookingService{Products: products, Reservations: reservations}
}

// CreateForSession inserts one reservation row per line with estado
// 'pendiente' and the session id attached.  precio_total is computed
// server-side as precio_diario·rental_days + deposito from a fresh
// product read inside the same transaction.
//
// The operation is idempotent on the session id: when rows for the
// session already exist (a redelivered webhook event), nothing is
// written and alreadyProcessed is true.  The check is a locking read,
// so concurrent deliveries serialize on the session's index range; a
// racer that slips past it hits the (stripe_session_id, producto_id)
// unique key and is reported as already processed too.
func (s *BookingService) CreateForSession(ctx context.Context, userID uint64, sessionID string, lines []BookingLine) (created []model.Reservation, alreadyProcessed bool, err error) {
	tx, err := s.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	n, err := s.Reservations.CountBySessionTx(ctx, tx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency check: %w", err)
	}
	if n > 0 {
		return nil, true, nil
	}

	for _, line := range lines {
		p, err := s.Products.GetByIDTx(ctx, tx, line.ProductID)
		if err != nil {
			return nil, false, fmt.Errorf("product %d: %w", line.ProductID, err)
		}
		sid := sessionID
		res := model.Reservation{
			UsuarioID:       userID,
			ProductoID:      line.ProductID,
			FechaInicio:     line.StartDate,
			FechaFin:        line.EndDate,
			PrecioTotal:     model.PrecioTotal(p.PrecioDiario, line.RentalDays, p.Deposito),
			Estado:          model.EstadoPendiente,
			StripeSessionID: &sid,
		}
		if err := s.Reservations.CreateTx(ctx, tx, &res); err != nil {
			if errors.Is(err, repository.ErrDuplicateSession) {
				// A concurrent delivery of the same event won the race past
				// the locking read; its rows are the booking.
				return nil, true, nil
			}
			return nil, false, fmt.Errorf("insert reservation for product %d: %w", line.ProductID, err)
		}
		created = append(created, res)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return created, false, nil
}
