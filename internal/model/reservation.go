package model

import "time"

// Reservation states as stored in the reservas.estado column.  A
// reservation starts as pendiente when the webhook records a paid
// checkout session, is confirmada once staff validates it, activa
// while the equipment is out, and ends completada or cancelada.
const (
	EstadoPendiente  = "pendiente"
	EstadoConfirmada = "confirmada"
	EstadoActiva     = "activa"
	EstadoCompletada = "completada"
	EstadoCancelada  = "cancelada"
)

// Reservation records a rental booking tying one product to one
// user for an inclusive date range.  Reservations are created by
// the payment webhook (authoritative path) with the total price
// recomputed server-side, and are never deleted except by explicit
// admin action.
//
// Fields:
//  ID              – primary key identifier.
//  UsuarioID       – user who booked the rental.
//  ProductoID      – product being rented.
//  FechaInicio     – first rental day (inclusive).
//  FechaFin        – last rental day (inclusive).
//  PrecioTotal     – server-computed precio_diario·days + deposito.
//  Estado          – current state (see Estado* constants).
//  StripeSessionID – checkout session that paid for this reservation.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64    // reservas.id
	UsuarioID       uint64    // reservas.usuario_id
	ProductoID      uint64    // reservas.producto_id
	FechaInicio     time.Time // reservas.fecha_inicio
	FechaFin        time.Time // reservas.fecha_fin
	PrecioTotal     float64   // reservas.precio_total
	Estado          string    // reservas.estado
	StripeSessionID *string   // reservas.stripe_session_id (nullable)
	CreatedAt       time.Time // reservas.created_at
	UpdatedAt       time.Time // reservas.updated_at
}

// estadoTransitions enumerates the allowed state changes.  Terminal
// states (completada, cancelada) have no successors.
var estadoTransitions = map[string][]string{
	EstadoPendiente:  {EstadoConfirmada, EstadoCancelada},
	EstadoConfirmada: {EstadoActiva, EstadoCancelada},
	EstadoActiva:     {EstadoCompletada},
}

// ValidEstado reports whether s is one of the known reservation states.
func ValidEstado(s string) bool {
	switch s {
	case EstadoPendiente, EstadoConfirmada, EstadoActiva, EstadoCompletada, EstadoCancelada:
		return true
	}
	return false
}

// CanTransition reports whether a reservation in state `from` may
// move to state `to`.
func CanTransition(from, to string) bool {
	for _, next := range estadoTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PrecioTotal computes the authoritative total for a rental:
// the daily price times the number of rental days plus the deposit.
func PrecioTotal(precioDiario float64, rentalDays int, deposito float64) float64 {
	return precioDiario*float64(rentalDays) + deposito
}
