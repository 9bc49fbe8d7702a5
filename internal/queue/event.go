// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCreatedEvent is published after a paid checkout session has
// been turned into reservation rows.  One event per reservation, so a
// multi-product rental fans out into several messages.  It carries enough
// information for downstream consumers to log or send a confirmation
// email without querying the primary database.
type ReservationCreatedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	UserID        uint64  `json:"user_id"`
	ProductID     uint64  `json:"product_id"`
	FechaInicio   string  `json:"fecha_inicio"` // YYYY-MM-DD
	FechaFin      string  `json:"fecha_fin"`    // YYYY-MM-DD
	PrecioTotal   float64 `json:"precio_total"`
	Estado        string  `json:"estado"`
	SessionID     string  `json:"session_id"`
	CreatedAt     string  `json:"created_at"` // RFC 3339
}

// ReservationReminderEvent is published by the daily scanner for
// reservations whose rental period starts the next day.
type ReservationReminderEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	ProductID     uint64 `json:"product_id"`
	ProductName   string `json:"product_name"`
	FechaInicio   string `json:"fecha_inicio"` // YYYY-MM-DD
	FechaFin      string `json:"fecha_fin"`    // YYYY-MM-DD
}
