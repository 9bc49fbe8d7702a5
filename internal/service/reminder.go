package service

import (
	"context"
	"log"
	"time"

	"github.com/maquirent/rental-api/internal/queue"
	"github.com/maquirent/rental-api/internal/repository"
)

// ReminderScanner periodically looks for reservations whose rental
// period starts the next day and publishes a reminder event for each.
// Cancelled and completed rows are filtered out by the repository
// query.
type ReminderScanner struct {
	Reservations *repository.ReservationRepo
	// Publish defaults to PublishReservationReminder; injectable for tests.
	Publish func(ctx context.Context, ev queue.ReservationReminderEvent) error
	// Interval between scans.  Daily in production; shorter in tests.
	Interval time.Duration
}

// NewReminderScanner constructs a scanner with the default publisher
// and a 24h interval.
func NewReminderScanner(reservations *repository.ReservationRepo) *ReminderScanner {
	if reservations == nil {
		panic("nil repository passed to NewReminderScanner")
	}
	return &ReminderScanner{
		Reservations: reservations,
		Publish:      PublishReservationReminder,
		Interval:     24 * time.Hour,
	}
}

// Run scans once immediately, then on every tick until ctx is
// cancelled.  Intended to be launched as a goroutine from main.
func (s *ReminderScanner) Run(ctx context.Context) {
	s.scan(ctx)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *ReminderScanner) scan(ctx context.Context) {
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	rows, err := s.Reservations.ListStartingOn(ctx, tomorrow)
	if err != nil {
		log.Printf("reminder-scanner: list failed: %v", err)
		return
	}
	for _, r := range rows {
		ev := queue.ReservationReminderEvent{
			ReservationID: r.ID,
			UserID:        r.UsuarioID,
			ProductID:     r.ProductoID,
			ProductName:   r.ProductoNombre,
			FechaInicio:   r.FechaInicio,
			FechaFin:      r.FechaFin,
		}
		if err := s.Publish(ctx, ev); err != nil {
			log.Printf("reminder-scanner: publish reservation %d failed: %v", r.ID, err)
		}
	}
}
