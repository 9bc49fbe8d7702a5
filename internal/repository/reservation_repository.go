package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/maquirent/rental-api/internal/model"
)

// ErrReservationNotFound indicates that a reservation was not located
// in the DB.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrDuplicateSession indicates the unique key on
// (stripe_session_id, producto_id) rejected an insert: another
// transaction already booked this session.
var ErrDuplicateSession = errors.New("session already has reservations")

// ReservationRepo provides persistence for rental reservations.  The
// webhook creates rows transactionally so a checkout session either
// books every cart line or none; all timestamp fields are stored in
// UTC and dates use DATE columns with inclusive endpoints.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning the product and reservation repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const dateLayout = "2006-01-02"

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  It populates the generated ID and DB-default fields on
// the provided record.  The caller must commit or rollback the
// transaction.  Estado should be a valid enumeration value.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservas (usuario_id, producto_id, fecha_inicio, fecha_fin, precio_total, estado, stripe_session_id) VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.UsuarioID, res.ProductoID,
		res.FechaInicio.UTC().Format(dateLayout), res.FechaFin.UTC().Format(dateLayout),
		res.PrecioTotal, res.Estado, res.StripeSessionID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateSession
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT id, usuario_id, producto_id, fecha_inicio, fecha_fin, precio_total, estado, stripe_session_id, created_at, updated_at FROM reservas WHERE id = ?`
	return scanReservation(res, tx.QueryRowContext(ctx, sel, res.ID))
}

// scanReservation populates a model.Reservation from a single-row query.
func scanReservation(res *model.Reservation, row *sql.Row) error {
	var sessionID sql.NullString
	if err := row.Scan(
		&res.ID, &res.UsuarioID, &res.ProductoID, &res.FechaInicio, &res.FechaFin,
		&res.PrecioTotal, &res.Estado, &sessionID, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return err
	}
	if sessionID.Valid {
		sid := sessionID.String
		res.StripeSessionID = &sid
	} else {
		res.StripeSessionID = nil
	}
	return nil
}

// CountBySessionTx returns the number of reservation rows created for a
// checkout session, inside the caller's transaction.  The webhook uses
// it as the idempotency guard: a redelivered event whose session already
// has rows writes nothing.  FOR UPDATE makes this a locking read: with
// a plain snapshot read, two concurrent deliveries of the same event
// would each count zero and both insert.  The unique key on
// (stripe_session_id, producto_id) backs this up at commit time.
func (r *ReservationRepo) CountBySessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservas WHERE stripe_session_id = ? FOR UPDATE`, sessionID).Scan(&n)
	return n, err
}

// CountOverlapping returns how many non-terminal reservations for the
// product overlap the inclusive [start, end] range.  Two ranges overlap
// when each starts no later than the other ends.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, productID uint64, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM reservas
	           WHERE producto_id = ?
	             AND estado IN ('pendiente','confirmada','activa')
	             AND fecha_inicio <= ? AND fecha_fin >= ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, productID,
		end.UTC().Format(dateLayout), start.UTC().Format(dateLayout)).Scan(&n)
	return n, err
}

// ReservationDetail is a reservation joined with product and category
// names for display to customers and admins.
type ReservationDetail struct {
	ID              uint64    `json:"id"`
	UsuarioID       uint64    `json:"usuario_id"`
	ProductoID      uint64    `json:"producto_id"`
	ProductoNombre  string    `json:"producto_nombre"`
	Categoria       string    `json:"categoria"`
	FechaInicio     string    `json:"fecha_inicio"`
	FechaFin        string    `json:"fecha_fin"`
	PrecioTotal     float64   `json:"precio_total"`
	Estado          string    `json:"estado"`
	StripeSessionID *string   `json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

const detailQ = `SELECT r.id, r.usuario_id, r.producto_id, p.nombre, c.nombre,
                        r.fecha_inicio, r.fecha_fin, r.precio_total, r.estado,
                        r.stripe_session_id, r.created_at
                 FROM reservas r
                 JOIN productos p ON p.id = r.producto_id
                 JOIN categorias c ON c.id = p.categoria_id`

func scanDetail(rows *sql.Rows) (*ReservationDetail, error) {
	var d ReservationDetail
	var inicio, fin time.Time
	var sessionID sql.NullString
	if err := rows.Scan(
		&d.ID, &d.UsuarioID, &d.ProductoID, &d.ProductoNombre, &d.Categoria,
		&inicio, &fin, &d.PrecioTotal, &d.Estado, &sessionID, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.FechaInicio = inicio.UTC().Format(dateLayout)
	d.FechaFin = fin.UTC().Format(dateLayout)
	if sessionID.Valid {
		sid := sessionID.String
		d.StripeSessionID = &sid
	}
	return &d, nil
}

func (r *ReservationRepo) queryDetails(ctx context.Context, q string, args ...interface{}) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBySessionForUser returns the caller's reservations created for a
// checkout session.  The reconciliation poller reads this after the
// payment redirect to confirm that the webhook's rows have landed.
func (r *ReservationRepo) ListBySessionForUser(ctx context.Context, sessionID string, userID uint64) ([]ReservationDetail, error) {
	return r.queryDetails(ctx, detailQ+` WHERE r.stripe_session_id = ? AND r.usuario_id = ? ORDER BY r.id`, sessionID, userID)
}

// ListByUser returns all reservations for the given user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	return r.queryDetails(ctx, detailQ+` WHERE r.usuario_id = ? ORDER BY r.created_at DESC`, userID)
}

// ListAll returns reservations for the admin panel, optionally filtered
// by estado, newest first.
func (r *ReservationRepo) ListAll(ctx context.Context, estado string) ([]ReservationDetail, error) {
	if estado != "" {
		return r.queryDetails(ctx, detailQ+` WHERE r.estado = ? ORDER BY r.created_at DESC`, estado)
	}
	return r.queryDetails(ctx, detailQ+` ORDER BY r.created_at DESC`)
}

// ListStartingOn returns reservations in a bookable state whose rental
// begins on the given date.  The reminder scanner uses it to notify
// customers the day before pickup.
func (r *ReservationRepo) ListStartingOn(ctx context.Context, date time.Time) ([]ReservationDetail, error) {
	return r.queryDetails(ctx,
		detailQ+` WHERE r.fecha_inicio = ? AND r.estado IN ('pendiente','confirmada') ORDER BY r.id`,
		date.UTC().Format(dateLayout))
}

// GetByID fetches one reservation without an ownership check.  Admin
// handlers use it; customer handlers go through GetByIDForUser.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, usuario_id, producto_id, fecha_inicio, fecha_fin, precio_total, estado, stripe_session_id, created_at, updated_at FROM reservas WHERE id = ?`
	var res model.Reservation
	err := scanReservation(&res, r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByIDForUser fetches one reservation and enforces ownership.  It
// returns ErrReservationNotFound for unknown IDs and ErrForbidden when
// the reservation belongs to a different user.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	res, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UsuarioID != userID {
		return nil, ErrForbidden
	}
	return res, nil
}

// UpdateEstado sets a reservation's state.  Transition validation is the
// caller's responsibility (handlers consult model.CanTransition); the
// repository only guarantees the value is one of the known states.
func (r *ReservationRepo) UpdateEstado(ctx context.Context, id uint64, estado string) error {
	if !model.ValidEstado(estado) {
		return errors.New("unknown estado: " + estado)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE reservas SET estado = ? WHERE id = ?`, estado, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM reservas WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
			return ErrReservationNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a reservation row.  This is the only deletion path and
// is reserved for explicit admin action.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
