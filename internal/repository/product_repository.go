// Package repository contains data access logic for catalog and booking
// operations.  This file defines repository methods for products.  A
// Product is a rentable piece of equipment; its precio_diario and
// deposito columns are the only authoritative source for prices, and
// every price-bearing flow reads them fresh instead of trusting values
// supplied by clients.
package repository

import (
	"context"       // context for controlling query lifetime
	"database/sql"  // sql provides DB abstraction
	"encoding/json" // imagenes column is a JSON array of URLs
	"errors"        // errors for sentinel definitions
	"strings"       // dynamic WHERE clause assembly

	"github.com/maquirent/rental-api/internal/model"
)

// ErrProductNotFound indicates that a product was not located in the DB.
var ErrProductNotFound = errors.New("product not found")

// ProductRepo manages persistence for products.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo with the given DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.  Use this method to
// obtain a *sql.DB when you need fine-grained transaction control.
func (r *ProductRepo) DB() *sql.DB {
	return r.db
}

// ProductFilter narrows catalog listings.  Zero values mean "no filter".
// CategorySlug restricts results to one category, OnlyAvailable keeps
// products with disponible = 1, and Query matches against the product
// name with a LIKE search.
type ProductFilter struct {
	CategorySlug  string
	OnlyAvailable bool
	Query         string
}

const productCols = `p.id, p.categoria_id, p.nombre, p.descripcion, p.precio_diario, p.deposito, p.imagenes, p.disponible, p.created_at, p.updated_at`

// scanProduct reads one product row.  The imagenes column stores a JSON
// array; NULL or malformed content degrades to an empty slice rather
// than failing the whole listing.
func scanProduct(scan func(dest ...interface{}) error) (*model.Product, error) {
	var p model.Product
	var descripcion sql.NullString
	var imagenes sql.NullString
	if err := scan(
		&p.ID, &p.CategoriaID, &p.Nombre, &descripcion, &p.PrecioDiario,
		&p.Deposito, &imagenes, &p.Disponible, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if descripcion.Valid {
		d := descripcion.String
		p.Descripcion = &d
	}
	p.Imagenes = []string{}
	if imagenes.Valid && imagenes.String != "" {
		var urls []string
		if err := json.Unmarshal([]byte(imagenes.String), &urls); err == nil {
			p.Imagenes = urls
		}
	}
	return &p, nil
}

// List returns catalog products matching the filter, newest first.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := `SELECT ` + productCols + ` FROM productos p`
	var conds []string
	var args []interface{}
	if f.CategorySlug != "" {
		q += ` JOIN categorias c ON c.id = p.categoria_id`
		conds = append(conds, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if f.OnlyAvailable {
		conds = append(conds, "p.disponible = 1")
	}
	if f.Query != "" {
		conds = append(conds, "p.nombre LIKE ?")
		args = append(args, "%"+f.Query+"%")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY p.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID retrieves a product by its ID.  It returns ErrProductNotFound
// if there is no matching row.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM productos p WHERE p.id = ?`
	p, err := scanProduct(func(dest ...interface{}) error {
		return r.db.QueryRowContext(ctx, q, id).Scan(dest...)
	})
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	return p, err
}

// GetByIDTx is like GetByID but runs inside the caller's transaction.
// The webhook uses it to read authoritative prices in the same
// transaction that inserts reservation rows.
func (r *ProductRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM productos p WHERE p.id = ?`
	p, err := scanProduct(func(dest ...interface{}) error {
		return tx.QueryRowContext(ctx, q, id).Scan(dest...)
	})
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Create inserts a new product and assigns the generated ID back to the
// struct.  Defaults (disponible, timestamps) are queried back so the
// caller sees the row as stored.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	imgs, err := json.Marshal(p.Imagenes)
	if err != nil {
		return err
	}
	const q = `INSERT INTO productos (categoria_id, nombre, descripcion, precio_diario, deposito, imagenes, disponible) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.CategoriaID, p.Nombre, p.Descripcion, p.PrecioDiario, p.Deposito, string(imgs), p.Disponible)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT ` + productCols + ` FROM productos p WHERE p.id = ?`
	stored, err := scanProduct(func(dest ...interface{}) error {
		return r.db.QueryRowContext(ctx, sel, p.ID).Scan(dest...)
	})
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Update rewrites the mutable columns of a product.  It returns
// ErrProductNotFound when the ID does not exist.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	imgs, err := json.Marshal(p.Imagenes)
	if err != nil {
		return err
	}
	const q = `UPDATE productos SET categoria_id = ?, nombre = ?, descripcion = ?, precio_diario = ?, deposito = ?, imagenes = ?, disponible = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.CategoriaID, p.Nombre, p.Descripcion, p.PrecioDiario, p.Deposito, string(imgs), p.Disponible, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is missing or the update was a no-op; check which.
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM productos WHERE id = ?`, p.ID).Scan(&exists); err == sql.ErrNoRows {
			return ErrProductNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a product.  It refuses with ErrConflict when the
// product still has reservations in a non-terminal state, so bookings
// never dangle.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	const countQ = `SELECT COUNT(*) FROM reservas WHERE producto_id = ? AND estado IN ('pendiente','confirmada','activa')`
	if err := r.db.QueryRowContext(ctx, countQ, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM productos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
