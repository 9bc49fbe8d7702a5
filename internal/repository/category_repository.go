package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/maquirent/rental-api/internal/model"
)

// ErrCategoryNotFound indicates that a category was not located in the DB.
var ErrCategoryNotFound = errors.New("category not found")

// ErrSlugExists signals a unique-constraint violation on categorias.slug.
var ErrSlugExists = errors.New("slug already exists")

// CategoryRepo manages persistence for product categories.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the given DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, nombre, slug, descripcion, created_at, updated_at`

func scanCategory(scan func(dest ...interface{}) error) (*model.Category, error) {
	var c model.Category
	var descripcion sql.NullString
	if err := scan(&c.ID, &c.Nombre, &c.Slug, &descripcion, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if descripcion.Valid {
		d := descripcion.String
		c.Descripcion = &d
	}
	return &c, nil
}

// ListAll returns every category ordered by name.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryCols+` FROM categorias ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID retrieves a category by ID, returning ErrCategoryNotFound when
// no row matches.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
	c, err := scanCategory(func(dest ...interface{}) error {
		return r.db.QueryRowContext(ctx, `SELECT `+categoryCols+` FROM categorias WHERE id = ?`, id).Scan(dest...)
	})
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

// GetBySlug retrieves a category by its URL slug.
func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	c, err := scanCategory(func(dest ...interface{}) error {
		return r.db.QueryRowContext(ctx, `SELECT `+categoryCols+` FROM categorias WHERE slug = ?`, slug).Scan(dest...)
	})
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

// Create inserts a new category.  MySQL duplicate-key errors on the slug
// column are mapped to ErrSlugExists.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categorias (nombre, slug, descripcion) VALUES (?, ?, ?)`,
		c.Nombre, c.Slug, c.Descripcion)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	stored, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// Update rewrites a category's fields.  It returns ErrCategoryNotFound
// when the ID does not exist and ErrSlugExists on slug collisions.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categorias SET nombre = ?, slug = ?, descripcion = ? WHERE id = ?`,
		c.Nombre, c.Slug, c.Descripcion, c.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categorias WHERE id = ?`, c.ID).Scan(&exists); err == sql.ErrNoRows {
			return ErrCategoryNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a category.  Categories with products attached cannot
// be removed; ErrConflict is returned instead so the admin moves or
// deletes the products first.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM productos WHERE categoria_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categorias WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
