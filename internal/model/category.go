package model

import "time"

// Category groups rental products for browsing and filtering.
// Each product belongs to exactly one category.  This struct
// corresponds to a row in the `categorias` table.
//
// Fields:
//  ID          – primary key identifier.
//  Nombre      – display name of the category (Spanish-facing).
//  Slug        – URL-safe unique identifier used in catalog filters.
//  Descripcion – optional description shown on category pages.
//  CreatedAt   – timestamp when the category was created.
//  UpdatedAt   – timestamp of last update.
type Category struct {
	ID          uint64    // categorias.id
	Nombre      string    // categorias.nombre
	Slug        string    // categorias.slug
	Descripcion *string   // categorias.descripcion (nullable)
	CreatedAt   time.Time // categorias.created_at
	UpdatedAt   time.Time // categorias.updated_at
}
