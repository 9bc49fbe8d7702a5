package model

import "time"

// Product represents a rentable piece of equipment in the catalog.
// Pricing fields are authoritative: every price-bearing operation
// (checkout session creation, webhook reservation insert) re-reads
// them from the `productos` table rather than trusting any value
// supplied by a client or carried in session metadata.
//
// Fields:
//  ID           – primary key identifier.
//  CategoriaID  – category the product belongs to.
//  Nombre       – display name.
//  Descripcion  – optional long description.
//  PrecioDiario – rental price per day in euros.
//  Deposito     – refundable deposit in euros, charged once per rental.
//  Imagenes     – image URLs, stored as a JSON array.
//  Disponible   – whether the product can currently be rented.
//  CreatedAt    – timestamp when the product was created.
//  UpdatedAt    – timestamp of last update.
type Product struct {
	ID           uint64    // productos.id
	CategoriaID  uint64    // productos.categoria_id
	Nombre       string    // productos.nombre
	Descripcion  *string   // productos.descripcion (nullable)
	PrecioDiario float64   // productos.precio_diario
	Deposito     float64   // productos.deposito
	Imagenes     []string  // productos.imagenes (JSON array)
	Disponible   bool      // productos.disponible
	CreatedAt    time.Time // productos.created_at
	UpdatedAt    time.Time // productos.updated_at
}
