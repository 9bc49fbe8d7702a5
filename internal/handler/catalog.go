// Package handler exposes HTTP handlers for both authenticated and public
// endpoints. This file defines handlers for the public catalog API. These
// routes let unauthenticated visitors browse categories and products
// without an account. Internal fields (timestamps, category foreign keys)
// are filtered from responses; rows are mapped to display shapes.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/repository"
)

// CatalogHandler aggregates repositories needed for unauthenticated
// browsing.  It produces sanitized responses suitable for public
// consumption.
type CatalogHandler struct {
	Products   *repository.ProductRepo  // provides access to product data
	Categories *repository.CategoryRepo // provides access to category data
}

// PublicCategory is a category exposed via the public API.
type PublicCategory struct {
	ID          uint64  `json:"id"`
	Nombre      string  `json:"nombre"`
	Slug        string  `json:"slug"`
	Descripcion *string `json:"descripcion,omitempty"`
}

// PublicProduct is the display shape for a catalog product.  Prices are
// informative; checkout re-reads them server-side.
type PublicProduct struct {
	ID           uint64   `json:"id"`
	Nombre       string   `json:"nombre"`
	Descripcion  *string  `json:"descripcion,omitempty"`
	PrecioDiario float64  `json:"precio_diario"`
	Deposito     float64  `json:"deposito"`
	Imagenes     []string `json:"imagenes"`
	Disponible   bool     `json:"disponible"`
}

// ListCategories handles GET /v1/categories.  Response JSON contains an
// "items" array of PublicCategory.
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	cats, err := h.Categories.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicCategory, 0, len(cats))
	for _, cat := range cats {
		out = append(out, PublicCategory{ID: cat.ID, Nombre: cat.Nombre, Slug: cat.Slug, Descripcion: cat.Descripcion})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListProducts handles GET /v1/products.  Supported query parameters:
// ?category=<slug> filters by category, ?available=true keeps only
// rentable products, ?q= matches against the product name.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	filter := repository.ProductFilter{
		CategorySlug: c.QueryParam("category"),
		Query:        c.QueryParam("q"),
	}
	if v := c.QueryParam("available"); v == "true" || v == "1" {
		filter.OnlyAvailable = true
	}
	// Reject unknown category slugs with 404 instead of an empty list so
	// clients can distinguish a bad link from an empty category.
	if filter.CategorySlug != "" {
		if _, err := h.Categories.GetBySlug(c.Request().Context(), filter.CategorySlug); err != nil {
			if err == repository.ErrCategoryNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	products, err := h.Products.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicProduct, 0, len(products))
	for _, p := range products {
		out = append(out, PublicProduct{
			ID: p.ID, Nombre: p.Nombre, Descripcion: p.Descripcion,
			PrecioDiario: p.PrecioDiario, Deposito: p.Deposito,
			Imagenes: p.Imagenes, Disponible: p.Disponible,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetProduct handles GET /v1/products/:id and returns one product's
// public detail.
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, PublicProduct{
		ID: p.ID, Nombre: p.Nombre, Descripcion: p.Descripcion,
		PrecioDiario: p.PrecioDiario, Deposito: p.Deposito,
		Imagenes: p.Imagenes, Disponible: p.Disponible,
	})
}
