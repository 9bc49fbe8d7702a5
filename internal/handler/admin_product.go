package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/repository"
)

// AdminProductHandler exposes the back-office CRUD surface for the
// product catalog.  Routes are mounted behind JWT + ADMIN role
// middleware.
type AdminProductHandler struct {
	Products   *repository.ProductRepo
	Categories *repository.CategoryRepo
}

// NewAdminProductHandler constructs an AdminProductHandler.
func NewAdminProductHandler(products *repository.ProductRepo, categories *repository.CategoryRepo) *AdminProductHandler {
	if products == nil || categories == nil {
		panic("nil repository passed to NewAdminProductHandler")
	}
	return &AdminProductHandler{Products: products, Categories: categories}
}

// adminProductReq is the create/update request body.  Unlike the public
// catalog shape, admin responses include non-display fields such as
// disponible and timestamps, so the model is returned directly.
type adminProductReq struct {
	CategoriaID  uint64   `json:"categoria_id"`
	Nombre       string   `json:"nombre"`
	Descripcion  *string  `json:"descripcion"`
	PrecioDiario float64  `json:"precio_diario"`
	Deposito     float64  `json:"deposito"`
	Imagenes     []string `json:"imagenes"`
	Disponible   *bool    `json:"disponible"`
}

func (req *adminProductReq) validate() string {
	req.Nombre = strings.TrimSpace(req.Nombre)
	switch {
	case req.CategoriaID == 0:
		return "categoria_id is required"
	case req.Nombre == "":
		return "nombre is required"
	case req.PrecioDiario <= 0:
		return "precio_diario must be positive"
	case req.Deposito < 0:
		return "deposito must not be negative"
	}
	return ""
}

// List handles GET /v1/admin/products.  Admin listing ignores the
// disponible flag so hidden products remain editable.
func (h *AdminProductHandler) List(c echo.Context) error {
	items, err := h.Products.List(c.Request().Context(), repository.ProductFilter{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/admin/products/:id.
func (h *AdminProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, p)
}

// Create handles POST /v1/admin/products.
func (h *AdminProductHandler) Create(c echo.Context) error {
	var req adminProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.Categories.GetByID(ctx, req.CategoriaID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown categoria_id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	disponible := true
	if req.Disponible != nil {
		disponible = *req.Disponible
	}
	p := &model.Product{
		CategoriaID:  req.CategoriaID,
		Nombre:       req.Nombre,
		Descripcion:  req.Descripcion,
		PrecioDiario: req.PrecioDiario,
		Deposito:     req.Deposito,
		Imagenes:     req.Imagenes,
		Disponible:   disponible,
	}
	if err := h.Products.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /v1/admin/products/:id.  The body is a full
// replacement of the editable fields.
func (h *AdminProductHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.Categories.GetByID(ctx, req.CategoriaID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown categoria_id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	disponible := true
	if req.Disponible != nil {
		disponible = *req.Disponible
	}
	p := &model.Product{
		ID:           id,
		CategoriaID:  req.CategoriaID,
		Nombre:       req.Nombre,
		Descripcion:  req.Descripcion,
		PrecioDiario: req.PrecioDiario,
		Deposito:     req.Deposito,
		Imagenes:     req.Imagenes,
		Disponible:   disponible,
	}
	if err := h.Products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// adminProductPatch carries optional fields for a partial update; nil
// means "leave unchanged".
type adminProductPatch struct {
	CategoriaID  *uint64   `json:"categoria_id"`
	Nombre       *string   `json:"nombre"`
	Descripcion  *string   `json:"descripcion"`
	PrecioDiario *float64  `json:"precio_diario"`
	Deposito     *float64  `json:"deposito"`
	Imagenes     *[]string `json:"imagenes"`
	Disponible   *bool     `json:"disponible"`
}

// Patch handles PATCH /v1/admin/products/:id.  Only the supplied fields
// change; the common case is flipping disponible without resending the
// whole product.
func (h *AdminProductHandler) Patch(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminProductPatch
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if req.CategoriaID != nil {
		if _, err := h.Categories.GetByID(ctx, *req.CategoriaID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown categoria_id"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		p.CategoriaID = *req.CategoriaID
	}
	if req.Nombre != nil {
		if strings.TrimSpace(*req.Nombre) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "nombre is required"})
		}
		p.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.PrecioDiario != nil {
		if *req.PrecioDiario <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "precio_diario must be positive"})
		}
		p.PrecioDiario = *req.PrecioDiario
	}
	if req.Deposito != nil {
		if *req.Deposito < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "deposito must not be negative"})
		}
		p.Deposito = *req.Deposito
	}
	if req.Imagenes != nil {
		p.Imagenes = *req.Imagenes
	}
	if req.Disponible != nil {
		p.Disponible = *req.Disponible
	}
	if err := h.Products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/admin/products/:id.  Products referenced by
// reservations that are not yet completed or cancelled cannot be
// removed.
func (h *AdminProductHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Products.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "product has active reservations"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
