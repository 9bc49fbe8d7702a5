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

// AdminCategoryHandler exposes back-office CRUD for catalog categories.
type AdminCategoryHandler struct {
	Categories *repository.CategoryRepo
}

// NewAdminCategoryHandler constructs an AdminCategoryHandler.
func NewAdminCategoryHandler(categories *repository.CategoryRepo) *AdminCategoryHandler {
	if categories == nil {
		panic("nil repository passed to NewAdminCategoryHandler")
	}
	return &AdminCategoryHandler{Categories: categories}
}

type adminCategoryReq struct {
	Nombre      string  `json:"nombre"`
	Slug        string  `json:"slug"`
	Descripcion *string `json:"descripcion"`
}

func (req *adminCategoryReq) validate() string {
	req.Nombre = strings.TrimSpace(req.Nombre)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	switch {
	case req.Nombre == "":
		return "nombre is required"
	case req.Slug == "":
		return "slug is required"
	case strings.ContainsAny(req.Slug, " /?#"):
		return "slug must be URL-safe"
	}
	return ""
}

// List handles GET /v1/admin/categories.
func (h *AdminCategoryHandler) List(c echo.Context) error {
	items, err := h.Categories.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/admin/categories.
func (h *AdminCategoryHandler) Create(c echo.Context) error {
	var req adminCategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	cat := &model.Category{Nombre: req.Nombre, Slug: req.Slug, Descripcion: req.Descripcion}
	if err := h.Categories.Create(c.Request().Context(), cat); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	return c.JSON(http.StatusCreated, cat)
}

// Update handles PUT /v1/admin/categories/:id.
func (h *AdminCategoryHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminCategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	cat := &model.Category{ID: id, Nombre: req.Nombre, Slug: req.Slug, Descripcion: req.Descripcion}
	if err := h.Categories.Update(c.Request().Context(), cat); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case errors.Is(err, repository.ErrSlugExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already in use"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /v1/admin/categories/:id.  A category with
// products attached cannot be removed; products must be reassigned or
// deleted first.
func (h *AdminCategoryHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Categories.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "category still has products"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
