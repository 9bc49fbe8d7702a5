package handler

import (
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"time"     // date parsing for rental windows

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/repository"
)

// CartHandler serves the per-user shopping cart.  Carts live in Redis
// keyed by user id; every mutation rewrites the full entry list and
// recomputes the derived totals as a pure fold over current lines.
type CartHandler struct {
	Carts      *repository.CartRepo
	Products   *repository.ProductRepo
	Categories *repository.CategoryRepo
}

// NewCartHandler constructs a CartHandler and panics on nil dependencies.
func NewCartHandler(carts *repository.CartRepo, products *repository.ProductRepo, categories *repository.CategoryRepo) *CartHandler {
	if carts == nil || products == nil || categories == nil {
		panic("nil repository passed to NewCartHandler")
	}
	return &CartHandler{Carts: carts, Products: products, Categories: categories}
}

// cartResp is the cart plus its derived values.
type cartResp struct {
	Items      []model.CartItem `json:"items"`
	TotalPrice float64          `json:"total_price"`
	ItemCount  int              `json:"item_count"`
}

func toCartResp(cart *model.Cart) cartResp {
	return cartResp{Items: cart.Items, TotalPrice: cart.TotalPrice(), ItemCount: cart.ItemCount()}
}

// Get handles GET /v1/cart.
func (h *CartHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cart, err := h.Carts.Get(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart store error"})
	}
	return c.JSON(http.StatusOK, toCartResp(cart))
}

// AddItem handles POST /v1/cart/items.  The body carries a product id
// and an inclusive date range; the product snapshot and rental day
// count are built server-side.  Adding a product already in the cart
// replaces its line.
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ProductID uint64 `json:"product_id"`
		StartDate string `json:"start_date"` // YYYY-MM-DD
		EndDate   string `json:"end_date"`   // YYYY-MM-DD
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}
	start, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, err := time.Parse("2006-01-02", body.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
	}

	ctx := c.Request().Context()
	p, err := h.Products.GetByID(ctx, body.ProductID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !p.Disponible {
		return c.JSON(http.StatusConflict, echo.Map{"error": "product not available"})
	}
	categoria := ""
	if cat, err := h.Categories.GetByID(ctx, p.CategoriaID); err == nil {
		categoria = cat.Nombre
	}

	cart, err := h.Carts.Get(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart store error"})
	}
	cart.Upsert(model.CartItem{
		Product: model.ProductSnapshot{
			ID: p.ID, Nombre: p.Nombre, Categoria: categoria,
			PrecioDiario: p.PrecioDiario, Deposito: p.Deposito, Imagenes: p.Imagenes,
		},
		RentalDays: model.RentalDays(start, end),
		StartDate:  start,
		EndDate:    end,
	})
	if err := h.Carts.Save(ctx, userID, cart); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart store error"})
	}
	return c.JSON(http.StatusOK, toCartResp(cart))
}

// RemoveItem handles DELETE /v1/cart/items/:product_id.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx := c.Request().Context()
	cart, err := h.Carts.Get(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart store error"})
	}
	if !cart.Remove(productID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not in cart"})
	}
	if err := h.Carts.Save(ctx, userID, cart); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart store error"})
	}
	return c.JSON(http.StatusOK, toCartResp(cart))
}

// Clear handles DELETE /v1/cart.  Clearing removes the storage key
// entirely; an empty cart is never persisted as an empty list.
func (h *CartHandler) Clear(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Carts.Clear(c.Request().Context(), userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart store error"})
	}
	return c.NoContent(http.StatusNoContent)
}
