package router

import (
	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/handler"
	"github.com/maquirent/rental-api/internal/middleware"
)

// RegisterAdmin registers the back-office endpoints under
// /v1/admin.  All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, products *handler.AdminProductHandler, categories *handler.AdminCategoryHandler, reservations *handler.AdminReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// Catalog management.  Admin listings include products hidden from
	// the storefront.
	g.GET("/products", products.List)
	g.GET("/products/:id", products.Get)
	g.POST("/products", products.Create)
	g.PUT("/products/:id", products.Update)
	g.PATCH("/products/:id", products.Patch)
	g.DELETE("/products/:id", products.Delete)

	g.GET("/categories", categories.List)
	g.POST("/categories", categories.Create)
	g.PUT("/categories/:id", categories.Update)
	g.DELETE("/categories/:id", categories.Delete)

	// Reservation lifecycle: estado moves only along allowed
	// transitions; delete is a hard removal for cleanup.
	g.GET("/reservations", reservations.List)
	g.PATCH("/reservations/:id/status", reservations.UpdateEstado)
	g.DELETE("/reservations/:id", reservations.Delete)
}
