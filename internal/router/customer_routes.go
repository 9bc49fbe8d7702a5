package router

import (
	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/handler"
	"github.com/maquirent/rental-api/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers manage
// their cart, start and confirm checkouts, and view or cancel their own
// reservations.
func RegisterCustomer(e *echo.Echo, cart *handler.CartHandler, checkout *handler.CheckoutHandler, res *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	// Cart: one cart per user, stored server-side so it survives devices
	// and sessions.
	g.GET("/cart", cart.Get)
	g.POST("/cart/items", cart.AddItem)
	g.DELETE("/cart/items/:product_id", cart.RemoveItem)
	g.DELETE("/cart", cart.Clear)

	// Checkout: create a payment session, then poll for the webhook's
	// reservation rows after the gateway redirects back.
	g.POST("/checkout", checkout.Create)
	g.GET("/checkout/confirm", checkout.Confirm)

	// Reservations belonging to the caller.  Ownership is validated
	// again inside the handlers.
	g.GET("/my-reservations", res.ListMine)
	g.GET("/reservations/:id", res.Get)
	g.DELETE("/reservations/:id", res.Cancel)
}
