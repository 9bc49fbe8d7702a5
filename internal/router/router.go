package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/maquirent/rental-api/internal/handler"    // import the handlers that implement business logic
	"github.com/maquirent/rental-api/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register, login,
	// refresh.  Each handler is responsible for generating or exchanging
	// tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token and returns a fresh pair.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a JSON body containing a `refresh_token` and
	// invalidates that token; no JWT is required so an expired access
	// token cannot trap a client in a session it wants to end.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  Both roles are accepted
	// here; role-specific surfaces apply their own RequireRole below.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)
	auth.POST("/me/password", a.ChangePassword)
}

// RegisterCatalog registers the unauthenticated storefront browse
// endpoints.  The optional middleware chain (response cache, rate
// limiter) is applied only to this group: catalog reads are the hot
// path and are safe to cache, while cart and checkout must always hit
// the primary store.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)
	g.GET("/categories", h.ListCategories)
	g.GET("/products", h.ListProducts)
	g.GET("/products/:id", h.GetProduct)
}

// RegisterWebhook registers the payment-gateway callback.  No JWT: the
// gateway authenticates through the signed payload, which the handler
// verifies before reading anything else.
func RegisterWebhook(e *echo.Echo, h *handler.WebhookHandler) {
	e.POST("/v1/stripe/webhook", h.HandleStripe)
}
