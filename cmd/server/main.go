package main // Entry point package

import (
	"context" // lifecycle control for background workers
	"log"     // Logging library
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"    // load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/maquirent/rental-api/internal/config"
	"github.com/maquirent/rental-api/internal/database"
	"github.com/maquirent/rental-api/internal/handler"
	"github.com/maquirent/rental-api/internal/middleware"
	"github.com/maquirent/rental-api/internal/payment"
	"github.com/maquirent/rental-api/internal/queue"
	"github.com/maquirent/rental-api/internal/repository"
	"github.com/maquirent/rental-api/internal/router"
	"github.com/maquirent/rental-api/internal/service"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the cart store, so unlike caching and rate limiting it
	// is not optional.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed; the cart store requires Redis")
	}
	defer rdb.Close()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	reservations := repository.NewReservationRepo(db)
	carts := repository.NewCartRepo(rdb, cfg.CartTTL)

	// Payment gateway client and the webhook's booking service.
	gateway := payment.NewClient(cfg.StripeSecretKey)
	bookings := service.NewBookingService(products, reservations)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	catalogH := &handler.CatalogHandler{Products: products, Categories: categories}
	cartH := handler.NewCartHandler(carts, products, categories)
	checkoutH := handler.NewCheckoutHandler(cfg, products, reservations, carts, gateway)
	resH := handler.NewReservationHandler(reservations)
	webhookH := handler.NewWebhookHandler(cfg.StripeWebhookSecret, bookings, service.PublishReservationCreated)
	adminProductsH := handler.NewAdminProductHandler(products, categories)
	adminCategoriesH := handler.NewAdminCategoryHandler(categories)
	adminReservationsH := handler.NewAdminReservationHandler(reservations)

	e := echo.New() // Create Echo instance

	// Catalog reads get the rate limiter and response cache.  Both
	// middlewares degrade to pass-throughs when disabled by config.
	catalogMW := []echo.MiddlewareFunc{
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogH, catalogMW...)
	router.RegisterWebhook(e, webhookH)
	router.RegisterCustomer(e, cartH, checkoutH, resH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminProductsH, adminCategoriesH, adminReservationsH, cfg.JWTSecret)

	// Background workers share a context cancelled on shutdown signals.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notification consumer: logs reservation-created and reminder
	// events.  Runs its own reconnect loop.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	// Daily reminder scan for rentals starting tomorrow.
	go service.NewReminderScanner(reservations).Run(ctx)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
