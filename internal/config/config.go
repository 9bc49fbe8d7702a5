package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses wait durations for the confirmation poller
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, time.Duration for poller waits.
type Config struct {
	Env                 string        // application environment (e.g. "dev", "prod")
	Port                string        // HTTP port to listen on
	DBUser              string        // database username
	DBPass              string        // database password (optional)
	DBHost              string        // database host address
	DBPort              string        // database port number
	DBName              string        // database name
	JWTSecret           string        // secret used to sign JWTs
	AccessTTLMin        int           // access token time-to-live in minutes
	RefreshTTLDays      int           // refresh token time-to-live in days
	BcryptCost          int           // bcrypt cost for password hashing
	StripeSecretKey     string        // API key for the payment gateway
	StripeWebhookSecret string        // secret for webhook signature verification
	CheckoutSuccessURL  string        // where the gateway redirects after payment
	CheckoutCancelURL   string        // where the gateway redirects on abandon
	CheckoutCurrency    string        // ISO currency code for line items
	ConfirmMaxAttempts  int           // bounded retries for reservation reconciliation
	ConfirmInitialWait  time.Duration // wait before the first reconciliation read
	ConfirmRetryWait    time.Duration // wait between subsequent reads
	CartTTL             time.Duration // how long an idle cart survives in Redis
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Reconciliation and
// cart settings have sensible defaults and may be omitted.
func Load() Config {
	return Config{
		Env:                 must("APP_ENV"),      // environment (dev/test/prod)
		Port:                must("APP_PORT"),     // port to bind the HTTP server
		DBUser:              must("DB_USER"),      // database user
		DBPass:              os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:              must("DB_HOST"),      // database host
		DBPort:              must("DB_PORT"),      // database port
		DBName:              must("DB_NAME"),      // database name
		JWTSecret:           must("JWT_SECRET"),   // secret used for signing JWTs
		AccessTTLMin:        mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		RefreshTTLDays:      mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
		BcryptCost:          mustInt("BCRYPT_COST"),            // bcrypt cost factor
		StripeSecretKey:     must("STRIPE_SECRET_KEY"),         // payment gateway API key
		StripeWebhookSecret: must("STRIPE_WEBHOOK_SECRET"),     // webhook signing secret
		CheckoutSuccessURL:  must("CHECKOUT_SUCCESS_URL"),      // success redirect target
		CheckoutCancelURL:   must("CHECKOUT_CANCEL_URL"),       // cancel redirect target
		CheckoutCurrency:    getenv("CHECKOUT_CURRENCY", "eur"),
		ConfirmMaxAttempts:  atoiDefault(getenv("CONFIRM_MAX_ATTEMPTS", "3"), 3),
		ConfirmInitialWait:  parseDur(getenv("CONFIRM_INITIAL_WAIT", "5s")),
		ConfirmRetryWait:    parseDur(getenv("CONFIRM_RETRY_WAIT", "3s")),
		CartTTL:             parseDur(getenv("CART_TTL", "720h")), // 30 days
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// atoiDefault converts s to an int, falling back to def when the value is
// not a positive integer.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
