package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Provider credentials are optional: an empty
// API key switches the corresponding client into its mock/fallback mode,
// which keeps local development and tests free of external services.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	PlatformFeeBps int // marketplace fee taken per order, in basis points

	PaymentAPIKey string // payment provider secret key (empty = mock intents)
	PaymentAPIURL string // payment provider base URL
	EmailAPIKey   string // transactional email provider key (empty = log only)
	EmailAPIURL   string // transactional email provider base URL
	EmailFrom     string // From address for outgoing mail
	VisionAPIKey  string // plant identification provider key (empty = canned)
	VisionAPIURL  string // plant identification provider base URL
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		PlatformFeeBps: envInt("PLATFORM_FEE_BPS", 500), // 5% unless overridden

		PaymentAPIKey: os.Getenv("PAYMENT_API_KEY"),
		PaymentAPIURL: envStr("PAYMENT_API_URL", "https://api.stripe.com"),
		EmailAPIKey:   os.Getenv("EMAIL_API_KEY"),
		EmailAPIURL:   envStr("EMAIL_API_URL", "https://api.sendgrid.com"),
		EmailFrom:     envStr("EMAIL_FROM", "orders@farm-market.local"),
		VisionAPIKey:  os.Getenv("VISION_API_KEY"),
		VisionAPIURL:  envStr("VISION_API_URL", "https://plant.id/api/v3"),
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
