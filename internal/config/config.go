// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Auth modes. Selects how the session token travels between client and
// server: in the response body and Authorization header, or in an
// HttpOnly cookie with a companion CSRF token.
const (
	AuthModeBearer = "bearer"
	AuthModeCookie = "cookie"
)

// DevSigningSecret is the documented, insecure fallback signing secret.
// Only usable when APP_ENV is development; production fails closed.
const DevSigningSecret = "dev-only-insecure-secret"

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Session tokens
	JWTSecret         string        `env:"JWT_SECRET" envDefault:""`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"ecommerce-be"`
	JWTAudience       string        `env:"JWT_AUDIENCE" envDefault:"ecommerce-fe"`
	JWTTTL            time.Duration `env:"JWT_TTL" envDefault:"24h"`
	JWTClockTolerance time.Duration `env:"JWT_CLOCK_TOLERANCE" envDefault:"5s"`

	// Session transport: "bearer" returns the token in the response
	// body; "cookie" sets an HttpOnly cookie plus a CSRF cookie.
	AuthMode string `env:"AUTH_MODE" envDefault:"cookie"`

	// Cookie attributes (cookie mode). Set and clear must use the same
	// attribute set or browsers silently fail to clear the cookie.
	AuthCookieName string        `env:"AUTH_COOKIE_NAME" envDefault:"access_token"`
	CSRFCookieName string        `env:"CSRF_COOKIE_NAME" envDefault:"csrf_token"`
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CookieSameSite string        `env:"COOKIE_SAME_SITE" envDefault:"lax"`
	CookieMaxAge   time.Duration `env:"COOKIE_MAX_AGE" envDefault:"24h"`

	// Rate limiting for the registration and login endpoints
	RateLimitAuthEnabled bool          `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthWindow  time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"1m"`
	RateLimitAuthMax     int           `env:"RATE_LIMIT_AUTH_MAX" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// SameSite maps the configured same-site policy to http.SameSite.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SigningSecret returns the JWT signing secret, falling back to the
// documented dev-only secret in development. In any other environment
// a missing secret is a fatal configuration error.
func (c *Config) SigningSecret() ([]byte, error) {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret), nil
	}
	if c.IsDevelopment() {
		return []byte(DevSigningSecret), nil
	}
	return nil, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", c.AppEnv)
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	if c.AuthMode != AuthModeBearer && c.AuthMode != AuthModeCookie {
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeBearer, AuthModeCookie, c.AuthMode)
	}
	if _, err := c.SigningSecret(); err != nil {
		return err
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.RateLimitAuthEnabled && (c.RateLimitAuthWindow <= 0 || c.RateLimitAuthMax <= 0) {
		return fmt.Errorf("auth rate limit window and max must be positive")
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("COOKIE_SAME_SITE must be lax, strict or none, got %q", c.CookieSameSite)
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
