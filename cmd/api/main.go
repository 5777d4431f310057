// Package main is the entrypoint for the Shopcore API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shopcore/shopcore/internal/cache"
	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/handler"
	"github.com/shopcore/shopcore/internal/metrics"
	"github.com/shopcore/shopcore/internal/middleware"
	"github.com/shopcore/shopcore/internal/repository"
	"github.com/shopcore/shopcore/internal/server"
	"github.com/shopcore/shopcore/internal/token"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		logger.Warn("JWT_SECRET not set, using the insecure development fallback")
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize token manager
	secret, err := cfg.SigningSecret()
	if err != nil {
		logger.Error("failed to resolve signing secret", "error", err)
		os.Exit(1)
	}
	tokens, err := token.NewManager(secret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL, cfg.JWTClockTolerance)
	if err != nil {
		logger.Error("failed to create token manager", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	recorder := metrics.NewInMemory()
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	authHandler := handler.NewAuthHandler(repo, tokens, cfg, logger, recorder)
	productHandler := handler.NewProductHandler(repo, cfg, logger, recorder)
	metricsHandler := handler.NewMetricsHandler(recorder)

	// Setup router
	r := setupRouter(h, healthHandler, authHandler, productHandler, metricsHandler, tokens, repo, cacheClient, recorder, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"auth_mode", cfg.AuthMode,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
// AUTH_MODE selects which middleware chain protects the session
// endpoints: bearer (header token, loose verification) or cookie
// (strict verification, live user lookup, CSRF double-submit).
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	metricsHandler *handler.MetricsHandler,
	tokens *token.Manager,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		// Cookie-mode browsers must send credentials cross-origin.
		corsCfg.AllowCredentials = cfg.AuthMode == config.AuthModeCookie
		r.Use(middleware.CORS(corsCfg))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	// Internal metrics snapshot
	r.Get("/internal/metrics", metricsHandler.Get)

	// Auth middleware configuration. Bearer mode trusts claims alone
	// under the loose policy; cookie mode verifies strictly and
	// re-reads the user from the store on every request.
	authCfg := middleware.AuthConfig{
		Logger:     logger,
		Users:      repo,
		CookieName: cfg.AuthCookieName,
		Metrics:    recorder,
	}
	var authenticate func(http.Handler) http.Handler
	if cfg.AuthMode == config.AuthModeBearer {
		authCfg.Verifier = middleware.VerifierFunc(tokens.VerifyLoose)
		authenticate = middleware.AuthBearer(authCfg)
	} else {
		authCfg.Verifier = middleware.VerifierFunc(tokens.Verify)
		authenticate = middleware.AuthCookie(authCfg)
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Limiter:      cacheClient,
		Metrics:      recorder,
		Enabled:      cfg.RateLimitAuthEnabled,
		Window:       cfg.RateLimitAuthWindow,
		MaxPerWindow: cfg.RateLimitAuthMax,
	}
	rateLimitAuth := middleware.RateLimitAuth(rateLimitCfg)

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.With(rateLimitAuth).Post("/register", authHandler.Register)
		r.With(rateLimitAuth).Post("/login", authHandler.Login)

		r.With(authenticate).Get("/me", authHandler.Me)
		r.With(authenticate, middleware.RequireAdmin()).Get("/users", authHandler.Users)

		if cfg.AuthMode == config.AuthModeCookie {
			r.Get("/csrf-token", authHandler.CSRFToken)
			r.With(middleware.CSRF(cfg.CSRFCookieName)).Post("/logout", authHandler.Logout)
		}
	})

	// Catalog routes. Create carries no auth middleware.
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Post("/", productHandler.Create)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
