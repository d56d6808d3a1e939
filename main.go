package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nurpratapkarki/realEstateWeb/config"
	"github.com/nurpratapkarki/realEstateWeb/pkg/monitoring"
	"github.com/nurpratapkarki/realEstateWeb/pkg/redis"
	v1 "github.com/nurpratapkarki/realEstateWeb/v1"
	v1handlers "github.com/nurpratapkarki/realEstateWeb/v1/handlers"
	v1middleware "github.com/nurpratapkarki/realEstateWeb/v1/middleware"
	v1models "github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/services"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
	"gorm.io/gorm"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting real estate catalog initialization")

	shutdownMetrics := func(context.Context) error { return nil }
	metricsEnabled, _ := strconv.ParseBool(config.GetEnvOrDefault("ENABLE_METRICS", "true"))
	if metricsEnabled {
		var err error
		shutdownMetrics, err = monitoring.Setup(context.Background(), monitoring.Config{
			ServiceName: config.GetEnvOrDefault("SERVICE_NAME", "real-estate-catalog"),
			ResourceAttrs: map[string]string{
				"deployment.environment": config.GetEnvOrDefault("ENVIRONMENT", "development"),
			},
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			OTLPInsecure: os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
			OTLPHeaders:  parseHeaderList(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		})
		if err != nil {
			slog.Error("Failed to set up metrics", "error", err)
			os.Exit(1)
		}
	}

	catalogConfig, err := config.LoadCatalogConfig(os.Getenv("CATALOG_CONFIG_PATH"))
	if err != nil {
		slog.Error("Failed to load catalog configuration", "error", err)
		os.Exit(1)
	}
	for _, unit := range catalogConfig.AreaUnits {
		if err := v1models.RegisterAreaUnit(v1models.AreaUnit(unit.Name), unit.SquareFeet); err != nil {
			slog.Error("Failed to register area unit", "unit", unit.Name, "error", err)
			os.Exit(1)
		}
	}

	dbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it listings are uncached and no change events are published
	var (
		cache       services.ListingCache
		publisher   services.EventPublisher
		redisClient *redis.RedisClient
	)
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisDB, _ := strconv.Atoi(config.GetEnvOrDefault("REDIS_DB", "0"))
		redisClient, err = redis.NewClient(&redis.Config{
			Addr:     addr,
			Username: os.Getenv("REDIS_USERNAME"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		})
		if err != nil {
			slog.Warn("Redis unavailable, continuing without cache and change events", "addr", addr, "error", err)
		} else {
			cache, publisher = redisClient, redisClient
			slog.Info("Connected to Redis", "addr", addr)
		}
	}
	cacheTTL, err := time.ParseDuration(config.GetEnvOrDefault("CATALOG_CACHE_TTL", "5m"))
	if err != nil {
		slog.Error("Invalid CATALOG_CACHE_TTL", "error", err)
		os.Exit(1)
	}
	notifier := services.NewChangeNotifier(cache, publisher, config.GetEnvOrDefault("CATALOG_EVENT_STREAM", "catalog-events"), cacheTTL)

	limits := catalogConfig.Limits
	v1Handler, err := v1handlers.NewV1Handler(gormDB, notifier, services.CatalogOptions{
		FeaturedLimit: limits.FeaturedLimit,
		RecentLimit:   limits.RecentLimit,
		PageLimits: v1models.PageLimits{
			DefaultPageSize: limits.DefaultPageSize,
			MaxPageSize:     limits.MaxPageSize,
		},
	})
	if err != nil {
		slog.Error("Failed to initialize V1 handler", "error", err)
		os.Exit(1)
	}

	apiMux := http.NewServeMux()
	v1Handler.SetupV1Routes(apiMux)

	jwtConfig := v1middleware.JWTAuthConfig{
		Secret:           os.Getenv("JWT_SECRET"),
		JWKSURL:          os.Getenv("JWKS_URL"),
		ExpectedIssuer:   os.Getenv("JWT_ISSUER"),
		ExpectedAudience: os.Getenv("JWT_AUDIENCE"),
		Timeout:          10 * time.Second,
	}
	if jwtConfig.Secret == "" && jwtConfig.JWKSURL == "" {
		slog.Error("One of JWT_SECRET or JWKS_URL must be set")
		os.Exit(1)
	}
	jwtAuthMiddleware := v1middleware.NewJWTAuthMiddleware(jwtConfig, v1Handler.UserService())
	authorizationMiddleware := v1middleware.NewAuthorizationMiddleware()
	corsMiddleware := v1middleware.NewCORSMiddleware()

	// Apply middleware chain (PanicRecovery -> RequestID -> CORS -> Metrics -> Audit -> JWT -> Authorization)
	apiHandler := utils.PanicRecoveryMiddleware(
		v1middleware.RequestIDMiddleware(
			corsMiddleware(
				monitoring.HTTPMetricsMiddleware(
					v1middleware.AuditLoggingMiddleware(
						jwtAuthMiddleware.AuthenticateJWT(
							v1middleware.CaptureIdentity(
								authorizationMiddleware.AuthorizeRequest(apiMux),
							),
						),
					),
				),
			),
		),
	)

	topLevelMux := http.NewServeMux()
	topLevelMux.Handle("/health", utils.PanicRecoveryMiddleware(healthHandler(gormDB, redisClient)))
	if metricsEnabled {
		topLevelMux.Handle("/metrics", monitoring.Handler())
	}
	topLevelMux.Handle("/api/v1/", apiHandler)

	port := config.GetEnvOrDefault("PORT", "8080")
	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      topLevelMux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Real estate catalog starting", "port", port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down real estate catalog...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if err := shutdownMetrics(ctx); err != nil {
		slog.Error("Failed to flush metrics", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("Failed to close Redis connection", "error", err)
		}
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}

	slog.Info("Real estate catalog exited")
}

// parseHeaderList parses "key1=value1,key2=value2"
func parseHeaderList(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type dependencyHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthStatus struct {
	Status       string                      `json:"status"`
	Service      string                      `json:"service"`
	Dependencies map[string]dependencyHealth `json:"dependencies"`
}

// healthHandler pings the database and, when configured, Redis. Only the
// database decides overall health.
func healthHandler(db *gorm.DB, redisClient *redis.RedisClient) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := healthStatus{
			Status:       "healthy",
			Service:      "real-estate-catalog",
			Dependencies: map[string]dependencyHealth{},
		}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status.Status = "unhealthy"
			status.Dependencies["database"] = dependencyHealth{Status: "unhealthy", Error: err.Error()}
		} else {
			status.Dependencies["database"] = dependencyHealth{Status: "healthy"}
		}

		if redisClient != nil {
			if err := redisClient.HealthCheck(ctx); err != nil {
				status.Dependencies["redis"] = dependencyHealth{Status: "degraded", Error: err.Error()}
			} else {
				status.Dependencies["redis"] = dependencyHealth{Status: "healthy"}
			}
		}

		statusCode := http.StatusOK
		if status.Status != "healthy" {
			statusCode = http.StatusServiceUnavailable
		}
		utils.RespondWithSuccess(w, statusCode, status)
	})
}
