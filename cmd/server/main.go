// Package main is the entry point for the EcoTrack waste-reporting server.
// It provides a REST API for citizen waste reports, management task
// assignment, worker status updates with proof photos, citizen feedback,
// and windowed analytics.
//
// Architecture:
//   - Role-scoped access: citizens see own reports, workers see assigned
//     tasks, management sees everything
//   - The lifecycle engine is the single authority on status transitions
//   - Optimistic concurrency: report updates are version-conditional
//   - Analytics summaries cached in Redis with write-through invalidation
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecotrack/waste-server/internal/config"
	"github.com/ecotrack/waste-server/internal/database"
	"github.com/ecotrack/waste-server/internal/handlers"
	"github.com/ecotrack/waste-server/internal/middleware"
	"github.com/ecotrack/waste-server/internal/models"
	"github.com/ecotrack/waste-server/internal/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// version is stamped at build time:
//
//	go build -ldflags "-X main.version=1.3.0" ./cmd/server
var version = "dev"

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting EcoTrack Waste Server",
		"version", version,
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis backs the analytics cache; the server runs without it.
	cache, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		sugar.Warnf("Redis unavailable, analytics caching disabled: %v", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// Initialize services
	accountSvc := services.NewAccountService(db, sugar)
	reportSvc := services.NewReportService(db, sugar)
	analyticsSvc := services.NewAnalyticsService(reportSvc, cache, time.Duration(cfg.AnalyticsCacheTTL)*time.Second, sugar)
	geocoder := services.NewGeocoder(cfg.GeocodeURL, cfg.GeocodeKey, sugar)
	blobs, err := services.NewBlobStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxUploadBytes, sugar)
	if err != nil {
		sugar.Fatalf("Failed to initialize blob store: %v", err)
	}

	// Initialize handlers
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour
	authHandler := handlers.NewAuthHandler(accountSvc, cfg.JWTSecret, tokenTTL, sugar)
	reportHandler := handlers.NewReportHandler(reportSvc, analyticsSvc, geocoder, sugar)
	workerHandler := handlers.NewWorkerHandler(accountSvc, reportSvc, sugar)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc, sugar)
	uploadHandler := handlers.NewUploadHandler(blobs, cfg.MaxUploadBytes, sugar)
	healthHandler := handlers.NewHealthHandler(db, version, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Authenticated endpoints; role resolved per request
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret, accountSvc))

			r.Route("/reports", func(r chi.Router) {
				r.Post("/", reportHandler.Create)
				r.Get("/", reportHandler.List)
				r.Get("/{id}", reportHandler.Get)
				r.Patch("/{id}", reportHandler.Update)
				r.Post("/{id}/feedback", reportHandler.Feedback)
			})

			r.Post("/uploads", uploadHandler.Upload)

			// Management-only endpoints
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleManagement))

				r.Route("/workers", func(r chi.Router) {
					r.Get("/", workerHandler.List)
					r.Post("/", workerHandler.Create)
					r.Get("/{id}/stats", workerHandler.Stats)
				})

				r.Get("/analytics/summary", analyticsHandler.Summary)
			})
		})
	})

	// Serve uploaded photos
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(blobs.Dir()))))

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
