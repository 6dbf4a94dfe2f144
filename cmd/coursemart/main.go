// Package main is the entry point for the coursemart API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursemart/internal/auth"
	"coursemart/internal/cache"
	"coursemart/internal/config"
	"coursemart/internal/database"
	"coursemart/internal/handlers"
	"coursemart/internal/identity"
	"coursemart/internal/middleware"
	"coursemart/internal/progress"
	"coursemart/internal/router"
	"coursemart/internal/storage"
	"coursemart/internal/store"
)

func main() {
	// Local .env files are optional; real environment variables win.
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	if cfg.IsDev() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"firebase_project", cfg.FirebaseProjectID,
	)

	ctx := context.Background()

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN(), database.DefaultPool)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if _, err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (catalog cache and rate limit counters).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()
	catalogCache := cache.NewCatalog(valkeyClient, cfg.CatalogCacheTTL)

	// Connect to S3-compatible object storage (optional).
	var media handlers.MediaStorage
	storageClient, err := storage.New(cfg.Storage())
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		media = storageClient
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	}
	if media == nil {
		slog.Warn("s3 storage not configured, thumbnails and lesson videos disabled")
	}

	// Identity provider.
	verifier, err := identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseIssuerURL)
	if err != nil {
		slog.Error("failed to initialize token verifier", "error", err)
		os.Exit(1)
	}

	var resets identity.PasswordResetSender
	if cfg.FirebaseAPIKey != "" {
		resets = identity.NewFirebaseResetSender(cfg.FirebaseAPIKey, "")
	} else {
		slog.Warn("FIREBASE_API_KEY not set, password reset emails disabled")
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	courseStore := store.NewCourseStore(db)
	lessonStore := store.NewLessonStore(db)
	enrollmentStore := store.NewEnrollmentStore(db)
	progressStore := store.NewProgressStore(db)
	cartStore := store.NewCartStore(db)
	orderStore := store.NewOrderStore(db)

	gate := auth.NewGate(verifier, userStore)
	progressService := progress.NewService(enrollmentStore, lessonStore, progressStore)

	// Create handler groups with their dependencies.
	h := router.Handlers{
		Health: handlers.NewHealth(map[string]handlers.HealthCheck{
			"database": db.PingContext,
			"cache": func(ctx context.Context) error {
				return cache.Ping(ctx, valkeyClient)
			},
		}),
		Auth:     handlers.NewAuth(gate, userStore, resets),
		Catalog:  handlers.NewCatalog(categoryStore, courseStore, lessonStore, catalogCache, media),
		Lessons:  handlers.NewLessons(courseStore, lessonStore, enrollmentStore, catalogCache, media),
		Learning: handlers.NewLearning(progressService, courseStore, enrollmentStore),
		Commerce: handlers.NewCommerce(cartStore, orderStore, courseStore, enrollmentStore),
		Admin:    handlers.NewAdmin(userStore),
	}

	// Per-IP limit on the account endpoints.
	authLimiter := middleware.NewRateLimiter(cache.NewRateCounter(valkeyClient), middleware.RateLimitConfig{
		Scope:      "auth",
		Limit:      cfg.AuthRateLimit,
		Window:     time.Minute,
		TrustProxy: cfg.TrustProxy,
	})

	// Set up the Chi router with all middleware and routes.
	r := router.New(gate, authLimiter, router.Routes(h), router.Options{
		Logger: slog.Default(),
		HSTS:   cfg.IsProduction(),
	})

	// Create the HTTP server with sensible timeouts. Thumbnail uploads are
	// the slowest requests.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
