package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-hub/internal/auth"
	"review-hub/internal/config"
	"review-hub/internal/database"
	"review-hub/internal/handlers"
	"review-hub/internal/logger"
	"review-hub/internal/middleware"
	"review-hub/internal/models"
	"review-hub/internal/service"
	"review-hub/internal/storage/postgres"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title ReviewHub API
// @version 1.0
// @description Code review request/answer exchange with reviewer ratings

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db.DB)
	requestRepo := postgres.NewRequestRepo(db.DB)
	commentRepo := postgres.NewCommentRepo(db.DB)
	answerRepo := postgres.NewAnswerRepo(db.DB)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	authSvc := service.NewAuthService(userRepo, authService)
	reviewSvc := service.NewReviewService(userRepo, requestRepo, commentRepo)
	answerSvc := service.NewAnswerService(requestRepo, answerRepo)
	reviewerSvc := service.NewReviewerService(userRepo, requestRepo, answerRepo)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	reviewHandler := handlers.NewReviewHandler(reviewSvc)
	answerHandler := handlers.NewAnswerHandler(answerSvc)
	reviewerHandler := handlers.NewReviewerHandler(reviewerSvc)

	// Setup router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/requests", reviewHandler.List)
	mux.HandleFunc("GET /api/v1/requests/languages/{language}", reviewHandler.ListByLanguage)
	mux.HandleFunc("GET /api/v1/requests/{id}", reviewHandler.Get)
	mux.HandleFunc("GET /api/v1/reviewers", reviewerHandler.List)

	// Protected routes
	requesterOnly := middleware.RequireRole(models.RoleRequester)
	reviewerOnly := middleware.RequireRole(models.RoleReviewer)

	mux.Handle("POST /api/v1/requests",
		authMw.Authenticate(requesterOnly(http.HandlerFunc(reviewHandler.Create))))
	mux.Handle("PUT /api/v1/requests/{id}",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.Update)))
	mux.Handle("DELETE /api/v1/requests/{id}",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.Delete)))
	mux.Handle("POST /api/v1/requests/{id}/comments",
		authMw.Authenticate(http.HandlerFunc(reviewHandler.AddComment)))

	mux.Handle("POST /api/v1/requests/{id}/answers",
		authMw.Authenticate(reviewerOnly(http.HandlerFunc(answerHandler.Submit))))
	mux.Handle("PUT /api/v1/answers/{id}",
		authMw.Authenticate(reviewerOnly(http.HandlerFunc(answerHandler.Update))))
	mux.Handle("GET /api/v1/answers",
		authMw.Authenticate(reviewerOnly(http.HandlerFunc(answerHandler.ListMine))))
	mux.Handle("POST /api/v1/requests/{id}/answers/{answerId}/evaluation",
		authMw.Authenticate(requesterOnly(http.HandlerFunc(answerHandler.Evaluate))))

	mux.Handle("PUT /api/v1/requests/{id}/reviewer",
		authMw.Authenticate(reviewerOnly(http.HandlerFunc(reviewerHandler.Reassign))))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`))
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.SecurityHeaders(
		corsMw.Handler(
			rateLimiter.Limit(
				middleware.LoggingMiddleware(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
