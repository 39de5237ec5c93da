package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/confdesk/conference-system/config"
	"github.com/confdesk/conference-system/db"
	"github.com/confdesk/conference-system/handlers"
	"github.com/confdesk/conference-system/live"
	"github.com/confdesk/conference-system/notifications"
	"github.com/confdesk/conference-system/repositories"
	api "github.com/confdesk/conference-system/routes"
	"github.com/confdesk/conference-system/services"
	"github.com/confdesk/conference-system/storage"
)

const notificationQueueSize = 256

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("status feed hub started")

	mailer := notifications.NewSMTPMailer(notifications.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})
	dispatcher, err := notifications.NewDispatcher(mailer, logger, notificationQueueSize)
	if err != nil {
		logger.Error("failed to initialize notification dispatcher", slog.Any("error", err))
		os.Exit(1)
	}
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	go dispatcher.Run(dispatcherCtx)
	logger.Info("notification dispatcher started")

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	paperRepo := repositories.NewPostgresPaperRepository(dbConn)
	reviewRepo := repositories.NewPostgresReviewRepository(dbConn)
	reviewerRepo := repositories.NewPostgresReviewerRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(teamRepo, memberRepo, reviewerRepo, adminRepo)
	assignmentService := services.NewAssignmentService(dbConn, reviewerRepo, reviewRepo, paperRepo, hub, logger)
	registrationService := services.NewRegistrationService(dbConn, teamRepo, memberRepo, paperRepo, assignmentService, uploader, logger)
	reviewService := services.NewReviewService(reviewRepo, paperRepo, uploader, hub, logger)
	decisionService := services.NewDecisionService(paperRepo, reviewRepo, teamRepo, uploader, dispatcher, hub, logger)
	paperService := services.NewPaperService(dbConn, paperRepo, reviewRepo, uploader, hub, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	teamHandler := handlers.NewTeamHandler(registrationService, paperService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	adminHandler := handlers.NewAdminHandler(decisionService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		teamHandler,
		reviewHandler,
		adminHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
