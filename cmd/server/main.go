package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/database"
	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/router"
	"github.com/funilzap/crm-funnel-backend/internal/services"
	"github.com/funilzap/crm-funnel-backend/internal/services/auth"
	"github.com/funilzap/crm-funnel-backend/internal/services/export"
	"github.com/funilzap/crm-funnel-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	// Import Swagger docs
	_ "github.com/funilzap/crm-funnel-backend/docs"
)

// @title FunilZap CRM Funnel API
// @version 1.0
// @description WhatsApp follow-up funnel driven by Monday.com board webhooks

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Configure logging and keep a ring of recent lines for the dashboard
	appLogs := services.NewLogBuffer(500)
	configureLogging(appLogs)

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB(cfg.DBPath)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Repositories
	leadRepo := repository.NewLeadRepository(db)
	actionLogRepo := repository.NewActionLogRepository(db)
	reviewRepo := repository.NewManualReviewRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Shared SSE hub pushes analytics events to dashboard clients
	sseHub := services.NewSSEHub()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			sseHub.SendHeartbeat()
		}
	}()

	// Services
	analyticsService := services.NewAnalyticsService(analyticsRepo, sseHub)
	messagingService := services.NewMessagingService(cfg, analyticsService)
	boardService := services.NewBoardService(cfg, analyticsService)
	fileService := services.NewFileService(cfg.DataDir)
	funnelService := services.NewFunnelService(
		cfg, leadRepo, actionLogRepo, reviewRepo,
		analyticsService, messagingService, boardService, fileService,
	)
	exportService := export.NewExcelService(leadRepo)
	authService := auth.NewAuthService(db, cfg)

	// Create admin user if not exists
	if err := authService.CreateAdminUser(cfg); err != nil {
		logrus.Warnf("Failed to create admin user: %v", err)
	}

	// The dispatcher is always built but ships disabled; all funnel
	// movement stays webhook driven unless DISPATCHER_ENABLED is set
	dispatcher := services.NewDispatcherService(cfg, funnelService, leadRepo, analyticsService)
	if cfg.DispatcherEnabled {
		if err := dispatcher.Start(); err != nil {
			logrus.Fatalf("Failed to start dispatcher: %v", err)
		}
		defer dispatcher.Stop()
	} else {
		logrus.Info("Dispatcher disabled; funnel transitions are webhook driven")
	}

	webhookLogs := services.NewLogBuffer(200)

	r := router.SetupRouter(router.Deps{
		Config:      cfg,
		DB:          db,
		Funnel:      funnelService,
		Analytics:   analyticsService,
		Messaging:   messagingService,
		Board:       boardService,
		Files:       fileService,
		Export:      exportService,
		Auth:        authService,
		SSEHub:      sseHub,
		AppLogs:     appLogs,
		WebhookLogs: webhookLogs,
		LeadRepo:    leadRepo,
		ActionRepo:  actionLogRepo,
		ReviewRepo:  reviewRepo,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("Dashboard: http://localhost:%s/", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging(buffer *services.LogBuffer) {
	logLevel := "info"
	if value, exists := os.LookupEnv("LOG_LEVEL"); exists {
		logLevel = value
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.AddHook(services.NewLogBufferHook(buffer))
}
