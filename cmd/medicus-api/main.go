package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/appointment"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/identity"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/notification"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/ops"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/internal/schedule"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/config"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/database"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/monitoring"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("version", "1.0.0").Info("Starting Medicus API")

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.CreateSchema(ctx); err != nil {
		log.WithError(err).Error("Failed to create database schema")
		os.Exit(1)
	}

	// Metrics
	metrics := monitoring.NewMetricsCollector("medicus-api")

	// Identity components
	identityRepo := identity.NewRepository(db, log)
	passwordManager := identity.NewPasswordManager()
	tokenIssuer := identity.NewTokenIssuer(&cfg.JWT)
	mailer := notification.NewSMTPMailer(&cfg.SMTP, log)
	identityService := identity.NewService(cfg, log, identityRepo, passwordManager, tokenIssuer, mailer)
	authMiddleware := identity.NewAuthMiddleware(tokenIssuer, identityRepo, log, cfg.JWT.CookieName)

	// Appointment components
	appointmentRepo := appointment.NewRepository(db, log)
	appointmentService := appointment.NewService(log, appointmentRepo, identityRepo, metrics)

	// Schedule components
	scheduleRepo := schedule.NewRepository(db, log)
	scheduleService := schedule.NewService(log, scheduleRepo, identityRepo)

	// Notification components
	notificationRepo := notification.NewRepository(db, log)
	notificationService := notification.NewService(log, notificationRepo, identityRepo, mailer)

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(metrics.GinMiddleware())
	router.Use(corsMiddleware())

	if cfg.RateLimit.Enabled {
		limiter := ops.NewRateLimiter(cfg.RateLimit.RequestsPerMin, time.Minute)
		limiter.StartCleanup(time.Duration(cfg.RateLimit.CleanupInterval) * time.Second)
		router.Use(limiter.GinMiddleware())
	}

	// Register routes
	identity.NewHandlers(identityService, authMiddleware, log, metrics, &cfg.JWT).RegisterRoutes(router)
	appointment.NewHandlers(appointmentService, authMiddleware, log).RegisterRoutes(router)
	schedule.NewHandlers(scheduleService, authMiddleware, log).RegisterRoutes(router)
	notification.NewHandlers(notificationService, authMiddleware, log).RegisterRoutes(router)

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start API server in a goroutine
	go func() {
		log.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Failed to start HTTP server")
			os.Exit(1)
		}
	}()

	// Start ops server in a goroutine
	opsServer := ops.NewServer(cfg, log, db, metrics)
	go func() {
		if err := opsServer.Start(); err != nil {
			log.WithError(err).Error("Failed to start ops server")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Medicus API...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}
	if err := opsServer.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Ops server forced to shutdown")
	}

	log.Info("Medicus API stopped")
}

// requestLogger emits one structured line per request
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.HTTPRequest(c.Request.Method, c.FullPath(), c.ClientIP(),
			c.Writer.Status(), time.Since(start).Milliseconds())
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
