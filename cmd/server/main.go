package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/checkin"
	"github.com/gatekeeper/kiosk-backend/internal/config"
	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/gatekeeper/kiosk-backend/internal/handlers"
	"github.com/gatekeeper/kiosk-backend/internal/metrics"
	"github.com/gatekeeper/kiosk-backend/internal/middleware"
	"github.com/gatekeeper/kiosk-backend/internal/services"
	"github.com/gatekeeper/kiosk-backend/internal/utils"
	"github.com/gatekeeper/kiosk-backend/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting GateKeeper kiosk backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Server.AutoMigrate {
		logger.Info("Applying migrations...")
		if err := database.RunMigrations(db.DB.DB); err != nil {
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	// Background work is tied to this context
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	kioskMetrics := metrics.New(registry)

	// Repositories
	memberRepository := database.NewMemberRepository(db)
	timeLogRepository := database.NewTimeLogRepository(db)
	settingsRepository := database.NewSettingsRepository(db)
	organizationRepository := database.NewOrganizationRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		cfg.JWT.AdminTokenExpiry,
	)
	engine := checkin.NewEngine(memberRepository, timeLogRepository, logger, checkin.WithRecorder(kioskMetrics))
	settingsService := services.NewSettingsService(settingsRepository)
	directoryService := services.NewDirectoryService(
		memberRepository,
		timeLogRepository,
		settingsService,
		logger,
		cfg.Kiosk.MembershipDefaultDays,
	)
	timesheetService := services.NewTimesheetService(memberRepository, timeLogRepository, logger)
	accountService := services.NewAccountService(
		organizationRepository,
		refreshTokenRepository,
		jwtService,
		logger,
		cfg.Security.BcryptCost,
	)

	// Initialize and start cron service
	var cronService *services.CronService
	if cfg.Scheduler.Enabled {
		cronService = services.NewCronService(accountService, logger, cfg.Scheduler.TokenCleanupSpec, cfg.Scheduler.RevokedTokenMaxAge)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
	}

	logger.Info("Services initialized")

	// Initialize handlers
	kioskHandler := handlers.NewKioskHandler(engine, settingsService, time.Duration(cfg.Kiosk.DwellSeconds)*time.Second, logger)
	memberHandler := handlers.NewMemberHandler(directoryService, logger)
	timeLogHandler := handlers.NewTimeLogHandler(timesheetService, logger)
	settingsHandler := handlers.NewSettingsHandler(settingsService, logger)
	accountHandler := handlers.NewAccountHandler(accountService, logger)
	healthHandler := handlers.NewHealthHandler(db, version)

	// One limiter per guarded endpoint
	checkInLimiter := middleware.NewRateLimiter(appCtx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.CheckIn.RequestsPerSecond,
		Burst:             cfg.RateLimit.CheckIn.Burst,
	})
	loginLimiter := middleware.NewRateLimiter(appCtx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.Login.RequestsPerSecond,
		Burst:             cfg.RateLimit.Login.Burst,
	})
	unlockLimiter := middleware.NewRateLimiter(appCtx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.Unlock.RequestsPerSecond,
		Burst:             cfg.RateLimit.Unlock.Burst,
		Key:               middleware.ByTenant,
	})

	// Initialize Gin router
	router := gin.New()
	if err := utils.TrustProxies(router, cfg.Server.TrustedProxies); err != nil {
		logger.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
	}

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: !containsWildcard(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	requireAuth := middleware.AuthMiddleware(jwtService, logger)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", accountHandler.Register)
			auth.POST("/login", loginLimiter.Middleware(), accountHandler.Login)
			auth.POST("/session", accountHandler.ResumeSession)
			auth.POST("/logout", requireAuth, accountHandler.Logout)
		}

		kiosk := v1.Group("/kiosk", requireAuth)
		{
			kiosk.POST("/check-in", checkInLimiter.Middleware(), kioskHandler.CheckIn)
			kiosk.POST("/clock", kioskHandler.Clock)
			kiosk.POST("/waiver", kioskHandler.Waiver)
			kiosk.GET("/settings", kioskHandler.Settings)
		}

		v1.POST("/admin/unlock", requireAuth, unlockLimiter.Middleware(), accountHandler.Unlock)

		admin := v1.Group("/admin", requireAuth, middleware.RequireRole(jwt.RoleAdmin))
		{
			admin.GET("/members", memberHandler.List)
			admin.POST("/members", memberHandler.Create)
			admin.GET("/members/next-code", memberHandler.NextCode)
			admin.GET("/members/:id", memberHandler.Get)
			admin.PUT("/members/:id", memberHandler.Update)
			admin.POST("/members/:id/archive", memberHandler.Archive)
			admin.POST("/members/:id/restore", memberHandler.Restore)
			admin.GET("/members/:id/time-logs", timeLogHandler.ListForMember)
			admin.POST("/members/:id/time-logs", timeLogHandler.Add)

			admin.GET("/time-logs", timeLogHandler.ListAll)
			admin.PUT("/time-logs/:id", timeLogHandler.Edit)

			admin.GET("/settings", settingsHandler.Get)
			admin.PUT("/settings", settingsHandler.Save)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cronService != nil {
		cronService.Stop()
	}
	stopApp()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// credentials cannot be combined with a wildcard origin
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
