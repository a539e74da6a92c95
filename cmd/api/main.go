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

	"github.com/coder/quartz"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-stats/internal/adapter/handler"
	"github.com/johnquangdev/meeting-stats/internal/adapter/repository"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/meeting-stats/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/pubsub"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/realtime"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-stats/internal/task"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
	"github.com/johnquangdev/meeting-stats/pkg/config"
	"github.com/johnquangdev/meeting-stats/pkg/jwt"
	"github.com/johnquangdev/meeting-stats/pkg/metrics"
	pkgvalidator "github.com/johnquangdev/meeting-stats/pkg/validator"
)

// @title           Meeting Stats API
// @version         1.0
// @description     Per-user meeting statistics with a real-time update channel

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	logger.Info("🔧 Initializing dependencies...")

	// Database
	logger.Info("📦 Connecting to database...", zap.String("driver", cfg.Database.Driver))
	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		n, err := database.Migrate(db)
		if err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("🔄 Schema up to date", zap.Int("applied", n))
	} else {
		logger.Info("🔄 Skipping migrations; run cmd/migrate to manage the schema")
	}

	// Redis is only needed when real-time updates fan out across instances
	var redisClient *redis.Client
	if cfg.Pubsub.Driver == "redis" {
		logger.Info("📦 Connecting to Redis...", zap.String("addr", cfg.GetRedisAddr()))
		redisClient, err = cache.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	ps, err := pubsub.New(cfg.Pubsub.Driver, redisClient)
	if err != nil {
		logger.Fatal("Failed to initialize pubsub", zap.Error(err))
	}
	defer ps.Close()

	var ticketStore cache.Store
	if redisClient != nil {
		ticketStore = cache.NewRedisStore(redisClient)
	} else {
		ticketStore = cache.NewMemoryStore()
	}
	defer ticketStore.Close()
	tickets := realtime.NewTicketManager(ticketStore, cfg.Realtime.TicketTTL)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Statistics service
	opts := []statsUsecase.Option{
		statsUsecase.WithPublisher(realtime.NewBroadcaster(ps)),
		statsUsecase.WithRecorder(appMetrics),
	}
	if cfg.Storage.Enabled {
		logger.Info("🗄️  Initializing baseline archive...", zap.String("bucket", cfg.Storage.BucketName))
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		archive, err := storage.NewBaselineArchive(initCtx, &cfg.Storage)
		cancel()
		if err != nil {
			logger.Fatal("Failed to initialize baseline archive", zap.Error(err))
		}
		opts = append(opts, statsUsecase.WithArchiver(archive))
	}

	statsService := statsUsecase.NewStatsService(
		repository.NewStatisticsRepository(db),
		repository.NewMeetingRepository(db),
		quartz.NewReal(),
		logger,
		opts...,
	)

	// Auth
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	// Handlers
	statsHandler := handler.NewStatsHandler(statsService, tickets, logger)
	relay := handler.NewRelay(statsService, jwtManager, tickets, ps, appMetrics, handler.RelayConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PingInterval:   cfg.Realtime.PingInterval,
		SendBuffer:     cfg.Realtime.SendBuffer,
	}, logger)

	var webhookHandler *handler.WebhookHandler
	if cfg.LiveKit.APIKey != "" || cfg.LiveKit.AllowUnsigned {
		webhookHandler = handler.NewWebhookHandler(statsService, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.AllowUnsigned, logger)
	} else {
		logger.Info("🪝 LiveKit webhook disabled, LIVEKIT_API_KEY not set")
	}

	logger.Info("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, httpmw.EchoAuth(jwtManager), statsHandler, relay, webhookHandler, appMetrics.Handler())
	router.Setup(e)

	// Monthly rollover
	var scheduler *task.RolloverScheduler
	if cfg.Rollover.Enabled {
		scheduler, err = task.NewRolloverScheduler(statsService, cfg.Rollover.Schedule, cfg.Rollover.Timeout, logger)
		if err != nil {
			logger.Fatal("Failed to initialize rollover scheduler", zap.Error(err))
		}
		scheduler.Start()
		logger.Info("📅 Next rollover", zap.Time("at", scheduler.NextRun(time.Now())))
	}

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	relay.Close()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
