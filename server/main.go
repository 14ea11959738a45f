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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"campusq/api/routes"
	"campusq/internal/notifications"
	"campusq/internal/shared/config"
	"campusq/internal/shared/database"
	"campusq/pkg/logger"
	"campusq/pkg/ratelimit"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Partial unique indexes AutoMigrate cannot express
	if err := database.MigrateConstraints(db.GetPostgreSQL()); err != nil {
		appLogger.Error("failed to apply constraints", slog.Any("error", err))
		os.Exit(1)
	}

	// Rate limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiterConfig := &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PublicRequests:  cfg.RateLimit.PublicRequests,
			QueueRequests:   cfg.RateLimit.QueueRequests,
			StaffRequests:   cfg.RateLimit.StaffRequests,
			DisplayRequests: cfg.RateLimit.DisplayRequests,
			HealthRequests:  cfg.RateLimit.PublicRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		}

		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), rateLimiterConfig)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Notification pipeline: Kafka producer feeding consumer-group
	// workers that deliver over email and push.
	var producer notifications.NotificationProducer
	var consumer notifications.NotificationConsumer
	if cfg.Kafka.Enabled {
		producerConfig := notifications.DefaultKafkaProducerConfig()
		producerConfig.Brokers = cfg.Kafka.Brokers
		producerConfig.NotificationTopic = cfg.Kafka.NotificationTopic

		producer, err = notifications.NewKafkaNotificationProducer(producerConfig)
		if err != nil {
			appLogger.Error("Failed to initialize notification producer", slog.Any("error", err))
			appLogger.Info("Continuing without notifications - queue operations are unaffected")
			producer = nil
		}

		consumerConfig := notifications.DefaultConsumerConfig()
		consumerConfig.Brokers = cfg.Kafka.Brokers
		consumerConfig.GroupID = cfg.Kafka.ConsumerGroupID
		consumerConfig.Topics = []string{cfg.Kafka.NotificationTopic}

		emailSender := buildEmailSender(cfg, appLogger)
		consumer, err = notifications.NewKafkaNotificationConsumer(consumerConfig, emailSender, notifications.NewLogPushSender())
		if err != nil {
			appLogger.Error("Failed to initialize notification consumer", slog.Any("error", err))
			consumer = nil
		}
	} else {
		appLogger.Info("Kafka disabled - notifications will not be dispatched")
	}

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if consumer != nil {
		if err := consumer.StartConsumers(consumerCtx, cfg.Kafka.ConsumerWorkers); err != nil {
			appLogger.Error("Failed to start notification workers", slog.Any("error", err))
		}
		defer func() {
			if err := consumer.Stop(); err != nil {
				appLogger.Error("Error stopping notification consumer", slog.Any("error", err))
			}
		}()
	}
	if producer != nil {
		defer producer.Close()
	}

	router := setupRouter(cfg, db, rateLimiter, producer)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func buildEmailSender(cfg *config.Config, appLogger *logger.Logger) notifications.EmailSender {
	if cfg.Email.SMTPHost == "" {
		appLogger.Info("SMTP not configured, using mock email sender")
		return notifications.NewMockEmailSender()
	}

	sender, err := notifications.NewSMTPEmailSender(&notifications.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  "CampusQ",
		UseTLS:    true,
		Timeout:   30 * time.Second,
	})
	if err != nil {
		appLogger.Error("Invalid SMTP configuration, using mock email sender", slog.Any("error", err))
		return notifications.NewMockEmailSender()
	}
	return sender
}

func setupRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, producer notifications.NotificationProducer) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	appRouter := routes.NewRouter(cfg, db, producer)
	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
