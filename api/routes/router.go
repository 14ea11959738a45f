// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusq/internal/notifications"
	"campusq/internal/shared/config"
	"campusq/internal/shared/database"
	"campusq/internal/shared/middleware"
	"campusq/internal/stations"
	"campusq/internal/tickets"
	"campusq/internal/tokens"
	"campusq/pkg/cache"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	producer notifications.NotificationProducer

	// Shared across route groups
	tokenService tokens.Service
	stationRepo  stations.Repository
}

// NewRouter creates a new router instance. producer may be nil when
// the Kafka pipeline is disabled; notifications are then skipped.
func NewRouter(cfg *config.Config, db *database.DB, producer notifications.NotificationProducer) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		producer: producer,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupTokenRoutes(api)
		r.setupStationRoutes(api)
		r.setupQueueRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "campusq",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "campusq",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupTokenRoutes configures the access-token chain routes
func (r *Router) setupTokenRoutes(rg *gin.RouterGroup) {
	usageStore := tokens.NewRedisUsageStore(r.db.GetRedisClient())
	r.tokenService = tokens.NewService(usageStore, &r.config.Tokens)
	tokenController := tokens.NewController(r.tokenService)

	tokens.SetupTokenRoutes(rg, tokenController,
		middleware.JWTAuthWithConfig(r.config),
		middleware.RequireRoles(middleware.RoleCashier, middleware.RoleAdmin))
}

// setupStationRoutes configures the station/counter directory routes
func (r *Router) setupStationRoutes(rg *gin.RouterGroup) {
	r.stationRepo = stations.NewRepository(r.db.GetPostgreSQL(), r.db.GetRedisClient())
	cacheService := cache.NewService(r.db.GetRedisClient())
	stationService := stations.NewService(r.stationRepo, cacheService)
	stationController := stations.NewController(stationService)

	stations.SetupStationRoutes(rg, stationController)
}

// setupQueueRoutes configures the customer queue and cashier serving routes
func (r *Router) setupQueueRoutes(rg *gin.RouterGroup) {
	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL(), r.db.GetRedisClient())

	notifiedStore := notifications.NewRedisNotifiedStore(r.db.GetRedisClient())
	trigger := notifications.NewTriggerService(ticketRepo, notifiedStore, r.producer, r.config.Queue.NotifyThreshold)

	queueService := tickets.NewQueueService(ticketRepo, r.stationRepo, r.tokenService, trigger, r.config)
	servingService := tickets.NewServingService(ticketRepo, r.stationRepo, trigger)
	queueController := tickets.NewController(queueService, servingService)

	tickets.SetupQueueRoutes(rg, queueController, r.tokenService)
}
