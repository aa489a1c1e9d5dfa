package main

import (
	"context"
	"os"

	"github.com/bugboard/api/internal/cache"
	"github.com/bugboard/api/internal/config"
	"github.com/bugboard/api/internal/database"
	"github.com/bugboard/api/internal/handler"
	"github.com/bugboard/api/internal/middleware"
	"github.com/bugboard/api/internal/notify"
	"github.com/bugboard/api/internal/service"
	"github.com/bugboard/api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis cache
	var redisCache *cache.RedisCache
	redisCache, err = cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Warnf("Failed to connect to Redis: %v", err)
		// Continue without Redis cache (fail-open)
		redisCache = nil
	}

	// Notification pipeline: SMTP transport -> dispatcher -> background worker
	transport := notify.NewSMTPTransport(cfg)
	dispatcher := notify.NewDispatcher(transport, db, cfg.NotifyTimeout)
	worker := notify.NewWorker(dispatcher, cfg.NotifyQueueSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)
	defer worker.Stop()

	// Stores and services
	bugStore := store.NewBugStore(db)
	userStore := store.NewUserStore(db)
	bugService := service.NewBugService(bugStore, worker, redisCache, cfg.NotifyScope)

	// Handlers
	authHandler := handler.NewAuthHandler(userStore, cfg.JWTSecret)
	bugHandler := handler.NewBugHandler(bugService)
	statsHandler := handler.NewStatsHandler(bugService)

	// Setup router
	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Auth
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.RefreshToken)
		api.POST("/auth/logout", authHandler.Logout)

		// Public reads (dashboard and chart feed)
		api.GET("/bugs", bugHandler.List)
		api.GET("/bugs/:id", bugHandler.Get)
		api.GET("/stats/categories", statsHandler.Categories)

		// Dispatch worker status
		api.GET("/notifications/status", func(c *gin.Context) {
			c.JSON(200, worker.GetStatus())
		})

		// Authenticated operations
		authed := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
		{
			authed.GET("/auth/me", authHandler.Me)
			authed.POST("/auth/password", authHandler.ChangePassword)

			authed.POST("/bugs", bugHandler.Submit)
			authed.PUT("/bugs/:id/status", bugHandler.UpdateStatus)
			authed.DELETE("/bugs/:id", bugHandler.Close)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Infof("API server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
