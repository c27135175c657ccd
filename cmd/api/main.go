package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lostfound-id/lostfound-api/api/swagger"
	"github.com/lostfound-id/lostfound-api/internal/handler"
	"github.com/lostfound-id/lostfound-api/internal/middleware"
	"github.com/lostfound-id/lostfound-api/internal/models"
	"github.com/lostfound-id/lostfound-api/internal/repository"
	"github.com/lostfound-id/lostfound-api/internal/service"
	"github.com/lostfound-id/lostfound-api/pkg/cache"
	"github.com/lostfound-id/lostfound-api/pkg/config"
	"github.com/lostfound-id/lostfound-api/pkg/database"
	"github.com/lostfound-id/lostfound-api/pkg/logger"
	corsmiddleware "github.com/lostfound-id/lostfound-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lostfound-id/lostfound-api/pkg/middleware/requestid"
	"github.com/lostfound-id/lostfound-api/pkg/storage"
)

// @title Lost & Found API
// @version 1.0.0
// @description Campus lost-and-found listing service
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	photos, err := storage.NewPhotoStorage(cfg.Uploads.Dir, cfg.Uploads.BaseURL, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedExtensions)
	if err != nil {
		logr.Sugar().Fatalw("failed to init photo storage", "error", err)
	}

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Items.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, listing cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Items.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	itemRepo := repository.NewItemRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	itemService := service.NewItemService(itemRepo, categoryRepo, photos, cacheService, validate, logr, cfg.Items.OwnerlessWritable)
	categoryService := service.NewCategoryService(categoryRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authService)
	itemHandler := handler.NewItemHandler(itemService)
	categoryHandler := handler.NewCategoryHandler(categoryService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.Static("/uploads", photos.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	items := api.Group("/items")
	{
		items.GET("", middleware.OptionalJWT(authService), itemHandler.List)
		items.GET("/history", middleware.JWT(authService), itemHandler.History)
		items.GET("/export", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin), itemHandler.Export)
		items.GET("/:id", middleware.OptionalJWT(authService), itemHandler.Get)
		items.POST("", middleware.JWT(authService), itemHandler.Create)
		items.PATCH("/:id", middleware.JWT(authService), itemHandler.Update)
		items.DELETE("/:id", middleware.JWT(authService), itemHandler.Delete)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryHandler.List)
		categories.GET("/:id", categoryHandler.Get)
		categories.POST("", middleware.JWT(authService), categoryHandler.Create)
		categories.PATCH("/:id", middleware.JWT(authService), categoryHandler.Update)
		categories.DELETE("/:id", middleware.JWT(authService), categoryHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
