package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/api/swagger"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/authz"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/handler"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/middleware"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/repository"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/service"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/config"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/database"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/logger"
	corsmiddleware "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/middleware/cors"
	reqidmiddleware "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/middleware/requestid"
	rediscache "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/cache"
)

// @title Hospital Publication Tracking API
// @version 1.0.0
// @description Departmental publication tracking, bulk import and statistics
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Statistics.CacheEnabled {
		redisClient, err := rediscache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics caching disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Statistics.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	publicationRepo := repository.NewPublicationRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: cfg.JWT.Expiration,
	})
	userSvc := service.NewUserService(userRepo, departmentRepo, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)
	journalSvc := service.NewJournalService(journalRepo, validate, logr)
	statisticsSvc := service.NewStatisticsService(statisticsRepo, publicationRepo, departmentRepo, cacheSvc, cfg.Statistics.CacheTTL, logr)
	publicationSvc := service.NewPublicationService(publicationRepo, journalRepo, departmentRepo, statisticsSvc, validate, logr)
	importSvc := service.NewImportService(publicationRepo, journalRepo, departmentRepo, userRepo, statisticsSvc, service.ImportConfig{
		MaxFileSizeBytes:  cfg.Import.MaxFileSizeBytes,
		AllowedExtensions: cfg.Import.AllowedExtensions,
		MaxRows:           cfg.Import.MaxRows,
	}, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	journalHandler := handler.NewJournalHandler(journalSvc, importSvc)
	publicationHandler := handler.NewPublicationHandler(publicationSvc, importSvc)
	statisticsHandler := handler.NewStatisticsHandler(statisticsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/validate", middleware.JWT(authSvc), authHandler.Validate)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	users := protected.Group("/users")
	{
		users.GET("", middleware.Authorize(authz.ResourceUsers, authz.ActionRead), userHandler.List)
		users.GET("/:id", middleware.Authorize(authz.ResourceUsers, authz.ActionRead), userHandler.Get)
		users.POST("", middleware.Authorize(authz.ResourceUsers, authz.ActionCreate), userHandler.Create)
		users.PUT("/:id", middleware.Authorize(authz.ResourceUsers, authz.ActionUpdate), userHandler.Update)
		users.DELETE("/:id", middleware.Authorize(authz.ResourceUsers, authz.ActionDelete), userHandler.Delete)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", middleware.Authorize(authz.ResourceDepartments, authz.ActionRead), departmentHandler.List)
		departments.GET("/:id", middleware.Authorize(authz.ResourceDepartments, authz.ActionRead), departmentHandler.Get)
		departments.POST("", middleware.Authorize(authz.ResourceDepartments, authz.ActionCreate), departmentHandler.Create)
		departments.PUT("/:id", middleware.Authorize(authz.ResourceDepartments, authz.ActionUpdate), departmentHandler.Update)
		departments.DELETE("/:id", middleware.Authorize(authz.ResourceDepartments, authz.ActionDelete), departmentHandler.Delete)
	}

	journals := protected.Group("/journals")
	{
		journals.GET("", middleware.Authorize(authz.ResourceJournals, authz.ActionRead), journalHandler.List)
		journals.GET("/:id", middleware.Authorize(authz.ResourceJournals, authz.ActionRead), journalHandler.Get)
		journals.POST("", middleware.Authorize(authz.ResourceJournals, authz.ActionCreate), journalHandler.Create)
		journals.POST("/import", middleware.Authorize(authz.ResourceJournals, authz.ActionImport), journalHandler.Import)
		journals.PUT("/:id", middleware.Authorize(authz.ResourceJournals, authz.ActionUpdate), journalHandler.Update)
		journals.DELETE("/:id", middleware.Authorize(authz.ResourceJournals, authz.ActionDelete), journalHandler.Delete)
	}

	publications := protected.Group("/publications")
	{
		publications.GET("", middleware.Authorize(authz.ResourcePublications, authz.ActionRead), publicationHandler.List)
		publications.GET("/:id", middleware.Authorize(authz.ResourcePublications, authz.ActionRead), publicationHandler.Get)
		publications.POST("", middleware.Authorize(authz.ResourcePublications, authz.ActionCreate), publicationHandler.Create)
		publications.POST("/import", middleware.Authorize(authz.ResourcePublications, authz.ActionImport), publicationHandler.Import)
		publications.PUT("/:id", middleware.Authorize(authz.ResourcePublications, authz.ActionUpdate), publicationHandler.Update)
		publications.DELETE("/:id", middleware.Authorize(authz.ResourcePublications, authz.ActionDelete), publicationHandler.Delete)
	}

	statistics := protected.Group("/statistics")
	{
		statistics.GET("/department", middleware.Authorize(authz.ResourceStatistics, authz.ActionRead), statisticsHandler.Department)
		statistics.GET("/overview", middleware.Authorize(authz.ResourceStatistics, authz.ActionRead), statisticsHandler.Overview)
		statistics.GET("/department/:id/export", middleware.Authorize(authz.ResourceStatistics, authz.ActionExport), statisticsHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
