package api

import (
	"context"
	"net/http"
	"time"

	"recipe-customizer/internal/api/handlers/customize"
	"recipe-customizer/internal/api/handlers/health"
	recipeHandler "recipe-customizer/internal/api/handlers/recipe"
	"recipe-customizer/internal/api/middleware"
	"recipe-customizer/internal/core/cache"
	"recipe-customizer/internal/core/catalog"
	customizeService "recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/infrastructure/config"
	"recipe-customizer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由使用的服務
type Dependencies struct {
	Catalog   catalog.Store
	Customize *customizeService.Service
	Cache     cache.Store
	Narrator  health.QueueReporter
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// requestid 需在 Logger 之前，日誌才能取得請求 ID
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Session-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	timeout := cfg.Server.RequestTimeout
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("catalog", deps.Catalog)
		if deps.Cache != nil {
			c.Set("cache", deps.Cache)
		}
		if deps.Narrator != nil {
			c.Set("narrator", deps.Narrator)
		}

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: common.ErrGatewayTimeout.Message,
			})
		}
	})

	router.GET("/", health.Index)
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	recipes := recipeHandler.NewHandler(deps.Catalog, cfg.App.Debug)
	customizer := customize.NewHandler(deps.Customize, cfg.App.Debug)

	api := router.Group("/api")
	{
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("/search", recipes.Search)
			recipeGroup.GET("/:id", recipes.Get)
		}

		customizeChain := []gin.HandlerFunc{middleware.Deduplication(middleware.NewDeduplicator(cfg.DedupWindow))}
		if cfg.RateLimit.Enabled {
			customizeChain = append(customizeChain, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
		}
		customizeChain = append(customizeChain, customizer.Customize)
		api.POST("/customize/", customizeChain...)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("cache_enabled", deps.Cache != nil),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
