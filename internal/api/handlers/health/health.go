package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-customizer/internal/core/cache"
	"recipe-customizer/internal/core/narrator"
	"recipe-customizer/internal/infrastructure/config"
	"recipe-customizer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可回報連線狀態的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Queue     *narrator.Status       `json:"queue,omitempty"`
}

// QueueReporter 可回報隊列狀態的依賴
type QueueReporter interface {
	Status() narrator.Status
}

// IndexResponse 根路由回應
type IndexResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// Endpoints 對外公開的路由
var Endpoints = []string{
	"GET /api/recipes/search?query=",
	"GET /api/recipes/:id",
	"POST /api/customize/",
	"GET /health",
	"GET /ready",
	"GET /live",
}

// Index 服務資訊
func Index(c *gin.Context) {
	cfg, ok := configFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, IndexResponse{
		Name:      cfg.App.Name,
		Version:   cfg.App.Version,
		Status:    "running",
		Endpoints: Endpoints,
	})
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	cfg, ok := configFrom(c)
	if !ok {
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if v, exists := c.Get("cache"); exists {
		if store, ok := v.(cache.Store); ok && store != nil {
			response.Cache = store.Stats()
		}
	}

	// 摘要改寫隊列狀態
	if v, exists := c.Get("narrator"); exists {
		if q, ok := v.(QueueReporter); ok && q != nil {
			status := q.Status()
			response.Queue = &status
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 檢查食譜來源與快取後端是否可用
func ReadinessCheck(c *gin.Context) {
	checks := gin.H{}
	ready := true
	for _, name := range []string{"catalog", "cache"} {
		v, exists := c.Get(name)
		if !exists {
			continue
		}
		p, ok := v.(Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(c.Request.Context()); err != nil {
			common.LogWarn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func configFrom(c *gin.Context) (*config.Config, bool) {
	v, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Code: common.ErrCodeInternalError, Message: "configuration not found"})
		return nil, false
	}
	cfg, ok := v.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Code: common.ErrCodeInternalError, Message: "invalid configuration type"})
		return nil, false
	}
	return cfg, true
}
