package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-chef/internal/core/ai/cache"
	"recipe-chef/internal/core/ai/queue"
	"recipe-chef/internal/core/nutrition"
	"recipe-chef/internal/infrastructure/config"
	"recipe-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenReporter 回報營養 API 的 token 狀態
type TokenReporter interface {
	TokenState() nutrition.TokenState
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Nutrition NutritionStatus        `json:"nutrition"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// NutritionStatus 營養查詢設定與 token 狀態
type NutritionStatus struct {
	Enabled    bool   `json:"enabled"`
	TokenState string `json:"token_state,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	cfg    *config.Config
	tokens TokenReporter
	cache  *cache.CacheManager
	queue  *queue.Manager
}

// NewHandler 創建健康檢查處理器；除 cfg 外皆可為 nil
func NewHandler(cfg *config.Config, tokens TokenReporter, cacheManager *cache.CacheManager, queueManager *queue.Manager) *Handler {
	return &Handler{
		cfg:    cfg,
		tokens: tokens,
		cache:  cacheManager,
		queue:  queueManager,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Nutrition: NutritionStatus{Enabled: h.tokens != nil},
	}

	if h.tokens != nil {
		response.Nutrition.TokenState = h.tokens.TokenState().String()
	}
	if h.cache != nil {
		stats := h.cache.GetStats()
		response.Cache = &stats
	}
	if h.queue != nil {
		status := h.queue.GetQueueStatus()
		response.Queue = &status
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：必要設定齊全才接受流量
func (h *Handler) ReadinessCheck(c *gin.Context) {
	checks := gin.H{
		"generator_model": h.cfg.Generator.Model != "",
	}
	ready := h.cfg.Generator.Model != ""

	if h.cfg.Nutrition.Enabled {
		ok := h.cfg.Nutrition.ClientID != "" && h.cfg.Nutrition.ClientSecret != ""
		checks["nutrition_credentials"] = ok
		ready = ready && ok
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
