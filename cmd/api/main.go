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

	"recipe-chef/internal/api"
	"recipe-chef/internal/core/ai/cache"
	"recipe-chef/internal/core/ai/queue"
	redisCache "recipe-chef/internal/infrastructure/cache"
	"recipe-chef/internal/infrastructure/config"
	"recipe-chef/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("generator_model", cfg.Generator.Model),
		zap.String("classifier_model", cfg.Classifier.Model),
		zap.String("api_token", cfg.HuggingFace.APIToken),
		zap.Bool("nutrition_enabled", cfg.Nutrition.Enabled),
	)

	// 生成結果快取，未啟用時為 nil
	cacheManager := cache.NewManager(cfg.Cache)
	defer cacheManager.Close()

	// 推論隊列，限制同時對模型端點的請求數
	queueManager := queue.NewManager(cfg.Queue)
	defer queueManager.Close()

	// 營養查詢快取，連線失敗時不使用 Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Nutrition.Enabled {
		redisClient, err = redisCache.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			common.LogWarn("Redis 無法連線，營養查詢不使用快取", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, cacheManager, queueManager, redisClient)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
