package api

import (
	"fmt"
	"time"

	"recipe-chef/internal/api/handlers/health"
	recipeHandler "recipe-chef/internal/api/handlers/recipe"
	"recipe-chef/internal/api/middleware"
	"recipe-chef/internal/core/ai/cache"
	"recipe-chef/internal/core/ai/huggingface"
	"recipe-chef/internal/core/ai/provider"
	"recipe-chef/internal/core/ai/queue"
	"recipe-chef/internal/core/ai/service"
	"recipe-chef/internal/core/document"
	"recipe-chef/internal/core/nutrition"
	recipeCore "recipe-chef/internal/core/recipe"
	"recipe-chef/internal/infrastructure/config"
	"recipe-chef/internal/infrastructure/metrics"
	"recipe-chef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務，全部在啟動時建立後注入
type Dependencies struct {
	Recipes   recipeHandler.Generator
	Nutrition recipeCore.NutritionLookup
	Renderer  recipeHandler.PDFRenderer
	Tokens    health.TokenReporter // 未啟用營養查詢時為 nil
	Cache     *cache.CacheManager  // 未啟用生成快取時為 nil
	Queue     *queue.Manager
}

// SetupRouter 依設定建立所有服務並設置路由；cacheManager 與 redisClient 可為 nil
func SetupRouter(cfg *config.Config, cacheManager *cache.CacheManager, queueManager *queue.Manager, redisClient *redis.Client) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 模型端點
	hf := huggingface.NewClient(provider.Config{
		APIToken:   cfg.HuggingFace.APIToken,
		BaseURL:    cfg.HuggingFace.BaseURL,
		Timeout:    cfg.HuggingFace.Timeout,
		MaxRetries: cfg.HuggingFace.MaxRetries,
	})
	aiService := service.NewService(
		huggingface.NewTextGenerator(hf, cfg.Generator.Model),
		provider.GenerationParams{
			MaxLength:         cfg.Generator.MaxLength,
			MinLength:         cfg.Generator.MinLength,
			NoRepeatNgramSize: cfg.Generator.NoRepeatNgramSize,
			DoSample:          cfg.Generator.DoSample,
			TopK:              cfg.Generator.TopK,
			TopP:              cfg.Generator.TopP,
		},
		cacheManager,
		queueManager,
	)

	var opts []recipeCore.Option
	if cfg.Classifier.Enabled {
		opts = append(opts, recipeCore.WithClassifier(
			huggingface.NewTextClassifier(hf, cfg.Classifier.Model),
			cfg.Classifier.Threshold,
		))
	}

	// 營養查詢：未啟用時 chain 直接使用估算
	var (
		source   nutrition.FoodSource
		resolver nutrition.IPResolver
		tokens   health.TokenReporter
	)
	if cfg.Nutrition.Enabled {
		client := nutrition.NewClient(cfg.Nutrition)
		source, resolver, tokens = client, client, client
		if redisClient != nil {
			source = nutrition.NewCachedSource(client, redisClient, cfg.Redis.TTL)
		}
	}
	chain := nutrition.NewChain(source, resolver)

	common.LogInfo("Services initialized",
		zap.String("generator_model", cfg.Generator.Model),
		zap.Bool("classifier_enabled", cfg.Classifier.Enabled),
		zap.Bool("nutrition_enabled", cfg.Nutrition.Enabled),
		zap.Bool("nutrition_cache", cfg.Nutrition.Enabled && redisClient != nil),
		zap.Bool("generation_cache", cacheManager != nil),
	)

	return NewRouter(cfg, Dependencies{
		Recipes:   recipeCore.NewService(aiService, chain, opts...),
		Nutrition: chain,
		Renderer:  document.NewRenderer(),
		Tokens:    tokens,
		Cache:     cacheManager,
		Queue:     queueManager,
	})
}

// NewRouter 以已建立的服務設置路由
func NewRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := recipeHandler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.SetHTMLTemplate(recipeHandler.Templates())

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Tokens, deps.Cache, deps.Queue)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	h := recipeHandler.NewHandler(deps.Recipes, deps.Nutrition, deps.Renderer, cfg.App.Debug)

	// 限流只作用於頁面與 API，健康檢查不受影響
	var limited []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limited = append(limited, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	dedup := middleware.Deduplication(cfg.DedupWindow)

	// 網頁
	page := router.Group("/", limited...)
	{
		page.GET("", h.HandleIndex)
		page.POST("", dedup, h.HandleGeneratePage)
		page.POST("/export/pdf", h.HandleExportPDF)
	}

	// API 路由組
	api := router.Group("/api/v1", limited...)
	{
		recipeGroup := api.Group("/recipe")
		{
			recipeGroup.POST("/generate", dedup, h.HandleGenerate)
			recipeGroup.POST("/parse", h.HandleParse)
			recipeGroup.POST("/validate", h.HandleValidate)
			recipeGroup.POST("/pdf", h.HandlePDF)
		}

		api.POST("/nutrition/lookup", h.HandleNutrition)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
