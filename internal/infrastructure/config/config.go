package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Classifier  ClassifierConfig  `mapstructure:"classifier"`
	Nutrition   NutritionConfig   `mapstructure:"nutrition"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Redis       RedisConfig       `mapstructure:"redis"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
	LogFile     string            `mapstructure:"log_file"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// HuggingFaceConfig 模型推論端點設定
type HuggingFaceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIToken   string        `mapstructure:"api_token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// GeneratorConfig 食譜生成模型與生成參數（原樣傳給模型）
type GeneratorConfig struct {
	Model             string  `mapstructure:"model"`
	MaxLength         int     `mapstructure:"max_length"`
	MinLength         int     `mapstructure:"min_length"`
	NoRepeatNgramSize int     `mapstructure:"no_repeat_ngram_size"`
	DoSample          bool    `mapstructure:"do_sample"`
	TopK              int     `mapstructure:"top_k"`
	TopP              float64 `mapstructure:"top_p"`
}

// ClassifierConfig 飲食限制分類模型設定
type ClassifierConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Model     string  `mapstructure:"model"`
	Threshold float64 `mapstructure:"threshold"`
}

// NutritionConfig FatSecret 營養查詢設定
type NutritionConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ClientID        string        `mapstructure:"client_id"`
	ClientSecret    string        `mapstructure:"client_secret"`
	Scope           string        `mapstructure:"scope"`
	TokenURL        string        `mapstructure:"token_url"`
	APIURL          string        `mapstructure:"api_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryWait       time.Duration `mapstructure:"retry_wait"`
	RetryMaxWait    time.Duration `mapstructure:"retry_max_wait"`
	ExpiryMargin    time.Duration `mapstructure:"expiry_margin"`
	MaxResults      int           `mapstructure:"max_results"`
	IPLookupURL     string        `mapstructure:"ip_lookup_url"`
	IPLookupTimeout time.Duration `mapstructure:"ip_lookup_timeout"`
}

// CacheConfig 生成結果緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 模型推論的工作隊列
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RedisConfig 營養查詢結果的 Redis 緩存
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MetricsConfig Prometheus 指標設定
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 載入設定：.env（可選）→ 預設值 → 環境變數
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用的環境變量別名
	bindings := map[string]string{
		"huggingface.api_token":   "HF_API_TOKEN",
		"huggingface.base_url":    "HF_BASE_URL",
		"generator.model":         "GENERATOR_MODEL",
		"classifier.model":        "CLASSIFIER_MODEL",
		"classifier.enabled":      "CLASSIFIER_ENABLED",
		"nutrition.enabled":       "NUTRITION_ENABLED",
		"nutrition.client_id":     "FATSECRET_CLIENT_ID",
		"nutrition.client_secret": "FATSECRET_CLIENT_SECRET",
		"cache.enabled":           "CACHE_ENABLED",
		"redis.enabled":           "REDIS_ENABLED",
		"redis.url":               "REDIS_URL",
		"redis.addr":              "REDIS_ADDR",
		"redis.password":          "REDIS_PASSWORD",
		"queue.workers":           "QUEUE_WORKERS",
		"rate_limit.enabled":      "RATE_LIMIT_ENABLED",
		"rate_limit.requests":     "RATE_LIMIT_REQUESTS",
		"rate_limit.window":       "RATE_LIMIT_WINDOW",
		"dedup_window":            "DEDUP_WINDOW",
		"log_level":               "LOG_LEVEL",
		"server.port":             "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fmt.Println("Loading configuration",
		"generator_model:", config.Generator.Model,
		"hf_api_token:", MaskSecret(config.HuggingFace.APIToken),
		"fatsecret_client_id:", MaskSecret(config.Nutrition.ClientID),
	)

	return &config, nil
}

// MaskSecret 遮罩憑證，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-chef")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 模型推論端點
	v.SetDefault("huggingface.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("huggingface.timeout", "90s")
	v.SetDefault("huggingface.max_retries", 2)

	// 生成參數
	v.SetDefault("generator.model", "flax-community/t5-recipe-generation")
	v.SetDefault("generator.max_length", 512)
	v.SetDefault("generator.min_length", 64)
	v.SetDefault("generator.no_repeat_ngram_size", 3)
	v.SetDefault("generator.do_sample", true)
	v.SetDefault("generator.top_k", 60)
	v.SetDefault("generator.top_p", 0.95)

	// 分類模型
	v.SetDefault("classifier.enabled", true)
	v.SetDefault("classifier.model", "bert-base-uncased")
	v.SetDefault("classifier.threshold", 0.7)

	// 營養查詢
	v.SetDefault("nutrition.enabled", false)
	v.SetDefault("nutrition.scope", "basic")
	v.SetDefault("nutrition.token_url", "https://oauth.fatsecret.com/connect/token")
	v.SetDefault("nutrition.api_url", "https://platform.fatsecret.com/rest/server.api")
	v.SetDefault("nutrition.timeout", "10s")
	v.SetDefault("nutrition.max_retries", 2)
	v.SetDefault("nutrition.retry_wait", "200ms")
	v.SetDefault("nutrition.retry_max_wait", "2s")
	v.SetDefault("nutrition.expiry_margin", "5m")
	v.SetDefault("nutrition.max_results", 1)
	v.SetDefault("nutrition.ip_lookup_url", "https://api.ipify.org?format=json")
	v.SetDefault("nutrition.ip_lookup_timeout", "5s")

	// 快取設定
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "168h")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	// 指標
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "logs/app.log")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid server request timeout")
	}

	if config.Generator.Model == "" {
		return fmt.Errorf("generator model is required")
	}
	if config.Generator.MinLength > config.Generator.MaxLength {
		return fmt.Errorf("generator min_length must not exceed max_length")
	}
	if config.Generator.TopP < 0 || config.Generator.TopP > 1 {
		return fmt.Errorf("generator top_p must be within [0, 1]")
	}

	if config.Classifier.Enabled && (config.Classifier.Threshold < 0 || config.Classifier.Threshold > 1) {
		return fmt.Errorf("classifier threshold must be within [0, 1]")
	}

	if config.Nutrition.Enabled {
		if config.Nutrition.ClientID == "" || config.Nutrition.ClientSecret == "" {
			return fmt.Errorf("fatsecret client id and secret are required when nutrition is enabled")
		}
		if config.Nutrition.Timeout <= 0 {
			return fmt.Errorf("invalid nutrition timeout")
		}
		if config.Nutrition.MaxRetries < 0 {
			return fmt.Errorf("invalid nutrition max retries")
		}
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	return nil
}
