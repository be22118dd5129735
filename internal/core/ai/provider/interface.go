package provider

import (
	"context"
	"time"
)

// GenerationParams 生成參數，原樣傳給模型
type GenerationParams struct {
	MaxLength         int     `json:"max_length,omitempty"`
	MinLength         int     `json:"min_length,omitempty"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size,omitempty"`
	DoSample          bool    `json:"do_sample"`
	TopK              int     `json:"top_k,omitempty"`
	TopP              float64 `json:"top_p,omitempty"`
}

// Label 分類結果
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Generator 文字生成模型
type Generator interface {
	// Generate 依 prompt 生成文字
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Classifier 文字分類模型
type Classifier interface {
	// Classify 回傳依分數由高到低排序的標籤
	Classify(ctx context.Context, text string) ([]Label, error)
}

// Config 定義模型端點配置
type Config struct {
	APIToken   string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}
