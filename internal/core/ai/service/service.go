package service

import (
	"context"
	"errors"
	"strings"

	"recipe-chef/internal/core/ai/cache"
	"recipe-chef/internal/core/ai/provider"
	"recipe-chef/internal/core/ai/queue"
	"recipe-chef/internal/pkg/common"

	"go.uber.org/zap"
)

const cacheNamespace = "generation"

// Service 生成服務，在模型前加上記憶體緩存與工作隊列
type Service struct {
	generator    provider.Generator
	params       provider.GenerationParams
	cacheManager *cache.CacheManager
	queueManager *queue.Manager
}

// NewService 創建生成服務；cacheManager 與 queueManager 可為 nil
func NewService(generator provider.Generator, params provider.GenerationParams, cacheManager *cache.CacheManager, queueManager *queue.Manager) *Service {
	return &Service{
		generator:    generator,
		params:       params,
		cacheManager: cacheManager,
		queueManager: queueManager,
	}
}

// Params 目前使用的生成參數
func (s *Service) Params() provider.GenerationParams {
	return s.params
}

// Generate 統一 prompt 格式後查緩存，未命中才呼叫模型
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.Join(strings.Fields(prompt), " ")
	key := cache.Key(cacheNamespace, prompt)

	if val, ok := s.cacheManager.Get(key); ok {
		common.LogDebug("使用快取的生成結果", zap.String("prompt", common.Truncate(prompt, 80)))
		return val, nil
	}

	content, err := s.queueManager.Submit(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, prompt, s.params)
	})
	if errors.Is(err, queue.ErrQueueFull) {
		return "", common.ErrServiceUnavailable.Wrap(err)
	}
	if err != nil {
		return "", err
	}

	s.cacheManager.Set(key, content)
	return content, nil
}
