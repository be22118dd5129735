package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-chef/internal/core/ai/cache"
	"recipe-chef/internal/core/ai/provider"
	"recipe-chef/internal/core/ai/queue"
	"recipe-chef/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	prompts []string
	params  provider.GenerationParams
	out     string
	err     error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, params provider.GenerationParams) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.params = params
	return s.out, s.err
}

func TestService_PassesParamsAndNormalizesPrompt(t *testing.T) {
	gen := &stubGenerator{out: "title: x"}
	params := provider.GenerationParams{MaxLength: 512, MinLength: 64, TopK: 60, TopP: 0.95, DoSample: true}
	svc := NewService(gen, params, nil, nil)

	out, err := svc.Generate(context.Background(), "  items:   rice,\n chicken ")
	require.NoError(t, err)
	assert.Equal(t, "title: x", out)
	assert.Equal(t, []string{"items: rice, chicken"}, gen.prompts)
	assert.Equal(t, params, gen.params)
	assert.Equal(t, params, svc.Params())
}

func TestService_UsesCache(t *testing.T) {
	manager := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour})
	t.Cleanup(func() { _ = manager.Close() })

	gen := &stubGenerator{out: "title: cached"}
	svc := NewService(gen, provider.GenerationParams{}, manager, nil)

	for i := 0; i < 3; i++ {
		out, err := svc.Generate(context.Background(), "items: rice")
		require.NoError(t, err)
		assert.Equal(t, "title: cached", out)
	}
	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, int64(2), manager.GetStats().Hits)
}

func TestService_ErrorsAreNotCached(t *testing.T) {
	manager := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour})
	t.Cleanup(func() { _ = manager.Close() })

	gen := &stubGenerator{err: errors.New("model unavailable")}
	svc := NewService(gen, provider.GenerationParams{}, manager, nil)

	_, err := svc.Generate(context.Background(), "items: rice")
	require.Error(t, err)
	_, err = svc.Generate(context.Background(), "items: rice")
	require.Error(t, err)
	assert.Len(t, gen.prompts, 2)
	assert.Equal(t, 0, manager.GetStats().Size)
}

func TestService_RunsThroughQueue(t *testing.T) {
	q := queue.NewManager(config.QueueConfig{Workers: 1, MaxSize: 4})
	t.Cleanup(q.Close)

	gen := &stubGenerator{out: "title: queued"}
	svc := NewService(gen, provider.GenerationParams{}, nil, q)

	out, err := svc.Generate(context.Background(), "items: rice")
	require.NoError(t, err)
	assert.Equal(t, "title: queued", out)
	assert.Equal(t, 1, q.GetQueueStatus().ProcessedCount)
}
