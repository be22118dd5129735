package nutrition

import (
	"context"
	"strings"
	"time"

	"recipe-chef/internal/infrastructure/metrics"
	"recipe-chef/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "nutrition:food:"

// CachedSource 以 Redis 緩存成功查到的食材營養值
type CachedSource struct {
	next   FoodSource
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSource 包裝 next；Redis 錯誤時直接退回 next
func NewCachedSource(next FoodSource, client *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

// Lookup 先查 Redis，未命中才呼叫外部來源
func (s *CachedSource) Lookup(ctx context.Context, query string) (Totals, error) {
	key := cacheKey(query)

	cached, err := s.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var totals Totals
		if jsonErr := common.ParseJSON(cached, &totals); jsonErr == nil {
			common.LogCacheHit("nutrition")
			metrics.ObserveIngredientLookup("cached")
			return totals, nil
		}
		common.LogWarn("營養緩存資料損毀", zap.String("key", key))
	case err == redis.Nil:
		common.LogCacheMiss("nutrition")
	default:
		common.LogWarn("讀取營養緩存失敗", zap.String("key", key), zap.Error(err))
	}

	totals, err := s.next.Lookup(ctx, query)
	if err != nil {
		return Totals{}, err
	}

	if data, jsonErr := common.ToJSON(totals); jsonErr == nil {
		if setErr := s.client.Set(ctx, key, data, s.ttl).Err(); setErr != nil {
			common.LogWarn("寫入營養緩存失敗", zap.String("key", key), zap.Error(setErr))
		}
	}
	return totals, nil
}

func cacheKey(query string) string {
	return cacheKeyPrefix + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
