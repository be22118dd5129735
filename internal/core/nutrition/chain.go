package nutrition

import (
	"context"
	"errors"
	"strings"

	"recipe-chef/internal/infrastructure/metrics"
	"recipe-chef/internal/pkg/common"

	"go.uber.org/zap"
)

const originRejectedHint = "Add this server's public IP address to the allowed IP list of your FatSecret Platform application."

// IPResolver 查詢對外 IP
type IPResolver interface {
	PublicIP(ctx context.Context) (string, error)
}

// Chain 逐一查詢外部來源，全部失敗時改用靜態估算
type Chain struct {
	source   FoodSource
	resolver IPResolver
}

// NewChain 創建查詢鏈；source 為 nil 時一律使用估算
func NewChain(source FoodSource, resolver IPResolver) *Chain {
	return &Chain{
		source:   source,
		resolver: resolver,
	}
}

// Lookup 依序查詢每個食材。只要有一個成功就回傳外部加總（未解析的食材貢獻為零），
// 否則整批改用 Estimate。此方法不回傳錯誤。
func (c *Chain) Lookup(ctx context.Context, ingredients []string) Result {
	result := Result{Unresolved: []string{}}
	var external Totals
	var publicIP string
	ipResolved := false

	for _, ingredient := range ingredients {
		query := strings.ToLower(strings.TrimSpace(ingredient))
		if query == "" {
			continue
		}

		if c.source == nil || ctx.Err() != nil {
			result.Unresolved = append(result.Unresolved, query)
			continue
		}

		totals, err := c.source.Lookup(ctx, query)
		if err != nil {
			metrics.ObserveIngredientLookup("unresolved")
			result.Unresolved = append(result.Unresolved, query)

			var rejected *OriginRejectedError
			if errors.As(err, &rejected) {
				if !ipResolved {
					publicIP = c.publicIP(ctx)
					ipResolved = true
				}
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Ingredient: query,
					Code:       originRejectedCode,
					Message:    rejected.Message,
					PublicIP:   publicIP,
					Hint:       originRejectedHint,
				})
				common.LogWarn("營養 API 拒絕呼叫來源",
					zap.String("ingredient", query),
					zap.String("public_ip", publicIP),
				)
				continue
			}

			common.LogWarn("營養查詢失敗，略過食材", zap.String("ingredient", query), zap.Error(err))
			continue
		}

		metrics.ObserveIngredientLookup("resolved")
		external = external.Add(totals)
		result.Resolved++
	}

	if result.Resolved == 0 {
		result.Provenance = ProvenanceFallback
		result.Totals = Estimate(ingredients)
		common.LogInfo("營養查詢改用靜態估算", zap.Int("unresolved", len(result.Unresolved)))
	} else {
		result.Provenance = ProvenanceExternal
		result.Totals = external
	}

	metrics.ObserveNutritionBatch(string(result.Provenance))
	return result
}

func (c *Chain) publicIP(ctx context.Context) string {
	if c.resolver == nil {
		return ""
	}
	ip, err := c.resolver.PublicIP(ctx)
	if err != nil {
		common.LogWarn("無法取得對外 IP", zap.Error(err))
		return ""
	}
	return ip
}
