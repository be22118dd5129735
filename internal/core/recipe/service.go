package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-chef/internal/core/ai/provider"
	"recipe-chef/internal/core/nutrition"
	"recipe-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultConfidenceThreshold 飲食偏好分類的最低信心分數
const DefaultConfidenceThreshold = 0.7

// TextGenerator 依 prompt 生成食譜原文
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NutritionLookup 批次營養查詢
type NutritionLookup interface {
	Lookup(ctx context.Context, ingredients []string) nutrition.Result
}

// Service 食譜生成流程：分類 → 生成 → 解析 → 驗證 → 營養查詢
type Service struct {
	generator  TextGenerator
	classifier provider.Classifier
	nutrition  NutritionLookup
	threshold  float64
	tip        func() string
}

// Option 設定 Service 的可選依賴
type Option func(*Service)

// WithClassifier 啟用飲食偏好信心檢查
func WithClassifier(classifier provider.Classifier, threshold float64) Option {
	return func(s *Service) {
		s.classifier = classifier
		s.threshold = threshold
	}
}

// WithTipPicker 替換小撇步來源
func WithTipPicker(pick func() string) Option {
	return func(s *Service) {
		s.tip = pick
	}
}

// NewService 創建食譜服務
func NewService(generator TextGenerator, lookup NutritionLookup, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		nutrition: lookup,
		threshold: DefaultConfidenceThreshold,
		tip:       RandomChefTip,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPrompt 生成模型的輸入格式
func BuildPrompt(items []string) string {
	return "items: " + strings.Join(items, ", ")
}

// Generate 執行完整流程。生成失敗時回傳錯誤；分類與營養查詢失敗不影響結果。
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	items := common.SplitList(req.Ingredients)
	if len(items) == 0 {
		return nil, common.NewValidationError("Please enter at least one ingredient")
	}

	result := &Result{
		Diet:      req.Diet,
		Conflicts: []Conflict{},
		Warnings:  []string{},
	}

	if warning := s.checkDiet(ctx, req.Diet); warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	raw, err := s.generator.Generate(ctx, BuildPrompt(items))
	if err != nil {
		common.LogError("食譜生成失敗", zap.Strings("ingredients", items), zap.Error(err))
		// 已分類的錯誤（例如隊列已滿）保留原本的狀態碼
		var custom *common.CustomError
		if errors.As(err, &custom) {
			return nil, err
		}
		return nil, common.ErrGenerationFailed.Wrap(err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, common.ErrEmptyGeneration
	}

	result.RawText = raw
	result.Recipe = Parse(raw)

	// 解析不到食材時改以使用者輸入做檢查與查詢
	checked := result.Recipe.Ingredients
	if len(checked) == 0 {
		checked = items
	}
	result.Conflicts = Validate(strings.Join(checked, ", "), req.Diet)
	if s.nutrition != nil {
		result.Nutrition = s.nutrition.Lookup(ctx, checked)
	}
	result.ChefTip = s.tip()

	common.LogInfo("食譜生成完成",
		zap.String("title", result.Recipe.Title),
		zap.Int("ingredients", len(result.Recipe.Ingredients)),
		zap.Int("steps", len(result.Recipe.Instructions)),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.String("nutrition", string(result.Nutrition.Provenance)),
	)
	return result, nil
}

// checkDiet 最高分標籤低於門檻時回傳警告
func (s *Service) checkDiet(ctx context.Context, diet string) string {
	if s.classifier == nil || strings.TrimSpace(diet) == "" {
		return ""
	}

	labels, err := s.classifier.Classify(ctx, diet)
	if err != nil {
		common.LogWarn("飲食偏好分類失敗，略過信心檢查", zap.String("diet", diet), zap.Error(err))
		return ""
	}
	if len(labels) == 0 {
		return ""
	}

	if top := labels[0]; top.Score < s.threshold {
		common.LogDebug("飲食偏好信心不足",
			zap.String("diet", diet),
			zap.String("label", top.Label),
			zap.Float64("score", top.Score),
		)
		return LowConfidenceWarning(diet)
	}
	return ""
}

// LowConfidenceWarning 飲食偏好可能定義不清的提示
func LowConfidenceWarning(diet string) string {
	return fmt.Sprintf("The restriction '%s' may not be well defined", diet)
}
