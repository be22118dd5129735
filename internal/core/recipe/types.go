package recipe

import (
	"recipe-chef/internal/core/nutrition"
)

// Recipe 由模型輸出解析出的食譜
type Recipe struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"` // 已帶 "1. " 形式的序號
}

// IsEmpty 標題、食材與步驟皆為空
func (r Recipe) IsEmpty() bool {
	return r.Title == "" && len(r.Ingredients) == 0 && len(r.Instructions) == 0
}

// DisplayTitle 無標題時使用預設名稱
func (r Recipe) DisplayTitle() string {
	if r.Title == "" {
		return "Generated Recipe"
	}
	return r.Title
}

// 支援的飲食偏好
const (
	DietNormal     = "Normal"
	DietVegan      = "Vegan"
	DietGlutenFree = "Gluten Free"
	DietLowCarb    = "Low Carb"
	DietVegetarian = "Vegetarian"
	DietDairyFree  = "Dairy Free"
)

// DietOptions 表單與 API 接受的飲食偏好，順序即顯示順序
var DietOptions = []string{DietNormal, DietVegan, DietGlutenFree, DietLowCarb, DietVegetarian, DietDairyFree}

// IsKnownDiet 檢查飲食偏好是否受支援
func IsKnownDiet(diet string) bool {
	for _, d := range DietOptions {
		if d == diet {
			return true
		}
	}
	return false
}

// Request 食譜生成請求
type Request struct {
	Ingredients string `json:"ingredients"` // 以逗號分隔的食材
	Diet        string `json:"diet"`
}

// Result 一次完整生成流程的結果
type Result struct {
	Recipe    Recipe           `json:"recipe"`
	RawText   string           `json:"raw_text"`
	Diet      string           `json:"diet"`
	Conflicts []Conflict       `json:"conflicts"`
	Warnings  []string         `json:"warnings"`
	Nutrition nutrition.Result `json:"nutrition"`
	ChefTip   string           `json:"chef_tip"`
}
