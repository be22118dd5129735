package recipe

import (
	"strings"
)

// Rule 飲食規則名稱
type Rule string

const (
	RuleNotVegan       Rule = "not vegan"
	RuleContainsGluten Rule = "contains gluten"
)

var (
	nonVeganKeywords = []string{"meat", "beef", "pork", "chicken", "fish", "egg", "milk", "cheese", "butter", "yogurt", "cream"}
	glutenKeywords   = []string{"wheat", "barley", "rye", "bread", "pasta", "flour", "couscous", "farro", "spelt", "breadcrumbs"}
)

// Conflict 食材文字與飲食偏好的衝突
type Conflict struct {
	Keyword string `json:"keyword"`
	Rule    Rule   `json:"rule"`
}

// Message 人類可讀的衝突描述
func (c Conflict) Message() string {
	if c.Rule == RuleNotVegan {
		return capitalize(c.Keyword) + " is not vegan"
	}
	return capitalize(c.Keyword) + " " + string(c.Rule)
}

// Messages 依序轉換為訊息
func Messages(conflicts []Conflict) []string {
	msgs := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		msgs = append(msgs, c.Message())
	}
	return msgs
}

// Validate 以子字串比對檢查食材文字是否違反飲食偏好。
// 規則由偏好標籤包含 "Vegan" 或 "Gluten Free" 觸發，兩者可同時成立；
// 比對不分大小寫且不考慮詞邊界（例如 eggplant 會命中 egg）。
func Validate(text, diet string) []Conflict {
	lowered := strings.ToLower(text)
	conflicts := []Conflict{}

	if strings.Contains(diet, DietVegan) {
		conflicts = appendMatches(conflicts, lowered, nonVeganKeywords, RuleNotVegan)
	}
	if strings.Contains(diet, DietGlutenFree) {
		conflicts = appendMatches(conflicts, lowered, glutenKeywords, RuleContainsGluten)
	}

	return conflicts
}

func appendMatches(conflicts []Conflict, text string, keywords []string, rule Rule) []Conflict {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			conflicts = append(conflicts, Conflict{Keyword: kw, Rule: rule})
		}
	}
	return conflicts
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
