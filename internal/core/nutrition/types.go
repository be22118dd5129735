package nutrition

import (
	"context"
	"fmt"
)

// Totals 四項營養素加總
type Totals struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbohydrate float64 `json:"carbohydrate"`
	Fat          float64 `json:"fat"`
}

// Add 回傳兩者相加的結果
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories:     t.Calories + o.Calories,
		Protein:      t.Protein + o.Protein,
		Carbohydrate: t.Carbohydrate + o.Carbohydrate,
		Fat:          t.Fat + o.Fat,
	}
}

// Provenance 營養數值的來源
type Provenance string

const (
	ProvenanceExternal Provenance = "external"
	ProvenanceFallback Provenance = "fallback"
)

// FoodSource 單一食材的營養查詢來源
type FoodSource interface {
	Lookup(ctx context.Context, query string) (Totals, error)
}

// Diagnostic 查詢失敗時提供給使用者的結構化提示
type Diagnostic struct {
	Ingredient string `json:"ingredient"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	PublicIP   string `json:"public_ip,omitempty"`
	Hint       string `json:"hint"`
}

// Result 一批食材的營養查詢結果
type Result struct {
	Provenance  Provenance   `json:"provenance"`
	Totals      Totals       `json:"totals"`
	Resolved    int          `json:"resolved"`
	Unresolved  []string     `json:"unresolved"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// FormattedTotals 顯示用字串，不可再做數值運算
type FormattedTotals struct {
	Calories     string `json:"calories"`
	Protein      string `json:"protein"`
	Carbohydrate string `json:"carbohydrate"`
	Fat          string `json:"fat"`
}

// Formatted 外部來源保留一位小數，備援估算不保留小數
func (r Result) Formatted() FormattedTotals {
	precision := 1
	if r.Provenance == ProvenanceFallback {
		precision = 0
	}
	return FormattedTotals{
		Calories:     fmt.Sprintf("%.*f kcal", precision, r.Totals.Calories),
		Protein:      fmt.Sprintf("%.*fg", precision, r.Totals.Protein),
		Carbohydrate: fmt.Sprintf("%.*fg", precision, r.Totals.Carbohydrate),
		Fat:          fmt.Sprintf("%.*fg", precision, r.Totals.Fat),
	}
}
