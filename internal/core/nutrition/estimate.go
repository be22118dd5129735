package nutrition

import (
	"strings"
	"unicode"
)

type estimateEntry struct {
	keyword string
	// word 為 true 時只比對完整單字（允許 s/es 複數）
	word   bool
	totals Totals
}

var (
	chickenTotals = Totals{Calories: 165, Protein: 31, Carbohydrate: 0, Fat: 3.6}
	riceTotals    = Totals{Calories: 130, Protein: 2.7, Carbohydrate: 28, Fat: 0.3}
	tomatoTotals  = Totals{Calories: 18, Protein: 0.9, Carbohydrate: 3.9, Fat: 0.2}
	onionTotals   = Totals{Calories: 40, Protein: 1.1, Carbohydrate: 9.3, Fat: 0.1}
	oilTotals     = Totals{Calories: 120, Protein: 0, Carbohydrate: 0, Fat: 14}
)

// 靜態估算表，西文關鍵字與英文同義詞共用數值。
// 西文關鍵字沿用子字串比對；英文同義詞較短，避免 "boiling"、"licorice" 這類誤判，改比對完整單字。
var estimateTable = []estimateEntry{
	{keyword: "pollo", totals: chickenTotals},
	{keyword: "arroz", totals: riceTotals},
	{keyword: "tomate", totals: tomatoTotals},
	{keyword: "cebolla", totals: onionTotals},
	{keyword: "aceite", totals: oilTotals},
	{keyword: "chicken", word: true, totals: chickenTotals},
	{keyword: "rice", word: true, totals: riceTotals},
	{keyword: "tomato", word: true, totals: tomatoTotals},
	{keyword: "onion", word: true, totals: onionTotals},
	{keyword: "oil", word: true, totals: oilTotals},
}

// Estimate 以靜態表估算營養，每個關鍵字對同一食材最多計一次
func Estimate(ingredients []string) Totals {
	var total Totals
	for _, ingredient := range ingredients {
		ingredient = strings.ToLower(strings.TrimSpace(ingredient))
		if ingredient == "" {
			continue
		}
		words := strings.FieldsFunc(ingredient, func(r rune) bool { return !unicode.IsLetter(r) })
		for _, entry := range estimateTable {
			if entry.matches(ingredient, words) {
				total = total.Add(entry.totals)
			}
		}
	}
	return total
}

func (e estimateEntry) matches(ingredient string, words []string) bool {
	if !e.word {
		return strings.Contains(ingredient, e.keyword)
	}
	for _, w := range words {
		if w == e.keyword || w == e.keyword+"s" || w == e.keyword+"es" {
			return true
		}
	}
	return false
}
