package recipe

import (
	"strconv"
	"strings"
)

// 模型輸出的區段標記（不分大小寫）
const (
	markerTitle       = "title:"
	markerIngredients = "ingredients:"
	markerDirections  = "directions:"

	itemDelimiter = "--"
)

// Parse 將模型輸出切分為標題、食材與步驟。
// 缺少的區段留空，不回傳錯誤。
func Parse(raw string) Recipe {
	var r Recipe

	if i := indexFold(raw, markerTitle, 0); i >= 0 {
		rest := raw[i+len(markerTitle):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		r.Title = strings.TrimSpace(rest)
	}

	if i := indexFold(raw, markerIngredients, 0); i >= 0 {
		start := i + len(markerIngredients)
		end := len(raw)
		if j := indexFold(raw, markerDirections, start); j >= 0 {
			end = j
		}
		r.Ingredients = splitItems(raw[start:end])
	}

	if i := indexFold(raw, markerDirections, 0); i >= 0 {
		steps := splitItems(raw[i+len(markerDirections):])
		if len(steps) > 0 {
			r.Instructions = make([]string, len(steps))
			for n, step := range steps {
				r.Instructions[n] = strconv.Itoa(n+1) + ". " + step
			}
		}
	}

	return r
}

// StripOrdinal 去除步驟前綴的 "N." 與其後空白
func StripOrdinal(step string) string {
	i := 0
	for i < len(step) && step[i] >= '0' && step[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(step) || step[i] != '.' {
		return step
	}
	return strings.TrimLeft(step[i+1:], " \t\r\n")
}

// splitItems 以 "--" 切分，去除前後的連字號與空白並丟棄空項目
func splitItems(section string) []string {
	var items []string
	for _, piece := range strings.Split(section, itemDelimiter) {
		if piece = strings.Trim(piece, "- \t\r\n"); piece != "" {
			items = append(items, piece)
		}
	}
	return items
}

// indexFold 從 from 開始尋找 ASCII 標記，大小寫不敏感
func indexFold(s, marker string, from int) int {
	n := len(marker)
	for i := from; i+n <= len(s); i++ {
		if asciiEqualFold(s[i:i+n], marker) {
			return i
		}
	}
	return -1
}

func asciiEqualFold(a, b string) bool {
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
