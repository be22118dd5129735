package document

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"recipe-chef/internal/core/recipe"
	"recipe-chef/internal/pkg/common"

	"github.com/go-pdf/fpdf"
)

// ErrNothingToRender 食譜沒有任何內容
var ErrNothingToRender = errors.New("recipe has no content to render")

const (
	pageMargin   = 15.0
	footerHeight = 20.0

	// 每行食材的字元上限
	ingredientBudget = 90

	footerText = "Generated by Recipe Chef"
)

// Renderer 將食譜排版為 A4 PDF
type Renderer struct {
	compress bool
}

// NewRenderer 創建 PDF 排版器
func NewRenderer() *Renderer {
	return &Renderer{compress: true}
}

// Render 產生 PDF；食譜為空時回傳 ErrNothingToRender 且不產生任何位元組
func (r *Renderer) Render(rec recipe.Recipe, tip string) ([]byte, error) {
	pdf, err := r.layout(rec, tip)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// layout 依序放置區塊；放不下時可拆的區塊在行間拆開，其餘整塊移到下一頁
func (r *Renderer) layout(rec recipe.Recipe, tip string) (*fpdf.Fpdf, error) {
	if rec.IsEmpty() {
		return nil, ErrNothingToRender
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(latin1(rec.DisplayTitle()), true)
	pdf.SetCreator("recipe-chef", false)

	cv := &canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		cv.font("I", 10, colorPrimary)
		pdf.CellFormat(0, 10, cv.tr(footerText), "", 0, "C", false, 0, "")
	})

	pageWidth, pageHeight := pdf.GetPageSize()
	width := pageWidth - 2*pageMargin
	bottom := pageHeight - footerHeight

	pdf.AddPage()
	y := pageMargin
	pending := buildBlocks(rec, tip)
	for len(pending) > 0 {
		b := pending[0]
		pending = pending[1:]

		h := b.height(cv, width)
		if y+h > bottom {
			// 多行區塊先填滿本頁，剩餘行數接到下一頁
			if s, ok := b.(splitter); ok {
				if head, tail, ok := s.split(cv, width, bottom-y); ok {
					head.draw(cv, pageMargin, y, width)
					pdf.AddPage()
					y = pageMargin
					pending = append([]block{tail}, pending...)
					continue
				}
			}
			if y > pageMargin {
				pdf.AddPage()
				y = pageMargin
				pending = append([]block{b}, pending...)
				continue
			}
		}
		b.draw(cv, pageMargin, y, width)
		y += h
		if k, ok := b.(keeper); ok {
			y -= k.keepWithNext()
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out pdf: %w", err)
	}
	return pdf, nil
}

// buildBlocks 將食譜轉為垂直排列的區塊
func buildBlocks(rec recipe.Recipe, tip string) []block {
	blocks := []block{
		heading{text: latin1(rec.DisplayTitle()), size: 24, line: 15, after: 2, align: "C"},
		rule{before: 4, after: 10},
	}

	if len(rec.Ingredients) > 0 {
		blocks = append(blocks, heading{text: "Ingredients", size: 18, line: 10, after: 4, keep: itemLine + itemGap, align: "L"})
		for _, item := range rec.Ingredients {
			blocks = append(blocks, listItem{text: common.Truncate(latin1(item), ingredientBudget)})
		}
	}

	if len(rec.Instructions) > 0 {
		if len(rec.Ingredients) > 0 {
			blocks = append(blocks, rule{before: 6, after: 10})
		}
		blocks = append(blocks, heading{text: "Preparation", size: 18, line: 10, after: 4, keep: stepLine + stepGap, align: "L"})
		for i, instruction := range rec.Instructions {
			blocks = append(blocks, step{
				number: strconv.Itoa(i+1) + ".",
				text:   latin1(recipe.StripOrdinal(instruction)),
			})
		}
	}

	if tip = strings.TrimSpace(tip); tip != "" {
		blocks = append(blocks, callout{title: "Chef's Tip", text: latin1(tip)})
	}
	return blocks
}

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-",
	"…", "...", "•", "-",
	"\u00a0", " ",
)

// latin1 將文字限制在核心字型可量測的 Latin-1 範圍
func latin1(s string) string {
	s = typographic.Replace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r < 0x20:
			return -1
		case r >= 0x80 && r < 0xa0, r > 0xff:
			return '?'
		default:
			return r
		}
	}, s)
}

var fileNameUnsafe = strings.NewReplacer(" ", "_", "/", "_", `\`, "_", `"`, "", "\r", "", "\n", "")

// FileName 以標題命名下載檔案，空白換成底線；無標題時為 recipe.pdf
func FileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "recipe.pdf"
	}
	return fileNameUnsafe.Replace(title) + ".pdf"
}
