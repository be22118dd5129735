package document

import (
	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var (
	colorPrimary = rgb{55, 113, 177}
	colorDark    = rgb{52, 59, 27}
	colorAccent  = rgb{198, 214, 155}
	colorText    = rgb{0, 0, 0}
)

const fontFamily = "Times"

// canvas 繪製目標，文字輸出前轉為 cp1252
type canvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (cv *canvas) font(style string, size float64, col rgb) {
	cv.pdf.SetFont(fontFamily, style, size)
	cv.pdf.SetTextColor(col.r, col.g, col.b)
}

func (cv *canvas) cell(x, y, w, h float64, text, align string) {
	cv.pdf.SetXY(x, y)
	cv.pdf.CellFormat(w, h, cv.tr(text), "", 0, align, false, 0, "")
}

// wrap 以目前字型將文字切成不超過 width 的多行
func (cv *canvas) wrap(text string, width float64) []string {
	lines := cv.pdf.SplitText(text, width)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// block 版面中的一個垂直區塊，放置前先量測高度
type block interface {
	height(cv *canvas, width float64) float64
	draw(cv *canvas, x, y, width float64)
}

// heading 標題；keep 為必須與其同頁的後續空間
type heading struct {
	text  string
	size  float64
	line  float64
	after float64
	keep  float64
	align string
}

// splitter 可在行與行之間拆成兩段的區塊；head 放得進 available，tail 接到下一頁
type splitter interface {
	split(cv *canvas, width, available float64) (head, tail block, ok bool)
}

// keeper 量測高度中含有預留給後續區塊的空間
type keeper interface {
	keepWithNext() float64
}

func (h heading) height(*canvas, float64) float64 {
	return h.line + h.after + h.keep
}

func (h heading) keepWithNext() float64 {
	return h.keep
}

func (h heading) draw(cv *canvas, x, y, width float64) {
	cv.font("B", h.size, colorDark)
	cv.cell(x, y, width, h.line, h.text, h.align)
}

// rule 主色分隔線
type rule struct {
	before, after float64
}

func (r rule) height(*canvas, float64) float64 {
	return r.before + r.after
}

func (r rule) draw(cv *canvas, x, y, width float64) {
	cv.pdf.SetDrawColor(colorPrimary.r, colorPrimary.g, colorPrimary.b)
	cv.pdf.SetLineWidth(0.5)
	cv.pdf.Line(x, y+r.before, x+width, y+r.before)
}

const (
	itemLine   = 8.0
	itemGap    = 2.0
	itemIndent = 6.0
)

// listItem 單行食材，文字已截斷
type listItem struct {
	text string
}

func (l listItem) height(*canvas, float64) float64 {
	return itemLine + itemGap
}

func (l listItem) draw(cv *canvas, x, y, width float64) {
	cv.font("B", 14, colorPrimary)
	cv.cell(x, y, itemIndent, itemLine, "-", "L")

	cv.font("", 12, colorText)
	cv.cell(x+itemIndent, y, width-itemIndent, itemLine, l.text, "L")
}

const (
	stepLine   = 7.0
	stepGap    = 4.0
	stepIndent = 9.0
)

// step 編號步驟，依容器寬度換行；續接到下一頁的部分不重複編號
type step struct {
	number  string
	text    string
	wrapped []string
	noGap   bool
}

func (s step) lines(cv *canvas, width float64) []string {
	if s.wrapped != nil {
		return s.wrapped
	}
	cv.font("", 12, colorText)
	return cv.wrap(s.text, width-stepIndent)
}

func (s step) height(cv *canvas, width float64) float64 {
	h := float64(len(s.lines(cv, width))) * stepLine
	if !s.noGap {
		h += stepGap
	}
	return h
}

func (s step) split(cv *canvas, width, available float64) (block, block, bool) {
	lines := s.lines(cv, width)
	n := int(available / stepLine)
	if n < 1 || n >= len(lines) {
		return nil, nil, false
	}
	head := step{number: s.number, wrapped: lines[:n], noGap: true}
	tail := step{wrapped: lines[n:], noGap: s.noGap}
	return head, tail, true
}

func (s step) draw(cv *canvas, x, y, width float64) {
	lines := s.lines(cv, width)

	if s.number != "" {
		cv.font("B", 12, colorPrimary)
		cv.cell(x, y, stepIndent, stepLine, s.number, "L")
	}

	cv.font("", 12, colorText)
	for i, line := range lines {
		cv.cell(x+stepIndent, y+float64(i)*stepLine, width-stepIndent, stepLine, line, "L")
	}
}

const (
	calloutPad   = 4.0
	calloutTitle = 8.0
	calloutLine  = 7.0
	calloutGap   = 6.0
)

// callout 帶底色的提示框；cont 為換頁後的續接部分，不含標題與上方間距
type callout struct {
	title   string
	text    string
	wrapped []string
	cont    bool
}

func (co callout) lines(cv *canvas, width float64) []string {
	if co.wrapped != nil {
		return co.wrapped
	}
	cv.font("", 12, colorText)
	return cv.wrap(co.text, width-2*calloutPad)
}

// chrome 不含文字行的固定高度
func (co callout) chrome() (gap, box float64) {
	box = 2 * calloutPad
	if co.title != "" {
		box += calloutTitle
	}
	if !co.cont {
		gap = calloutGap
	}
	return gap, box
}

func (co callout) boxHeight(cv *canvas, width float64) float64 {
	_, box := co.chrome()
	return box + float64(len(co.lines(cv, width)))*calloutLine
}

func (co callout) height(cv *canvas, width float64) float64 {
	gap, _ := co.chrome()
	return gap + co.boxHeight(cv, width)
}

func (co callout) split(cv *canvas, width, available float64) (block, block, bool) {
	lines := co.lines(cv, width)
	gap, box := co.chrome()
	n := int((available - gap - box) / calloutLine)
	if n < 1 || n >= len(lines) {
		return nil, nil, false
	}
	head := callout{title: co.title, wrapped: lines[:n], cont: co.cont}
	tail := callout{wrapped: lines[n:], cont: true}
	return head, tail, true
}

func (co callout) draw(cv *canvas, x, y, width float64) {
	gap, _ := co.chrome()
	top := y + gap
	lines := co.lines(cv, width)

	cv.pdf.SetFillColor(colorAccent.r, colorAccent.g, colorAccent.b)
	cv.pdf.Rect(x, top, width, co.boxHeight(cv, width), "F")

	textTop := top + calloutPad
	if co.title != "" {
		cv.font("B", 14, colorDark)
		cv.cell(x+calloutPad, textTop, width-2*calloutPad, calloutTitle, co.title, "L")
		textTop += calloutTitle
	}

	cv.font("", 12, colorText)
	for i, line := range lines {
		cv.cell(x+calloutPad, textTop+float64(i)*calloutLine, width-2*calloutPad, calloutLine, line, "L")
	}
}
