package recipe

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"recipe-chef/internal/core/nutrition"
	recipeCore "recipe-chef/internal/core/recipe"
	"recipe-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates 頁面樣板，交給 gin.SetHTMLTemplate
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

const pageTemplate = "index.html"

// pageData 表單頁面資料
type pageData struct {
	Diets       []string
	Diet        string
	Ingredients string
	Warnings    []string
	Error       string
	Result      *resultView
}

// resultView 生成結果的顯示內容
type resultView struct {
	Title        string
	Ingredients  []string
	Instructions []string
	Conflicts    []string
	Nutrition    nutritionView
	ChefTip      string
	RawText      string
}

type nutritionView struct {
	Estimated   bool
	Totals      nutrition.FormattedTotals
	Unresolved  []string
	Diagnostics []nutrition.Diagnostic
}

func newPageData(ingredients, diet string) pageData {
	if diet == "" {
		diet = recipeCore.DietNormal
	}
	return pageData{
		Diets:       recipeCore.DietOptions,
		Diet:        diet,
		Ingredients: ingredients,
	}
}

// HandleIndex 顯示食材與飲食偏好表單
func (h *Handler) HandleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplate, newPageData("", ""))
}

// HandleGeneratePage 表單送出後生成食譜並渲染結果頁
func (h *Handler) HandleGeneratePage(c *gin.Context) {
	requestID := getRequestID(c)
	data := newPageData(c.PostForm("ingredients"), strings.TrimSpace(c.PostForm("diet")))

	if !recipeCore.IsKnownDiet(data.Diet) {
		data.Error = "Unknown dietary preference: " + data.Diet
		data.Diet = recipeCore.DietNormal
		c.HTML(http.StatusBadRequest, pageTemplate, data)
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), recipeCore.Request{
		Ingredients: data.Ingredients,
		Diet:        data.Diet,
	})
	if err != nil {
		status := http.StatusInternalServerError
		var custom *common.CustomError
		switch {
		case common.IsValidationError(err):
			status = http.StatusBadRequest
			data.Warnings = append(data.Warnings, err.Error())
		case errors.As(err, &custom):
			status = custom.Status
			data.Error = "Error generating recipe: " + err.Error()
		default:
			data.Error = "Error generating recipe: " + err.Error()
		}
		common.LogWarn("頁面生成失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.HTML(status, pageTemplate, data)
		return
	}

	data.Warnings = append(data.Warnings, result.Warnings...)
	data.Result = &resultView{
		Title:        result.Recipe.DisplayTitle(),
		Ingredients:  result.Recipe.Ingredients,
		Instructions: result.Recipe.Instructions,
		Conflicts:    recipeCore.Messages(result.Conflicts),
		Nutrition: nutritionView{
			Estimated:   result.Nutrition.Provenance == nutrition.ProvenanceFallback,
			Totals:      result.Nutrition.Formatted(),
			Unresolved:  result.Nutrition.Unresolved,
			Diagnostics: result.Nutrition.Diagnostics,
		},
		ChefTip: result.ChefTip,
		RawText: result.RawText,
	}

	c.HTML(http.StatusOK, pageTemplate, data)
}

// HandleExportPDF 表單匯出：重新解析原文後輸出 PDF
func (h *Handler) HandleExportPDF(c *gin.Context) {
	rec := recipeCore.Parse(c.PostForm("raw_text"))
	h.writePDF(c, rec, c.PostForm("chef_tip"))
}
