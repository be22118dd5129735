package recipe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"recipe-chef/internal/core/document"
	"recipe-chef/internal/core/nutrition"
	recipeCore "recipe-chef/internal/core/recipe"
	"recipe-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Generator 食譜生成流程
type Generator interface {
	Generate(ctx context.Context, req recipeCore.Request) (*recipeCore.Result, error)
}

// PDFRenderer 將食譜輸出為 PDF
type PDFRenderer interface {
	Render(rec recipeCore.Recipe, tip string) ([]byte, error)
}

// GenerateRequest 以食材與飲食偏好生成食譜
type GenerateRequest struct {
	Ingredients string `json:"ingredients" form:"ingredients" binding:"required"` // 以逗號分隔
	Diet        string `json:"diet" form:"diet" binding:"omitempty,diet"`         // 省略時為 Normal
}

// NutritionResponse 營養結果加上顯示用字串
type NutritionResponse struct {
	nutrition.Result
	Formatted nutrition.FormattedTotals `json:"formatted"`
}

// GenerateResponse 生成結果
type GenerateResponse struct {
	RequestID string                `json:"request_id"`
	Title     string                `json:"title"`
	Recipe    recipeCore.Recipe     `json:"recipe"`
	RawText   string                `json:"raw_text"`
	Diet      string                `json:"diet"`
	Conflicts []recipeCore.Conflict `json:"conflicts"`
	Messages  []string              `json:"conflict_messages"`
	Warnings  []string              `json:"warnings"`
	Nutrition NutritionResponse     `json:"nutrition"`
	ChefTip   string                `json:"chef_tip"`
}

// ParseRequest 解析模型原文
type ParseRequest struct {
	Text string `json:"text" binding:"required"`
}

// ParseResponse 解析結果
type ParseResponse struct {
	Recipe recipeCore.Recipe `json:"recipe"`
	Empty  bool              `json:"empty"`
}

// ValidateRequest 檢查食材文字與飲食偏好的衝突
type ValidateRequest struct {
	Ingredients string `json:"ingredients"`
	Diet        string `json:"diet" binding:"required,diet"`
}

// ValidateResponse 衝突列表
type ValidateResponse struct {
	Conflicts []recipeCore.Conflict `json:"conflicts"`
	Messages  []string              `json:"messages"`
}

// PDFRequest 匯出 PDF 的食譜內容
type PDFRequest struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ChefTip      string   `json:"chef_tip"`
}

// NutritionRequest 批次營養查詢
type NutritionRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
}

// Handler 食譜處理程序
type Handler struct {
	generator Generator
	nutrition recipeCore.NutritionLookup
	renderer  PDFRenderer
	debug     bool
}

// NewHandler 創建新的食譜處理程序
func NewHandler(generator Generator, lookup recipeCore.NutritionLookup, renderer PDFRenderer, debug bool) *Handler {
	return &Handler{
		generator: generator,
		nutrition: lookup,
		renderer:  renderer,
		debug:     debug,
	}
}

// HandleGenerate 執行完整生成流程並回傳 JSON
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := getRequestID(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, requestID)
		return
	}
	if req.Diet == "" {
		req.Diet = recipeCore.DietNormal
	}

	common.LogInfo("開始處理食譜生成請求",
		zap.String("request_id", requestID),
		zap.String("diet", req.Diet),
		zap.String("client_ip", c.ClientIP()),
	)

	result, err := h.generator.Generate(c.Request.Context(), recipeCore.Request{
		Ingredients: req.Ingredients,
		Diet:        req.Diet,
	})
	if err != nil {
		common.LogError("食譜生成失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		RequestID: requestID,
		Title:     result.Recipe.DisplayTitle(),
		Recipe:    result.Recipe,
		RawText:   result.RawText,
		Diet:      result.Diet,
		Conflicts: result.Conflicts,
		Messages:  recipeCore.Messages(result.Conflicts),
		Warnings:  result.Warnings,
		Nutrition: NutritionResponse{Result: result.Nutrition, Formatted: result.Nutrition.Formatted()},
		ChefTip:   result.ChefTip,
	})
}

// HandleParse 解析模型輸出原文
func (h *Handler) HandleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, getRequestID(c))
		return
	}

	rec := recipeCore.Parse(req.Text)
	c.JSON(http.StatusOK, ParseResponse{Recipe: rec, Empty: rec.IsEmpty()})
}

// HandleValidate 檢查飲食衝突
func (h *Handler) HandleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, getRequestID(c))
		return
	}

	conflicts := recipeCore.Validate(req.Ingredients, req.Diet)
	c.JSON(http.StatusOK, ValidateResponse{
		Conflicts: conflicts,
		Messages:  recipeCore.Messages(conflicts),
	})
}

// HandleNutrition 批次查詢營養數值，失敗時自動改用估算
func (h *Handler) HandleNutrition(c *gin.Context) {
	var req NutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, getRequestID(c))
		return
	}

	result := h.nutrition.Lookup(c.Request.Context(), req.Ingredients)
	c.JSON(http.StatusOK, NutritionResponse{Result: result, Formatted: result.Formatted()})
}

// HandlePDF 將 JSON 食譜輸出為 PDF；沒有內容時回傳 204
func (h *Handler) HandlePDF(c *gin.Context) {
	var req PDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, getRequestID(c))
		return
	}

	h.writePDF(c, recipeCore.Recipe{
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	}, req.ChefTip)
}

// writePDF 輸出 PDF 附件
func (h *Handler) writePDF(c *gin.Context, rec recipeCore.Recipe, tip string) {
	if rec.IsEmpty() {
		c.Status(http.StatusNoContent)
		return
	}

	data, err := h.renderer.Render(rec, tip)
	if errors.Is(err, document.ErrNothingToRender) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		common.LogError("PDF 產生失敗",
			zap.Error(err),
			zap.String("title", rec.Title),
			zap.String("request_id", getRequestID(c)),
		)
		respondError(c, err, h.debug)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, document.FileName(rec.Title)))
	c.Data(http.StatusOK, "application/pdf", data)
}
