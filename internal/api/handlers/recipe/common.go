package recipe

import (
	"errors"
	"net/http"

	recipeCore "recipe-chef/internal/core/recipe"
	"recipe-chef/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RegisterValidators 註冊 `diet` 綁定標籤，只接受支援的飲食偏好
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("diet", func(fl validator.FieldLevel) bool {
		return recipeCore.IsKnownDiet(fl.Field().String())
	})
}

// getRequestID 取得 requestid 中間件產生的 ID，單獨掛載 handler 時自行產生
func getRequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = common.GenerateUUID()
		c.Header("X-Request-ID", id)
	}
	return id
}

// respondError 將錯誤轉為統一的 JSON 錯誤響應
func respondError(c *gin.Context, err error, debug bool) {
	var custom *common.CustomError
	switch {
	case common.IsValidationError(err):
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
	case errors.As(err, &custom):
		c.JSON(custom.Status, custom.ToResponse(debug))
	default:
		resp := common.ErrInternalError.Wrap(err).ToResponse(debug)
		c.JSON(http.StatusInternalServerError, resp)
	}
	_ = c.Error(err)
}

// bindError 請求格式錯誤
func bindError(c *gin.Context, err error, requestID string) {
	common.LogWarn("請求格式無效",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusBadRequest, common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: "Invalid request format",
		Details: err.Error(),
	})
}
