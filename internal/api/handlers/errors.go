// Package handlers HTTP 處理器共用工具
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-customizer/internal/pkg/common"
)

// WriteError 以 ErrorResponse 回應錯誤；details 僅在 debug 模式輸出
func WriteError(c *gin.Context, err error, debug bool) {
	ce := common.AsCustomError(err)
	resp := common.ErrorResponse{
		Code:    ce.Code,
		Message: ce.Message,
	}
	if debug && ce.Code != common.ErrCodeInconsistentResult && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}
	// 非預期錯誤不外洩訊息
	if ce.Code == common.ErrCodeInternalError {
		resp.Message = common.ErrInternalError.Message
	}

	status := ce.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("Request failed", fields...)
	} else {
		common.LogDebug("Request rejected", fields...)
	}

	c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// BindError 將 JSON 綁定失敗轉為 INVALID_REQUEST
func BindError(err error) error {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return common.ErrInvalidRequest.Wrap(err)
}
