package handler

import (
	"errors"
	"net/http"
	"people_api/internal/middleware"
	"people_api/internal/service"
	"people_api/pkg/log"
	"people_api/pkg/token"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// mapServiceError 把 Service 层哨兵错误转换为 HTTP 状态码和对外消息。
// 参数校验错误返回具体原因，其他内部错误不暴露细节。
func mapServiceError(err error) (httpStatus int, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrTermNotFound):
		return http.StatusNotFound, "Term not found"
	case errors.Is(err, service.ErrTermAlreadyExists):
		return http.StatusConflict, "Term already exists"
	case errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound, "Profile not found"
	case errors.Is(err, service.ErrDirectoryCycle):
		return http.StatusInternalServerError, "Directory hierarchy is corrupted"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeServiceError 记录日志并按统一格式写错误响应。
func writeServiceError(c *gin.Context, scope string, err error) {
	status, msg := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %v", scope, err)
	} else {
		log.Warnf("%s: %v", scope, err)
	}
	c.JSON(status, gin.H{
		"code":    status,
		"message": msg,
	})
}

// parseUintParam 解析正整数参数，非法或为 0 时返回 false。
func parseUintParam(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// parseBoolParam 兼容 1/true/yes/on。
func parseBoolParam(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// editorFromContext 返回 EditorAuth 注入的操作人；未启用鉴权时为 "anonymous"。
func editorFromContext(c *gin.Context) string {
	v, ok := c.Get(middleware.ContextKeyClaims)
	if !ok {
		return "anonymous"
	}
	claims, ok := v.(*token.EditorClaims)
	if !ok || claims.Subject == "" {
		return "anonymous"
	}
	return claims.Subject
}
