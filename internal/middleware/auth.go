package middleware

import (
	"errors"
	"net/http"
	"people_api/pkg/token"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyClaims 是 EditorAuth 注入 Gin 上下文的 *token.EditorClaims 的键
const ContextKeyClaims = "claims"

// EditorAuth 保护写接口（create/sync organization）。
// 工作流程：
//  1. 从 Authorization 请求头提取 Bearer Token
//  2. 验证签名、有效期和签发者
//  3. 检查角色必须是 editor 或 admin
//  4. 把 claims 注入上下文，Handler 通过 c.Get("claims") 获取操作人
func EditorAuth(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Internal server error",
			})
			return
		}

		tokenString, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid authorization header",
			})
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil || claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid or expired token",
			})
			return
		}

		if !claims.CanEdit() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "Forbidden: editor role required",
			})
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// extractBearerToken 从 Authorization 请求头中提取 Bearer Token，大小写不敏感。
func extractBearerToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	if parts[1] == "" {
		return "", errors.New("empty token")
	}
	return parts[1], nil
}
