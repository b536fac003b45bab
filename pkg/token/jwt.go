package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 角色：editor 可以调用写接口，admin 视为 editor 的超集
const (
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

const issuer = "people-api"

// JWTManager 负责签发和验证编辑者令牌
type JWTManager struct {
	secretKey     []byte        // 密钥
	tokenDuration time.Duration // 令牌有效期
}

// EditorClaims 是编辑者令牌的 Claims，Subject 保存编辑者标识（用户名或 nid）
type EditorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CanEdit 判断令牌角色是否允许调用写接口
func (c *EditorClaims) CanEdit() bool {
	switch strings.ToLower(c.Role) {
	case RoleEditor, RoleAdmin:
		return true
	}
	return false
}

func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// GenerateToken 为 subject 签发一个带角色的 HS256 令牌
func (manager *JWTManager) GenerateToken(subject, role string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := time.Now()
	claims := &EditorClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        GenerateRandomString(16),
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(manager.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.secretKey)
}

// VerifyToken 验证签名、有效期和签发者
func (manager *JWTManager) VerifyToken(tokenString string) (*EditorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &EditorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return manager.secretKey, nil
	},
		// 只允许 HS256，防止 alg=none 之类的算法篡改
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, err
	}
	return token.Claims.(*EditorClaims), nil
}

// GenerateRandomString 生成 length 字节的随机十六进制串，用作令牌 ID
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("fallback%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
