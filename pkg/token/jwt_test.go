package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 测试用的常量
const (
	testSecret  = "test-secret-key-for-jwt-testing"
	testSubject = "jdoe"
)

func newTestManager() *JWTManager {
	return NewJWTManager(testSecret, 15*time.Minute)
}

func TestNewJWTManager(t *testing.T) {
	manager := NewJWTManager("my-secret", 10*time.Minute)

	if manager == nil {
		t.Fatal("NewJWTManager 返回了 nil")
	}
	if string(manager.secretKey) != "my-secret" {
		t.Errorf("secretKey 期望 %q, 实际 %q", "my-secret", string(manager.secretKey))
	}
	if manager.tokenDuration != 10*time.Minute {
		t.Errorf("tokenDuration 期望 %v, 实际 %v", 10*time.Minute, manager.tokenDuration)
	}
}

func TestGenerateToken(t *testing.T) {
	manager := newTestManager()

	tokenString, err := manager.GenerateToken(testSubject, RoleEditor)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}
	// JWT 格式：三段用 . 分隔
	if parts := strings.Split(tokenString, "."); len(parts) != 3 {
		t.Errorf("token 格式不正确, 期望3段, 实际 %d 段", len(parts))
	}

	if _, err := manager.GenerateToken("  ", RoleEditor); err == nil {
		t.Error("空 subject 应该返回错误")
	}
}

func TestVerifyToken_Success(t *testing.T) {
	manager := newTestManager()

	tokenString, err := manager.GenerateToken(testSubject, RoleEditor)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	claims, err := manager.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("VerifyToken 失败: %v", err)
	}
	if claims.Subject != testSubject {
		t.Errorf("Subject 期望 %q, 实际 %q", testSubject, claims.Subject)
	}
	if claims.Role != RoleEditor || !claims.CanEdit() {
		t.Errorf("Role 期望 %q 且可编辑, 实际 %q", RoleEditor, claims.Role)
	}
	if claims.Issuer != issuer {
		t.Errorf("Issuer 期望 %q, 实际 %q", issuer, claims.Issuer)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		t.Error("ID 和 ExpiresAt 不应该为空")
	}
}

func TestEditorClaims_CanEdit(t *testing.T) {
	cases := map[string]bool{
		"editor": true,
		"ADMIN":  true,
		"viewer": false,
		"":       false,
	}
	for role, want := range cases {
		c := &EditorClaims{Role: role}
		if got := c.CanEdit(); got != want {
			t.Errorf("CanEdit(%q) 期望 %v, 实际 %v", role, want, got)
		}
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	manager := NewJWTManager(testSecret, 1*time.Millisecond)

	tokenString, err := manager.GenerateToken(testSubject, RoleEditor)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := manager.VerifyToken(tokenString); err == nil {
		t.Error("过期的 token 应该验证失败, 但返回了 nil error")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	tokenString, err := newTestManager().GenerateToken(testSubject, RoleEditor)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	wrongManager := NewJWTManager("wrong-secret-key", 15*time.Minute)
	if _, err := wrongManager.VerifyToken(tokenString); err == nil {
		t.Error("用错误密钥验证应该失败, 但返回了 nil error")
	}
}

func TestVerifyToken_Tampered(t *testing.T) {
	manager := newTestManager()

	tokenString, err := manager.GenerateToken(testSubject, RoleEditor)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	parts := strings.Split(tokenString, ".")
	tampered := parts[0] + "." + parts[1] + "x" + "." + parts[2]

	if _, err := manager.VerifyToken(tampered); err == nil {
		t.Error("篡改的 token 应该验证失败, 但返回了 nil error")
	}
}

func TestVerifyToken_InvalidFormat(t *testing.T) {
	manager := newTestManager()

	for _, token := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		if _, err := manager.VerifyToken(token); err == nil {
			t.Errorf("无效 token %q 应该验证失败, 但返回了 nil error", token)
		}
	}
}

// WithValidMethods 只允许 HS256，none 算法应该被拒绝
func TestVerifyToken_WrongSigningMethod(t *testing.T) {
	claims := &EditorClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testSubject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("创建 none 签名 token 失败: %v", err)
	}

	if _, err := newTestManager().VerifyToken(tokenString); err == nil {
		t.Error("none 签名的 token 应该验证失败, 但返回了 nil error")
	}
}

func TestVerifyToken_WrongIssuer(t *testing.T) {
	claims := &EditorClaims{
		Role: RoleEditor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testSubject,
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("签名失败: %v", err)
	}

	if _, err := newTestManager().VerifyToken(tokenString); err == nil {
		t.Error("其他签发者的 token 应该验证失败, 但返回了 nil error")
	}
}

func TestGenerateRandomString(t *testing.T) {
	// hex 编码后长度是原始字节的 2 倍
	if s := GenerateRandomString(16); len(s) != 32 {
		t.Errorf("期望长度 32, 实际 %d", len(s))
	}

	s1 := GenerateRandomString(16)
	s2 := GenerateRandomString(16)
	if s1 == s2 {
		t.Error("两次生成的随机字符串不应该相同")
	}
}
