package token

import (
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewJWTManager("secret-de-test", 1, 7)

	tokenString, err := manager.GenerateToken(7, "alice", "user")
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}

	claims, err := manager.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("验证 token 失败: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || claims.Role != "user" {
		t.Errorf("claims 不符: %+v", claims)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Error("过期时间应在未来")
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tokenString, err := NewJWTManager("secret-a", 1, 7).GenerateToken(7, "alice", "user")
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}
	if _, err := NewJWTManager("secret-b", 1, 7).VerifyToken(tokenString); err == nil {
		t.Fatal("错误密钥签发的 token 应验证失败")
	}
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	manager := NewJWTManager("secret-de-test", 1, 7)

	access, _ := manager.GenerateToken(7, "alice", "user")
	refresh, _ := manager.GenerateRefreshToken(7, "alice", "user")

	accessClaims, err := manager.VerifyToken(access)
	if err != nil {
		t.Fatalf("验证 access token 失败: %v", err)
	}
	refreshClaims, err := manager.VerifyToken(refresh)
	if err != nil {
		t.Fatalf("验证 refresh token 失败: %v", err)
	}
	if !refreshClaims.ExpiresAt.Time.After(accessClaims.ExpiresAt.Time) {
		t.Error("refresh token 的有效期应长于 access token")
	}
}

func TestGenerateRandomString(t *testing.T) {
	first := GenerateRandomString(32)
	second := GenerateRandomString(32)
	// hex 编码后长度翻倍
	if len(first) != 64 {
		t.Errorf("长度 = %d, want 64", len(first))
	}
	if first == second {
		t.Error("两次生成不应相同")
	}
}
