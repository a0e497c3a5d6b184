package jwt

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, expected user-123", claims.UserID)
	}
	if claims.TokenType != AccessToken {
		t.Errorf("TokenType = %q, expected access", claims.TokenType)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Error("token signed with a different secret was accepted")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ValidateToken(token, testSecret); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestShareTokenCarriesMediaID(t *testing.T) {
	token, err := GenerateShareToken("media-42", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateShareToken failed: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.TokenType != ShareToken {
		t.Errorf("TokenType = %q, expected share", claims.TokenType)
	}
	if claims.MediaID != "media-42" {
		t.Errorf("MediaID = %q, expected media-42", claims.MediaID)
	}
	if claims.UserID != "" {
		t.Errorf("share token leaked a user ID: %q", claims.UserID)
	}
}

func TestIsTokenValidChecksType(t *testing.T) {
	token, err := GenerateToken("user-123", RefreshToken, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if !IsTokenValid(token, testSecret, RefreshToken) {
		t.Error("valid refresh token rejected")
	}
	if IsTokenValid(token, testSecret, AccessToken) {
		t.Error("refresh token accepted as access token")
	}
}
