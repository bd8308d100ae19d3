package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, Email: "ada@example.com", JTI: "fixed"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Email != "ada@example.com" || claims.ID != "fixed" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp, claims.ExpiresAt.UTC())
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}

	other := cfg
	other.Secret = "rotated"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected error for a token signed with another secret")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAccessTokenRejectsWrongIssuerAndMissingUser(t *testing.T) {
	cfg := testJWTConfig(5)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}

	anonymous := jwt.NewWithClaims(jwtSigningMethod, AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := anonymous.SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected error for token without user id")
	}
}

func TestMintAccessTokenRequiresUser(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(5), time.Now(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing user error")
	}
	if _, err := MintAccessToken(config.JWTConfig{Issuer: "x"}, time.Now(), AccessTokenPayload{UserID: uuid.New()}); err == nil {
		t.Fatal("expected missing secret error")
	}
}
