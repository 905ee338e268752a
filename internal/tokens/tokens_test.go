package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var testUser = models.User{ID: "u_123", Email: "test@example.com", Role: models.RoleAdmin}

func seg(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	secret := "test-secret-32-bytes-should-be-long-enough"
	now := time.Now()
	tokenStr, err := GenerateAccessToken(secret, testUser, now, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := ParseAccessToken(secret, tokenStr, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if claims.Subject != testUser.ID {
		t.Fatalf("unexpected sub claim: got=%v want=%v", claims.Subject, testUser.ID)
	}
	if claims.Email != testUser.Email || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
}

func TestGenerateAccessToken_Expiry(t *testing.T) {
	secret := "another-secret-32-bytes-longgggg"
	issued := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tokenStr, err := GenerateAccessToken(secret, testUser, issued, 2*time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if _, err := ParseAccessToken(secret, tokenStr, issued.Add(119*time.Minute)); err != nil {
		t.Fatalf("token should still be valid before expiry: %v", err)
	}
	if _, err := ParseAccessToken(secret, tokenStr, issued.Add(2*time.Hour+time.Second)); err == nil {
		t.Fatalf("expected token parse to fail after expiry")
	}
}

func TestParseToken_WrongSecretFails(t *testing.T) {
	tokenStr, err := GenerateAccessToken("secret-one-32-bytes-xxxxxxxxxxxxxxxx", testUser, time.Now(), 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if _, err = ParseAccessToken("different-secret-xxxxxxxxxxxxxxxx", tokenStr, time.Now()); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseToken_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not.a.jwt", "abc"} {
		if _, err := ParseAccessToken("x", raw, time.Now()); err == nil {
			t.Fatalf("expected parse to fail for malformed token %q", raw)
		}
	}
}

func TestEmptySecretRejected(t *testing.T) {
	if _, err := GenerateAccessToken("", testUser, time.Now(), time.Minute); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
	if _, err := ParseAccessToken("", "a.b.c", time.Now()); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

// Rejected when alg=none (unsigned token)
func TestParseToken_AlgNoneRejected(t *testing.T) {
	tok := seg(`{"alg":"none","typ":"JWT"}`) + "." + seg(`{"sub":"u-none","exp":9999999999}`) + "."
	if _, err := ParseAccessToken("x", tok, time.Now()); err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

// A token signed with another HMAC size is rejected too
func TestParseToken_OtherAlgorithmRejected(t *testing.T) {
	secret := "alg-test-secret-32-bytes-xxxxxxxxxx"
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(secret, tokenStr, time.Now()); err == nil {
		t.Fatalf("expected HS512 token to be rejected")
	}
}

// Tampering with payload must fail signature verification
func TestParseToken_TamperedPayload(t *testing.T) {
	secret := "tamper-test-secret-32-bytes-xxxxxxx"
	tokenStr, err := GenerateAccessToken(secret, testUser, time.Now(), 5*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	parts[1] = seg(strings.Replace(string(payloadBytes), "u_123", "attacker", 1))
	if _, err = ParseAccessToken(secret, strings.Join(parts, "."), time.Now()); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

func TestParseToken_MissingExpiryRejected(t *testing.T) {
	secret := "noexp-secret-32-bytes-xxxxxxxxxxxxx"
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "x@x"}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(secret, tokenStr, time.Now()); err == nil {
		t.Fatalf("expected token without exp to be rejected")
	}
}
