package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "mesh-internal-test-secret"

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestNewTokenVerifierRequiresSecret(t *testing.T) {
	t.Parallel()
	if _, err := NewTokenVerifier("  "); err == nil {
		t.Fatalf("blank secret accepted")
	}
}

func TestVerifyValidToken(t *testing.T) {
	t.Parallel()
	v, err := NewTokenVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewTokenVerifier: %v", err)
	}
	raw := mintToken(t, testSecret, jwt.MapClaims{
		"user_id": "usr-42",
		"role":    "Bank_Admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SubjectID != "usr-42" {
		t.Fatalf("SubjectID = %q", claims.SubjectID)
	}
	if claims.Role != "bank_admin" {
		t.Fatalf("Role = %q", claims.Role)
	}
}

func TestVerifySubjectFallsBackToRegisteredClaim(t *testing.T) {
	t.Parallel()
	v, _ := NewTokenVerifier(testSecret)
	raw := mintToken(t, testSecret, jwt.MapClaims{
		"sub":  "usr-sub",
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SubjectID != "usr-sub" {
		t.Fatalf("SubjectID = %q", claims.SubjectID)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Parallel()
	v, _ := NewTokenVerifier(testSecret)

	if _, err := v.Verify(mintToken(t, "other-secret", jwt.MapClaims{
		"user_id": "usr-42",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})); err == nil {
		t.Fatalf("token signed with the wrong secret verified")
	}

	if _, err := v.Verify(mintToken(t, testSecret, jwt.MapClaims{
		"user_id": "usr-42",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})); err == nil {
		t.Fatalf("expired token verified")
	}

	if _, err := v.Verify(mintToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})); err == nil {
		t.Fatalf("token without a subject verified")
	}

	if _, err := v.Verify("not-a-token"); err == nil {
		t.Fatalf("garbage verified")
	}
}
