package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func doRequest(m *JWTMiddleware, authHeader string) (*httptest.ResponseRecorder, *Identity) {
	var seen *Identity
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ident, ok := IdentityFromContext(r.Context()); ok {
			seen = &ident
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/voices", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthenticateValidToken(t *testing.T) {
	m := NewJWTMiddleware(testSecret)
	token := signToken(t, Claims{
		Sub:   "user-1",
		Email: "u@example.com",
		Tier:  "pro",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	rec, ident := doRequest(m, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ident == nil {
		t.Fatal("no identity attached")
	}
	if ident.UserID != "user-1" || !ident.Pro {
		t.Errorf("identity = %+v", ident)
	}
}

func TestAuthenticateFreeTier(t *testing.T) {
	m := NewJWTMiddleware(testSecret)
	token := signToken(t, Claims{Sub: "user-2", Tier: "free"}, testSecret)

	rec, ident := doRequest(m, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ident.Pro {
		t.Error("free tier marked pro")
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	m := NewJWTMiddleware(testSecret)
	rec, _ := doRequest(m, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateWrongSecret(t *testing.T) {
	m := NewJWTMiddleware(testSecret)
	token := signToken(t, Claims{Sub: "user-1"}, "other-secret")

	rec, _ := doRequest(m, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	m := NewJWTMiddleware(testSecret)
	token := signToken(t, Claims{
		Sub: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSecret)

	rec, _ := doRequest(m, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateMissingSubject(t *testing.T) {
	m := NewJWTMiddleware(testSecret)
	token := signToken(t, Claims{Email: "u@example.com"}, testSecret)

	rec, _ := doRequest(m, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
