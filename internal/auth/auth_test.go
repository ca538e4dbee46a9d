package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifyDevelopmentMode(t *testing.T) {
	v := NewVerifier(Config{}, zap.NewNop().Sugar())

	p, err := v.Verify("any-token-at-all")
	require.NoError(t, err)
	assert.Equal(t, "dev_user_123", p.UserID)
	assert.Equal(t, "dev@example.com", p.Email)

	_, err = v.Verify("invalid")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifySignedToken(t *testing.T) {
	v := NewVerifier(Config{JWTSecret: "sekrit"}, zap.NewNop().Sugar())

	token := signedToken(t, "sekrit", jwt.MapClaims{
		"sub":   "user-42",
		"email": "u42@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", p.UserID)
	assert.Equal(t, "u42@example.com", p.Email)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewVerifier(Config{JWTSecret: "sekrit"}, zap.NewNop().Sugar())

	t.Run("wrong secret", func(t *testing.T) {
		token := signedToken(t, "other-secret", jwt.MapClaims{"sub": "user-42"})
		_, err := v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing sub", func(t *testing.T) {
		token := signedToken(t, "sekrit", jwt.MapClaims{"email": "u42@example.com"})
		_, err := v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token := signedToken(t, "sekrit", jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		_, err := v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddlewareInjectsPrincipal(t *testing.T) {
	v := NewVerifier(Config{}, zap.NewNop().Sugar())

	var got Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		require.True(t, ok)
		got = p
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas", nil)
	req.Header.Set("Authorization", "Bearer dev-token")
	rec := httptest.NewRecorder()
	v.Middleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev_user_123", got.UserID)
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	v := NewVerifier(Config{}, zap.NewNop().Sugar())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	for _, header := range []string{"", "Basic abc123", "dev-token"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		v.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header: %q", header)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	}
}
