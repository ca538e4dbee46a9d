// Package auth verifies bearer credentials and exposes the caller identity
// to owner-scoped handlers. Token issuance, issuer trust, and key rotation
// belong to the external identity provider; this package only maps a bearer
// token to a {user id, email} principal.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated caller. UserID is the external identity id
// used as the owner key on ideas and users.
type Principal struct {
	UserID string
	Email  string
}

type ctxKey struct{}

type Config struct {
	JWTSecret string
}

// ConfigFromEnv reads auth config from environment variables. An empty
// AUTH_JWT_SECRET enables the development token scheme.
func ConfigFromEnv() Config {
	return Config{JWTSecret: os.Getenv("AUTH_JWT_SECRET")}
}

// Verifier validates bearer tokens.
type Verifier struct {
	secret []byte
	logger *zap.SugaredLogger
}

func NewVerifier(cfg Config, logger *zap.SugaredLogger) *Verifier {
	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}
	return &Verifier{secret: secret, logger: logger}
}

// Verify maps a raw bearer token to a Principal. With a configured secret it
// requires a valid HS256 JWT carrying sub (and optionally email) claims.
// Without one it accepts any non-empty token except the literal "invalid"
// and returns a fixed development principal.
func (v *Verifier) Verify(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	if v.secret == nil {
		if token == "invalid" {
			return nil, ErrInvalidToken
		}
		return &Principal{UserID: "dev_user_123", Email: "dev@example.com"}, nil
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return &Principal{UserID: sub, Email: email}, nil
}

// Middleware authenticates the request and injects the Principal into the
// request context. Unauthenticated requests get a uniform 401.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token := ""
		if strings.HasPrefix(raw, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
		}

		p, err := v.Verify(token)
		if err != nil {
			v.logger.Debugw("auth rejected", "err", err, "path", r.URL.Path)
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "could not validate credentials"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *p)))
	})
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext extracts the authenticated Principal, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
