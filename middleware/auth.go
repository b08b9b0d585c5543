package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"campuslearn_server/models"

	"github.com/dgrijalva/jwt-go"
)

type contextKey string

const principalKey contextKey = "principal"

// Verifier turns a bearer token into a Principal. Token issuance happens in
// an external service; this side only validates and extracts identity.
type Verifier interface {
	Verify(token string) (models.Principal, error)
}

// JWTVerifier validates HS256 tokens whose claims carry userId, role, and
// name, matching what the account service issues.
type JWTVerifier struct {
	Secret []byte
}

func (v *JWTVerifier) Verify(tokenStr string) (models.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		return models.Principal{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Principal{}, fmt.Errorf("invalid token claims")
	}

	p := models.Principal{}
	if v, ok := claims["userId"].(string); ok {
		p.UserID = v
	}
	if v, ok := claims["role"].(string); ok {
		p.Role = v
	}
	if v, ok := claims["name"].(string); ok {
		p.Name = v
	}
	if p.UserID == "" || p.Role == "" {
		return models.Principal{}, fmt.Errorf("token missing identity claims")
	}
	return p, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved principal on the request context.
func RequireAuth(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				writeUnauthorized(w, "No token provided")
				return
			}

			principal, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the authenticated principal stored by RequireAuth.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// WithPrincipal attaches a principal directly; used by handler tests.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
