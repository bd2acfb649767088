package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AdminRole is the role claim required to download logs
const AdminRole = "admin"

// Claims is the payload of the tokens accepted by RequireAdmin
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var errNoToken = errors.New("no token")

// RequireAdmin only lets through requests carrying a valid HS256 token with the admin
// role, read from the "token" cookie or an Authorization bearer header. When enforce is
// false it is a no-op.
func RequireAdmin(secret string, enforce bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enforce {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseClaims(r, secret)
			if err != nil || claims.Role != AdminRole {
				zap.S().Warnw("log download denied", "path", r.URL.Path, "ip", ClientIP(r), "error", err)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseClaims(r *http.Request, secret string) (*Claims, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, errNoToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
