package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const companyContextKey contextKey = "company_id"

var ErrNoCompanyInContext = errors.New("no company id in request context")

// Authenticate verifies the Bearer token and stores the company_id claim in
// the request context. Every tenant-scoped route sits behind this.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			companyID, ok := claims["company_id"].(float64)
			if !ok || companyID < 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), companyContextKey, int(companyID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCompanyIDFromContext returns the authenticated company id.
func GetCompanyIDFromContext(ctx context.Context) (int, error) {
	id, ok := ctx.Value(companyContextKey).(int)
	if !ok {
		return 0, ErrNoCompanyInContext
	}
	return id, nil
}
