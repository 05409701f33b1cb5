package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
	"github.com/hollandpark-shiatsu/bookings/pkg/auth"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

func RequireJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header")
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				response.Unauthorized(w, "invalid authorization token")
				return
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(CtxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
