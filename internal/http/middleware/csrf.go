package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"

	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
)

const (
	CSRFCookie = "csrftoken"
	CSRFHeader = "X-CSRF-Token"
)

// CSRF implements double-submit protection: the server sets a csrftoken
// cookie and state-changing requests must echo it back in the X-CSRF-Token
// header.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CSRFCookie)
		if err != nil || cookie.Value == "" {
			cookie = &http.Cookie{
				Name:     CSRFCookie,
				Value:    uuid.NewString(),
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
			}
			http.SetCookie(w, cookie)
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(CSRFHeader)
		if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
			response.WriteError(w, http.StatusForbidden, "CSRF token missing or invalid", response.CodeCSRF)
			return
		}

		next.ServeHTTP(w, r)
	})
}
