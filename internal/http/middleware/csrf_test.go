package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/hollandpark-shiatsu/bookings/internal/http/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFSetsCookieOnRead(t *testing.T) {
	h := mw.CSRF(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == mw.CSRFCookie {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatal("no csrftoken cookie set")
	}
}

func TestCSRFRejectsMissingHeader(t *testing.T) {
	h := mw.CSRF(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	req.AddCookie(&http.Cookie{Name: mw.CSRFCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCSRFRejectsMismatchedHeader(t *testing.T) {
	h := mw.CSRF(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	req.AddCookie(&http.Cookie{Name: mw.CSRFCookie, Value: "tok"})
	req.Header.Set(mw.CSRFHeader, "other")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCSRFAcceptsEchoedToken(t *testing.T) {
	h := mw.CSRF(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	req.AddCookie(&http.Cookie{Name: mw.CSRFCookie, Value: "tok"})
	req.Header.Set(mw.CSRFHeader, "tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
