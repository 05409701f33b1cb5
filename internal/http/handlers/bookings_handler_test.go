package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
	"github.com/hollandpark-shiatsu/bookings/internal/http/handlers"
	mw "github.com/hollandpark-shiatsu/bookings/internal/http/middleware"
	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
	"github.com/hollandpark-shiatsu/bookings/internal/service"
	"github.com/hollandpark-shiatsu/bookings/pkg/auth"
)

// ---------- Mocks ----------

type mockBookingService struct {
	availability *domain.WeekAvailability
	availErr     error
	created      *domain.Booking
	createErr    error
	bookings     []domain.Booking
	cancelOK     bool

	lastUserID int64
	lastReq    *domain.BookingReq
}

func (m *mockBookingService) WeekAvailability(_ context.Context, _ int, _ time.Time) (*domain.WeekAvailability, error) {
	return m.availability, m.availErr
}

func (m *mockBookingService) CreateBooking(_ context.Context, userID int64, req *domain.BookingReq) (*domain.Booking, error) {
	m.lastUserID = userID
	m.lastReq = req
	return m.created, m.createErr
}

func (m *mockBookingService) ListUserBookings(_ context.Context, userID int64, _, _ int) ([]domain.Booking, error) {
	m.lastUserID = userID
	return m.bookings, nil
}

func (m *mockBookingService) CancelBooking(_ context.Context, _, _ int64) (bool, error) {
	return m.cancelOK, nil
}

func withClaims(r *http.Request, userID int64) *http.Request {
	claims := &auth.Claims{Sub: userID, Email: "ana@example.com", Name: "Ana", Role: "client"}
	ctx := context.WithValue(r.Context(), mw.CtxClaims, claims)
	return r.WithContext(ctx)
}

func decodeError(t *testing.T, body *bytes.Buffer) response.ErrorResponse {
	t.Helper()
	var er response.ErrorResponse
	if err := json.Unmarshal(body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return er
}

// ---------- Create ----------

func TestCreateBooking(t *testing.T) {
	svc := &mockBookingService{
		created: &domain.Booking{
			ID:          7,
			ProductID:   2,
			UserID:      5,
			SessionDate: "2024-06-04",
			SessionTime: "10:00",
			Status:      domain.BookingConfirmed,
		},
	}
	h := handlers.NewBookingsHandler(svc)

	body := `{"product_id":2,"session_date":"2024-06-04","session_time":"10:00","notes":"please use firm pressure"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Create(rec, withClaims(req, 5))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if svc.lastUserID != 5 {
		t.Errorf("user = %d, want 5", svc.lastUserID)
	}
	if svc.lastReq.Notes != "please use firm pressure" {
		t.Errorf("notes = %q", svc.lastReq.Notes)
	}

	var out domain.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ID != 7 || out.Status != domain.BookingConfirmed {
		t.Errorf("unexpected booking: %+v", out)
	}
}

func TestCreateBookingUnauthenticated(t *testing.T) {
	h := handlers.NewBookingsHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCreateBookingValidationErrors(t *testing.T) {
	svc := &mockBookingService{
		createErr: &service.ValidationError{
			Fields: domain.FieldErrors{"notes": {"too long"}},
		},
	}
	h := handlers.NewBookingsHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewBufferString(`{"product_id":2}`))
	rec := httptest.NewRecorder()
	h.Create(rec, withClaims(req, 5))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	er := decodeError(t, rec.Body)
	if er.Code != response.CodeInvalidInput {
		t.Errorf("code = %s, want %s", er.Code, response.CodeInvalidInput)
	}
	if got := er.Errors["notes"]; len(got) != 1 || got[0] != "too long" {
		t.Errorf("notes errors = %v, want [too long]", got)
	}
}

func TestCreateBookingSlotTaken(t *testing.T) {
	svc := &mockBookingService{createErr: service.ErrSlotTaken}
	h := handlers.NewBookingsHandler(svc)

	body := `{"product_id":2,"session_date":"2024-06-04","session_time":"10:00"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Create(rec, withClaims(req, 5))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	er := decodeError(t, rec.Body)
	if er.Code != response.CodeSlotTaken {
		t.Errorf("code = %s, want %s", er.Code, response.CodeSlotTaken)
	}
}

// ---------- Cancel ----------

func TestCancelBooking(t *testing.T) {
	svc := &mockBookingService{cancelOK: true}
	h := handlers.NewBookingsHandler(svc)

	r := chi.NewRouter()
	r.Delete("/v1/bookings/{id}", func(w http.ResponseWriter, req *http.Request) {
		h.Cancel(w, withClaims(req, 5))
	})

	req := httptest.NewRequest(http.MethodDelete, "/v1/bookings/7", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestCancelBookingNotFound(t *testing.T) {
	svc := &mockBookingService{cancelOK: false}
	h := handlers.NewBookingsHandler(svc)

	r := chi.NewRouter()
	r.Delete("/v1/bookings/{id}", func(w http.ResponseWriter, req *http.Request) {
		h.Cancel(w, withClaims(req, 5))
	})

	req := httptest.NewRequest(http.MethodDelete, "/v1/bookings/999", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
