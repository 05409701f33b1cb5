package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
	mw "github.com/hollandpark-shiatsu/bookings/internal/http/middleware"
	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
	"github.com/hollandpark-shiatsu/bookings/internal/service"
)

type BookingsHandler struct {
	Bookings service.BookingService
}

func NewBookingsHandler(bookings service.BookingService) *BookingsHandler {
	return &BookingsHandler{Bookings: bookings}
}

// Create commits one slot reservation. The insert is atomic: when two
// clients race for the same slot exactly one gets 201, the rest 409.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req domain.BookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON format")
		return
	}

	booking, err := h.Bookings.CreateBooking(r.Context(), claims.Sub, &req)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			response.ValidationFailed(w, vErr.Fields)
		case errors.Is(err, service.ErrSlotTaken):
			response.SlotTaken(w)
		default:
			response.InternalError(w, "booking failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(booking)
}

// List returns the caller's bookings.
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	limit, offset := parsePagination(r)
	bookings, err := h.Bookings.ListUserBookings(r.Context(), claims.Sub, limit, offset)
	if err != nil {
		response.InternalError(w, "failed to retrieve bookings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(bookings)
}

// Cancel cancels one of the caller's bookings, freeing its slot.
func (h *BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid booking ID")
		return
	}

	ok, err := h.Bookings.CancelBooking(r.Context(), id, claims.Sub)
	if err != nil {
		response.InternalError(w, "failed to cancel booking")
		return
	}
	if !ok {
		response.NotFound(w, "booking not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
