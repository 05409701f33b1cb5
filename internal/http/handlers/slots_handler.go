package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
	"github.com/hollandpark-shiatsu/bookings/internal/service"
)

type SlotsHandler struct {
	Bookings service.BookingService
}

func NewSlotsHandler(bookings service.BookingService) *SlotsHandler {
	return &SlotsHandler{Bookings: bookings}
}

// Week answers the slot query: which slots of the requested week are
// already reserved for the product matching the session length. Slots
// absent from the response are open.
func (h *SlotsHandler) Week(w http.ResponseWriter, r *http.Request) {
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil || duration <= 0 {
		response.BadRequest(w, "invalid duration parameter")
		return
	}

	weekStart, err := domain.ParseDate(r.URL.Query().Get("week_start"))
	if err != nil {
		response.BadRequest(w, "invalid week_start parameter")
		return
	}

	availability, err := h.Bookings.WeekAvailability(r.Context(), duration, weekStart)
	if err != nil {
		if errors.Is(err, service.ErrUnknownDuration) {
			response.BadRequest(w, "no active session for this duration")
			return
		}
		response.InternalError(w, "failed to load slots")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(availability)
}
