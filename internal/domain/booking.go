package domain

import (
	"time"
	"unicode/utf8"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingConfirmed, BookingCanceled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

const MaxNotesLen = 1000

type Booking struct {
	ID              int64         `json:"id"`
	ProductID       int64         `json:"product_id"`
	UserID          int64         `json:"user_id"`
	SessionDate     string        `json:"session_date"`
	SessionTime     string        `json:"session_time"`
	Notes           string        `json:"notes"`
	Status          BookingStatus `json:"status"`
	CalendarEventID *string       `json:"calendar_event_id,omitempty"`
	AdminEventID    *string       `json:"admin_event_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BookingReq is the commit payload for reserving one slot.
type BookingReq struct {
	ProductID   int64  `json:"product_id"`
	SessionDate string `json:"session_date"`
	SessionTime string `json:"session_time"`
	Notes       string `json:"notes"`
}

// FieldErrors maps input fields to validation messages, mirroring the wire
// shape {"errors": {"notes": ["too long"]}}.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// Validate checks the commit payload against the product catalog entry and
// the bookable grid. today is the caller's current calendar date.
func (r *BookingReq) Validate(product *Product, today time.Time) FieldErrors {
	errs := FieldErrors{}

	if product == nil || !product.IsActive {
		errs.Add("product_id", "unknown or inactive product")
	}

	date, err := ParseDate(r.SessionDate)
	if err != nil {
		errs.Add("session_date", "invalid date")
	} else {
		y, m, d := today.Date()
		todayDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if date.Before(todayDate) {
			errs.Add("session_date", "cannot be in the past")
		}
		if !IsBookableDay(date) {
			errs.Add("session_date", "not a bookable day")
		}
	}

	if !IsHourMark(r.SessionTime) {
		errs.Add("session_time", "invalid time slot")
	}

	if utf8.RuneCountInString(r.Notes) > MaxNotesLen {
		errs.Add("notes", "too long")
	}

	return errs
}

func (b *Booking) IsOwner(userID int64) bool {
	return b.UserID == userID
}
