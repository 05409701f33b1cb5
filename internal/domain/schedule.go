package domain

import (
	"fmt"
	"time"
)

// The practice takes bookings Monday through Saturday, on the hour,
// from 09:00 to 17:00 inclusive.
const (
	OpenHour    = 9
	CloseHour   = 17
	DaysPerWeek = 6
	SlotsPerDay = CloseHour - OpenHour + 1

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// SlotKey identifies one bookable cell in the weekly grid.
type SlotKey struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ReservedSlot is one already-booked cell as reported by the slot query.
type ReservedSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// WeekAvailability is the slot query response: every slot in the week that
// is already reserved for the product. Slots absent from Reserved are open.
type WeekAvailability struct {
	ProductID int64          `json:"product_id"`
	WeekStart string         `json:"week_start"`
	Reserved  []ReservedSlot `json:"reserved"`
}

// HourMarks returns the bookable times of a day, zero-padded with a ":00"
// minute suffix: "09:00" .. "17:00".
func HourMarks() []string {
	marks := make([]string, 0, SlotsPerDay)
	for h := OpenHour; h <= CloseHour; h++ {
		marks = append(marks, fmt.Sprintf("%02d:00", h))
	}
	return marks
}

// IsHourMark reports whether s is one of the bookable hour marks.
func IsHourMark(s string) bool {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return false
	}
	return t.Minute() == 0 && t.Hour() >= OpenHour && t.Hour() <= CloseHour
}

// WeekAnchor normalizes t to the Monday of its week, truncated to a
// calendar date with no time-of-day or timezone component.
func WeekAnchor(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// WeekDays returns the six bookable days (Monday through Saturday) of the
// week anchored at anchor.
func WeekDays(anchor time.Time) []time.Time {
	days := make([]time.Time, 0, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		days = append(days, anchor.AddDate(0, 0, i))
	}
	return days
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// IsBookableDay reports whether t falls on a bookable weekday (the practice
// is closed on Sundays).
func IsBookableDay(t time.Time) bool {
	return t.Weekday() != time.Sunday
}
