package domain

import (
	"testing"
	"time"
)

func TestHourMarks(t *testing.T) {
	marks := HourMarks()
	if len(marks) != SlotsPerDay {
		t.Fatalf("got %d marks, want %d", len(marks), SlotsPerDay)
	}
	if marks[0] != "09:00" || marks[len(marks)-1] != "17:00" {
		t.Errorf("marks span %s..%s, want 09:00..17:00", marks[0], marks[len(marks)-1])
	}
}

func TestIsHourMark(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"09:00", true},
		{"17:00", true},
		{"12:00", true},
		{"08:00", false},
		{"18:00", false},
		{"10:30", false},
		{"9:00", false},
		{"noon", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHourMark(tt.in); got != tt.want {
			t.Errorf("IsHourMark(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWeekAnchor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-06-03", "2024-06-03"}, // Monday stays put
		{"2024-06-04", "2024-06-03"}, // Tuesday
		{"2024-06-08", "2024-06-03"}, // Saturday
		{"2024-06-09", "2024-06-03"}, // Sunday belongs to the week it ends
		{"2024-06-10", "2024-06-10"}, // next Monday
	}
	for _, tt := range tests {
		in, err := ParseDate(tt.in)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.in, err)
		}
		if got := FormatDate(WeekAnchor(in)); got != tt.want {
			t.Errorf("WeekAnchor(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWeekAnchorIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 6, 5, 23, 45, 0, 0, time.UTC)
	if got := FormatDate(WeekAnchor(late)); got != "2024-06-03" {
		t.Errorf("anchor = %s, want 2024-06-03", got)
	}
}

func TestWeekDays(t *testing.T) {
	anchor, _ := ParseDate("2024-06-03")
	days := WeekDays(anchor)
	if len(days) != DaysPerWeek {
		t.Fatalf("got %d days, want %d", len(days), DaysPerWeek)
	}
	if FormatDate(days[0]) != "2024-06-03" || FormatDate(days[5]) != "2024-06-08" {
		t.Errorf("week spans %s..%s", FormatDate(days[0]), FormatDate(days[5]))
	}
	for _, d := range days {
		if d.Weekday() == time.Sunday {
			t.Error("week days must not include Sunday")
		}
	}
}
