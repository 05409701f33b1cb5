// Package wizard implements the booking flow used by the site frontend:
// pick a session length, pick an open slot in a week of availability, add
// notes and commit. State transitions are pure functions of (state, event)
// so the flow is unit-testable without a rendering environment.
package wizard

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
)

type Step int

const (
	StepChooseLength Step = iota + 1
	StepChooseSlot
	StepNotes
)

const MaxNotesLen = domain.MaxNotesLen

// Messages shown at the UI boundary. A field-level message from the server
// takes precedence over the generic one.
const (
	loadFailedMsg    = "failed to load slots"
	bookingFailedMsg = "booking failed"
	notesTooLongMsg  = "too long"
)

// State is the whole wizard, one explicit value per concern.
type State struct {
	Step      Step
	Duration  int       // selected session length in minutes, 0 = none
	WeekStart time.Time // always the Monday anchoring the visible week

	// Availability fetch. Generation identifies the most recently issued
	// query; responses carrying an older generation are dropped.
	Generation uint64
	Loading    bool
	LoadError  string
	ProductID  int64
	Reserved   map[domain.SlotKey]bool

	Selected   *domain.SlotKey
	Notes      string
	NotesError string

	Submitting  bool
	Submitted   bool
	SubmitError string
	FieldErrors domain.FieldErrors
}

// New returns a fresh wizard at step 1, anchored on the Monday of today's
// week.
func New(today time.Time) State {
	return State{
		Step:      StepChooseLength,
		WeekStart: domain.WeekAnchor(today),
	}
}

// SelectLength picks a session length and moves to slot selection. Any
// previously selected slot is invalidated: availability differs per length.
// The second return value reports whether a new availability fetch is due.
func (s State) SelectLength(minutes int) (State, bool) {
	s.Duration = minutes
	s.Step = StepChooseSlot
	s.Selected = nil
	s.Submitted = false
	s.Generation++
	s.Loading = true
	s.LoadError = ""
	return s, true
}

// NavigateWeek shifts the visible week by whole weeks and invalidates the
// selected slot. A fetch is due only once a length has been chosen.
func (s State) NavigateWeek(weeks int) (State, bool) {
	s.WeekStart = s.WeekStart.AddDate(0, 0, 7*weeks)
	s.Selected = nil
	if s.Duration == 0 {
		return s, false
	}
	s.Generation++
	s.Loading = true
	s.LoadError = ""
	return s, true
}

// ApplyAvailability overlays a slot query response onto the grid. Responses
// from superseded queries are dropped so a stale slower response can never
// overwrite a newer one.
func (s State) ApplyAvailability(gen uint64, res *domain.WeekAvailability) State {
	if gen != s.Generation {
		return s
	}
	reserved := make(map[domain.SlotKey]bool, len(res.Reserved))
	for _, slot := range res.Reserved {
		reserved[domain.SlotKey{Date: slot.Date, Time: slot.Time}] = true
	}
	s.Reserved = reserved
	s.ProductID = res.ProductID
	s.Loading = false
	s.LoadError = ""
	return s
}

// FailFetch records a failed availability fetch. The grid keeps its
// last-good reservations; there is no automatic retry.
func (s State) FailFetch(gen uint64) State {
	if gen != s.Generation {
		return s
	}
	s.Loading = false
	s.LoadError = loadFailedMsg
	return s
}

// SelectSlot picks an open cell and moves to the notes step. Selecting a
// reserved cell, or a cell outside the visible grid, is a no-op.
func (s State) SelectSlot(key domain.SlotKey) State {
	if s.Step < StepChooseSlot || s.Reserved[key] || !s.inGrid(key) {
		return s
	}
	k := key
	s.Selected = &k
	s.Step = StepNotes
	return s
}

// SetNotes stores the draft notes. Text over the cap is kept as typed (the
// user shortens it manually); it only raises the validation error that
// blocks submission.
func (s State) SetNotes(text string) State {
	s.Notes = text
	if utf8.RuneCountInString(text) > MaxNotesLen {
		s.NotesError = notesTooLongMsg
	} else {
		s.NotesError = ""
	}
	return s
}

// CanSubmit reports whether the draft is complete and valid.
func (s State) CanSubmit() bool {
	return s.Step == StepNotes && s.Selected != nil && s.NotesError == "" && !s.Submitting
}

func (s State) BeginSubmit() State {
	s.Submitting = true
	s.SubmitError = ""
	s.FieldErrors = nil
	return s
}

// CompleteSubmit discards the draft and resets the wizard to step 1.
func (s State) CompleteSubmit() State {
	next := New(s.WeekStart)
	next.Submitted = true
	return next
}

// FailSubmit keeps the current step and notes so the user can correct and
// retry.
func (s State) FailSubmit(fields domain.FieldErrors) State {
	s.Submitting = false
	s.FieldErrors = fields
	s.SubmitError = bookingFailedMsg
	return s
}

// SubmissionMessage is the error to display after a failed commit: the
// server's field-level message when present, the generic one otherwise.
func (s State) SubmissionMessage() string {
	if len(s.FieldErrors) > 0 {
		fields := make([]string, 0, len(s.FieldErrors))
		for f := range s.FieldErrors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			if len(s.FieldErrors[f]) > 0 {
				return s.FieldErrors[f][0]
			}
		}
	}
	return s.SubmitError
}

func (s State) inGrid(key domain.SlotKey) bool {
	d, err := domain.ParseDate(key.Date)
	if err != nil || !domain.IsHourMark(key.Time) {
		return false
	}
	days := int(d.Sub(s.WeekStart).Hours() / 24)
	return days >= 0 && days < domain.DaysPerWeek
}
