package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
	"github.com/hollandpark-shiatsu/bookings/pkg/config"
	"github.com/hollandpark-shiatsu/bookings/pkg/events"
	"github.com/hollandpark-shiatsu/bookings/pkg/logger"
)

// Service mirrors sessions into a shared Google Calendar: one event for the
// session itself and a short "Admin" break right after it.
type Service struct {
	svc        *gcal.Service
	calendarID string
	location   *time.Location
	adminBreak time.Duration
}

// New returns nil (and no error) when no service-account key is present;
// callers treat a nil service as calendar sync disabled.
func New(ctx context.Context, cfg config.CalendarConfig) (*Service, error) {
	if cfg.CalendarID == "" {
		return nil, nil
	}
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		logger.Warn("Calendar credentials not found, sync disabled", "file", cfg.CredentialsFile)
		return nil, nil
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar client: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", cfg.Timezone, err)
	}

	return &Service{
		svc:        svc,
		calendarID: cfg.CalendarID,
		location:   loc,
		adminBreak: cfg.AdminBreak,
	}, nil
}

// CreateSessionEvents creates the session event and the admin-break event
// and returns both event ids.
func (s *Service) CreateSessionEvents(ctx context.Context, ev *events.BookingCreatedEvent) (string, string, error) {
	start, err := s.sessionStart(ev.SessionDate, ev.SessionTime)
	if err != nil {
		return "", "", err
	}
	end := start.Add(time.Duration(ev.DurationMinutes) * time.Minute)

	session := &gcal.Event{
		Summary:     "Shiatsu Session - " + ev.ProductName,
		Description: fmt.Sprintf("Client: %s (%s)\nNotes: %s", ev.UserName, ev.UserEmail, ev.Notes),
		Start:       s.eventTime(start),
		End:         s.eventTime(end),
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	created, err := s.svc.Events.Insert(s.calendarID, session).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to create session event: %w", err)
	}

	adminEnd := end.Add(s.adminBreak)
	admin := &gcal.Event{
		Summary:     "Admin",
		Description: fmt.Sprintf("Admin break after session for %s", ev.UserName),
		Start:       s.eventTime(end),
		End:         s.eventTime(adminEnd),
	}
	adminCreated, err := s.svc.Events.Insert(s.calendarID, admin).Context(ctx).Do()
	if err != nil {
		// Session event exists; report the break failure but keep the id.
		return created.Id, "", fmt.Errorf("failed to create admin break event: %w", err)
	}

	return created.Id, adminCreated.Id, nil
}

// DeleteEvents removes calendar events by id, skipping empty ids.
func (s *Service) DeleteEvents(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.svc.Events.Delete(s.calendarID, id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete event %s: %w", id, err)
		}
	}
	return nil
}

func (s *Service) sessionStart(date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout+" "+domain.TimeLayout, date+" "+hhmm, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session start %s %s: %w", date, hhmm, err)
	}
	return t, nil
}

func (s *Service) eventTime(t time.Time) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: s.location.String(),
	}
}
