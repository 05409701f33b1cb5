package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
	"github.com/hollandpark-shiatsu/bookings/internal/repo/postgres"
	"github.com/hollandpark-shiatsu/bookings/pkg/events"
	"github.com/hollandpark-shiatsu/bookings/pkg/logger"
)

// ErrSlotTaken mirrors the repository sentinel so handlers can depend on
// the service package alone.
var ErrSlotTaken = postgres.ErrSlotTaken

// ErrUnknownDuration is returned when no active product matches the
// requested session length.
var ErrUnknownDuration = errors.New("no active product for duration")

// ValidationError carries per-field messages for a rejected commit.
type ValidationError struct {
	Fields domain.FieldErrors
}

func (e *ValidationError) Error() string { return "validation failed" }

type BookingService interface {
	WeekAvailability(ctx context.Context, durationMinutes int, weekStart time.Time) (*domain.WeekAvailability, error)
	CreateBooking(ctx context.Context, userID int64, req *domain.BookingReq) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, id, userID int64) (bool, error)
}

type bookingService struct {
	bookings postgres.BookingsRepo
	products postgres.ProductsRepo
	users    postgres.UsersRepo
	bus      events.Publisher
	now      func() time.Time
}

func NewBookingService(
	bookings postgres.BookingsRepo,
	products postgres.ProductsRepo,
	users postgres.UsersRepo,
	bus events.Publisher,
) BookingService {
	return &bookingService{
		bookings: bookings,
		products: products,
		users:    users,
		bus:      bus,
		now:      time.Now,
	}
}

func (s *bookingService) WeekAvailability(ctx context.Context, durationMinutes int, weekStart time.Time) (*domain.WeekAvailability, error) {
	product, err := s.products.GetActiveByDuration(ctx, durationMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil {
		return nil, ErrUnknownDuration
	}

	anchor := domain.WeekAnchor(weekStart)
	reserved, err := s.bookings.ListReserved(ctx, product.ID, anchor)
	if err != nil {
		return nil, fmt.Errorf("failed to list reserved slots: %w", err)
	}

	return &domain.WeekAvailability{
		ProductID: product.ID,
		WeekStart: domain.FormatDate(anchor),
		Reserved:  reserved,
	}, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, userID int64, req *domain.BookingReq) (*domain.Booking, error) {
	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if errs := req.Validate(product, s.now()); errs.Any() {
		return nil, &ValidationError{Fields: errs}
	}

	booking, err := s.bookings.Create(ctx, userID, req)
	if err != nil {
		// ErrSlotTaken passes through so the handler can answer 409.
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		logger.ErrorContext(ctx, "Failed to load user for booking event", "error", err, "booking_id", booking.ID)
		return booking, nil
	}

	event := events.BookingCreatedEvent{
		BookingID:       booking.ID,
		ProductID:       product.ID,
		ProductName:     product.Name,
		DurationMinutes: product.DurationMinutes,
		UserName:        user.Name,
		UserEmail:       user.Email,
		SessionDate:     booking.SessionDate,
		SessionTime:     booking.SessionTime,
		Notes:           booking.Notes,
		CreatedAt:       booking.CreatedAt,
	}
	if err := s.bus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, limit, offset)
}

func (s *bookingService) CancelBooking(ctx context.Context, id, userID int64) (bool, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if booking == nil || !booking.IsOwner(userID) {
		return false, nil
	}

	ok, err := s.bookings.Cancel(ctx, id, userID)
	if err != nil || !ok {
		return ok, err
	}

	event := events.BookingCanceledEvent{
		BookingID:   booking.ID,
		SessionDate: booking.SessionDate,
		SessionTime: booking.SessionTime,
		CanceledAt:  s.now(),
	}
	if booking.CalendarEventID != nil {
		event.CalendarEventID = *booking.CalendarEventID
	}
	if booking.AdminEventID != nil {
		event.AdminEventID = *booking.AdminEventID
	}
	if product, perr := s.products.GetByID(ctx, booking.ProductID); perr == nil && product != nil {
		event.ProductName = product.Name
	}
	if user, uerr := s.users.FindByID(ctx, userID); uerr == nil && user != nil {
		event.UserName = user.Name
		event.UserEmail = user.Email
	}
	if err := s.bus.Publish(ctx, events.BookingCanceled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", booking.ID)
	}

	return true, nil
}
