package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
	"github.com/hollandpark-shiatsu/bookings/internal/repo/postgres"
)

// ---------- Mocks ----------

type mockProductsRepo struct {
	products []domain.Product
}

func (m *mockProductsRepo) ListActive(context.Context) ([]domain.Product, error) {
	return m.products, nil
}

func (m *mockProductsRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, nil
}

func (m *mockProductsRepo) GetActiveByDuration(_ context.Context, minutes int) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].DurationMinutes == minutes && m.products[i].IsActive {
			return &m.products[i], nil
		}
	}
	return nil, nil
}

type mockBookingsRepo struct {
	nextID   int64
	bookings map[int64]*domain.Booking
	reserved []domain.ReservedSlot

	lastWeekStart time.Time
}

func newMockBookingsRepo() *mockBookingsRepo {
	return &mockBookingsRepo{nextID: 1, bookings: map[int64]*domain.Booking{}}
}

func (m *mockBookingsRepo) Create(_ context.Context, userID int64, req *domain.BookingReq) (*domain.Booking, error) {
	for _, b := range m.bookings {
		if b.Status != domain.BookingCanceled &&
			b.ProductID == req.ProductID &&
			b.SessionDate == req.SessionDate &&
			b.SessionTime == req.SessionTime {
			return nil, postgres.ErrSlotTaken
		}
	}
	b := &domain.Booking{
		ID:          m.nextID,
		ProductID:   req.ProductID,
		UserID:      userID,
		SessionDate: req.SessionDate,
		SessionTime: req.SessionTime,
		Notes:       req.Notes,
		Status:      domain.BookingConfirmed,
		CreatedAt:   time.Now(),
	}
	m.bookings[b.ID] = b
	m.nextID++
	return b, nil
}

func (m *mockBookingsRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return m.bookings[id], nil
}

func (m *mockBookingsRepo) ListReserved(_ context.Context, _ int64, weekStart time.Time) ([]domain.ReservedSlot, error) {
	m.lastWeekStart = weekStart
	return m.reserved, nil
}

func (m *mockBookingsRepo) ListByUser(_ context.Context, userID int64, _, _ int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingsRepo) Cancel(_ context.Context, id, userID int64) (bool, error) {
	b := m.bookings[id]
	if b == nil || b.UserID != userID || b.Status == domain.BookingCanceled {
		return false, nil
	}
	b.Status = domain.BookingCanceled
	return true, nil
}

func (m *mockBookingsRepo) SetCalendarEvents(_ context.Context, id int64, eventID, adminEventID string) error {
	b := m.bookings[id]
	if b == nil {
		return errors.New("not found")
	}
	b.CalendarEventID = &eventID
	b.AdminEventID = &adminEventID
	return nil
}

type mockUsersRepo struct {
	users map[int64]*postgres.User
}

func (m *mockUsersRepo) Create(context.Context, string, string, string) (*postgres.User, error) {
	return nil, errors.New("not implemented")
}
func (m *mockUsersRepo) FindByEmail(context.Context, string) (*postgres.User, error) {
	return nil, nil
}
func (m *mockUsersRepo) FindByID(_ context.Context, id int64) (*postgres.User, error) {
	return m.users[id], nil
}

type mockPublisher struct {
	subjects []string
	payloads []any
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data any) error {
	m.subjects = append(m.subjects, subject)
	m.payloads = append(m.payloads, data)
	return nil
}
func (m *mockPublisher) Close() error { return nil }

// ---------- Fixtures ----------

func newTestService(t *testing.T) (*bookingService, *mockBookingsRepo, *mockPublisher) {
	t.Helper()
	products := &mockProductsRepo{products: []domain.Product{
		{ID: 1, Name: "Shiatsu Session (30 min)", DurationMinutes: 30, IsActive: true},
		{ID: 2, Name: "Shiatsu Session (60 min)", DurationMinutes: 60, IsActive: true},
		{ID: 3, Name: "Shiatsu Session (90 min)", DurationMinutes: 90, IsActive: true},
	}}
	bookings := newMockBookingsRepo()
	users := &mockUsersRepo{users: map[int64]*postgres.User{
		5: {ID: 5, Email: "ana@example.com", Name: "Ana"},
	}}
	bus := &mockPublisher{}

	svc := NewBookingService(bookings, products, users, bus).(*bookingService)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, bookings, bus
}

// ---------- Tests ----------

func TestWeekAvailability(t *testing.T) {
	svc, bookings, _ := newTestService(t)
	bookings.reserved = []domain.ReservedSlot{{Date: "2024-06-04", Time: "10:00"}}

	// A mid-week date normalizes to its Monday.
	wednesday := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	got, err := svc.WeekAvailability(context.Background(), 60, wednesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProductID != 2 {
		t.Errorf("product = %d, want 2", got.ProductID)
	}
	if got.WeekStart != "2024-06-03" {
		t.Errorf("week start = %s, want 2024-06-03", got.WeekStart)
	}
	if domain.FormatDate(bookings.lastWeekStart) != "2024-06-03" {
		t.Errorf("repo queried with %v, want the Monday anchor", bookings.lastWeekStart)
	}
	if len(got.Reserved) != 1 {
		t.Errorf("got %d reserved slots, want 1", len(got.Reserved))
	}
}

func TestWeekAvailabilityUnknownDuration(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.WeekAvailability(context.Background(), 45, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrUnknownDuration) {
		t.Errorf("err = %v, want ErrUnknownDuration", err)
	}
}

func TestCreateBookingPublishesEvent(t *testing.T) {
	svc, _, bus := newTestService(t)

	req := &domain.BookingReq{
		ProductID:   2,
		SessionDate: "2024-06-04",
		SessionTime: "10:00",
		Notes:       "please use firm pressure",
	}
	booking, err := svc.CreateBooking(context.Background(), 5, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != domain.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", booking.Status)
	}
	if len(bus.subjects) != 1 || bus.subjects[0] != "booking.created" {
		t.Fatalf("published %v, want [booking.created]", bus.subjects)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _, bus := newTestService(t)

	req := &domain.BookingReq{
		ProductID:   2,
		SessionDate: "2024-05-30", // before the injected "today"
		SessionTime: "10:00",
	}
	_, err := svc.CreateBooking(context.Background(), 5, req)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if _, ok := vErr.Fields["session_date"]; !ok {
		t.Errorf("fields = %v, want session_date error", vErr.Fields)
	}
	if len(bus.subjects) != 0 {
		t.Error("no event should be published for a rejected commit")
	}
}

func TestCreateBookingSlotTaken(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := &domain.BookingReq{ProductID: 2, SessionDate: "2024-06-04", SessionTime: "10:00"}
	if _, err := svc.CreateBooking(context.Background(), 5, req); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	_, err := svc.CreateBooking(context.Background(), 5, req)
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("err = %v, want ErrSlotTaken", err)
	}
}

func TestCancelBooking(t *testing.T) {
	svc, bookings, bus := newTestService(t)

	req := &domain.BookingReq{ProductID: 2, SessionDate: "2024-06-04", SessionTime: "10:00"}
	booking, err := svc.CreateBooking(context.Background(), 5, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Someone else's booking stays untouched.
	ok, err := svc.CancelBooking(context.Background(), booking.ID, 99)
	if err != nil || ok {
		t.Fatalf("cancel by stranger = (%v, %v), want (false, nil)", ok, err)
	}

	ok, err = svc.CancelBooking(context.Background(), booking.ID, 5)
	if err != nil || !ok {
		t.Fatalf("cancel by owner = (%v, %v), want (true, nil)", ok, err)
	}
	if bookings.bookings[booking.ID].Status != domain.BookingCanceled {
		t.Error("booking not marked canceled")
	}
	if len(bus.subjects) != 2 || bus.subjects[1] != "booking.canceled" {
		t.Errorf("published %v, want booking.canceled last", bus.subjects)
	}

	// The freed slot can be booked again.
	if _, err := svc.CreateBooking(context.Background(), 5, req); err != nil {
		t.Errorf("rebooking a canceled slot failed: %v", err)
	}
}
