package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hollandpark-shiatsu/bookings/internal/domain"
)

// ErrSlotTaken is returned when an insert loses the race for a slot. The
// partial unique index on (product_id, session_date, session_time) makes
// the check-and-insert a single atomic statement: concurrent commits for
// the same triple yield exactly one success.
var ErrSlotTaken = errors.New("slot already booked")

type BookingsRepo interface {
	Create(ctx context.Context, userID int64, req *domain.BookingReq) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListReserved(ctx context.Context, productID int64, weekStart time.Time) ([]domain.ReservedSlot, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	Cancel(ctx context.Context, id, userID int64) (bool, error)
	SetCalendarEvents(ctx context.Context, id int64, eventID, adminEventID string) error
}

type BookingsRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingsRepo(pool *pgxpool.Pool) *BookingsRepoImpl { return &BookingsRepoImpl{pool: pool} }

const bookingCols = `id, product_id, user_id,
to_char(session_date, 'YYYY-MM-DD'), to_char(session_time, 'HH24:MI'),
notes, status, calendar_event_id, admin_event_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.ProductID, &b.UserID,
		&b.SessionDate, &b.SessionTime,
		&b.Notes, &b.Status, &b.CalendarEventID, &b.AdminEventID,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingsRepoImpl) Create(ctx context.Context, userID int64, req *domain.BookingReq) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (product_id, user_id, session_date, session_time, notes, status)
VALUES ($1, $2, $3::date, $4::time, $5, 'confirmed')
RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q,
		req.ProductID, userID, req.SessionDate, req.SessionTime, req.Notes))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return b, nil
}

func (r *BookingsRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *BookingsRepoImpl) ListReserved(ctx context.Context, productID int64, weekStart time.Time) ([]domain.ReservedSlot, error) {
	const q = `
		SELECT to_char(session_date, 'YYYY-MM-DD'), to_char(session_time, 'HH24:MI')
		FROM bookings
		WHERE product_id = $1
		  AND status <> 'canceled'
		  AND session_date >= $2::date
		  AND session_date < $2::date + $3
		ORDER BY session_date, session_time`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, productID, domain.FormatDate(weekStart), domain.DaysPerWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.ReservedSlot, 0, 8)
	for rows.Next() {
		var s domain.ReservedSlot
		if err := rows.Scan(&s.Date, &s.Time); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *BookingsRepoImpl) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + bookingCols + ` FROM bookings
WHERE user_id=$1 ORDER BY session_date DESC, session_time DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bs := make([]domain.Booking, 0, limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}

func (r *BookingsRepoImpl) Cancel(ctx context.Context, id, userID int64) (bool, error) {
	const q = `UPDATE bookings SET status='canceled', updated_at=now()
WHERE id=$1 AND user_id=$2 AND status <> 'canceled'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *BookingsRepoImpl) SetCalendarEvents(ctx context.Context, id int64, eventID, adminEventID string) error {
	const q = `UPDATE bookings SET calendar_event_id=$2, admin_event_id=$3, updated_at=now() WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, eventID, adminEventID)
	return err
}

var _ BookingsRepo = (*BookingsRepoImpl)(nil)
