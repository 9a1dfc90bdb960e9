package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const bookingColumns = `id, user_id, ointment_type, booking_type, category, appointment_date, ` +
	`appointment_time, description, status, notification_sent, created_at`

// PostgresRepository stores bookings in the relational database.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q rowQuerier) *PostgresRepository {
	if q == nil {
		panic("bookings: querier required")
	}
	return &PostgresRepository{pool: q}
}

// Create inserts a new booking row.
func (r *PostgresRepository) Create(ctx context.Context, booking *Booking) (*Booking, error) {
	id := uuid.New()
	query := `
		INSERT INTO bookings (id, user_id, ointment_type, booking_type, category,
			appointment_date, appointment_time, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		booking.UserID,
		booking.OintmentType,
		string(booking.BookingType),
		string(booking.Category),
		booking.AppointmentDate,
		booking.AppointmentTime,
		booking.Description,
		string(booking.Status),
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("bookings: insert failed: %w", err)
	}

	out := *booking
	out.ID = id.String()
	out.CreatedAt = createdAt
	return &out, nil
}

// List returns the user's bookings ordered by appointment date ascending.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY appointment_date ASC, created_at ASC`
	return r.query(ctx, query, userID)
}

// Get returns one of the user's bookings.
func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBookingNotFound
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND user_id = $2`
	b, err := scanBooking(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: load failed: %w", err)
	}
	return b, nil
}

// Update overwrites the mutable fields of an existing booking.
func (r *PostgresRepository) Update(ctx context.Context, booking *Booking) (*Booking, error) {
	query := `
		UPDATE bookings
		SET ointment_type = $3, booking_type = $4, category = $5, appointment_date = $6,
			appointment_time = $7, description = $8, status = $9, notification_sent = $10
		WHERE id = $1 AND user_id = $2
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		booking.ID,
		booking.UserID,
		booking.OintmentType,
		string(booking.BookingType),
		string(booking.Category),
		booking.AppointmentDate,
		booking.AppointmentTime,
		booking.Description,
		string(booking.Status),
		booking.NotificationSent,
	).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: update failed: %w", err)
	}
	out := *booking
	out.CreatedAt = createdAt
	return &out, nil
}

// Delete removes one of the user's bookings.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrBookingNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("bookings: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListUpcoming returns the user's bookings in [from, to] whose status is in statuses.
func (r *PostgresRepository) ListUpcoming(ctx context.Context, userID string, from, to time.Time, statuses []Status) ([]*Booking, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1 AND appointment_date >= $2 AND appointment_date <= $3
			AND (cardinality($4::text[]) = 0 OR status = ANY($4))
		ORDER BY appointment_date ASC`
	return r.query(ctx, query, userID, from, to, names)
}

// ListDueForReminder returns unnotified bookings of any user in [from, to].
func (r *PostgresRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE notification_sent = false AND appointment_date >= $1 AND appointment_date <= $2
		ORDER BY appointment_date ASC`
	return r.query(ctx, query, from, to)
}

// MarkNotificationSent flags a booking as reminded, reporting whether this
// call changed it.
func (r *PostgresRepository) MarkNotificationSent(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE bookings SET notification_sent = true WHERE id = $1 AND notification_sent = false`, id)
	if err != nil {
		return false, fmt.Errorf("bookings: mark notified: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: query failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: rows: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b           Booking
		bookingType string
		category    string
		status      string
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.OintmentType,
		&bookingType,
		&category,
		&b.AppointmentDate,
		&b.AppointmentTime,
		&b.Description,
		&status,
		&b.NotificationSent,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.BookingType = BookingType(bookingType)
	b.Category = Category(category)
	b.Status = Status(status)
	return &b, nil
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*InMemoryRepository)(nil)
)
