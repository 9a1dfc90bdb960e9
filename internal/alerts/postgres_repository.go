package alerts

import (
	"context"
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

const alertColumns = `id, user_id, type, priority, title, message, is_read, created_at`

// PostgresRepository stores alerts in the relational database.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("alerts: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q rowQuerier) *PostgresRepository {
	if q == nil {
		panic("alerts: querier required")
	}
	return &PostgresRepository{pool: q}
}

// Create inserts a new alert row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateAlertRequest) (*Alert, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	query := `
		INSERT INTO alerts (id, user_id, type, priority, title, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.UserID,
		string(req.Type),
		string(req.Priority),
		req.Title,
		req.Message,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("alerts: insert failed: %w", err)
	}
	return &Alert{
		ID:        id.String(),
		UserID:    req.UserID,
		Type:      req.Type,
		Priority:  req.Priority,
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: createdAt,
	}, nil
}

// List returns the user's alerts, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, userID)
}

// ListUnread returns up to limit unread alerts, newest first.
func (r *PostgresRepository) ListUnread(ctx context.Context, userID string, limit int) ([]*Alert, error) {
	if limit <= 0 {
		query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1 AND is_read = false ORDER BY created_at DESC`
		return r.query(ctx, query, userID)
	}
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1 AND is_read = false ORDER BY created_at DESC LIMIT $2`
	return r.query(ctx, query, userID, limit)
}

// CountUnread counts the user's unread alerts.
func (r *PostgresRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE user_id = $1 AND is_read = false`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("alerts: count unread: %w", err)
	}
	return count, nil
}

// MarkRead flags one alert as read.
func (r *PostgresRepository) MarkRead(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrAlertNotFound
	}
	tag, err := r.pool.Exec(ctx, `UPDATE alerts SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("alerts: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// MarkAllRead flags every unread alert of the user.
func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE alerts SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("alerts: mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Delete removes one alert.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrAlertNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("alerts: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*Alert, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("alerts: query failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Alert, 0)
	for rows.Next() {
		var (
			a        Alert
			typ      string
			priority string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &typ, &priority, &a.Title, &a.Message, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("alerts: scan failed: %w", err)
		}
		a.Type = Type(typ)
		a.Priority = Priority(priority)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("alerts: rows: %w", err)
	}
	return out, nil
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*InMemoryRepository)(nil)
)
