package alerts

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO alerts").
		WithArgs(pgxmock.AnyArg(), "u1", "emergency", "critical", "Help", "Now").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	alert, err := repo.Create(ctx, &CreateAlertRequest{UserID: "u1", Type: TypeEmergency, Priority: PriorityCritical, Title: "Help", Message: "Now"})
	require.NoError(t, err)
	assert.Equal(t, now, alert.CreatedAt)

	columns := []string{"id", "user_id", "type", "priority", "title", "message", "is_read", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM alerts WHERE user_id = \\$1 AND is_read = false ORDER BY created_at DESC LIMIT \\$2").
		WithArgs("u1", 10).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(alert.ID, "u1", "emergency", "critical", "Help", "Now", false, now))
	unread, err := repo.ListUnread(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, TypeEmergency, unread[0].Type)

	mock.ExpectQuery("SELECT COUNT").WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	count, err := repo.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	mock.ExpectExec("UPDATE alerts SET is_read = true WHERE id").WithArgs(alert.ID, "u2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.MarkRead(ctx, "u2", alert.ID), ErrAlertNotFound)

	mock.ExpectExec("UPDATE alerts SET is_read = true WHERE user_id").WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	n, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mock.ExpectExec("DELETE FROM alerts").WithArgs(alert.ID, "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(ctx, "u1", alert.ID))

	assert.ErrorIs(t, repo.Delete(ctx, "u1", "nope"), ErrAlertNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
