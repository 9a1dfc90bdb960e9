package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository_Lifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, &CreateAlertRequest{UserID: "u1", Title: "First", Message: "one"})
	require.NoError(t, err)
	assert.Equal(t, TypeGeneral, first.Type)
	assert.Equal(t, PriorityMedium, first.Priority)

	second, err := repo.Create(ctx, &CreateAlertRequest{UserID: "u1", Type: TypeReminder, Priority: PriorityHigh, Title: "Second", Message: "two"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &CreateAlertRequest{UserID: "u2", Title: "Other", Message: "x"})
	require.NoError(t, err)

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	count, err := repo.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.MarkRead(ctx, "u1", first.ID))
	unread, err := repo.ListUnread(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	assert.ErrorIs(t, repo.MarkRead(ctx, "u2", second.ID), ErrAlertNotFound)

	n, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, "u1", first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, "u1", first.ID), ErrAlertNotFound)
}

func TestInMemoryRepository_UnreadLimit(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := repo.Create(ctx, &CreateAlertRequest{UserID: "u1", Title: "t", Message: "m"})
		require.NoError(t, err)
	}
	unread, err := repo.ListUnread(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, unread, 10)
}

func TestCreateAlertRequest_Validate(t *testing.T) {
	cases := []struct {
		name string
		req  CreateAlertRequest
		want error
	}{
		{"missing title", CreateAlertRequest{Message: "m"}, ErrInvalidTitle},
		{"missing message", CreateAlertRequest{Title: "t"}, ErrInvalidMessage},
		{"bad type", CreateAlertRequest{Title: "t", Message: "m", Type: "party"}, ErrInvalidType},
		{"bad priority", CreateAlertRequest{Title: "t", Message: "m", Priority: "urgent"}, ErrInvalidPriority},
		{"defaults", CreateAlertRequest{Title: "t", Message: "m"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			err := req.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
