package auth

import (
	"context"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "Pat", "pat@example.com", "", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	user, err := repo.Create(context.Background(), &User{Name: "Pat", Email: " PAT@example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == "" || user.Email != "pat@example.com" || !user.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user %+v", user)
	}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "Pat", "pat@example.com", "", "hash").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	if _, err := repo.Create(context.Background(), &User{Name: "Pat", Email: "pat@example.com", PasswordHash: "hash"}); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryLookup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)
	id := "0b8a2a4e-6a8f-4a0e-9a3c-1d2c3b4a5f60"
	columns := []string{"id", "name", "email", "phone", "password_hash", "created_at"}

	mock.ExpectQuery("SELECT id, name, email, phone, password_hash, created_at").
		WithArgs("pat@example.com").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(id, "Pat", "pat@example.com", "", "hash", time.Now()))
	user, err := repo.GetByEmail(context.Background(), "Pat@Example.com")
	if err != nil || user.ID != id {
		t.Fatalf("expected user %s, got %+v err=%v", id, user, err)
	}

	mock.ExpectQuery("SELECT id, name, email, phone, password_hash, created_at").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), id); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound for malformed id, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
