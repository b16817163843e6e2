package tickets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepositorySave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	createdAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs("TICKET-1234", "Cliente sin disponibilidad", createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	err = repo.Save(context.Background(), Ticket{
		ID:        "TICKET-1234",
		Summary:   "Cliente sin disponibilidad",
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositorySaveError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	repo := NewPostgresRepository(mock)
	err = repo.Save(context.Background(), Ticket{ID: "TICKET-1234"})
	assert.Error(t, err)
}

func TestPostgresRepositoryGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	createdAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT ticket_id, summary, created_at").
		WithArgs("TICKET-1234").
		WillReturnRows(pgxmock.NewRows([]string{"ticket_id", "summary", "created_at"}).
			AddRow("TICKET-1234", "Cliente sin disponibilidad", createdAt))

	repo := NewPostgresRepository(mock)
	ticket, err := repo.Get(context.Background(), "TICKET-1234")
	require.NoError(t, err)
	assert.Equal(t, "TICKET-1234", ticket.ID)
	assert.Equal(t, "Cliente sin disponibilidad", ticket.Summary)
	assert.Equal(t, createdAt, ticket.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT ticket_id, summary, created_at").
		WithArgs("TICKET-0000").
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	_, err = repo.Get(context.Background(), "TICKET-0000")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "TICKET-1234")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	ticket := Ticket{ID: "TICKET-1234", Summary: "resumen", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Save(ctx, ticket))

	got, err := repo.Get(ctx, "TICKET-1234")
	require.NoError(t, err)
	assert.Equal(t, ticket, got)
}
