package tickets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTicketNotFound indicates the requested ticket does not exist.
var ErrTicketNotFound = errors.New("tickets: ticket not found")

// pgxDB is the pgx surface the repository needs; satisfied by *pgxpool.Pool
// and by pgxmock in tests.
type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists tickets to PostgreSQL.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository builds a Postgres-backed ticket repository.
func NewPostgresRepository(db pgxDB) *PostgresRepository {
	if db == nil {
		panic("tickets: db cannot be nil")
	}
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

// Save inserts a ticket record.
func (r *PostgresRepository) Save(ctx context.Context, ticket Ticket) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tickets (ticket_id, summary, created_at)
		VALUES ($1, $2, $3)
	`, ticket.ID, ticket.Summary, ticket.CreatedAt)
	if err != nil {
		return fmt.Errorf("tickets: failed to insert ticket: %w", err)
	}
	return nil
}

// Get fetches a ticket by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Ticket, error) {
	var ticket Ticket
	err := r.db.QueryRow(ctx, `
		SELECT ticket_id, summary, created_at
		FROM tickets
		WHERE ticket_id = $1
	`, id).Scan(&ticket.ID, &ticket.Summary, &ticket.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, ErrTicketNotFound
		}
		return Ticket{}, fmt.Errorf("tickets: failed to fetch ticket: %w", err)
	}
	return ticket, nil
}

// MemoryRepository keeps tickets in memory for the CLI and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
}

// NewMemoryRepository creates an empty in-memory ticket repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tickets: make(map[string]Ticket)}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Save(_ context.Context, ticket Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return Ticket{}, ErrTicketNotFound
	}
	return ticket, nil
}
