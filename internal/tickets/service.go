// Package tickets implements the human-handoff ticketing capability:
// ticket identifier generation, persistence, and clinic notification.
package tickets

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// Ticket is one human-handoff request generated by the assistant.
type Ticket struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists tickets.
type Repository interface {
	Save(ctx context.Context, ticket Ticket) error
	Get(ctx context.Context, id string) (Ticket, error)
}

// Notifier alerts the clinic staff about a new ticket.
type Notifier interface {
	NotifyTicketCreated(ctx context.Context, ticketID, summary string) error
}

// Service creates tickets with TICKET-NNNN identifiers.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// ServiceOption configures the ticket service.
type ServiceOption func(*Service)

// WithSeed makes identifier generation deterministic.
func WithSeed(seed int64) ServiceOption {
	return func(s *Service) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// NewService creates the ticket service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("tickets: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTicket generates an identifier, persists the ticket, and notifies
// the clinic. A notification failure is logged but does not fail the ticket;
// the caller always gets an identifier once the ticket is stored.
func (s *Service) CreateTicket(ctx context.Context, summary string) (string, error) {
	s.mu.Lock()
	id := fmt.Sprintf("TICKET-%04d", 1000+s.rng.Intn(9000))
	s.mu.Unlock()

	ticket := Ticket{
		ID:        id,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, ticket); err != nil {
		return "", fmt.Errorf("tickets: failed to save ticket: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyTicketCreated(ctx, id, summary); err != nil {
			s.logger.Warn("ticket notification failed", "ticket_id", id, "error", err)
		}
	}

	s.logger.Info("ticket created", "ticket_id", id)
	return id, nil
}
