package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// Service sends operational notifications to the clinic staff.
type Service struct {
	email       EmailSender
	clinicEmail string
	clinicName  string
	logger      *logging.Logger
}

// NewService creates a notification service. email may be nil, in which case
// every notification is a logged no-op.
func NewService(email EmailSender, clinicEmail, clinicName string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if clinicName == "" {
		clinicName = "VetCare AI"
	}
	return &Service{
		email:       email,
		clinicEmail: clinicEmail,
		clinicName:  clinicName,
		logger:      logger,
	}
}

// NotifyTicketCreated emails the clinic when a human-handoff ticket is
// generated, so a staff member follows up on the escalated conversation.
func (s *Service) NotifyTicketCreated(ctx context.Context, ticketID, summary string) error {
	if s.email == nil || s.clinicEmail == "" {
		s.logger.Debug("notify: email not configured, skipping ticket notification", "ticket_id", ticketID)
		return nil
	}

	createdAt := time.Now().Format("02/01/2006 15:04")
	msg := EmailMessage{
		To:      s.clinicEmail,
		Subject: fmt.Sprintf("Nuevo ticket de atención %s", ticketID),
		Body: fmt.Sprintf(`Se generó un ticket de atención humana desde el asistente.

Ticket: %s
Fecha: %s

%s

— %s`, ticketID, createdAt, summary, s.clinicName),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: failed to send ticket email", "error", err, "ticket_id", ticketID)
		return fmt.Errorf("notify: ticket notification failed: %w", err)
	}

	s.logger.Info("notify: ticket email sent", "ticket_id", ticketID, "to", s.clinicEmail)
	return nil
}
