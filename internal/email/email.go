package email

import (
	"context"

	"go.uber.org/zap"

	"gtickets/internal/kafka"
)

// Sender delivers booking confirmation mails. The actual mail transport is
// deployment-specific; this logs the delivery so the worker pipeline can be
// exercised end to end.
type Sender struct {
	log *zap.SugaredLogger
}

func NewSender(log *zap.SugaredLogger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.log.Infow("sending booking confirmation",
		"customer", event.Customer,
		"bookingId", event.BookingID,
		"tickets", event.Tickets,
	)
	return nil
}
