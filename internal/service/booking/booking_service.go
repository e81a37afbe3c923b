package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gtickets/internal/backend"
	"gtickets/internal/domain"
	"gtickets/internal/kafka"
	"gtickets/internal/metrics"
	"gtickets/internal/repository"
)

// ErrConflict means at least one quoted seat could not be reserved. No booking
// is created; seats already reserved by a backend that succeeded earlier are
// not released.
var ErrConflict = errors.New("booking conflict")

type BookingUseCase interface {
	ConfirmQuotes(ctx context.Context, quotes []domain.Quote, user domain.Principal) (*domain.Booking, error)
	GetBookings(ctx context.Context, uid string) ([]domain.Booking, error)
	GetAllBookings(ctx context.Context) ([]domain.Booking, error)
	GetBestCustomers(ctx context.Context) ([]string, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// BookingService is the orchestrator: it fans a quote list out to the backend
// owning each airline, merges the per-backend booking fragments into one
// booking, and persists it in the booking ledger.
type BookingService struct {
	registry           *backend.Registry
	ledger             repository.BookingLedger
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	metrics            *metrics.Metrics
	log                *zap.SugaredLogger
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) { s.notificationsTopic = topic }
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) { s.metrics = m }
}

func NewBookingService(
	registry *backend.Registry,
	ledger repository.BookingLedger,
	producer Producer,
	bookingTopic string,
	log *zap.SugaredLogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		registry:     registry,
		ledger:       ledger,
		producer:     producer,
		bookingTopic: bookingTopic,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ConfirmQuotes converts the quotes into one booking. Every implicated backend
// receives the same bookingReference and timestamp and confirms independently;
// there is no transaction across backends. If any backend reports a conflict
// or fails, the whole confirmation fails with ErrConflict and reservations
// already made by other backends stay in place.
func (s *BookingService) ConfirmQuotes(ctx context.Context, quotes []domain.Quote, user domain.Principal) (*domain.Booking, error) {
	if len(quotes) == 0 {
		return nil, errors.New("no quotes to confirm")
	}
	for _, quote := range quotes {
		if _, ok := s.registry.ForAirline(quote.Airline); !ok {
			return nil, fmt.Errorf("%s: %w", quote.Airline, backend.ErrUnknownAirline)
		}
	}

	bookingReference := uuid.NewString()
	at := time.Now().UTC()

	var tickets []domain.Ticket
	for _, b := range s.registry.All() {
		var owned []domain.Quote
		for _, quote := range quotes {
			if b.ContainsAirline(quote.Airline) {
				owned = append(owned, quote)
			}
		}
		if len(owned) == 0 {
			continue
		}

		fragment, err := b.ConfirmQuotes(ctx, owned, user.Email, bookingReference, at)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			if errors.Is(err, backend.ErrSeatUnavailable) {
				return nil, ErrConflict
			}
			s.log.Errorw("backend confirmation failed",
				"bookingReference", bookingReference, "quotes", len(owned), "error", err)
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		tickets = append(tickets, fragment.Tickets...)
	}

	booking := domain.Booking{
		ID:       bookingReference,
		Time:     at,
		Tickets:  tickets,
		Customer: user.Email,
	}

	if err := s.ledger.SaveBooking(ctx, booking, user.UID); err != nil {
		// The seats are reserved in the backend ledgers but the booking never
		// made it into ours; the customer owns tickets we cannot show.
		s.log.Errorw("booking persisted in backends but not in the ledger",
			"bookingReference", bookingReference, "uid", user.UID, "error", err)
		return nil, fmt.Errorf("save booking: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsConfirmed.Inc()
	}
	s.publish(ctx, "booking_confirmed", booking, user.UID)
	return &booking, nil
}

func (s *BookingService) GetBookings(ctx context.Context, uid string) ([]domain.Booking, error) {
	return s.ledger.Bookings(ctx, uid)
}

func (s *BookingService) GetAllBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.ledger.AllBookings(ctx)
}

func (s *BookingService) GetBestCustomers(ctx context.Context) ([]string, error) {
	return s.ledger.BestCustomers(ctx)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking domain.Booking, uid string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:      eventType,
		BookingID: booking.ID,
		UID:       uid,
		Customer:  booking.Customer,
		Tickets:   len(booking.Tickets),
		Time:      booking.Time,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		s.log.Warnw("failed to publish booking event", "bookingReference", booking.ID, "error", err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			s.log.Warnw("failed to publish notification event", "bookingReference", booking.ID, "error", err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
