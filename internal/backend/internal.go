package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gtickets/internal/domain"
)

// SeatLedger is the document-store abstraction owning the internal airline's
// flight and seat documents. ReserveSeats must apply all updates as one unit:
// either every seat gets the booking reference or none does, and a seat whose
// reference is no longer empty at commit time fails the whole batch with
// ErrSeatUnavailable.
type SeatLedger interface {
	Flights(ctx context.Context) ([]domain.Flight, error)
	Flight(ctx context.Context, flightID string) (*domain.Flight, error)
	FlightTimes(ctx context.Context, flightID string) ([]string, error)
	AvailableSeats(ctx context.Context, flightID, flightTime string) ([]domain.Seat, error)
	Seat(ctx context.Context, flightID, seatID string) (*domain.Seat, error)
	ReserveSeats(ctx context.Context, quotes []domain.Quote, customer, bookingReference string) error
}

// Internal serves the locally-owned airline from the seat ledger.
type Internal struct {
	airline string
	ledger  SeatLedger
	log     *zap.SugaredLogger
}

func NewInternal(airline string, ledger SeatLedger, log *zap.SugaredLogger) *Internal {
	return &Internal{airline: airline, ledger: ledger, log: log}
}

func (b *Internal) ContainsAirline(airline string) bool {
	return airline == b.airline
}

func (b *Internal) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	return b.ledger.Flights(ctx)
}

func (b *Internal) GetFlight(ctx context.Context, _, flightID string) (*domain.Flight, error) {
	return b.ledger.Flight(ctx, flightID)
}

func (b *Internal) GetFlightTimes(ctx context.Context, _, flightID string) ([]string, error) {
	return b.ledger.FlightTimes(ctx, flightID)
}

func (b *Internal) GetAvailableSeats(ctx context.Context, _, flightID, flightTime string) ([]domain.Seat, error) {
	return b.ledger.AvailableSeats(ctx, flightID, flightTime)
}

func (b *Internal) GetSeat(ctx context.Context, _, flightID, seatID string) (*domain.Seat, error) {
	return b.ledger.Seat(ctx, flightID, seatID)
}

// ConfirmQuotes pre-checks every seat, then reserves them in one atomic batch.
// The pre-check is a separate read from the reservation write, but the batch
// itself re-verifies each seat, so two concurrent confirmations of the same
// seat cannot both commit.
func (b *Internal) ConfirmQuotes(ctx context.Context, quotes []domain.Quote, customer, bookingReference string, at time.Time) (*domain.Booking, error) {
	for _, quote := range quotes {
		seat, err := b.ledger.Seat(ctx, quote.FlightID, quote.SeatID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("seat %s: %w", quote.SeatID, ErrNotFound)
			}
			return nil, err
		}
		if !seat.Available() {
			return nil, ErrSeatUnavailable
		}
	}

	if err := b.ledger.ReserveSeats(ctx, quotes, customer, bookingReference); err != nil {
		if errors.Is(err, ErrSeatUnavailable) {
			return nil, ErrSeatUnavailable
		}
		b.log.Errorw("seat reservation batch failed", "bookingReference", bookingReference, "error", err)
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(quotes))
	for _, quote := range quotes {
		tickets = append(tickets, domain.Ticket{
			Airline:          quote.Airline,
			FlightID:         quote.FlightID,
			SeatID:           quote.SeatID,
			TicketID:         uuid.NewString(),
			Customer:         customer,
			BookingReference: bookingReference,
		})
	}

	return &domain.Booking{
		ID:       bookingReference,
		Time:     at,
		Tickets:  tickets,
		Customer: customer,
	}, nil
}

var _ Backend = (*Internal)(nil)
