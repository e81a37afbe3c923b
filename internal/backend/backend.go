package backend

import (
	"context"
	"errors"
	"time"

	"gtickets/internal/domain"
)

var (
	// ErrSeatUnavailable reports that at least one quoted seat was already
	// sold at confirmation time. The orchestrator maps it to a user-facing
	// conflict.
	ErrSeatUnavailable = errors.New("seat unavailable")

	// ErrUnknownAirline is returned for airline identifiers no backend owns.
	ErrUnknownAirline = errors.New("unknown airline")

	// ErrNotFound is returned for flight or seat identifiers that do not
	// resolve within a known airline.
	ErrNotFound = errors.New("not found")
)

// Backend is one airline-serving subsystem: either an external HTTP service or
// the internal seat ledger. Both expose the same availability/reservation
// contract.
//
// ConfirmQuotes checks availability of every quote first and reserves only if
// all are available; a failed pre-check or commit yields ErrSeatUnavailable.
// There is no atomicity across two Backends for one booking.
type Backend interface {
	ContainsAirline(airline string) bool
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	GetFlight(ctx context.Context, airline, flightID string) (*domain.Flight, error)
	GetFlightTimes(ctx context.Context, airline, flightID string) ([]string, error)
	GetAvailableSeats(ctx context.Context, airline, flightID, flightTime string) ([]domain.Seat, error)
	GetSeat(ctx context.Context, airline, flightID, seatID string) (*domain.Seat, error)
	ConfirmQuotes(ctx context.Context, quotes []domain.Quote, customer, bookingReference string, at time.Time) (*domain.Booking, error)
}

// FlightCache holds the last-fetched flight list per airline. A miss returns
// (nil, nil); concurrent duplicate fetches after a miss are acceptable because
// the upstream read is idempotent.
type FlightCache interface {
	GetFlights(ctx context.Context, airline string) ([]domain.Flight, error)
	SetFlights(ctx context.Context, airline string, flights []domain.Flight) error
}

// Registry resolves the Backend owning an airline identifier. Dispatch happens
// once per request; backends are registered at startup and never change.
type Registry struct {
	backends []Backend
}

func NewRegistry(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

func (r *Registry) ForAirline(airline string) (Backend, bool) {
	for _, b := range r.backends {
		if b.ContainsAirline(airline) {
			return b, true
		}
	}
	return nil, false
}

func (r *Registry) All() []Backend {
	return r.backends
}
