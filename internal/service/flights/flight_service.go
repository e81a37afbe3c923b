package flights

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"gtickets/internal/backend"
	"gtickets/internal/domain"
)

type FlightUseCase interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	GetFlight(ctx context.Context, airline, flightID string) (*domain.Flight, error)
	GetFlightTimes(ctx context.Context, airline, flightID string) ([]string, error)
	GetAvailableSeats(ctx context.Context, airline, flightID, flightTime string) (map[string][]domain.Seat, error)
	GetSeat(ctx context.Context, airline, flightID, seatID string) (*domain.Seat, error)
}

// FlightService aggregates flight and seat reads across every registered
// backend and applies the presentation ordering the seat-map displays expect.
type FlightService struct {
	registry *backend.Registry
	log      *zap.SugaredLogger
}

func NewFlightService(registry *backend.Registry, log *zap.SugaredLogger) *FlightService {
	return &FlightService{registry: registry, log: log}
}

func (s *FlightService) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	var all []domain.Flight
	for _, b := range s.registry.All() {
		flights, err := b.GetFlights(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, flights...)
	}
	return all, nil
}

func (s *FlightService) GetFlight(ctx context.Context, airline, flightID string) (*domain.Flight, error) {
	b, ok := s.registry.ForAirline(airline)
	if !ok {
		return nil, fmt.Errorf("%s: %w", airline, backend.ErrUnknownAirline)
	}
	return b.GetFlight(ctx, airline, flightID)
}

func (s *FlightService) GetFlightTimes(ctx context.Context, airline, flightID string) ([]string, error) {
	b, ok := s.registry.ForAirline(airline)
	if !ok {
		return nil, fmt.Errorf("%s: %w", airline, backend.ErrUnknownAirline)
	}
	times, err := b.GetFlightTimes(ctx, airline, flightID)
	if err != nil {
		return nil, err
	}
	sort.Strings(times)
	return times, nil
}

func (s *FlightService) GetAvailableSeats(ctx context.Context, airline, flightID, flightTime string) (map[string][]domain.Seat, error) {
	b, ok := s.registry.ForAirline(airline)
	if !ok {
		return nil, fmt.Errorf("%s: %w", airline, backend.ErrUnknownAirline)
	}
	seats, err := b.GetAvailableSeats(ctx, airline, flightID, flightTime)
	if err != nil {
		return nil, err
	}
	return SortSeats(seats), nil
}

func (s *FlightService) GetSeat(ctx context.Context, airline, flightID, seatID string) (*domain.Seat, error) {
	b, ok := s.registry.ForAirline(airline)
	if !ok {
		return nil, fmt.Errorf("%s: %w", airline, backend.ErrUnknownAirline)
	}
	return b.GetSeat(ctx, airline, flightID, seatID)
}

// SortSeats groups seats by type and orders each group by seat number, the
// numeric part taking priority over the trailing letter: "2A" before "10A"
// before "10B". The seat-map displays depend on exactly this order, which a
// plain string sort would not produce.
func SortSeats(seats []domain.Seat) map[string][]domain.Seat {
	byType := make(map[string][]domain.Seat)
	for _, seat := range seats {
		byType[seat.Type] = append(byType[seat.Type], seat)
	}
	for _, group := range byType {
		sort.SliceStable(group, func(i, j int) bool {
			return seatSortKey(group[i].Name) < seatSortKey(group[j].Name)
		})
	}
	return byType
}

func seatSortKey(name string) int {
	number := 0
	letter := 0
	for _, r := range name {
		if r >= '0' && r <= '9' {
			number = number*10 + int(r-'0')
			continue
		}
		letter = int(r)
		break
	}
	return number*100 + letter
}

var _ FlightUseCase = (*FlightService)(nil)
