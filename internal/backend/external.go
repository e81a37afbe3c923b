package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gtickets/internal/domain"
	"gtickets/internal/remote"
)

// External serves every airline listed in its endpoint set over that airline's
// REST surface, authenticated by a shared API key query parameter.
type External struct {
	client    *remote.Client
	cache     FlightCache
	apiKey    string
	endpoints map[string]string
	log       *zap.SugaredLogger
}

func NewExternal(client *remote.Client, cache FlightCache, apiKey string, endpoints map[string]string, log *zap.SugaredLogger) *External {
	return &External{
		client:    client,
		cache:     cache,
		apiKey:    apiKey,
		endpoints: endpoints,
		log:       log,
	}
}

func (b *External) ContainsAirline(airline string) bool {
	_, ok := b.endpoints[airline]
	return ok
}

// GetFlights returns the flights of every configured airline, read through the
// flight cache per airline key. A backend that stays unreachable past the
// retry budget contributes no flights rather than failing the whole listing.
func (b *External) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	var all []domain.Flight
	for airline := range b.endpoints {
		cached, err := b.cache.GetFlights(ctx, airline)
		if err != nil {
			b.log.Warnw("flight cache read failed", "airline", airline, "error", err)
		}
		if cached != nil {
			all = append(all, cached...)
			continue
		}

		flights, err := b.fetchFlights(ctx, airline)
		if err != nil {
			if errors.Is(err, remote.ErrExhausted) {
				continue
			}
			return nil, err
		}
		if err := b.cache.SetFlights(ctx, airline, flights); err != nil {
			b.log.Warnw("flight cache write failed", "airline", airline, "error", err)
		}
		all = append(all, flights...)
	}
	return all, nil
}

func (b *External) fetchFlights(ctx context.Context, airline string) ([]domain.Flight, error) {
	body, err := b.client.Get(ctx, b.buildURL(airline, "/flights", nil))
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Embedded struct {
			Flights []domain.Flight `json:"flights"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode flights for %s: %w", airline, err)
	}
	return envelope.Embedded.Flights, nil
}

func (b *External) GetFlight(ctx context.Context, airline, flightID string) (*domain.Flight, error) {
	body, err := b.client.Get(ctx, b.buildURL(airline, "/flights/"+flightID, nil))
	if err != nil {
		if errors.Is(err, remote.ErrExhausted) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var flight domain.Flight
	if err := json.Unmarshal(body, &flight); err != nil {
		return nil, fmt.Errorf("decode flight %s: %w", flightID, err)
	}
	return &flight, nil
}

func (b *External) GetFlightTimes(ctx context.Context, airline, flightID string) ([]string, error) {
	body, err := b.client.Get(ctx, b.buildURL(airline, "/flights/"+flightID+"/times", nil))
	if err != nil {
		if errors.Is(err, remote.ErrExhausted) {
			return nil, nil
		}
		return nil, err
	}

	var envelope struct {
		Embedded struct {
			StringList []string `json:"stringList"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode times for flight %s: %w", flightID, err)
	}
	return envelope.Embedded.StringList, nil
}

func (b *External) GetAvailableSeats(ctx context.Context, airline, flightID, flightTime string) ([]domain.Seat, error) {
	query := url.Values{"time": {flightTime}, "available": {"true"}}
	body, err := b.client.Get(ctx, b.buildURL(airline, "/flights/"+flightID+"/seats", query))
	if err != nil {
		if errors.Is(err, remote.ErrExhausted) {
			return nil, nil
		}
		return nil, err
	}

	var envelope struct {
		Embedded struct {
			Seats []domain.Seat `json:"seats"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode seats for flight %s: %w", flightID, err)
	}
	return envelope.Embedded.Seats, nil
}

func (b *External) GetSeat(ctx context.Context, airline, flightID, seatID string) (*domain.Seat, error) {
	body, err := b.client.Get(ctx, b.buildURL(airline, "/flights/"+flightID+"/seats/"+seatID, nil))
	if err != nil {
		if errors.Is(err, remote.ErrExhausted) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var seat domain.Seat
	if err := json.Unmarshal(body, &seat); err != nil {
		return nil, fmt.Errorf("decode seat %s: %w", seatID, err)
	}
	return &seat, nil
}

// ConfirmQuotes checks every quote's ticket sub-resource first and reserves
// only when all of them are free. The check and the reservation are separate
// requests, so two concurrent bookers can both pass the check; the airline API
// offers no conditional write to close that race.
func (b *External) ConfirmQuotes(ctx context.Context, quotes []domain.Quote, customer, bookingReference string, at time.Time) (*domain.Booking, error) {
	available, err := b.ticketsAvailable(ctx, quotes)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrSeatUnavailable
	}
	return b.bookTickets(ctx, quotes, customer, bookingReference, at)
}

// ticketsAvailable treats an empty ticket payload as "available", including
// the empty fallback after retry exhaustion; a sold seat surfaces at
// reservation time instead.
func (b *External) ticketsAvailable(ctx context.Context, quotes []domain.Quote) (bool, error) {
	for _, quote := range quotes {
		body, err := b.client.Get(ctx, b.ticketURL(quote, nil))
		if err != nil {
			if errors.Is(err, remote.ErrExhausted) {
				continue
			}
			return false, err
		}

		var ticket map[string]any
		if len(body) > 0 {
			if err := json.Unmarshal(body, &ticket); err != nil {
				return false, fmt.Errorf("decode ticket for seat %s: %w", quote.SeatID, err)
			}
		}
		if len(ticket) > 0 {
			return false, nil
		}
	}
	return true, nil
}

// bookTickets reserves every seat with one PUT each. A failure part-way leaves
// the earlier reservations in place: the airline API has no way to release
// them, so the orchestration reports a conflict and the seats stay sold until
// resolved out of band.
func (b *External) bookTickets(ctx context.Context, quotes []domain.Quote, customer, bookingReference string, at time.Time) (*domain.Booking, error) {
	tickets := make([]domain.Ticket, 0, len(quotes))
	for _, quote := range quotes {
		query := url.Values{"customer": {customer}, "bookingReference": {bookingReference}}
		if err := b.client.Put(ctx, b.ticketURL(quote, query)); err != nil {
			b.log.Errorw("seat reservation failed, earlier reservations are not rolled back",
				"airline", quote.Airline, "flightId", quote.FlightID, "seatId", quote.SeatID,
				"bookingReference", bookingReference, "error", err)
			return nil, fmt.Errorf("reserve seat %s: %w", quote.SeatID, err)
		}

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

func (b *External) ticketURL(quote domain.Quote, query url.Values) string {
	return b.buildURL(quote.Airline, "/flights/"+quote.FlightID+"/seats/"+quote.SeatID+"/ticket", query)
}

func (b *External) buildURL(airline, path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", b.apiKey)
	return b.endpoints[airline] + path + "?" + query.Encode()
}

var _ Backend = (*External)(nil)
