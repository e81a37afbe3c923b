package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gtickets/internal/backend"
	"gtickets/internal/domain"
	"gtickets/internal/repository"
)

// stubBackend owns a fixed set of airlines and answers ConfirmQuotes with a
// canned outcome, recording what it was asked to confirm.
type stubBackend struct {
	airlines map[string]bool
	fail     error

	mu        sync.Mutex
	confirmed [][]domain.Quote
	reference string
}

func newStubBackend(airlines ...string) *stubBackend {
	owned := make(map[string]bool, len(airlines))
	for _, a := range airlines {
		owned[a] = true
	}
	return &stubBackend{airlines: owned}
}

func (b *stubBackend) ContainsAirline(airline string) bool { return b.airlines[airline] }

func (b *stubBackend) GetFlights(context.Context) ([]domain.Flight, error) { return nil, nil }
func (b *stubBackend) GetFlight(context.Context, string, string) (*domain.Flight, error) {
	return nil, nil
}
func (b *stubBackend) GetFlightTimes(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (b *stubBackend) GetAvailableSeats(context.Context, string, string, string) ([]domain.Seat, error) {
	return nil, nil
}
func (b *stubBackend) GetSeat(context.Context, string, string, string) (*domain.Seat, error) {
	return nil, nil
}

func (b *stubBackend) ConfirmQuotes(_ context.Context, quotes []domain.Quote, customer, bookingReference string, at time.Time) (*domain.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return nil, b.fail
	}
	b.confirmed = append(b.confirmed, quotes)
	b.reference = bookingReference

	tickets := make([]domain.Ticket, 0, len(quotes))
	for i, quote := range quotes {
		tickets = append(tickets, domain.Ticket{
			Airline:          quote.Airline,
			FlightID:         quote.FlightID,
			SeatID:           quote.SeatID,
			TicketID:         bookingReference + "-t" + string(rune('0'+i)),
			Customer:         customer,
			BookingReference: bookingReference,
		})
	}
	return &domain.Booking{ID: bookingReference, Time: at, Tickets: tickets, Customer: customer}, nil
}

var _ backend.Backend = (*stubBackend)(nil)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) SaveBooking(ctx context.Context, booking domain.Booking, uid string) error {
	return m.Called(ctx, booking, uid).Error(0)
}

func (m *mockLedger) Bookings(ctx context.Context, uid string) ([]domain.Booking, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *mockLedger) AllBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *mockLedger) BestCustomers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ repository.BookingLedger = (*mockLedger)(nil)

type recordingProducer struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingProducer) Publish(_ context.Context, topic, _ string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func testUser() domain.Principal {
	return domain.Principal{UID: "uid-1", Email: "u@example.com", Role: "user"}
}

func TestBookingService_ConfirmQuotes_MergesBackendFragments(t *testing.T) {
	internal := newStubBackend("internalAirline")
	external := newStubBackend("reliable-airline", "unreliable-airline")
	ledger := new(mockLedger)
	producer := &recordingProducer{}

	var saved domain.Booking
	ledger.On("SaveBooking", mock.Anything, mock.AnythingOfType("domain.Booking"), "uid-1").
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Booking) }).
		Return(nil)

	svc := NewBookingService(
		backend.NewRegistry(internal, external),
		ledger,
		producer,
		"booking-events",
		zap.NewNop().Sugar(),
		WithNotificationsTopic("booking-notifications"),
	)

	quotes := []domain.Quote{
		{Airline: "internalAirline", FlightID: "f1", SeatID: "s1"},
		{Airline: "reliable-airline", FlightID: "f2", SeatID: "s2"},
		{Airline: "internalAirline", FlightID: "f1", SeatID: "s3"},
	}

	booking, err := svc.ConfirmQuotes(context.Background(), quotes, testUser())

	require.NoError(t, err)
	require.Len(t, booking.Tickets, 3)
	assert.Equal(t, "u@example.com", booking.Customer)
	for _, ticket := range booking.Tickets {
		assert.Equal(t, booking.ID, ticket.BookingReference)
		assert.Equal(t, "u@example.com", ticket.Customer)
	}

	// each backend gets only its own quotes, under the shared reference
	require.Len(t, internal.confirmed, 1)
	assert.Len(t, internal.confirmed[0], 2)
	require.Len(t, external.confirmed, 1)
	assert.Len(t, external.confirmed[0], 1)
	assert.Equal(t, booking.ID, internal.reference)
	assert.Equal(t, booking.ID, external.reference)

	assert.Equal(t, booking.ID, saved.ID)
	assert.Equal(t, []string{"booking-events", "booking-notifications"}, producer.topics)
	ledger.AssertExpectations(t)
}

func TestBookingService_ConfirmQuotes_UnknownAirlineFailsFast(t *testing.T) {
	internal := newStubBackend("internalAirline")
	ledger := new(mockLedger)

	svc := NewBookingService(backend.NewRegistry(internal), ledger, nil, "", zap.NewNop().Sugar())

	quotes := []domain.Quote{
		{Airline: "internalAirline", FlightID: "f1", SeatID: "s1"},
		{Airline: "ghost-airline", FlightID: "f2", SeatID: "s2"},
	}

	booking, err := svc.ConfirmQuotes(context.Background(), quotes, testUser())

	assert.ErrorIs(t, err, backend.ErrUnknownAirline)
	assert.Nil(t, booking)
	assert.Empty(t, internal.confirmed, "no backend may be asked to confirm")
	ledger.AssertNotCalled(t, "SaveBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_ConfirmQuotes_SeatConflict(t *testing.T) {
	internal := newStubBackend("internalAirline")
	internal.fail = backend.ErrSeatUnavailable
	ledger := new(mockLedger)

	svc := NewBookingService(backend.NewRegistry(internal), ledger, nil, "", zap.NewNop().Sugar())

	booking, err := svc.ConfirmQuotes(context.Background(),
		[]domain.Quote{{Airline: "internalAirline", FlightID: "f1", SeatID: "s1"}}, testUser())

	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, booking)
	ledger.AssertNotCalled(t, "SaveBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_ConfirmQuotes_BackendFailureIsConflict(t *testing.T) {
	internal := newStubBackend("internalAirline")
	internal.fail = errors.New("ledger write timed out")

	svc := NewBookingService(backend.NewRegistry(internal), new(mockLedger), nil, "", zap.NewNop().Sugar())

	_, err := svc.ConfirmQuotes(context.Background(),
		[]domain.Quote{{Airline: "internalAirline", FlightID: "f1", SeatID: "s1"}}, testUser())

	assert.ErrorIs(t, err, ErrConflict)
}

func TestBookingService_ConfirmQuotes_NoQuotes(t *testing.T) {
	svc := NewBookingService(backend.NewRegistry(), new(mockLedger), nil, "", zap.NewNop().Sugar())

	booking, err := svc.ConfirmQuotes(context.Background(), nil, testUser())

	assert.Error(t, err)
	assert.Nil(t, booking)
}

func TestBookingService_ConfirmQuotes_SaveFailureSurfaces(t *testing.T) {
	internal := newStubBackend("internalAirline")
	ledger := new(mockLedger)
	ledger.On("SaveBooking", mock.Anything, mock.Anything, "uid-1").Return(errors.New("connection reset"))

	svc := NewBookingService(backend.NewRegistry(internal), ledger, nil, "", zap.NewNop().Sugar())

	booking, err := svc.ConfirmQuotes(context.Background(),
		[]domain.Quote{{Airline: "internalAirline", FlightID: "f1", SeatID: "s1"}}, testUser())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Nil(t, booking)
}

func TestBookingService_GetBookings(t *testing.T) {
	ledger := new(mockLedger)
	want := []domain.Booking{{ID: "b1", Customer: "u@example.com"}}
	ledger.On("Bookings", mock.Anything, "uid-1").Return(want, nil)

	svc := NewBookingService(backend.NewRegistry(), ledger, nil, "", zap.NewNop().Sugar())

	got, err := svc.GetBookings(context.Background(), "uid-1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBookingService_GetBestCustomers(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("BestCustomers", mock.Anything).Return([]string{"u1@example.com", "u2@example.com"}, nil)

	svc := NewBookingService(backend.NewRegistry(), ledger, nil, "", zap.NewNop().Sugar())

	customers, err := svc.GetBestCustomers(context.Background())

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1@example.com", "u2@example.com"}, customers)
}

// Confirming a single quote and reading it back through the ledger yields the
// same ticket set with the booking id as the shared reference.
func TestBookingService_ConfirmQuotes_RoundTrip(t *testing.T) {
	internal := newStubBackend("internalAirline")

	ledger := &memoryBookingLedger{byUID: make(map[string][]domain.Booking)}
	svc := NewBookingService(backend.NewRegistry(internal), ledger, nil, "", zap.NewNop().Sugar())

	booking, err := svc.ConfirmQuotes(context.Background(),
		[]domain.Quote{{Airline: "internalAirline", FlightID: "flightA", SeatID: "seat1"}}, testUser())
	require.NoError(t, err)

	stored, err := svc.GetBookings(context.Background(), "uid-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Len(t, stored[0].Tickets, 1)

	ticket := stored[0].Tickets[0]
	assert.Equal(t, "internalAirline", ticket.Airline)
	assert.Equal(t, "flightA", ticket.FlightID)
	assert.Equal(t, "seat1", ticket.SeatID)
	assert.Equal(t, "u@example.com", ticket.Customer)
	assert.Equal(t, booking.ID, ticket.BookingReference)
	assert.Equal(t, booking.Tickets, stored[0].Tickets)
}

type memoryBookingLedger struct {
	mu    sync.Mutex
	byUID map[string][]domain.Booking
}

func (l *memoryBookingLedger) SaveBooking(_ context.Context, booking domain.Booking, uid string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byUID[uid] = append(l.byUID[uid], booking)
	return nil
}

func (l *memoryBookingLedger) Bookings(_ context.Context, uid string) ([]domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byUID[uid], nil
}

func (l *memoryBookingLedger) AllBookings(_ context.Context) ([]domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var all []domain.Booking
	for _, bookings := range l.byUID {
		all = append(all, bookings...)
	}
	return all, nil
}

func (l *memoryBookingLedger) BestCustomers(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool)
	var customers []string
	for _, bookings := range l.byUID {
		for _, b := range bookings {
			if !seen[b.Customer] {
				seen[b.Customer] = true
				customers = append(customers, b.Customer)
			}
		}
	}
	return customers, nil
}
