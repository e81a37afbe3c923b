package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"gtickets/internal/domain"
)

// BookingLedger persists confirmed bookings under a customer's uid and answers
// the historical and reporting queries.
type BookingLedger interface {
	SaveBooking(ctx context.Context, booking domain.Booking, uid string) error
	Bookings(ctx context.Context, uid string) ([]domain.Booking, error)
	AllBookings(ctx context.Context) ([]domain.Booking, error)
	BestCustomers(ctx context.Context) ([]string, error)
}

type bookingDoc struct {
	ID       string    `bson:"_id"`
	UID      string    `bson:"uid"`
	Customer string    `bson:"customer"`
	Time     time.Time `bson:"time"`
}

type ticketDoc struct {
	TicketID         string `bson:"_id"`
	UID              string `bson:"uid"`
	Airline          string `bson:"airline"`
	FlightID         string `bson:"flightId"`
	SeatID           string `bson:"seatId"`
	Customer         string `bson:"customer"`
	BookingReference string `bson:"bookingReference"`
	Status           string `bson:"status"`
}

type MongoBookingLedger struct {
	bookings *mongo.Collection
	tickets  *mongo.Collection
	log      *zap.SugaredLogger
}

func NewBookingLedger(db *mongo.Database, log *zap.SugaredLogger) *MongoBookingLedger {
	bookings := db.Collection("bookings")
	tickets := db.Collection("tickets")

	ctx := context.Background()
	bookings.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.M{"uid": 1}})
	tickets.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.M{"bookingReference": 1}})

	return &MongoBookingLedger{bookings: bookings, tickets: tickets, log: log}
}

// SaveBooking writes the booking document and one ticket document per ticket.
// The writes are not atomic: losing the process between them leaves a booking
// without its tickets, or tickets without their booking.
func (l *MongoBookingLedger) SaveBooking(ctx context.Context, booking domain.Booking, uid string) error {
	if _, err := l.bookings.InsertOne(ctx, bookingDoc{
		ID:       booking.ID,
		UID:      uid,
		Customer: booking.Customer,
		Time:     booking.Time,
	}); err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(booking.Tickets))
	for _, t := range booking.Tickets {
		docs = append(docs, ticketDoc{
			TicketID:         t.TicketID,
			UID:              uid,
			Airline:          t.Airline,
			FlightID:         t.FlightID,
			SeatID:           t.SeatID,
			Customer:         t.Customer,
			BookingReference: t.BookingReference,
			Status:           "confirmed",
		})
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := l.tickets.InsertMany(ctx, docs)
	return err
}

func (l *MongoBookingLedger) Bookings(ctx context.Context, uid string) ([]domain.Booking, error) {
	return l.findBookings(ctx, bson.M{"uid": uid})
}

// AllBookings scans every customer's bookings. Manager-only.
func (l *MongoBookingLedger) AllBookings(ctx context.Context) ([]domain.Booking, error) {
	return l.findBookings(ctx, bson.M{})
}

func (l *MongoBookingLedger) findBookings(ctx context.Context, filter bson.M) ([]domain.Booking, error) {
	cursor, err := l.bookings.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []bookingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(docs))
	for _, doc := range docs {
		tickets, err := l.ticketsFor(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, domain.Booking{
			ID:       doc.ID,
			Time:     doc.Time,
			Tickets:  tickets,
			Customer: doc.Customer,
		})
	}
	return bookings, nil
}

func (l *MongoBookingLedger) ticketsFor(ctx context.Context, bookingID string) ([]domain.Ticket, error) {
	cursor, err := l.tickets.Find(ctx, bson.M{"bookingReference": bookingID})
	if err != nil {
		return nil, err
	}
	var docs []ticketDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(docs))
	for _, doc := range docs {
		tickets = append(tickets, domain.Ticket{
			Airline:          doc.Airline,
			FlightID:         doc.FlightID,
			SeatID:           doc.SeatID,
			TicketID:         doc.TicketID,
			Customer:         doc.Customer,
			BookingReference: doc.BookingReference,
		})
	}
	return tickets, nil
}

// BestCustomers aggregates booking counts per customer and returns the
// customers. No ordering is defined for the result.
func (l *MongoBookingLedger) BestCustomers(ctx context.Context) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$customer", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := l.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Customer string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	customers := make([]string, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, row.Customer)
	}
	return customers, nil
}

var _ BookingLedger = (*MongoBookingLedger)(nil)
