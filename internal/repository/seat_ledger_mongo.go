package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"gtickets/internal/backend"
	"gtickets/internal/domain"
)

// MongoSeatLedger owns the internal airline's flight and seat documents.
// Seat availability is the bookingReference field: empty string means free.
type MongoSeatLedger struct {
	client  *mongo.Client
	flights *mongo.Collection
	seats   *mongo.Collection
	airline string
	log     *zap.SugaredLogger
}

func NewSeatLedger(client *mongo.Client, db *mongo.Database, airline string, log *zap.SugaredLogger) *MongoSeatLedger {
	flights := db.Collection("flights")
	seats := db.Collection("seats")

	ctx := context.Background()
	flights.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"name": 1},
	})
	seats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "flightId", Value: 1}, {Key: "seatId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "flightId", Value: 1}, {Key: "time", Value: 1}, {Key: "bookingReference", Value: 1}}},
	})

	return &MongoSeatLedger{
		client:  client,
		flights: flights,
		seats:   seats,
		airline: airline,
		log:     log,
	}
}

// Seed loads the internal airline dataset once at startup. Flights whose name
// already exists are skipped, so re-seeding on restart is a no-op.
func (l *MongoSeatLedger) Seed(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed data: %w", err)
	}

	seed, err := parseSeedData(data)
	if err != nil {
		return err
	}

	for _, f := range seed {
		count, err := l.flights.CountDocuments(ctx, bson.M{"name": f.Name})
		if err != nil {
			return err
		}
		if count > 0 {
			l.log.Infow("flight already seeded, skipping", "name", f.Name)
			continue
		}

		flightID := uuid.NewString()
		if _, err := l.flights.InsertOne(ctx, domain.Flight{
			Airline:  l.airline,
			FlightID: flightID,
			Name:     f.Name,
			Location: f.Location,
			Image:    f.Image,
		}); err != nil {
			return fmt.Errorf("seed flight %s: %w", f.Name, err)
		}

		seats := make([]interface{}, 0, len(f.Seats))
		for _, s := range f.Seats {
			seats = append(seats, domain.Seat{
				Airline:  l.airline,
				FlightID: flightID,
				SeatID:   uuid.NewString(),
				Name:     s.Name,
				Time:     s.Time,
				Type:     s.Type,
				Price:    s.Price,
			})
		}
		if len(seats) > 0 {
			if _, err := l.seats.InsertMany(ctx, seats); err != nil {
				return fmt.Errorf("seed seats for flight %s: %w", f.Name, err)
			}
		}
		l.log.Infow("seeded flight", "name", f.Name, "flightId", flightID, "seats", len(seats))
	}
	return nil
}

type seedFlight struct {
	Name     string     `json:"name"`
	Location string     `json:"location"`
	Image    string     `json:"image"`
	Seats    []seedSeat `json:"seats"`
}

type seedSeat struct {
	Name  string `json:"name"`
	Time  string `json:"time"`
	Type  string `json:"type"`
	Price string `json:"price"`
}

func parseSeedData(data []byte) ([]seedFlight, error) {
	var seed struct {
		Flights []seedFlight `json:"flights"`
	}
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return seed.Flights, nil
}

func (l *MongoSeatLedger) Flights(ctx context.Context) ([]domain.Flight, error) {
	cursor, err := l.flights.Find(ctx, bson.M{"airline": l.airline})
	if err != nil {
		return nil, err
	}
	var flights []domain.Flight
	if err := cursor.All(ctx, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (l *MongoSeatLedger) Flight(ctx context.Context, flightID string) (*domain.Flight, error) {
	var flight domain.Flight
	err := l.flights.FindOne(ctx, bson.M{"flightId": flightID}).Decode(&flight)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	return &flight, nil
}

func (l *MongoSeatLedger) FlightTimes(ctx context.Context, flightID string) ([]string, error) {
	values, err := l.seats.Distinct(ctx, "time", bson.M{"flightId": flightID})
	if err != nil {
		return nil, err
	}
	times := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			times = append(times, s)
		}
	}
	return times, nil
}

func (l *MongoSeatLedger) AvailableSeats(ctx context.Context, flightID, flightTime string) ([]domain.Seat, error) {
	cursor, err := l.seats.Find(ctx, bson.M{
		"flightId":         flightID,
		"time":             flightTime,
		"bookingReference": "",
	})
	if err != nil {
		return nil, err
	}
	var seats []domain.Seat
	if err := cursor.All(ctx, &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (l *MongoSeatLedger) Seat(ctx context.Context, flightID, seatID string) (*domain.Seat, error) {
	var seat domain.Seat
	err := l.seats.FindOne(ctx, bson.M{"flightId": flightID, "seatId": seatID}).Decode(&seat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	return &seat, nil
}

// ReserveSeats marks every quoted seat as reserved in one transaction. Each
// update is conditional on bookingReference still being empty; any seat taken
// in the meantime aborts the transaction, so either all seats are reserved or
// none are. Requires the mongo deployment to support transactions (replica
// set or sharded cluster).
func (l *MongoSeatLedger) ReserveSeats(ctx context.Context, quotes []domain.Quote, customer, bookingReference string) error {
	session, err := l.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, quote := range quotes {
			result, err := l.seats.UpdateOne(sc,
				bson.M{"flightId": quote.FlightID, "seatId": quote.SeatID, "bookingReference": ""},
				bson.M{"$set": bson.M{"bookingReference": bookingReference, "customer": customer}},
			)
			if err != nil {
				return nil, err
			}
			if result.ModifiedCount == 0 {
				return nil, backend.ErrSeatUnavailable
			}
		}
		return nil, nil
	})
	return err
}

var _ backend.SeatLedger = (*MongoSeatLedger)(nil)
