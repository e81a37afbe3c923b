package domain

import "time"

// Quote is an unconfirmed intent to buy one seat. Quotes are ephemeral: they
// are produced while a user browses and either confirmed or discarded.
type Quote struct {
	Airline  string `json:"airline"`
	FlightID string `json:"flightId"`
	SeatID   string `json:"seatId"`
}

// Ticket is a confirmed seat purchase. TicketID is generated at confirmation
// time and the BookingReference ties it to the booking it belongs to.
type Ticket struct {
	Airline          string `json:"airline" bson:"airline"`
	FlightID         string `json:"flightId" bson:"flightId"`
	SeatID           string `json:"seatId" bson:"seatId"`
	TicketID         string `json:"ticketId" bson:"_id"`
	Customer         string `json:"customer" bson:"customer"`
	BookingReference string `json:"bookingReference" bson:"bookingReference"`
}

// Booking aggregates every ticket issued for one confirmation request. Its ID
// doubles as the bookingReference shared by all of its tickets, including
// tickets issued by different backends.
type Booking struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Tickets  []Ticket  `json:"tickets"`
	Customer string    `json:"customer"`
}

// Principal is the authenticated caller as exposed by the auth filter.
// UID partitions the booking ledger; Email is a display attribute carried on
// tickets and bookings.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

const RoleManager = "manager"

// IsManager gates the audit endpoints.
func (p Principal) IsManager() bool {
	return p.Role == RoleManager
}
