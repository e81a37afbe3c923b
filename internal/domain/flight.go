package domain

// Flight is immutable once created; it comes from the internal airline seed
// import or from an external airline, and is never mutated by this service.
type Flight struct {
	Airline  string `json:"airline" bson:"airline"`
	FlightID string `json:"flightId" bson:"flightId"`
	Name     string `json:"name" bson:"name"`
	Location string `json:"location" bson:"location"`
	Image    string `json:"image" bson:"image"`
}

// Seat belongs to one flight. BookingReference == "" means the seat is
// available; a non-empty value identifies the booking that owns it.
type Seat struct {
	Airline          string `json:"airline" bson:"airline"`
	FlightID         string `json:"flightId" bson:"flightId"`
	SeatID           string `json:"seatId" bson:"seatId"`
	Name             string `json:"name" bson:"name"`
	Time             string `json:"time" bson:"time"`
	Type             string `json:"type" bson:"type"`
	Price            string `json:"price" bson:"price"`
	BookingReference string `json:"bookingReference" bson:"bookingReference"`
	Customer         string `json:"customer" bson:"customer"`
}

// Available reports whether the seat can still be reserved.
func (s Seat) Available() bool {
	return s.BookingReference == ""
}
