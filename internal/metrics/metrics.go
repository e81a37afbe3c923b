package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus counters.
type Metrics struct {
	BookingsConfirmed prometheus.Counter
	BookingConflicts  prometheus.Counter
	RemoteRetries     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		BookingsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gtickets_bookings_confirmed_total",
			Help: "Bookings successfully confirmed and persisted",
		}),
		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gtickets_booking_conflicts_total",
			Help: "Confirmation attempts rejected because a seat was unavailable or a backend failed",
		}),
		RemoteRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gtickets_remote_retries_total",
			Help: "Retry attempts against external airline endpoints",
		}),
	}
}
