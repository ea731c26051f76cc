package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created.",
		},
	)

	statusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "reservation_status_changed_total",
			Help:      "Count of reservation status changes by target status.",
		},
		[]string{"status"},
	)

	seating = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "table_seating_total",
			Help:      "Count of seat and unseat operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	rejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "request_rejected_total",
			Help:      "Count of requests rejected by validation, by error kind.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, statusChanged, seating, rejected)
	})
}

func IncReservationCreated() {
	reservationCreated.Inc()
}

func IncStatusChanged(status string) {
	statusChanged.WithLabelValues(status).Inc()
}

// IncSeating records a seat/unseat attempt; outcome is "ok" or "rejected".
func IncSeating(operation, outcome string) {
	seating.WithLabelValues(operation, outcome).Inc()
}

func IncRejected(kind string) {
	rejected.WithLabelValues(kind).Inc()
}
