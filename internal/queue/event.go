// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer for them.
package queue

// EventQueue is the durable queue reservation lifecycle events go to.
const EventQueue = "reservation.events"

// Event types.
const (
	EventReservationCreated = "reservation.created"
	EventStatusChanged      = "reservation.status_changed"
)

// ReservationEvent is published after a reservation is created or changes
// status.  TableID is set when the change came from seating or vacating a
// table.  Downstream consumers can log or notify without querying the
// primary database.
type ReservationEvent struct {
	Type            string  `json:"type"`
	ReservationID   uint64  `json:"reservation_id"`
	TableID         *uint64 `json:"table_id,omitempty"`
	Status          string  `json:"status"`
	ReservationDate string  `json:"reservation_date"`
	ReservationTime string  `json:"reservation_time"`
	People          int     `json:"people"`
	OccurredAt      string  `json:"occurred_at"`
}
