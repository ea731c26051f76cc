package model

import "time"

// Occupancy describes whether a table currently seats a reservation.
type Occupancy string

const (
	Vacant   Occupancy = "vacant"
	Occupied Occupancy = "occupied"
)

// Table is a physical dining table.  ReservationID is nil while the table is
// free and points at the seated reservation otherwise.
type Table struct {
	ID            uint64    `json:"table_id"`
	TableName     string    `json:"table_name"`
	Capacity      int       `json:"capacity"`
	ReservationID *uint64   `json:"reservation_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Occupancy derives the occupancy state from ReservationID.
func (t *Table) Occupancy() Occupancy {
	if t.ReservationID == nil {
		return Vacant
	}
	return Occupied
}

// Fits reports whether a party of the given size can sit at the table.
func (t *Table) Fits(people int) bool { return people <= t.Capacity }

// TableInput is a validated table creation payload.
type TableInput struct {
	TableName string
	Capacity  int
}
