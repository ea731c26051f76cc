package model

import "time"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusSeated    Status = "seated"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// transitions is the seating lifecycle: booked -> seated -> finished, or
// booked -> cancelled.
var transitions = map[Status][]Status{
	StatusBooked: {StatusSeated, StatusCancelled},
	StatusSeated: {StatusFinished},
}

// ParseStatus converts raw text into a Status.  The second return value is
// false when the text is not one of the four known states.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusBooked, StatusSeated, StatusFinished, StatusCancelled:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further changes are allowed.
func (s Status) Terminal() bool { return s == StatusFinished }

// CanTransition reports whether the state machine has an edge s -> to.
func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Reservation is a guest booking for a party at a given date and time.
//
// Fields:
//
//	ID              – reservations.reservation_id
//	FirstName       – guest first name
//	LastName        – guest last name
//	MobileNumber    – contact number as entered (punctuation kept)
//	ReservationDate – calendar date, YYYY-MM-DD
//	ReservationTime – time of day, HH:MM
//	People          – party size
//	Status          – booked, seated, finished or cancelled
type Reservation struct {
	ID              uint64    `json:"reservation_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	MobileNumber    string    `json:"mobile_number"`
	ReservationDate string    `json:"reservation_date"`
	ReservationTime string    `json:"reservation_time"`
	People          int       `json:"people"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ReservationInput is a validated create/update payload.  Status is empty
// when the caller did not send one.
type ReservationInput struct {
	FirstName       string
	LastName        string
	MobileNumber    string
	ReservationDate string
	ReservationTime string
	People          int
	Status          Status
}
