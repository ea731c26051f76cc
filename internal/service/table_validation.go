package service

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

var (
	requiredTableFields = []string{"table_name", "capacity"}
	requiredSeatFields  = []string{"reservation_id"}
)

func requireFields(p Payload, fields []string) error {
	if p == nil {
		return invalid("Missing data.")
	}
	for _, field := range fields {
		if falsy(p[field]) {
			return invalid("Required field: %s is missing", field)
		}
	}
	return nil
}

// ValidateTableFields checks a table creation payload.
func ValidateTableFields(p Payload) (*model.TableInput, error) {
	if err := requireFields(p, requiredTableFields); err != nil {
		return nil, err
	}
	capacity, ok := number(p["capacity"])
	if !ok {
		return nil, invalid("Given capacity is not a number.")
	}
	name, ok := p["table_name"].(string)
	if !ok {
		return nil, invalid("Field table_name must be text.")
	}
	if utf8.RuneCountInString(name) < 2 {
		return nil, invalid("Field table_name is too short.")
	}
	if !wholeIn(capacity, 1, maxCount) {
		return nil, invalid("Given capacity must be a positive whole number.")
	}
	return &model.TableInput{TableName: name, Capacity: int(capacity)}, nil
}

// ValidateSeatFields checks a seat payload and returns the reservation id.
// The id may arrive as a JSON number or a numeric string.
func ValidateSeatFields(p Payload) (uint64, error) {
	if err := requireFields(p, requiredSeatFields); err != nil {
		return 0, err
	}
	switch v := p["reservation_id"].(type) {
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 && id <= math.MaxInt64 {
			return id, nil
		}
	default:
		if n, ok := number(v); ok && wholeIn(n, 1, maxID) {
			return uint64(n), nil
		}
	}
	return 0, invalid("reservation_id is not a valid id")
}

// seatChecks are the occupancy rules run before a reservation is seated, in
// the order they are reported.
func seatChecks(t *model.Table) []stage[*model.Reservation] {
	return []stage[*model.Reservation]{
		func(*model.Reservation) error {
			if t.Occupancy() == model.Occupied {
				return invalid("Table is occupied.")
			}
			return nil
		},
		func(r *model.Reservation) error {
			if !t.Fits(r.People) {
				return invalid("Party size is over table capacity.")
			}
			return nil
		},
		func(r *model.Reservation) error {
			if r.Status.CanTransition(model.StatusSeated) {
				return nil
			}
			if r.Status == model.StatusSeated {
				return invalid("Reservation %d is already seated.", r.ID)
			}
			return invalid("Reservation %d is %s.", r.ID, r.Status)
		},
	}
}
