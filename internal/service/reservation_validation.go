package service

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Payload is the decoded content of a request's "data" envelope.  Values keep
// their JSON types (string, float64, bool, nil, ...) so that shape checks can
// tell a number from a numeric string.
type Payload map[string]any

const dateLayout = "2006-01-02"

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// requiredReservationFields is checked in order; the first missing one is
// reported.
var requiredReservationFields = []string{
	"first_name",
	"last_name",
	"mobile_number",
	"reservation_date",
	"reservation_time",
	"people",
}

// Business hours in minutes after midnight: open 10:30, last seating before 21:30.
const (
	openingMinute = 10*60 + 30
	closingMinute = 21*60 + 30
)

// ValidateReservationFields checks presence and shape of a reservation
// payload and converts it into a ReservationInput.
func ValidateReservationFields(p Payload) (*model.ReservationInput, error) {
	if p == nil {
		return nil, invalid("No data received.")
	}
	if v := p["reservation_date"]; !falsy(v) {
		if s, ok := v.(string); !ok || !datePattern.MatchString(s) {
			return nil, invalid("reservation_date does not match the pattern")
		}
	}
	if v := p["reservation_time"]; !falsy(v) {
		if s, ok := v.(string); !ok || !timePattern.MatchString(s) {
			return nil, invalid("reservation_time does not match pattern")
		}
	}
	if v := p["people"]; !falsy(v) {
		if _, ok := number(v); !ok {
			return nil, invalid("people is not a number")
		}
	}
	for _, field := range requiredReservationFields {
		if falsy(p[field]) {
			return nil, invalid("Required field: %s is missing", field)
		}
	}
	if s, _ := p["status"].(string); s == string(model.StatusSeated) || s == string(model.StatusFinished) {
		return nil, invalid("A reservation status must be 'booked' before being '%s'", s)
	}

	in := &model.ReservationInput{
		ReservationDate: p["reservation_date"].(string),
		ReservationTime: p["reservation_time"].(string),
	}
	texts := []struct {
		field string
		dst   *string
	}{
		{"first_name", &in.FirstName},
		{"last_name", &in.LastName},
		{"mobile_number", &in.MobileNumber},
	}
	for _, t := range texts {
		s, ok := p[t.field].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, invalid("%s must be non-empty text", t.field)
		}
		*t.dst = strings.TrimSpace(s)
	}
	people, _ := number(p["people"])
	if !wholeIn(people, 1, maxCount) {
		return nil, invalid("people must be a positive whole number")
	}
	in.People = int(people)

	if raw, ok := p["status"]; ok && !falsy(raw) {
		st, known := model.ParseStatus(fmt.Sprint(raw))
		if !known {
			return nil, invalid("Status '%v' is not a valid status type.", raw)
		}
		in.Status = st
	}
	return in, nil
}

// ValidateReservationDate rejects dates before today and Tuesdays.  "Today" is
// the calendar day of now in now's location.
func ValidateReservationDate(in *model.ReservationInput, now time.Time) error {
	d, err := time.ParseInLocation(dateLayout, in.ReservationDate, now.Location())
	if err != nil {
		return invalid("reservation_date is not a valid calendar date")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return invalid("The reservation date is in the past. Only future reservations are allowed.")
	}
	if d.Weekday() == time.Tuesday {
		return invalid("The reservation date is a Tuesday as the restaurant is closed on Tuesdays.")
	}
	return nil
}

// ValidateReservationTime enforces business hours and, for same-day
// reservations, rejects times already gone by.
func ValidateReservationTime(in *model.ReservationInput, now time.Time) error {
	hour, minute, err := splitClock(in.ReservationTime)
	if err != nil {
		return invalid("reservation_time does not match pattern")
	}
	at := hour*60 + minute
	if at < openingMinute {
		return invalid("No reservations can be made before we open at 10:30AM.")
	}
	if at >= closingMinute {
		return invalid("No reservations can be made after 9:30PM.")
	}
	if in.ReservationDate == now.Format(dateLayout) && at < now.Hour()*60+now.Minute() {
		return invalid("The reservation date is in the past. Only future reservations are allowed.")
	}
	return nil
}

// ValidateStatus checks a requested status against the known set and refuses
// to touch a finished reservation.
func ValidateStatus(raw any, current *model.Reservation) (model.Status, error) {
	s, _ := raw.(string)
	st, ok := model.ParseStatus(s)
	if !ok {
		if raw == nil {
			raw = ""
		}
		return "", invalid("Status '%v' is not a valid status type.", raw)
	}
	if current.Status.Terminal() {
		return "", invalid("Reservation %d is finished.", current.ID)
	}
	return st, nil
}

// schedule returns the date and time checks evaluated against now.
func schedule(now time.Time) []stage[*model.ReservationInput] {
	return []stage[*model.ReservationInput]{
		func(in *model.ReservationInput) error { return ValidateReservationDate(in, now) },
		func(in *model.ReservationInput) error { return ValidateReservationTime(in, now) },
	}
}

func splitClock(s string) (int, int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("bad clock value %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, 0, err
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, 0, err
	}
	return h, m, nil
}

// falsy mirrors what counts as "not provided": absent, null, false, zero or
// the empty string.
func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	if n, ok := number(v); ok {
		return n == 0 || math.IsNaN(n)
	}
	return false
}

// number reports the numeric value of JSON numbers only; numeric strings are
// not numbers.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// maxCount bounds people and capacity to what an INT UNSIGNED column and a
// 32-bit int both hold.
const maxCount = math.MaxInt32

// maxID bounds ids sent as JSON numbers; above 2^53 a float64 no longer
// holds every integer exactly.
const maxID = 1 << 53

// wholeIn reports whether n is an integer within [lo, hi].
func wholeIn(n, lo, hi float64) bool {
	return n >= lo && n <= hi && n == math.Trunc(n)
}

// onlyDigits strips everything but 0-9.
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
