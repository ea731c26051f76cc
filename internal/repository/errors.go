// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// services to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrReservationNotFound is returned when a reservation lookup or update
// matches no row.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrTableNotFound is returned when a table lookup or update matches no row.
var ErrTableNotFound = errors.New("table not found")

// ErrTableOccupied is returned by Seat when the table already holds a
// reservation at write time, i.e. a concurrent request seated it first.
var ErrTableOccupied = errors.New("table occupied")

// ErrTableVacant is returned by Unseat when the table no longer holds the
// expected reservation.
var ErrTableVacant = errors.New("table vacant")

// ErrReservationNotSeatable is returned by Seat when the reservation is no
// longer booked at write time.
var ErrReservationNotSeatable = errors.New("reservation not seatable")
