package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-reservation/internal/metrics"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// TableStore is the persistence the Table Manager needs.
//
// Seat and Unseat change the table and the reservation status in one
// transaction: Seat sets tables.reservation_id only while it is still NULL and
// the reservation is still booked, Unseat clears it only while it still
// holds reservationID.  They report repository.ErrTableOccupied,
// repository.ErrReservationNotSeatable and repository.ErrTableVacant when
// those conditions no longer hold at write time.
type TableStore interface {
	Create(ctx context.Context, t *model.Table) error
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	List(ctx context.Context) ([]model.Table, error)
	Seat(ctx context.Context, tableID, reservationID uint64) error
	Unseat(ctx context.Context, tableID, reservationID uint64) error
}

// TableService owns tables and which reservation is seated at each.
type TableService struct {
	tables       TableStore
	reservations *ReservationService
	logger       *zerolog.Logger
}

// NewTableService wires a TableService to its store and the Reservation
// Manager whose records it seats.
func NewTableService(tables TableStore, reservations *ReservationService, logger *zerolog.Logger) *TableService {
	if tables == nil || reservations == nil {
		panic("nil dependency passed to NewTableService")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TableService{tables: tables, reservations: reservations, logger: logger}
}

// Create validates p and stores a new, vacant table.
func (s *TableService) Create(ctx context.Context, p Payload) (*model.Table, error) {
	in, err := ValidateTableFields(p)
	if err != nil {
		return nil, countRejected(err)
	}
	t := &model.Table{TableName: in.TableName, Capacity: in.Capacity}
	if err := s.tables.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return t, nil
}

// List returns every table ordered by name.
func (s *TableService) List(ctx context.Context) ([]model.Table, error) {
	out, err := s.tables.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return out, nil
}

// ReadTable returns one table or a NotFound error echoing id.
func (s *TableService) ReadTable(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := s.tables.GetByID(ctx, id)
	if errors.Is(err, repository.ErrTableNotFound) {
		return nil, notFound("Table %d not found.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %d: %w", id, err)
	}
	return t, nil
}

// ReadReservation looks up the reservation a seat request refers to.
func (s *TableService) ReadReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := s.reservations.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, notFound("Reservation %d does not exist.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read reservation %d: %w", id, err)
	}
	return r, nil
}

// Seat assigns the reservation named in p to the table and marks it seated.
func (s *TableService) Seat(ctx context.Context, tableID uint64, p Payload) (*model.Table, error) {
	t, r, err := s.prepareSeat(ctx, tableID, p)
	if err != nil {
		metrics.IncSeating("seat", "rejected")
		return nil, countRejected(err)
	}
	err = s.tables.Seat(ctx, t.ID, r.ID)
	switch {
	case errors.Is(err, repository.ErrTableOccupied):
		err = invalid("Table is occupied.")
	case errors.Is(err, repository.ErrReservationNotSeatable):
		err = invalid("Reservation %d is no longer booked.", r.ID)
	case errors.Is(err, repository.ErrTableNotFound):
		err = notFound("Table %d not found.", tableID)
	case err != nil:
		return nil, fmt.Errorf("seat reservation %d at table %d: %w", r.ID, tableID, err)
	}
	if err != nil {
		metrics.IncSeating("seat", "rejected")
		return nil, countRejected(err)
	}
	metrics.IncSeating("seat", "ok")

	r.Status = model.StatusSeated
	s.reservations.statusChanged(ctx, r, &t.ID)
	return s.ReadTable(ctx, tableID)
}

func (s *TableService) prepareSeat(ctx context.Context, tableID uint64, p Payload) (*model.Table, *model.Reservation, error) {
	reservationID, err := ValidateSeatFields(p)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.ReadTable(ctx, tableID)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.ReadReservation(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	if err := chain(r, seatChecks(t)...); err != nil {
		return nil, nil, err
	}
	return t, r, nil
}

// Unseat vacates the table and marks its reservation finished.
func (s *TableService) Unseat(ctx context.Context, tableID uint64) (*model.Table, error) {
	t, err := s.ReadTable(ctx, tableID)
	if err != nil {
		metrics.IncSeating("unseat", "rejected")
		return nil, countRejected(err)
	}
	if t.Occupancy() == model.Vacant {
		metrics.IncSeating("unseat", "rejected")
		return nil, countRejected(invalid("Table %d is not occupied.", tableID))
	}
	reservationID := *t.ReservationID
	if err := s.tables.Unseat(ctx, tableID, reservationID); err != nil {
		if errors.Is(err, repository.ErrTableVacant) {
			metrics.IncSeating("unseat", "rejected")
			return nil, countRejected(invalid("Table %d is not occupied.", tableID))
		}
		return nil, fmt.Errorf("unseat table %d: %w", tableID, err)
	}
	metrics.IncSeating("unseat", "ok")

	if r, err := s.reservations.store.GetByID(ctx, reservationID); err == nil {
		s.reservations.statusChanged(ctx, r, &tableID)
	} else {
		s.logger.Warn().Err(err).Uint64("reservation_id", reservationID).Msg("reload after unseat failed")
	}
	return s.ReadTable(ctx, tableID)
}
