package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-reservation/internal/metrics"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

// ReservationStore is the persistence the Reservation Manager needs.
// Lookups and updates of unknown ids return repository.ErrReservationNotFound.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListActive(ctx context.Context) ([]model.Reservation, error)
	ListActiveByDate(ctx context.Context, date string) ([]model.Reservation, error)
	SearchByMobile(ctx context.Context, digits string) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status model.Status) error
	Update(ctx context.Context, r *model.Reservation) error
}

// EventPublisher delivers lifecycle events.  Failures never fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// ReservationService owns reservation records and their status lifecycle.
// Every mutating operation runs the validator chain first and touches the
// store only when all checks pass.
type ReservationService struct {
	store  ReservationStore
	clock  utils.Clock
	events EventPublisher
	logger *zerolog.Logger
}

// NewReservationService wires a ReservationService.  events may be nil, in
// which case nothing is published.
func NewReservationService(store ReservationStore, clock utils.Clock, events EventPublisher, logger *zerolog.Logger) *ReservationService {
	if store == nil || clock == nil {
		panic("nil dependency passed to NewReservationService")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ReservationService{store: store, clock: clock, events: events, logger: logger}
}

// Create validates p and stores a new reservation.  The status is always
// booked regardless of what the payload asked for.
func (s *ReservationService) Create(ctx context.Context, p Payload) (*model.Reservation, error) {
	in, err := ValidateReservationFields(p)
	if err != nil {
		return nil, countRejected(err)
	}
	if err := chain(in, schedule(s.clock.Now())...); err != nil {
		return nil, countRejected(err)
	}
	r := &model.Reservation{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		MobileNumber:    in.MobileNumber,
		ReservationDate: in.ReservationDate,
		ReservationTime: in.ReservationTime,
		People:          in.People,
		Status:          model.StatusBooked,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	metrics.IncReservationCreated()
	s.publish(ctx, queue.EventReservationCreated, r, nil)
	return r, nil
}

// List returns reservations that are neither finished nor cancelled, earliest
// time first.
func (s *ReservationService) List(ctx context.Context) ([]model.Reservation, error) {
	out, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// ListByDate is List restricted to one calendar date.
func (s *ReservationService) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	if !datePattern.MatchString(date) {
		return nil, countRejected(invalid("date does not match the pattern"))
	}
	out, err := s.store.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations by date: %w", err)
	}
	return out, nil
}

// Search finds reservations whose mobile number contains the digits of
// mobile, ignoring punctuation on both sides.  Every status is included.
func (s *ReservationService) Search(ctx context.Context, mobile string) ([]model.Reservation, error) {
	out, err := s.store.SearchByMobile(ctx, onlyDigits(mobile))
	if err != nil {
		return nil, fmt.Errorf("search reservations: %w", err)
	}
	return out, nil
}

// Read returns one reservation or a NotFound error echoing id.
func (s *ReservationService) Read(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, notFound("Reservation %d not found.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read reservation %d: %w", id, err)
	}
	return r, nil
}

// UpdateStatus applies a validated status change.  raw is the "status" value
// exactly as received.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint64, raw any) (model.Status, error) {
	r, err := s.Read(ctx, id)
	if err != nil {
		return "", countRejected(err)
	}
	st, err := ValidateStatus(raw, r)
	if err != nil {
		return "", countRejected(err)
	}
	if err := s.store.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return "", notFound("Reservation %d not found.", id)
		}
		return "", fmt.Errorf("update reservation %d status: %w", id, err)
	}
	r.Status = st
	s.statusChanged(ctx, r, nil)
	return st, nil
}

// Update replaces every field of a reservation.  It runs the same checks as
// Create and refuses to modify a finished reservation.  When the payload
// carries no status the current one is kept.
func (s *ReservationService) Update(ctx context.Context, id uint64, p Payload) (*model.Reservation, error) {
	cur, err := s.Read(ctx, id)
	if err != nil {
		return nil, countRejected(err)
	}
	if cur.Status.Terminal() {
		return nil, countRejected(invalid("Reservation %d is finished.", id))
	}
	in, err := ValidateReservationFields(p)
	if err != nil {
		return nil, countRejected(err)
	}
	if err := chain(in, schedule(s.clock.Now())...); err != nil {
		return nil, countRejected(err)
	}
	upd := *cur
	upd.FirstName = in.FirstName
	upd.LastName = in.LastName
	upd.MobileNumber = in.MobileNumber
	upd.ReservationDate = in.ReservationDate
	upd.ReservationTime = in.ReservationTime
	upd.People = in.People
	if in.Status != "" {
		upd.Status = in.Status
	}
	if err := s.store.Update(ctx, &upd); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, notFound("Reservation %d not found.", id)
		}
		return nil, fmt.Errorf("update reservation %d: %w", id, err)
	}
	fresh, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh.Status != cur.Status {
		s.statusChanged(ctx, fresh, nil)
	}
	return fresh, nil
}

// statusChanged records a status transition that has already been stored.
// The Table Manager calls it after seating and vacating.
func (s *ReservationService) statusChanged(ctx context.Context, r *model.Reservation, tableID *uint64) {
	metrics.IncStatusChanged(string(r.Status))
	s.logger.Info().Uint64("reservation_id", r.ID).Str("status", string(r.Status)).Msg("reservation status changed")
	s.publish(ctx, queue.EventStatusChanged, r, tableID)
}

func (s *ReservationService) publish(ctx context.Context, typ string, r *model.Reservation, tableID *uint64) {
	if s.events == nil {
		return
	}
	ev := queue.ReservationEvent{
		Type:            typ,
		ReservationID:   r.ID,
		TableID:         tableID,
		Status:          string(r.Status),
		ReservationDate: r.ReservationDate,
		ReservationTime: r.ReservationTime,
		People:          r.People,
		OccurredAt:      s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("type", typ).Uint64("reservation_id", r.ID).Msg("event not published")
	}
}

// countRejected counts business errors by kind and passes err through.
func countRejected(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		metrics.IncRejected("invalid_request")
	case errors.Is(err, ErrNotFound):
		metrics.IncRejected("not_found")
	}
	return err
}
