package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
)

// memDB backs both fakes so seating can move a reservation's status the way
// the SQL store does inside one transaction.
type memDB struct {
	mu           sync.Mutex
	reservations map[uint64]*model.Reservation
	tables       map[uint64]*model.Table
	nextRes      uint64
	nextTable    uint64
}

func newMemDB() *memDB {
	return &memDB{reservations: map[uint64]*model.Reservation{}, tables: map[uint64]*model.Table{}}
}

type memReservations struct{ db *memDB }

func (m memReservations) Create(_ context.Context, r *model.Reservation) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.nextRes++
	r.ID = m.db.nextRes
	cp := *r
	m.db.reservations[r.ID] = &cp
	return nil
}

func (m memReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (m memReservations) filter(keep func(*model.Reservation) bool, less func(a, b model.Reservation) bool) []model.Reservation {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, r := range m.db.reservations {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func active(r *model.Reservation) bool {
	return r.Status != model.StatusFinished && r.Status != model.StatusCancelled
}

func byTime(a, b model.Reservation) bool { return a.ReservationTime < b.ReservationTime }

func (m memReservations) ListActive(context.Context) ([]model.Reservation, error) {
	return m.filter(active, byTime), nil
}

func (m memReservations) ListActiveByDate(_ context.Context, date string) ([]model.Reservation, error) {
	return m.filter(func(r *model.Reservation) bool { return active(r) && r.ReservationDate == date }, byTime), nil
}

func (m memReservations) SearchByMobile(_ context.Context, digits string) ([]model.Reservation, error) {
	return m.filter(
		func(r *model.Reservation) bool { return strings.Contains(onlyDigits(r.MobileNumber), digits) },
		func(a, b model.Reservation) bool { return a.ReservationDate < b.ReservationDate },
	), nil
}

func (m memReservations) UpdateStatus(_ context.Context, id uint64, status model.Status) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Status = status
	return nil
}

func (m memReservations) Update(_ context.Context, r *model.Reservation) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.reservations[r.ID]; !ok {
		return repository.ErrReservationNotFound
	}
	cp := *r
	m.db.reservations[r.ID] = &cp
	return nil
}

type memTables struct {
	db *memDB
	// seatErr, when set, is returned by Seat to simulate losing a race.
	seatErr error
}

func (m *memTables) Create(_ context.Context, t *model.Table) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.nextTable++
	t.ID = m.db.nextTable
	cp := *t
	m.db.tables[t.ID] = &cp
	return nil
}

func (m *memTables) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tables[id]
	if !ok {
		return nil, repository.ErrTableNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTables) List(context.Context) ([]model.Table, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make([]model.Table, 0, len(m.db.tables))
	for _, t := range m.db.tables {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableName < out[j].TableName })
	return out, nil
}

func (m *memTables) Seat(_ context.Context, tableID, reservationID uint64) error {
	if m.seatErr != nil {
		return m.seatErr
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tables[tableID]
	if !ok {
		return repository.ErrTableNotFound
	}
	if t.ReservationID != nil {
		return repository.ErrTableOccupied
	}
	r, ok := m.db.reservations[reservationID]
	if !ok || r.Status != model.StatusBooked {
		return repository.ErrReservationNotSeatable
	}
	id := reservationID
	t.ReservationID = &id
	r.Status = model.StatusSeated
	return nil
}

func (m *memTables) Unseat(_ context.Context, tableID, reservationID uint64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tables[tableID]
	if !ok {
		return repository.ErrTableNotFound
	}
	if t.ReservationID == nil || *t.ReservationID != reservationID {
		return repository.ErrTableVacant
	}
	if r, ok := m.db.reservations[reservationID]; ok {
		r.Status = model.StatusFinished
	}
	t.ReservationID = nil
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// eventTypes lists the types of every published event, in order.
func (m *mockPublisher) eventTypes() []string {
	var out []string
	for _, c := range m.Calls {
		ev := c.Arguments.Get(1).(queue.ReservationEvent)
		out = append(out, ev.Type+":"+ev.Status)
	}
	return out
}

// monday is 2025-06-02 12:00 UTC; the next day is a Tuesday.
var monday = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db       *memDB
	tables   *memTables
	events   *mockPublisher
	resv     *ReservationService
	tableSvc *TableService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db := newMemDB()
	events := &mockPublisher{}
	events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	tables := &memTables{db: db}
	resv := NewReservationService(memReservations{db: db}, utils.FixedClock(monday), events, &logger)
	return &fixture{
		db:       db,
		tables:   tables,
		events:   events,
		resv:     resv,
		tableSvc: NewTableService(tables, resv, &logger),
	}
}

func validReservation() Payload {
	return Payload{
		"first_name":       "Rick",
		"last_name":        "Sanchez",
		"mobile_number":    "202-555-0164",
		"reservation_date": "2025-06-04",
		"reservation_time": "13:30",
		"people":           float64(2),
	}
}

func with(p Payload, kv ...any) Payload {
	out := Payload{}
	for k, v := range p {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func without(p Payload, key string) Payload {
	out := with(p)
	delete(out, key)
	return out
}
