package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for the reservations table.
// reservation_date is a DATE and reservation_time a TIME column; they are
// exposed as "YYYY-MM-DD" and "HH:MM" strings on model.Reservation.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the handle so callers can start transactions spanning several
// repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `reservation_id, first_name, last_name, mobile_number,
                            reservation_date, reservation_time, people, status, created_at, updated_at`

// activeFilter excludes reservations that no longer need a table.
const activeFilter = `status NOT IN ('finished', 'cancelled')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res    model.Reservation
		date   time.Time
		clock  string
		status string
	)
	if err := row.Scan(&res.ID, &res.FirstName, &res.LastName, &res.MobileNumber,
		&date, &clock, &res.People, &status, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.ReservationDate = date.Format("2006-01-02")
	res.ReservationTime = hourMinute(clock)
	res.Status = model.Status(status)
	return &res, nil
}

// hourMinute trims a TIME value such as "12:00:00" down to "12:00".
func hourMinute(clock string) string {
	if i := strings.LastIndexByte(clock, ':'); i > 2 {
		return clock[:i]
	}
	return clock
}

// Create inserts a new reservation and reads the row back so the generated
// ID and timestamps are populated on res.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (first_name, last_name, mobile_number, reservation_date, reservation_time, people, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.FirstName, res.LastName, res.MobileNumber,
		res.ReservationDate, res.ReservationTime, res.People, string(res.Status))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*res = *fresh
	return nil
}

// GetByID retrieves a reservation by its ID.  It returns
// ErrReservationNotFound when no row is found.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListActive returns reservations that are neither finished nor cancelled,
// ordered by reservation_time.
func (r *ReservationRepo) ListActive(ctx context.Context) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE ` + activeFilter + `
	      ORDER BY reservation_time`
	return r.list(ctx, q)
}

// ListActiveByDate is ListActive restricted to one reservation_date.
func (r *ReservationRepo) ListActiveByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE reservation_date = ? AND ` + activeFilter + `
	      ORDER BY reservation_time`
	return r.list(ctx, q, date)
}

// SearchByMobile matches reservations whose mobile_number, with every
// non-digit removed, contains digits.  Results are ordered by date.
func (r *ReservationRepo) SearchByMobile(ctx context.Context, digits string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE REGEXP_REPLACE(mobile_number, '[^0-9]', '') LIKE ?
	      ORDER BY reservation_date`
	return r.list(ctx, q, "%"+digits+"%")
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus sets the status of one reservation.  It returns
// ErrReservationNotFound when the ID matches no row.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status model.Status) error {
	const q = `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE reservation_id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// UpdateStatusTx sets the status of one reservation within the scope of an
// existing transaction.  When from is non-empty the row is only updated while
// its current status is one of from.  It returns the number of rows changed
// so the caller can tell a failed guard apart from success; the caller must
// commit or rollback the transaction.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.Status, from ...model.Status) (int64, error) {
	q := `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE reservation_id = ?`
	args := []any{string(status), id}
	if len(from) > 0 {
		placeholders := make([]string, 0, len(from))
		for _, st := range from {
			placeholders = append(placeholders, "?")
			args = append(args, string(st))
		}
		q += ` AND status IN (` + strings.Join(placeholders, ",") + `)`
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Update overwrites every editable column of res.  It returns
// ErrReservationNotFound when the ID matches no row.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations
	           SET first_name = ?, last_name = ?, mobile_number = ?, reservation_date = ?,
	               reservation_time = ?, people = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE reservation_id = ?`
	result, err := r.db.ExecContext(ctx, q,
		res.FirstName, res.LastName, res.MobileNumber, res.ReservationDate,
		res.ReservationTime, res.People, string(res.Status), res.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
