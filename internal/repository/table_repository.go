package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// TableRepo provides CRUD operations for the tables table and the seat and
// unseat transactions that also move the seated reservation's status.
type TableRepo struct {
	db           *sql.DB
	reservations *ReservationRepo
}

// NewTableRepo returns a new TableRepo.  reservations must share db so its
// transactional helpers run on the same connection pool.
func NewTableRepo(db *sql.DB, reservations *ReservationRepo) *TableRepo {
	return &TableRepo{db: db, reservations: reservations}
}

const tableColumns = `table_id, table_name, capacity, reservation_id, created_at, updated_at`

func scanTable(row rowScanner) (*model.Table, error) {
	var (
		t        model.Table
		occupant sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.TableName, &t.Capacity, &occupant, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if occupant.Valid {
		id := uint64(occupant.Int64)
		t.ReservationID = &id
	}
	return &t, nil
}

// Create inserts a vacant table and populates the generated fields on t.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO tables (table_name, capacity) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.TableName, t.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// GetByID fetches a table.  It returns ErrTableNotFound if none exists.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM tables WHERE table_id = ?`
	t, err := scanTable(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns all tables ordered by table_name.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM tables ORDER BY table_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Seat assigns reservationID to the table and marks the reservation seated
// in a single transaction.  The table is claimed only while it is vacant and
// the reservation moves only while it is booked, so of two concurrent
// requests for the same table or reservation exactly one wins.
func (r *TableRepo) Seat(ctx context.Context, tableID, reservationID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const claim = `UPDATE tables SET reservation_id = ?, updated_at = CURRENT_TIMESTAMP
	               WHERE table_id = ? AND reservation_id IS NULL`
	res, err := tx.ExecContext(ctx, claim, reservationID, tableID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if err := tableExistsTx(ctx, tx, tableID); err != nil {
			return err
		}
		return ErrTableOccupied
	}

	n, err := r.reservations.UpdateStatusTx(ctx, tx, reservationID, model.StatusSeated, model.StatusBooked)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotSeatable
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Unseat marks reservationID finished and clears it from the table in a
// single transaction.  It returns ErrTableVacant when the table no longer
// holds reservationID.
func (r *TableRepo) Unseat(ctx context.Context, tableID, reservationID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := r.reservations.UpdateStatusTx(ctx, tx, reservationID, model.StatusFinished); err != nil {
		return err
	}

	const release = `UPDATE tables SET reservation_id = NULL, updated_at = CURRENT_TIMESTAMP
	                 WHERE table_id = ? AND reservation_id = ?`
	res, err := tx.ExecContext(ctx, release, tableID, reservationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if err := tableExistsTx(ctx, tx, tableID); err != nil {
			return err
		}
		return ErrTableVacant
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// tableExistsTx returns ErrTableNotFound when tableID matches no row.
func tableExistsTx(ctx context.Context, tx *sql.Tx, tableID uint64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM tables WHERE table_id = ?`, tableID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTableNotFound
	}
	return err
}
