package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

var tableCols = []string{"table_id", "table_name", "capacity", "reservation_id", "created_at", "updated_at"}

const (
	claimSQL   = "UPDATE tables SET reservation_id = ?, updated_at = CURRENT_TIMESTAMP"
	releaseSQL = "UPDATE tables SET reservation_id = NULL"
	statusSQL  = "UPDATE reservations SET status = ?"
	existsSQL  = "SELECT 1 FROM tables WHERE table_id = ?"
)

func newTableRepo(t *testing.T) (*TableRepo, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	return NewTableRepo(db, NewReservationRepo(db)), mock
}

func TestTableRepoCreate(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectExec(q("INSERT INTO tables (table_name, capacity) VALUES (?, ?)")).
		WithArgs("Bar #1", 4).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(q("FROM tables WHERE table_id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(tableCols).AddRow(int64(3), "Bar #1", int64(4), nil, stamp, stamp))

	tbl := &model.Table{TableName: "Bar #1", Capacity: 4}
	require.NoError(t, repo.Create(context.Background(), tbl))
	assert.Equal(t, uint64(3), tbl.ID)
	assert.Nil(t, tbl.ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectQuery(q("FROM tables WHERE table_id = ?")).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(tableCols))

	_, err := repo.GetByID(context.Background(), 8)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTableRepoList(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectQuery(q("FROM tables ORDER BY table_name")).
		WillReturnRows(sqlmock.NewRows(tableCols).
			AddRow(int64(2), "Bar #1", int64(2), int64(5), stamp, stamp).
			AddRow(int64(1), "Patio", int64(6), nil, stamp, stamp))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].ReservationID)
	assert.Equal(t, uint64(5), *got[0].ReservationID)
	assert.Equal(t, model.Occupied, got[0].Occupancy())
	assert.Equal(t, model.Vacant, got[1].Occupancy())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoSeat(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(claimSQL)).WithArgs(uint64(3), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(statusSQL)).WithArgs("seated", uint64(3), "booked").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Seat(context.Background(), 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoSeatOccupied(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(claimSQL)).WithArgs(uint64(3), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(existsSQL)).WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Seat(context.Background(), 1, 3), ErrTableOccupied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoSeatMissingTable(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(claimSQL)).WithArgs(uint64(3), uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(existsSQL)).WithArgs(uint64(9)).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Seat(context.Background(), 9, 3), ErrTableNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoSeatReservationNoLongerBooked(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(claimSQL)).WithArgs(uint64(3), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(statusSQL)).WithArgs("seated", uint64(3), "booked").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Seat(context.Background(), 1, 3), ErrReservationNotSeatable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoSeatRollsBackOnError(t *testing.T) {
	repo, mock := newTableRepo(t)
	boom := errors.New("deadlock")
	mock.ExpectBegin()
	mock.ExpectExec(q(claimSQL)).WithArgs(uint64(3), uint64(1)).WillReturnError(boom)
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Seat(context.Background(), 1, 3), boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoUnseat(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(statusSQL)).WithArgs("finished", uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(releaseSQL)).WithArgs(uint64(1), uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Unseat(context.Background(), 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoUnseatVacant(t *testing.T) {
	repo, mock := newTableRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(statusSQL)).WithArgs("finished", uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(releaseSQL)).WithArgs(uint64(1), uint64(3)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(existsSQL)).WithArgs(uint64(1)).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Unseat(context.Background(), 1, 3), ErrTableVacant)
	assert.NoError(t, mock.ExpectationsWereMet())
}
