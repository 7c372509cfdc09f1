package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlmock.Sqlmock, *InventoryRepo, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return &mock, NewInventoryRepo(db), func() { _ = db.Close() }
}

func TestReserveTxSuccess(t *testing.T) {
	mockp, repo, done := newMock(t)
	defer done()
	mock := *mockp

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE inventory`).
		WithArgs(int64(3), int64(3), uint64(10), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ReserveTx(context.Background(), tx, 10, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTxInsufficientStock(t *testing.T) {
	mockp, repo, done := newMock(t)
	defer done()
	mock := *mockp

	mock.ExpectBegin()
	// Conditional UPDATE matches no row when stock is short.
	mock.ExpectExec(`UPDATE inventory`).
		WithArgs(int64(99), int64(99), uint64(10), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := repo.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ReserveTx(context.Background(), tx, 10, 99)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseClampsAtZero(t *testing.T) {
	mockp, repo, done := newMock(t)
	defer done()
	mock := *mockp

	mock.ExpectExec(`UPDATE inventory`).
		WithArgs(int64(5), int64(5), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Release(context.Background(), 10, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverwritePreservesReservedByDefault(t *testing.T) {
	mockp, repo, done := newMock(t)
	defer done()
	mock := *mockp

	mock.ExpectExec(`UPDATE inventory SET quantity_available=\? WHERE produce_item_id=\?`).
		WithArgs(int64(40), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Overwrite(context.Background(), 10, 40, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverwriteWithReserved(t *testing.T) {
	mockp, repo, done := newMock(t)
	defer done()
	mock := *mockp

	reserved := int64(2)
	mock.ExpectExec(`UPDATE inventory SET quantity_available=\?, quantity_reserved=\? WHERE produce_item_id=\?`).
		WithArgs(int64(40), reserved, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Overwrite(context.Background(), 10, 40, &reserved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverwriteMissingRow(t *testing.T) {
	mockp, repo, done := newMock(t)
	defer done()
	mock := *mockp

	mock.ExpectExec(`UPDATE inventory SET quantity_available=\? WHERE produce_item_id=\?`).
		WithArgs(int64(40), uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, produce_item_id, quantity_available, quantity_reserved, updated_at`).
		WithArgs(uint64(77)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Overwrite(context.Background(), 77, 40, nil)
	assert.ErrorIs(t, err, ErrProduceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
