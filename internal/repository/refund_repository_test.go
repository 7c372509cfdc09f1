package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestly/farm-market/internal/model"
)

func TestProcessTxApprovesPendingRequest(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRefundRepo(db)

	notes := "valid complaint"
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE refund_requests SET status=\?, admin_notes=\? WHERE id=\? AND status=\?`).
		WithArgs(model.RefundApproved, &notes, uint64(5), model.RefundPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, repo.ProcessTx(context.Background(), tx, 5, model.RefundApproved, &notes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessTxAlreadyProcessed(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRefundRepo(db)

	// A request already in a terminal state matches no row, so a second
	// concurrent decision loses.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE refund_requests SET status=\?, admin_notes=\? WHERE id=\? AND status=\?`).
		WithArgs(model.RefundDeclined, nil, uint64(5), model.RefundPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ProcessTx(context.Background(), tx, 5, model.RefundDeclined, nil)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
