package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestly/farm-market/internal/model"
)

func userRows(id uint64, email, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
		AddRow(id, email, "$2a$04$hash", role, true, now, now)
}

func TestEnsureGuestReusesExistingAccount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\?`).
		WithArgs("guest@example.com").
		WillReturnRows(userRows(12, "guest@example.com", model.RoleBuyer))

	id, created, err := repo.EnsureGuest(context.Background(), " Guest@Example.com ", "pw", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureGuestCreatesBuyerAccount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\?`).
		WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("new@example.com", sqlmock.AnyArg(), model.RoleBuyer).
		WillReturnResult(sqlmock.NewResult(34, 1))

	id, created, err := repo.EnsureGuest(context.Background(), "new@example.com", "pw", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(34), id)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureGuestResolvesDuplicateRace(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	// A concurrent checkout created the row between our read and insert.
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\?`).
		WithArgs("race@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("race@example.com", sqlmock.AnyArg(), model.RoleBuyer).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\?`).
		WithArgs("race@example.com").
		WillReturnRows(userRows(56, "race@example.com", model.RoleBuyer))

	id, created, err := repo.EnsureGuest(context.Background(), "race@example.com", "pw", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(56), id)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(`UPDATE users SET is_active=\? WHERE id=\?`).
		WithArgs(false, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = repo.SetActive(context.Background(), 99, false)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveNoopWhenAlreadyInState(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec(`UPDATE users SET is_active=\? WHERE id=\?`).
		WithArgs(true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.NoError(t, repo.SetActive(context.Background(), 7, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
