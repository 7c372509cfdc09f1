package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestly/farm-market/internal/repository"
)

func newPublicHandler(t *testing.T) (*PublicHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPublicHandler(
		repository.NewFarmRepo(db),
		repository.NewProduceRepo(db),
		repository.NewInventoryRepo(db),
	), mock
}

func emptyProduceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "farm_id", "name", "category", "price_cents",
		"is_organic", "is_seasonal", "is_heirloom", "is_active", "created_at", "updated_at",
	})
}

func TestSearchProduceForwardsQParam(t *testing.T) {
	h, mock := newPublicHandler(t)
	mock.ExpectQuery(`SELECT p\.id, p\.farm_id`).
		WithArgs("%tomato%").
		WillReturnRows(emptyProduceRows())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/produce?q=tomato", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.SearchProduce(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchProduceCombinesFilters(t *testing.T) {
	h, mock := newPublicHandler(t)
	mock.ExpectQuery(`SELECT p\.id, p\.farm_id`).
		WithArgs("%kale%", "vegetable", true).
		WillReturnRows(emptyProduceRows())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/produce?q=kale&category=Vegetable&organic=true", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.SearchProduce(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
