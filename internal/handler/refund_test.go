package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestly/farm-market/internal/model"
	"github.com/harvestly/farm-market/internal/repository"
)

func newRefundHandler(t *testing.T) (*RefundHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRefundHandler(repository.NewRefundRepo(db), repository.NewOrderRepo(db)), mock
}

func orderDetailRow(id, buyerID uint64, total int64, paymentStatus string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "buyer_id", "status", "payment_status", "total_amount_cents",
		"platform_fee_cents", "delivery_method", "payment_ref", "created_at",
	}).AddRow(id, buyerID, model.OrderConfirmed, paymentStatus, total, total/20, "pickup", "pi_1", time.Now())
}

func emptyItemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"order_id", "produce_item_id", "name", "farm_id", "farm_name",
		"quantity", "price_per_unit_cents", "total_price_cents",
	})
}

func postRefund(t *testing.T, h *RefundHandler, uid uint64, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/refund-requests", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)
	require.NoError(t, h.Create(c))
	return rec
}

func expectOrderLookup(mock sqlmock.Sqlmock, rows *sqlmock.Rows, orderID uint64) {
	mock.ExpectQuery(`SELECT o\.id, o\.buyer_id`).
		WithArgs(orderID).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT oi\.order_id`).
		WithArgs(orderID).
		WillReturnRows(emptyItemRows())
}

func TestRefundCreateRejectsAmountOverTotal(t *testing.T) {
	h, mock := newRefundHandler(t)
	expectOrderLookup(mock, orderDetailRow(5, 9, 1000, model.PaymentPaid), 5)

	rec := postRefund(t, h, 9, `{"order_id":5,"amount_cents":1500,"reason":"too much"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds order total")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundCreateDefaultsToFullTotal(t *testing.T) {
	h, mock := newRefundHandler(t)
	expectOrderLookup(mock, orderDetailRow(5, 9, 1000, model.PaymentPaid), 5)

	// No pending request exists yet; the insert stores the full total.
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uint64(5), model.RefundPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO refund_requests`).
		WithArgs(uint64(5), uint64(9), model.RequesterBuyer, int64(1000), "spoiled on arrival", model.RefundPending).
		WillReturnResult(sqlmock.NewResult(3, 1))

	rec := postRefund(t, h, 9, `{"order_id":5,"reason":"spoiled on arrival"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount_cents":1000`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundCreateRejectsUnpaidOrder(t *testing.T) {
	h, mock := newRefundHandler(t)
	expectOrderLookup(mock, orderDetailRow(5, 9, 1000, model.PaymentPending), 5)

	rec := postRefund(t, h, 9, `{"order_id":5,"amount_cents":100,"reason":"changed my mind"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundCreateRejectsStranger(t *testing.T) {
	h, mock := newRefundHandler(t)
	expectOrderLookup(mock, orderDetailRow(5, 9, 1000, model.PaymentPaid), 5)

	// Caller 77 is neither the buyer nor a seller on the order.
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uint64(5), uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	rec := postRefund(t, h, 77, `{"order_id":5,"amount_cents":100,"reason":"not mine"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
