package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"order-insights/internal/engine"
	"order-insights/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderRowColumns = []string{
	"id", "display_id", "platform", "created_at", "shipped_at", "delivered_at", "cancelled_at",
	"total_price", "net_refund_total", "fulfillment_flag", "fulfillment_count",
	"courier_polled_status", "courier_webhook_status", "secondary_partner_status", "awb",
	"utm_source", "utm_term", "utm_content", "source_name", "referring_site", "updated_at",
}

var spendRowColumns = []string{
	"campaign_id", "campaign_name", "adset_id", "adset_name", "ad_id", "ad_name", "spend", "date_start", "date_stop",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStoreFromDB(sqlx.NewDb(db, "postgres")), mock
}

func orderRow(rows *sqlmock.Rows, id string, created time.Time, webhook interface{}) *sqlmock.Rows {
	return rows.AddRow(
		id, "#"+id, "shopify", created, nil, nil, nil,
		"1499.50", "0", models.FulfillmentNone, 0,
		nil, webhook, nil, "AWB"+id,
		"fb", nil, "120211", "web", nil, created,
	)
}

func TestGetOrderByID(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs("1001").
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "1001", created, "DELIVERED"))

	o, err := store.GetOrderByID(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "#1001", o.DisplayID)
	assert.True(t, o.TotalPrice.Equal(decimal.RequireFromString("1499.50")))
	assert.Nil(t, o.ShippedAt)
	require.NotNil(t, o.CourierWebhookStatus)
	assert.Equal(t, "DELIVERED", *o.CourierWebhookStatus)
	assert.Nil(t, o.UTMTerm)
	assert.Equal(t, "120211", models.Value(o.UTMContent))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs("404").
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	_, err := store.GetOrderByID(context.Background(), "404")
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestListOrdersInRangeUsesFilterColumn(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE COALESCE(delivered_at, created_at) >= $1 AND COALESCE(delivered_at, created_at) < $2")).
		WithArgs(start, end).
		WillReturnRows(orderRow(orderRow(sqlmock.NewRows(orderRowColumns), "1", start, nil), "2", start, "RTO"))

	orders, err := store.ListOrdersInRange(context.Background(), start, end, engine.FilterDeliveredDate)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersInRangeRejectsUnknownFilter(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.ListOrdersInRange(context.Background(), time.Now(), time.Now(), engine.DateFilter("updated_at"))
	assert.Error(t, err)
}

func TestSetWebhookStatusByAWB(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET courier_webhook_status = $1")).
		WithArgs("DELIVERED", "AWB1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET courier_webhook_status = $1")).
		WithArgs("DELIVERED", "AWB2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.SetWebhookStatusByAWB(context.Background(), "AWB1", "DELIVERED"))

	err := store.SetWebhookStatusByAWB(context.Background(), "AWB2", "DELIVERED")
	assert.True(t, errors.Is(err, ErrOrderNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertOrder(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertOrder(context.Background(), &models.Order{
		ID:         "1001",
		CreatedAt:  time.Now(),
		TotalPrice: decimal.NewFromInt(100),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSpendRecords(t *testing.T) {
	store, mock := newMockStore(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO spend_records")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO spend_records")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.UpsertSpendRecords(context.Background(), []models.SpendRecord{
		{AdsetID: "AS1", AdID: "1", Spend: decimal.NewFromInt(10), DateStart: day, DateStop: day},
		{AdsetID: "AS1", AdID: "2", Spend: decimal.NewFromInt(20), DateStart: day, DateStop: day},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadSnapshot(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE created_at >= $1 AND created_at < $2")).
		WithArgs(start, end).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "1", start, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM spend_records WHERE date_stop >= $1::date AND date_start <= $2::date")).
		WithArgs("2024-03-01", "2024-03-03").
		WillReturnRows(sqlmock.NewRows(spendRowColumns).
			AddRow("C1", "Spring", "AS1", "Adset 1", "120211", "Ad 1", "250.75", start, start))
	mock.ExpectCommit()

	snap, err := store.ReadSnapshot(context.Background(), start, end, engine.FilterCreatedAt)
	require.NoError(t, err)
	require.Len(t, snap.Orders, 1)
	require.Len(t, snap.Spend, 1)
	assert.True(t, snap.Spend[0].Spend.Equal(decimal.RequireFromString("250.75")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsEventProcessed(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)")).
		WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	processed, err := store.IsEventProcessed(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestListTrackableOrdersSkipsCompleted(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("AND NOT tracking_complete ORDER BY last_polled_at NULLS FIRST, updated_at LIMIT $1")).
		WithArgs(50).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), "1001", created, nil))

	orders, err := store.ListTrackableOrders(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPollQueueUpdates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET tracking_complete = TRUE, last_polled_at = NOW() WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET last_polled_at = NOW() WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkTrackingComplete(context.Background(), []string{"1", "2"}))
	require.NoError(t, store.TouchPolled(context.Background(), []string{"3"}))
	require.NoError(t, store.TouchPolled(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAWBReopensTracking(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET awb = $1, tracking_complete = FALSE")).
		WithArgs("AWB9", "1001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetAWB(context.Background(), "1001", "AWB9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
