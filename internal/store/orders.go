package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"order-insights/internal/engine"
	"order-insights/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const orderColumns = `id, display_id, platform, created_at, shipped_at, delivered_at, cancelled_at,
	total_price, net_refund_total, fulfillment_flag, fulfillment_count,
	courier_polled_status, courier_webhook_status, secondary_partner_status, awb,
	utm_source, utm_term, utm_content, source_name, referring_site, updated_at`

// filterColumns maps a report date filter to the order timestamp it compares
var filterColumns = map[engine.DateFilter]string{
	engine.FilterCreatedAt:     "created_at",
	engine.FilterShippedDate:   "COALESCE(shipped_at, created_at)",
	engine.FilterDeliveredDate: "COALESCE(delivered_at, created_at)",
}

// UpsertOrder inserts an order or refreshes its platform fields. Signal
// columns owned by other feeds keep their stored value when the incoming
// order leaves them empty.
func (s *Store) UpsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:id, :display_id, :platform, :created_at, :shipped_at, :delivered_at, :cancelled_at,
			:total_price, :net_refund_total, :fulfillment_flag, :fulfillment_count,
			:courier_polled_status, :courier_webhook_status, :secondary_partner_status, :awb,
			:utm_source, :utm_term, :utm_content, :source_name, :referring_site, NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_id = EXCLUDED.display_id,
			platform = EXCLUDED.platform,
			shipped_at = COALESCE(EXCLUDED.shipped_at, orders.shipped_at),
			delivered_at = COALESCE(EXCLUDED.delivered_at, orders.delivered_at),
			cancelled_at = COALESCE(EXCLUDED.cancelled_at, orders.cancelled_at),
			total_price = EXCLUDED.total_price,
			net_refund_total = EXCLUDED.net_refund_total,
			fulfillment_flag = EXCLUDED.fulfillment_flag,
			fulfillment_count = EXCLUDED.fulfillment_count,
			courier_polled_status = COALESCE(EXCLUDED.courier_polled_status, orders.courier_polled_status),
			courier_webhook_status = COALESCE(EXCLUDED.courier_webhook_status, orders.courier_webhook_status),
			secondary_partner_status = COALESCE(EXCLUDED.secondary_partner_status, orders.secondary_partner_status),
			awb = COALESCE(EXCLUDED.awb, orders.awb),
			utm_source = EXCLUDED.utm_source,
			utm_term = EXCLUDED.utm_term,
			utm_content = EXCLUDED.utm_content,
			source_name = EXCLUDED.source_name,
			referring_site = EXCLUDED.referring_site,
			updated_at = NOW()`

	if _, err := s.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", order.ID, err)
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersInRange retrieves orders whose filter timestamp lies in [start, end)
func (s *Store) ListOrdersInRange(ctx context.Context, start, end time.Time, filter engine.DateFilter) ([]models.Order, error) {
	return listOrdersInRange(ctx, s.db, start, end, filter)
}

func listOrdersInRange(ctx context.Context, q sqlx.QueryerContext, start, end time.Time, filter engine.DateFilter) ([]models.Order, error) {
	column, ok := filterColumns[filter]
	if !ok {
		return nil, fmt.Errorf("unsupported date filter: %q", filter)
	}

	query := "SELECT " + orderColumns + " FROM orders WHERE " + column + " >= $1 AND " + column + " < $2 ORDER BY created_at, id"

	orders := []models.Order{}
	if err := sqlx.SelectContext(ctx, q, &orders, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListTrackableOrders returns orders with a waybill whose tracking is not
// complete, least recently polled first
func (s *Store) ListTrackableOrders(ctx context.Context, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE awb IS NOT NULL AND awb <> '' AND cancelled_at IS NULL AND NOT tracking_complete"+
			" ORDER BY last_polled_at NULLS FIRST, updated_at LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trackable orders: %w", err)
	}
	return orders, nil
}

// TouchPolled records that the orders were visited by a polling pass
func (s *Store) TouchPolled(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE orders SET last_polled_at = NOW() WHERE id = ANY($1)",
		pq.Array(orderIDs)); err != nil {
		return fmt.Errorf("failed to touch polled orders: %w", err)
	}
	return nil
}

// MarkTrackingComplete removes orders in a terminal status from the poll queue
func (s *Store) MarkTrackingComplete(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE orders SET tracking_complete = TRUE, last_polled_at = NOW() WHERE id = ANY($1)",
		pq.Array(orderIDs)); err != nil {
		return fmt.Errorf("failed to mark tracking complete: %w", err)
	}
	return nil
}

// SetWebhookStatusByAWB records the latest courier webhook status for a waybill
func (s *Store) SetWebhookStatusByAWB(ctx context.Context, awb, status string) error {
	return s.updateOne(ctx, awb,
		"UPDATE orders SET courier_webhook_status = $1, updated_at = NOW() WHERE awb = $2",
		status, awb)
}

// SetPolledStatus records the status returned by the courier tracking API
func (s *Store) SetPolledStatus(ctx context.Context, orderID, status string) error {
	return s.updateOne(ctx, orderID,
		"UPDATE orders SET courier_polled_status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
}

// SetPartnerStatus records the secondary fulfillment partner's status
func (s *Store) SetPartnerStatus(ctx context.Context, orderID, status string) error {
	return s.updateOne(ctx, orderID,
		"UPDATE orders SET secondary_partner_status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
}

// SetAWB attaches a courier waybill to an order
func (s *Store) SetAWB(ctx context.Context, orderID, awb string) error {
	return s.updateOne(ctx, orderID,
		"UPDATE orders SET awb = $1, tracking_complete = FALSE, updated_at = NOW() WHERE id = $2",
		awb, orderID)
}

func (s *Store) updateOne(ctx context.Context, key, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, key)
	}
	return nil
}
