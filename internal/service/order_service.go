package service

import (
	"context"
	"errors"
	"fmt"

	"order-insights/internal/engine"
	"order-insights/internal/models"
	"order-insights/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidOrder is returned when an ingested order or spend record is malformed
var ErrInvalidOrder = errors.New("invalid order data")

// OrderStore persists orders and spend records
type OrderStore interface {
	UpsertOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpsertSpendRecords(ctx context.Context, records []models.SpendRecord) error
}

// OrderService handles order and spend ingestion plus reconciled reads
type OrderService struct {
	store  OrderStore
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// OrderView is an order with the values the engine derives for it
type OrderView struct {
	Order       *models.Order          `json:"order"`
	Status      models.CanonicalStatus `json:"status"`
	Label       string                 `json:"label"`
	Rule        string                 `json:"rule"`
	Attribution models.Attribution     `json:"attribution"`
}

// IngestOrder validates and stores one order snapshot
func (s *OrderService) IngestOrder(ctx context.Context, order *models.Order) error {
	ctx, span := util.StartSpan(ctx, "OrderService.IngestOrder")
	defer span.End()

	if order.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidOrder)
	}
	if order.CreatedAt.IsZero() {
		return fmt.Errorf("%w: created_at is required", ErrInvalidOrder)
	}
	if order.TotalPrice.IsNegative() || order.NetRefundTotal.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidOrder)
	}
	if order.FulfillmentFlag == "" {
		order.FulfillmentFlag = models.FulfillmentNone
	}
	if order.FulfillmentFlag != models.FulfillmentNone && order.FulfillmentFlag != models.FulfillmentFulfilled {
		return fmt.Errorf("%w: unknown fulfillment_flag %q", ErrInvalidOrder, order.FulfillmentFlag)
	}

	if err := s.store.UpsertOrder(ctx, order); err != nil {
		return err
	}

	util.OrdersUpsertedTotal.Inc()
	s.logger.Debug("Order ingested", zap.String("order_id", order.ID))
	return nil
}

// IngestSpend validates and stores a batch of spend records
func (s *OrderService) IngestSpend(ctx context.Context, records []models.SpendRecord) error {
	ctx, span := util.StartSpan(ctx, "OrderService.IngestSpend")
	defer span.End()

	for i, r := range records {
		if r.AdID == "" || r.AdsetID == "" {
			return fmt.Errorf("%w: record %d needs ad_id and adset_id", ErrInvalidOrder, i)
		}
		if r.AdsetID == engine.UnattributedID {
			return fmt.Errorf("%w: record %d uses reserved adset_id %q", ErrInvalidOrder, i, r.AdsetID)
		}
		if r.Spend.IsNegative() {
			return fmt.Errorf("%w: record %d has negative spend", ErrInvalidOrder, i)
		}
		if r.DateStart.IsZero() {
			return fmt.Errorf("%w: record %d needs date_start", ErrInvalidOrder, i)
		}
		if r.DateStop.IsZero() {
			records[i].DateStop = r.DateStart
		}
	}

	if err := s.store.UpsertSpendRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to store spend: %w", err)
	}

	util.SpendRecordsUpsertedTotal.Add(float64(len(records)))
	s.logger.Info("Spend ingested", zap.Int("records", len(records)))
	return nil
}

// GetOrder retrieves an order and reconciles it on read
func (s *OrderService) GetOrder(ctx context.Context, id string) (*OrderView, error) {
	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status, rule := engine.Explain(order)
	return &OrderView{
		Order:       order,
		Status:      status,
		Label:       engine.DisplayLabel(order, status),
		Rule:        rule,
		Attribution: engine.Resolve(order),
	}, nil
}
