package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"order-insights/internal/models"
	"order-insights/internal/store"
	"order-insights/internal/util"

	"go.uber.org/zap"
)

// SignalStore applies raw fulfillment signals to stored orders
type SignalStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	SetWebhookStatusByAWB(ctx context.Context, awb, status string) error
	SetPolledStatus(ctx context.Context, orderID, status string) error
	SetPartnerStatus(ctx context.Context, orderID, status string) error
	SetAWB(ctx context.Context, orderID, awb string) error
}

// SignalService applies signal events exactly once each
type SignalService struct {
	store  SignalStore
	logger *zap.Logger
}

// NewSignalService creates a new signal service
func NewSignalService(store SignalStore) *SignalService {
	return &SignalService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// HandleCourierWebhook stores the latest webhook status for the waybill
func (ss *SignalService) HandleCourierWebhook(ctx context.Context, event *models.CourierWebhookEvent) error {
	return ss.apply(ctx, event.BaseEvent, zap.String("awb", event.AWB), func(ctx context.Context) error {
		return ss.store.SetWebhookStatusByAWB(ctx, event.AWB, strings.TrimSpace(event.Status))
	})
}

// HandleCourierPolled stores a polled tracking status
func (ss *SignalService) HandleCourierPolled(ctx context.Context, event *models.CourierPolledEvent) error {
	return ss.apply(ctx, event.BaseEvent, zap.String("order_id", event.OrderID), func(ctx context.Context) error {
		return ss.store.SetPolledStatus(ctx, event.OrderID, strings.TrimSpace(event.Status))
	})
}

// HandlePartnerStatus stores the secondary partner status
func (ss *SignalService) HandlePartnerStatus(ctx context.Context, event *models.PartnerStatusEvent) error {
	return ss.apply(ctx, event.BaseEvent, zap.String("order_id", event.OrderID), func(ctx context.Context) error {
		return ss.store.SetPartnerStatus(ctx, event.OrderID, strings.TrimSpace(event.Status))
	})
}

// HandleAWBAssigned links a waybill to its order
func (ss *SignalService) HandleAWBAssigned(ctx context.Context, event *models.AWBAssignedEvent) error {
	return ss.apply(ctx, event.BaseEvent, zap.String("order_id", event.OrderID), func(ctx context.Context) error {
		return ss.store.SetAWB(ctx, event.OrderID, strings.TrimSpace(event.AWB))
	})
}

// apply runs one signal update unless the event was already processed. A
// signal for an order we have not ingested is dropped with a warning.
func (ss *SignalService) apply(ctx context.Context, event models.BaseEvent, key zap.Field, update func(context.Context) error) error {
	ctx, span := util.StartSpan(ctx, "SignalService."+event.EventType)
	defer span.End()

	processed, err := ss.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		util.SignalsAppliedTotal.WithLabelValues(event.EventType, "duplicate").Inc()
		ss.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := update(ctx); err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			util.SignalsAppliedTotal.WithLabelValues(event.EventType, "unmatched").Inc()
			ss.logger.Warn("Signal for unknown order", zap.String("event_id", event.EventID), key)
			return nil
		}
		util.SignalsAppliedTotal.WithLabelValues(event.EventType, "error").Inc()
		return fmt.Errorf("failed to apply %s: %w", event.EventType, err)
	}

	if err := ss.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		ss.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	util.SignalsAppliedTotal.WithLabelValues(event.EventType, "applied").Inc()
	ss.logger.Debug("Signal applied", zap.String("event_id", event.EventID), key)
	return nil
}
