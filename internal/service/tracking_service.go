package service

import (
	"context"
	"fmt"
	"time"

	"order-insights/internal/courier"
	"order-insights/internal/engine"
	"order-insights/internal/models"
	"order-insights/internal/util"

	"go.uber.org/zap"
)

// TrackableStore lists orders whose courier status should be refreshed and
// rotates them through the poll queue
type TrackableStore interface {
	ListTrackableOrders(ctx context.Context, limit int) ([]models.Order, error)
	TouchPolled(ctx context.Context, orderIDs []string) error
	MarkTrackingComplete(ctx context.Context, orderIDs []string) error
}

// PolledPublisher publishes polled tracking statuses
type PolledPublisher interface {
	PublishCourierPolled(ctx context.Context, orderID, awb, status string) (*models.CourierPolledEvent, error)
}

// TrackingService refreshes courier statuses through the tracking API
type TrackingService struct {
	store     TrackableStore
	tracker   courier.Tracker
	publisher PolledPublisher
	batchSize int
	logger    *zap.Logger
}

// NewTrackingService creates a new tracking service
func NewTrackingService(store TrackableStore, tracker courier.Tracker, publisher PolledPublisher, batchSize int) *TrackingService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &TrackingService{
		store:     store,
		tracker:   tracker,
		publisher: publisher,
		batchSize: batchSize,
		logger:    util.GetLogger(),
	}
}

// PollResult summarizes one polling pass
type PollResult struct {
	Checked   int
	Skipped   int
	Published int
	Failed    int
}

// PollOnce polls every trackable order that has not reached a terminal
// status. Tracking failures are counted and skipped; the stored status is
// left as it was. Every listed order moves to the back of the poll queue,
// and terminal ones leave it.
func (ts *TrackingService) PollOnce(ctx context.Context) (PollResult, error) {
	ctx, span := util.StartSpan(ctx, "TrackingService.PollOnce")
	defer span.End()

	var result PollResult

	orders, err := ts.store.ListTrackableOrders(ctx, ts.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to list trackable orders: %w", err)
	}

	visited := make([]string, 0, len(orders))
	complete := make([]string, 0)
	for i := range orders {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		o := &orders[i]

		if engine.Reconcile(o).Terminal() {
			result.Skipped++
			complete = append(complete, o.ID)
			continue
		}
		result.Checked++
		visited = append(visited, o.ID)

		awb := models.Value(o.AWB)
		start := time.Now()
		status, err := ts.tracker.Track(ctx, awb)
		util.CourierPollLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			result.Failed++
			util.CourierPollsTotal.WithLabelValues("error").Inc()
			ts.logger.Warn("Courier tracking failed",
				zap.String("order_id", o.ID),
				zap.String("awb", awb),
				zap.Error(err))
			continue
		}

		if status == models.Value(o.CourierPolledStatus) {
			util.CourierPollsTotal.WithLabelValues("unchanged").Inc()
			continue
		}

		if _, err := ts.publisher.PublishCourierPolled(ctx, o.ID, awb, status); err != nil {
			result.Failed++
			util.CourierPollsTotal.WithLabelValues("publish_error").Inc()
			ts.logger.Error("Failed to publish polled status", zap.String("order_id", o.ID), zap.Error(err))
			continue
		}
		result.Published++
		util.CourierPollsTotal.WithLabelValues("changed").Inc()
	}

	if err := ts.store.MarkTrackingComplete(ctx, complete); err != nil {
		ts.logger.Error("Failed to retire terminal orders", zap.Error(err))
	}
	if err := ts.store.TouchPolled(ctx, visited); err != nil {
		ts.logger.Error("Failed to rotate poll queue", zap.Error(err))
	}

	ts.logger.Info("Courier poll completed",
		zap.Int("checked", result.Checked),
		zap.Int("skipped", result.Skipped),
		zap.Int("published", result.Published),
		zap.Int("failed", result.Failed))
	return result, nil
}
