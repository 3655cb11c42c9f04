package worker

import (
	"context"
	"time"

	"order-insights/internal/broker"
	"order-insights/internal/service"
	"order-insights/internal/util"

	"go.uber.org/zap"
)

// SignalWorker applies fulfillment signal events from Kafka
type SignalWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.SignalHandler
	logger       *zap.Logger
}

// NewSignalWorker creates a new signal worker
func NewSignalWorker(consumer *broker.Consumer, signalService *service.SignalService) *SignalWorker {
	return &SignalWorker{
		consumer:     consumer,
		eventHandler: NewSignalRouter(signalService),
		logger:       util.GetLogger(),
	}
}

// NewSignalRouter registers the signal service on a handler for every event type
func NewSignalRouter(signalService *service.SignalService) *broker.SignalHandler {
	eventHandler := broker.NewSignalHandler()
	eventHandler.OnCourierWebhook(signalService.HandleCourierWebhook)
	eventHandler.OnCourierPolled(signalService.HandleCourierPolled)
	eventHandler.OnPartnerStatus(signalService.HandlePartnerStatus)
	eventHandler.OnAWBAssigned(signalService.HandleAWBAssigned)
	return eventHandler
}

// Start starts the worker
func (w *SignalWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting signal worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SignalWorker) Stop() error {
	w.logger.Info("Stopping signal worker")
	return w.consumer.Close()
}

// Locker is a distributed lock shared by all replicas
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// Poller runs one courier polling pass
type Poller interface {
	PollOnce(ctx context.Context) (service.PollResult, error)
}

const pollLockKey = "courier-poll"

// PollWorker polls the courier tracking API on an interval. Only the
// replica holding the lock polls in a given round.
type PollWorker struct {
	poller   Poller
	locker   Locker
	interval time.Duration
	logger   *zap.Logger
}

// NewPollWorker creates a new courier poll worker
func NewPollWorker(poller Poller, locker Locker, interval time.Duration) *PollWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &PollWorker{
		poller:   poller,
		locker:   locker,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start polls once immediately and then on every tick until ctx is done
func (pw *PollWorker) Start(ctx context.Context) error {
	pw.logger.Info("Starting courier poll worker", zap.Duration("interval", pw.interval))

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		pw.RunOnce(ctx)

		select {
		case <-ctx.Done():
			pw.logger.Info("Stopping courier poll worker")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce takes the poll lock and runs a single pass. It reports whether
// the pass ran.
func (pw *PollWorker) RunOnce(ctx context.Context) bool {
	acquired, err := pw.locker.AcquireLock(ctx, pollLockKey, pw.interval)
	if err != nil {
		pw.logger.Error("Failed to acquire poll lock", zap.Error(err))
		return false
	}
	if !acquired {
		pw.logger.Debug("Poll lock held by another replica")
		return false
	}
	defer func() {
		if err := pw.locker.ReleaseLock(context.Background(), pollLockKey); err != nil {
			pw.logger.Warn("Failed to release poll lock", zap.Error(err))
		}
	}()

	if _, err := pw.poller.PollOnce(ctx); err != nil {
		pw.logger.Error("Courier poll failed", zap.Error(err))
	}
	return true
}
