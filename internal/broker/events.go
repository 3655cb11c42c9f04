package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-insights/internal/models"
	"order-insights/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter writes one keyed event to the signal topic
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// SignalPublisher publishes fulfillment signal events
type SignalPublisher struct {
	writer EventWriter
}

// NewSignalPublisher creates a new signal publisher
func NewSignalPublisher(writer EventWriter) *SignalPublisher {
	return &SignalPublisher{writer: writer}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PublishCourierWebhook publishes a courier webhook status keyed by waybill
func (sp *SignalPublisher) PublishCourierWebhook(ctx context.Context, awb, status string) (*models.CourierWebhookEvent, error) {
	event := &models.CourierWebhookEvent{
		BaseEvent: newBaseEvent(models.EventTypeCourierWebhook),
		AWB:       awb,
		Status:    status,
	}
	return event, sp.writer.PublishEvent(ctx, "awb-"+awb, event)
}

// PublishCourierPolled publishes a polled tracking status
func (sp *SignalPublisher) PublishCourierPolled(ctx context.Context, orderID, awb, status string) (*models.CourierPolledEvent, error) {
	event := &models.CourierPolledEvent{
		BaseEvent: newBaseEvent(models.EventTypeCourierPolled),
		OrderID:   orderID,
		AWB:       awb,
		Status:    status,
	}
	return event, sp.writer.PublishEvent(ctx, "awb-"+awb, event)
}

// PublishPartnerStatus publishes a secondary partner status
func (sp *SignalPublisher) PublishPartnerStatus(ctx context.Context, orderID, status string) (*models.PartnerStatusEvent, error) {
	event := &models.PartnerStatusEvent{
		BaseEvent: newBaseEvent(models.EventTypePartnerStatus),
		OrderID:   orderID,
		Status:    status,
	}
	return event, sp.writer.PublishEvent(ctx, "order-"+orderID, event)
}

// PublishAWBAssigned publishes a waybill assignment
func (sp *SignalPublisher) PublishAWBAssigned(ctx context.Context, orderID, awb string) (*models.AWBAssignedEvent, error) {
	event := &models.AWBAssignedEvent{
		BaseEvent: newBaseEvent(models.EventTypeAWBAssigned),
		OrderID:   orderID,
		AWB:       awb,
	}
	return event, sp.writer.PublishEvent(ctx, "order-"+orderID, event)
}

// SignalHandler routes incoming signal events to registered handlers
type SignalHandler struct {
	onCourierWebhook func(context.Context, *models.CourierWebhookEvent) error
	onCourierPolled  func(context.Context, *models.CourierPolledEvent) error
	onPartnerStatus  func(context.Context, *models.PartnerStatusEvent) error
	onAWBAssigned    func(context.Context, *models.AWBAssignedEvent) error
	logger           *zap.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler() *SignalHandler {
	return &SignalHandler{logger: util.GetLogger()}
}

// OnCourierWebhook registers a handler for COURIER_WEBHOOK events
func (sh *SignalHandler) OnCourierWebhook(handler func(context.Context, *models.CourierWebhookEvent) error) {
	sh.onCourierWebhook = handler
}

// OnCourierPolled registers a handler for COURIER_POLLED events
func (sh *SignalHandler) OnCourierPolled(handler func(context.Context, *models.CourierPolledEvent) error) {
	sh.onCourierPolled = handler
}

// OnPartnerStatus registers a handler for PARTNER_STATUS events
func (sh *SignalHandler) OnPartnerStatus(handler func(context.Context, *models.PartnerStatusEvent) error) {
	sh.onPartnerStatus = handler
}

// OnAWBAssigned registers a handler for AWB_ASSIGNED events
func (sh *SignalHandler) OnAWBAssigned(handler func(context.Context, *models.AWBAssignedEvent) error) {
	sh.onAWBAssigned = handler
}

// HandleMessage routes messages to appropriate handlers
func (sh *SignalHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	sh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeCourierWebhook:
		if sh.onCourierWebhook != nil {
			var event models.CourierWebhookEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CourierWebhook event: %w", err)
			}
			return sh.onCourierWebhook(ctx, &event)
		}

	case models.EventTypeCourierPolled:
		if sh.onCourierPolled != nil {
			var event models.CourierPolledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CourierPolled event: %w", err)
			}
			return sh.onCourierPolled(ctx, &event)
		}

	case models.EventTypePartnerStatus:
		if sh.onPartnerStatus != nil {
			var event models.PartnerStatusEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PartnerStatus event: %w", err)
			}
			return sh.onPartnerStatus(ctx, &event)
		}

	case models.EventTypeAWBAssigned:
		if sh.onAWBAssigned != nil {
			var event models.AWBAssignedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal AWBAssigned event: %w", err)
			}
			return sh.onAWBAssigned(ctx, &event)
		}

	default:
		sh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
