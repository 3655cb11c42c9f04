package models

import "time"

// Event types
const (
	EventTypeCourierWebhook = "COURIER_WEBHOOK"
	EventTypeCourierPolled  = "COURIER_POLLED"
	EventTypePartnerStatus  = "PARTNER_STATUS"
	EventTypeAWBAssigned    = "AWB_ASSIGNED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CourierWebhookEvent carries a status pushed by the courier, keyed by waybill
type CourierWebhookEvent struct {
	BaseEvent
	AWB    string `json:"awb"`
	Status string `json:"status"`
}

// CourierPolledEvent carries a status fetched from the courier tracking API
type CourierPolledEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	AWB     string `json:"awb"`
	Status  string `json:"status"`
}

// PartnerStatusEvent carries a status reported by the secondary fulfillment partner
type PartnerStatusEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// AWBAssignedEvent links a courier waybill to an order after creation
type AWBAssignedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	AWB     string `json:"awb"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
