package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fulfillment flags reported by the commerce platform
const (
	FulfillmentNone      = "none"
	FulfillmentFulfilled = "fulfilled"
)

// Order represents one commerce transaction together with the raw
// fulfillment and attribution signals collected for it.
type Order struct {
	ID        string `db:"id" json:"id"`
	DisplayID string `db:"display_id" json:"display_id"`
	Platform  string `db:"platform" json:"platform"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ShippedAt   *time.Time `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	TotalPrice     decimal.Decimal `db:"total_price" json:"total_price"`
	NetRefundTotal decimal.Decimal `db:"net_refund_total" json:"net_refund_total"`

	FulfillmentFlag        string  `db:"fulfillment_flag" json:"fulfillment_flag"`
	FulfillmentCount       int     `db:"fulfillment_count" json:"fulfillment_count"`
	CourierPolledStatus    *string `db:"courier_polled_status" json:"courier_polled_status,omitempty"`
	CourierWebhookStatus   *string `db:"courier_webhook_status" json:"courier_webhook_status,omitempty"`
	SecondaryPartnerStatus *string `db:"secondary_partner_status" json:"secondary_partner_status,omitempty"`
	AWB                    *string `db:"awb" json:"awb,omitempty"`

	UTMSource     *string `db:"utm_source" json:"utm_source,omitempty"`
	UTMTerm       *string `db:"utm_term" json:"utm_term,omitempty"`
	UTMContent    *string `db:"utm_content" json:"utm_content,omitempty"`
	SourceName    *string `db:"source_name" json:"source_name,omitempty"`
	ReferringSite *string `db:"referring_site" json:"referring_site,omitempty"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SpendRecord is one ad-platform spend line item for a date range
type SpendRecord struct {
	CampaignID   string          `db:"campaign_id" json:"campaign_id"`
	CampaignName string          `db:"campaign_name" json:"campaign_name"`
	AdsetID      string          `db:"adset_id" json:"adset_id"`
	AdsetName    string          `db:"adset_name" json:"adset_name"`
	AdID         string          `db:"ad_id" json:"ad_id"`
	AdName       string          `db:"ad_name" json:"ad_name"`
	Spend        decimal.Decimal `db:"spend" json:"spend"`
	DateStart    time.Time       `db:"date_start" json:"date_start"`
	DateStop     time.Time       `db:"date_stop" json:"date_stop"`
}

// CanonicalStatus is the single reconciled fulfillment state of an order
type CanonicalStatus string

// Canonical statuses, ordered by operational stage
const (
	StatusCancelled   CanonicalStatus = "Cancelled"
	StatusDelivered   CanonicalStatus = "Delivered"
	StatusRTO         CanonicalStatus = "RTO"
	StatusInTransit   CanonicalStatus = "InTransit"
	StatusProcessing  CanonicalStatus = "Processing"
	StatusUnfulfilled CanonicalStatus = "Unfulfilled"
	StatusException   CanonicalStatus = "Exception"
)

// Terminal reports whether no further courier signal is expected
func (s CanonicalStatus) Terminal() bool {
	switch s {
	case StatusCancelled, StatusDelivered, StatusRTO:
		return true
	}
	return false
}

// Attribution sources with special meaning
const (
	SourceFacebookAd = "facebook_ad"
	SourceDirect     = "direct"
)

// Attribution is the (source, term) pair an order is credited to
type Attribution struct {
	Source string `json:"source"`
	Term   string `json:"term"`
}

// Present reports whether an optional string field carries a value.
// Blank strings are treated like missing ones.
func Present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// Value returns the trimmed value of an optional string, or "".
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
