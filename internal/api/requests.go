package api

import (
	"fmt"
	"time"

	"order-insights/internal/engine"
	"order-insights/internal/models"

	"github.com/shopspring/decimal"
)

// OrderRequest is an order snapshot pushed by the commerce ingestion job
type OrderRequest struct {
	ID        string `json:"id" binding:"required"`
	DisplayID string `json:"display_id"`
	Platform  string `json:"platform"`

	CreatedAt   time.Time  `json:"created_at" binding:"required"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	TotalPrice     decimal.Decimal `json:"total_price"`
	NetRefundTotal decimal.Decimal `json:"net_refund_total"`

	FulfillmentFlag  string  `json:"fulfillment_flag" binding:"omitempty,oneof=none fulfilled"`
	FulfillmentCount int     `json:"fulfillment_count" binding:"gte=0"`
	AWB              *string `json:"awb"`

	UTMSource     *string `json:"utm_source"`
	UTMTerm       *string `json:"utm_term"`
	UTMContent    *string `json:"utm_content"`
	SourceName    *string `json:"source_name"`
	ReferringSite *string `json:"referring_site"`
}

func (r *OrderRequest) toModel() *models.Order {
	return &models.Order{
		ID:               r.ID,
		DisplayID:        r.DisplayID,
		Platform:         r.Platform,
		CreatedAt:        r.CreatedAt,
		ShippedAt:        r.ShippedAt,
		DeliveredAt:      r.DeliveredAt,
		CancelledAt:      r.CancelledAt,
		TotalPrice:       r.TotalPrice,
		NetRefundTotal:   r.NetRefundTotal,
		FulfillmentFlag:  r.FulfillmentFlag,
		FulfillmentCount: r.FulfillmentCount,
		AWB:              r.AWB,
		UTMSource:        r.UTMSource,
		UTMTerm:          r.UTMTerm,
		UTMContent:       r.UTMContent,
		SourceName:       r.SourceName,
		ReferringSite:    r.ReferringSite,
	}
}

// SpendRequest is a batch of ad-platform spend lines
type SpendRequest struct {
	Records []SpendRecordRequest `json:"records" binding:"required,min=1,dive"`
}

// SpendRecordRequest is one spend line with YYYY-MM-DD dates
type SpendRecordRequest struct {
	CampaignID   string          `json:"campaign_id"`
	CampaignName string          `json:"campaign_name"`
	AdsetID      string          `json:"adset_id" binding:"required"`
	AdsetName    string          `json:"adset_name"`
	AdID         string          `json:"ad_id" binding:"required"`
	AdName       string          `json:"ad_name"`
	Spend        decimal.Decimal `json:"spend"`
	DateStart    string          `json:"date_start" binding:"required"`
	DateStop     string          `json:"date_stop"`
}

func (r *SpendRequest) toModels() ([]models.SpendRecord, error) {
	out := make([]models.SpendRecord, 0, len(r.Records))
	for i, rec := range r.Records {
		start, err := time.Parse(engine.DayLayout, rec.DateStart)
		if err != nil {
			return nil, fmt.Errorf("record %d: date_start must be YYYY-MM-DD", i)
		}
		stop := start
		if rec.DateStop != "" {
			if stop, err = time.Parse(engine.DayLayout, rec.DateStop); err != nil {
				return nil, fmt.Errorf("record %d: date_stop must be YYYY-MM-DD", i)
			}
			if stop.Before(start) {
				return nil, fmt.Errorf("record %d: date_stop is before date_start", i)
			}
		}
		out = append(out, models.SpendRecord{
			CampaignID:   rec.CampaignID,
			CampaignName: rec.CampaignName,
			AdsetID:      rec.AdsetID,
			AdsetName:    rec.AdsetName,
			AdID:         rec.AdID,
			AdName:       rec.AdName,
			Spend:        rec.Spend,
			DateStart:    start,
			DateStop:     stop,
		})
	}
	return out, nil
}

// CourierWebhookRequest is the courier's status push
type CourierWebhookRequest struct {
	AWB    string `json:"awb" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// PartnerStatusRequest is a status reported by the secondary partner
type PartnerStatusRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// AWBAssignedRequest links a waybill to an order
type AWBAssignedRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	AWB     string `json:"awb" binding:"required"`
}
