package engine

import (
	"testing"
	"time"

	"order-insights/internal/models"

	"github.com/stretchr/testify/assert"
)

func str(s string) *string { return &s }

func TestReconcile(t *testing.T) {
	cancelled := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		order    models.Order
		want     models.CanonicalStatus
		wantRule string
	}{
		{
			name:     "partner delivered beats webhook rto",
			order:    models.Order{SecondaryPartnerStatus: str("DELIVERED"), CourierWebhookStatus: str("RTO")},
			want:     models.StatusDelivered,
			wantRule: RulePartner,
		},
		{
			name:     "partner overrides platform cancellation",
			order:    models.Order{SecondaryPartnerStatus: str("In Transit"), CancelledAt: &cancelled},
			want:     models.StatusInTransit,
			wantRule: RulePartner,
		},
		{
			name:     "partner exception is not decisive",
			order:    models.Order{SecondaryPartnerStatus: str("LOST"), CancelledAt: &cancelled},
			want:     models.StatusCancelled,
			wantRule: RuleCancelled,
		},
		{
			name:     "blank partner status is ignored",
			order:    models.Order{SecondaryPartnerStatus: str("  "), CourierWebhookStatus: str("SHIPPED")},
			want:     models.StatusInTransit,
			wantRule: RuleWebhook,
		},
		{
			name:     "cancellation beats webhook delivered",
			order:    models.Order{CancelledAt: &cancelled, CourierWebhookStatus: str("DELIVERED")},
			want:     models.StatusCancelled,
			wantRule: RuleCancelled,
		},
		{
			name:     "polled delivered beats webhook rto",
			order:    models.Order{CourierPolledStatus: str("Delivered"), CourierWebhookStatus: str("RTO")},
			want:     models.StatusDelivered,
			wantRule: RulePolledDone,
		},
		{
			name:     "polled rto delivered is not delivered",
			order:    models.Order{CourierPolledStatus: str("RTO_DELIVERED")},
			want:     models.StatusRTO,
			wantRule: RulePolledStatus,
		},
		{
			name:     "webhook rto",
			order:    models.Order{CourierPolledStatus: str("IN_TRANSIT"), CourierWebhookStatus: str("RTO Initiated")},
			want:     models.StatusRTO,
			wantRule: RuleWebhook,
		},
		{
			name:     "webhook out for delivery",
			order:    models.Order{CourierWebhookStatus: str("OFD")},
			want:     models.StatusInTransit,
			wantRule: RuleWebhook,
		},
		{
			name:     "webhook cancelled",
			order:    models.Order{CourierWebhookStatus: str("Cancelled by courier")},
			want:     models.StatusCancelled,
			wantRule: RuleWebhook,
		},
		{
			name:     "unknown webhook falls through to platform",
			order:    models.Order{CourierWebhookStatus: str("pickup scheduled"), FulfillmentCount: 1},
			want:     models.StatusProcessing,
			wantRule: RulePlatform,
		},
		{
			name:     "fulfilled flag without tracking is delivered",
			order:    models.Order{FulfillmentFlag: models.FulfillmentFulfilled},
			want:     models.StatusDelivered,
			wantRule: RulePlatform,
		},
		{
			name:     "polled not available uses platform data",
			order:    models.Order{CourierPolledStatus: str("Not Available"), FulfillmentCount: 2},
			want:     models.StatusProcessing,
			wantRule: RulePlatform,
		},
		{
			name:     "no signals at all",
			order:    models.Order{},
			want:     models.StatusUnfulfilled,
			wantRule: RulePlatform,
		},
		{
			name:     "polled transit",
			order:    models.Order{CourierPolledStatus: str("Dispatched"), FulfillmentFlag: models.FulfillmentFulfilled},
			want:     models.StatusInTransit,
			wantRule: RulePolledStatus,
		},
		{
			name:     "polled exception",
			order:    models.Order{CourierPolledStatus: str("MISROUTED")},
			want:     models.StatusException,
			wantRule: RulePolledStatus,
		},
		{
			name:     "polled cancelled",
			order:    models.Order{CourierPolledStatus: str("CANCELLED")},
			want:     models.StatusCancelled,
			wantRule: RulePolledStatus,
		},
		{
			name:     "polled booked stays processing",
			order:    models.Order{CourierPolledStatus: str("BOOKED")},
			want:     models.StatusProcessing,
			wantRule: RulePolledStatus,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, rule := Explain(&tc.order)
			assert.Equal(t, tc.want, status)
			assert.Equal(t, tc.wantRule, rule)
			assert.Equal(t, tc.want, Reconcile(&tc.order))
		})
	}
}

func TestReconcileNilOrder(t *testing.T) {
	assert.Equal(t, models.StatusUnfulfilled, Reconcile(nil))
}

func TestReconcileDoesNotMutate(t *testing.T) {
	o := models.Order{
		ID:                   "1001",
		CourierWebhookStatus: str("SHIPPED"),
		CourierPolledStatus:  str("NA"),
	}
	before := o
	first := Reconcile(&o)
	second := Reconcile(&o)

	assert.Equal(t, first, second)
	assert.Equal(t, before, o)
}

func TestStatusRulesOrder(t *testing.T) {
	names := make([]string, 0, len(StatusRules))
	for _, r := range StatusRules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{RulePartner, RuleCancelled, RulePolledDone, RuleWebhook, RulePlatform, RulePolledStatus}, names)
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "New", DisplayLabel(&models.Order{}, models.StatusUnfulfilled))
	assert.Equal(t, "New", DisplayLabel(&models.Order{}, models.StatusProcessing))
	assert.Equal(t, "Processing", DisplayLabel(&models.Order{AWB: str("AWB1")}, models.StatusProcessing))
	assert.Equal(t, "Delivered", DisplayLabel(&models.Order{}, models.StatusDelivered))
}
