package engine

import (
	"order-insights/internal/models"
)

// Rule is one step of the status priority chain. Decide returns ok=false to
// let the next rule run.
type Rule struct {
	Name   string
	Decide func(o *models.Order) (models.CanonicalStatus, bool)
}

// Rule names, in evaluation order
const (
	RulePartner      = "secondary_partner"
	RuleCancelled    = "platform_cancelled"
	RulePolledDone   = "polled_delivered"
	RuleWebhook      = "courier_webhook"
	RulePlatform     = "platform_fallback"
	RulePolledStatus = "polled_status"
)

// StatusRules is the fixed priority order used by Reconcile. The last rule
// is total, so evaluation always terminates with a status.
var StatusRules = []Rule{
	{Name: RulePartner, Decide: partnerRule},
	{Name: RuleCancelled, Decide: cancelledRule},
	{Name: RulePolledDone, Decide: polledDeliveredRule},
	{Name: RuleWebhook, Decide: webhookRule},
	{Name: RulePlatform, Decide: platformFallbackRule},
	{Name: RulePolledStatus, Decide: polledStatusRule},
}

// Reconcile returns the canonical status of an order from its raw signals.
func Reconcile(o *models.Order) models.CanonicalStatus {
	status, _ := Explain(o)
	return status
}

// Explain is Reconcile that also reports which rule decided.
func Explain(o *models.Order) (models.CanonicalStatus, string) {
	if o == nil {
		return models.StatusUnfulfilled, RulePlatform
	}
	for _, r := range StatusRules {
		if status, ok := r.Decide(o); ok {
			return status, r.Name
		}
	}
	return models.StatusProcessing, RulePolledStatus
}

var tokenStatus = map[Token]models.CanonicalStatus{
	TokenDelivered:  models.StatusDelivered,
	TokenRTO:        models.StatusRTO,
	TokenCancelled:  models.StatusCancelled,
	TokenInTransit:  models.StatusInTransit,
	TokenProcessing: models.StatusProcessing,
	TokenException:  models.StatusException,
}

func partnerRule(o *models.Order) (models.CanonicalStatus, bool) {
	if !models.Present(o.SecondaryPartnerStatus) {
		return "", false
	}
	switch tok := Normalize(*o.SecondaryPartnerStatus); tok {
	case TokenRTO, TokenDelivered, TokenCancelled, TokenInTransit, TokenProcessing:
		return tokenStatus[tok], true
	}
	return "", false
}

func cancelledRule(o *models.Order) (models.CanonicalStatus, bool) {
	if o.CancelledAt != nil {
		return models.StatusCancelled, true
	}
	return "", false
}

func polledDeliveredRule(o *models.Order) (models.CanonicalStatus, bool) {
	if polledToken(o) == TokenDelivered {
		return models.StatusDelivered, true
	}
	return "", false
}

func webhookRule(o *models.Order) (models.CanonicalStatus, bool) {
	if !models.Present(o.CourierWebhookStatus) {
		return "", false
	}
	switch tok := Normalize(*o.CourierWebhookStatus); tok {
	case TokenRTO, TokenDelivered, TokenInTransit, TokenCancelled:
		return tokenStatus[tok], true
	}
	return "", false
}

func platformFallbackRule(o *models.Order) (models.CanonicalStatus, bool) {
	if polledToken(o) != TokenUnknown {
		return "", false
	}
	switch {
	case o.FulfillmentFlag == models.FulfillmentFulfilled:
		// no tracking at all plus a fulfilled flag is assumed delivered
		return models.StatusDelivered, true
	case o.FulfillmentCount > 0:
		return models.StatusProcessing, true
	default:
		return models.StatusUnfulfilled, true
	}
}

func polledStatusRule(o *models.Order) (models.CanonicalStatus, bool) {
	switch tok := polledToken(o); tok {
	case TokenRTO, TokenInTransit, TokenException, TokenCancelled:
		return tokenStatus[tok], true
	}
	return models.StatusProcessing, true
}

func polledToken(o *models.Order) Token {
	if !models.Present(o.CourierPolledStatus) {
		return TokenUnknown
	}
	return Normalize(*o.CourierPolledStatus)
}

// DisplayLabel relabels pre-shipment statuses as "New" when no waybill exists yet.
func DisplayLabel(o *models.Order, status models.CanonicalStatus) string {
	if (status == models.StatusUnfulfilled || status == models.StatusProcessing) && !models.Present(o.AWB) {
		return "New"
	}
	return string(status)
}
