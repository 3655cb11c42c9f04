// Package engine reconciles fulfillment signals into a canonical order status,
// attributes orders to marketing spend, and rolls both up into reports.
//
// Everything in this package is a pure function of its inputs. Nothing here
// blocks, caches, or mutates the orders and spend records it is handed.
package engine

import "strings"

// Token is the bounded vocabulary raw courier/partner statuses normalize into
type Token string

// Normalized tokens
const (
	TokenDelivered  Token = "DELIVERED"
	TokenRTO        Token = "RTO"
	TokenCancelled  Token = "CANCELLED"
	TokenInTransit  Token = "IN_TRANSIT"
	TokenProcessing Token = "PROCESSING"
	TokenException  Token = "EXCEPTION"
	TokenUnknown    Token = "UNKNOWN"
)

type keywordGroup struct {
	token    Token
	keywords []string
}

// Checked in order after the RTO/DELIVERED special cases.
var keywordGroups = []keywordGroup{
	{TokenRTO, []string{"UNDELIVERED", "RTO", "RETURN"}},
	{TokenCancelled, []string{"CANCEL"}},
	{TokenInTransit, []string{"OUT_FOR_DELIVERY", "DISPATCHED", "TRANSIT", "SHIPPED", "DELAYED", "REACHED", "OFD"}},
	{TokenProcessing, []string{"PROCESSING", "BOOKED"}},
	{TokenException, []string{"MISROUTED", "EXCEPTION", "LOST"}},
}

var separatorFolder = strings.NewReplacer(" ", "_", "-", "_")

// Normalize maps free status text from any source to a Token.
func Normalize(raw string) Token {
	s := separatorFolder.Replace(strings.ToUpper(strings.TrimSpace(raw)))
	if s == "" {
		return TokenUnknown
	}

	hasRTO := strings.Contains(s, "RTO")
	hasDelivered := strings.Contains(s, "DELIVERED")
	hasUndelivered := strings.Contains(s, "UNDELIVERED")

	// a parcel delivered back to origin is a return
	if strings.Contains(s, "RTO_DELIVERED") || (hasRTO && hasDelivered) {
		return TokenRTO
	}
	if hasDelivered && !hasUndelivered {
		return TokenDelivered
	}

	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(s, kw) {
				return g.token
			}
		}
	}
	return TokenUnknown
}
