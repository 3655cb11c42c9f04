package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want Token
	}{
		{"", TokenUnknown},
		{"   ", TokenUnknown},
		{"DELIVERED", TokenDelivered},
		{"Delivered", TokenDelivered},
		{"RTO_DELIVERED", TokenRTO},
		{"RTO Delivered", TokenRTO},
		{"rto-delivered", TokenRTO},
		{"UNDELIVERED", TokenRTO},
		{"RTO_IN_TRANSIT", TokenRTO},
		{"Returned to seller", TokenRTO},
		{"CANCELLED", TokenCancelled},
		{"Order Canceled", TokenCancelled},
		{"IN TRANSIT", TokenInTransit},
		{"Shipped", TokenInTransit},
		{"DISPATCHED", TokenInTransit},
		{"Out for delivery", TokenInTransit},
		{"OFD", TokenInTransit},
		{"Shipment Delayed", TokenInTransit},
		{"REACHED_AT_DESTINATION_HUB", TokenInTransit},
		{"PROCESSING", TokenProcessing},
		{"Booked", TokenProcessing},
		{"LOST", TokenException},
		{"Misrouted", TokenException},
		{"PICKUP_EXCEPTION", TokenException},
		{"NA", TokenUnknown},
		{"Not Available", TokenUnknown},
		{"ERROR", TokenUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}
