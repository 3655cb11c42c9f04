package engine

import (
	"encoding/json"
	"testing"

	"order-insights/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMetricsMixedOutcomes(t *testing.T) {
	c := Counters{
		TotalOrders:      15,
		DeliveredOrders:  8,
		RTOOrders:        1,
		CancelledOrders:  1,
		InTransitOrders:  5,
		DeliveredRevenue: decimal.NewFromInt(8000),
	}

	m := DeriveMetrics(decimal.NewFromInt(2000), c)

	assert.Equal(t, "0.2", m.RTORate.String())
	assert.Equal(t, "1000", m.DeliveredAOV.String())
	assert.Equal(t, "12000", m.ProjectedRevenue.String())
	assert.Equal(t, "6", m.EffectiveROAS.String())
	assert.Equal(t, "4", m.ROAS.String())
}

func TestDeriveMetricsZeroSpend(t *testing.T) {
	c := Counters{
		TotalOrders:      3,
		DeliveredOrders:  3,
		DeliveredRevenue: decimal.NewFromInt(900),
	}

	m := DeriveMetrics(decimal.Zero, c)

	assert.True(t, m.ROAS.IsZero())
	assert.True(t, m.EffectiveROAS.IsZero())
	assert.True(t, m.CostPerOrder.IsZero())
	assert.Equal(t, "300", m.DeliveredAOV.String())
}

func TestDeriveMetricsEmptyBucket(t *testing.T) {
	m := DeriveMetrics(decimal.Zero, Counters{})

	assert.True(t, m.RTORate.IsZero())
	assert.True(t, m.CostPerOrder.IsZero())
	assert.True(t, m.ROAS.IsZero())
	assert.True(t, m.DeliveredAOV.IsZero())
	assert.True(t, m.ProjectedRevenue.IsZero())
	assert.True(t, m.EffectiveROAS.IsZero())
}

func TestDeriveMetricsInFlightWithoutDeliveries(t *testing.T) {
	c := Counters{TotalOrders: 4, InTransitOrders: 2, ProcessingOrders: 2}

	m := DeriveMetrics(decimal.NewFromInt(400), c)

	assert.Equal(t, "100", m.CostPerOrder.String())
	assert.True(t, m.ProjectedRevenue.IsZero())
	assert.True(t, m.EffectiveROAS.IsZero())
}

func TestCountersAdd(t *testing.T) {
	var c Counters
	price := decimal.NewFromInt(250)
	o := &models.Order{TotalPrice: price}

	for _, s := range []models.CanonicalStatus{
		models.StatusDelivered,
		models.StatusRTO,
		models.StatusCancelled,
		models.StatusInTransit,
		models.StatusProcessing,
		models.StatusException,
		models.StatusUnfulfilled,
	} {
		c.Add(o, s)
	}

	assert.Equal(t, 7, c.TotalOrders)
	assert.Equal(t, 1, c.DeliveredOrders)
	assert.Equal(t, 1, c.RTOOrders)
	assert.Equal(t, 1, c.CancelledOrders)
	assert.Equal(t, 1, c.InTransitOrders)
	assert.Equal(t, 1, c.ProcessingOrders)
	assert.Equal(t, 1, c.ExceptionOrders)
	assert.Equal(t, 1, c.UnfulfilledOrders)
	// cancelled and rto orders carry no revenue
	assert.Equal(t, "1250", c.Revenue.String())
	assert.Equal(t, "250", c.DeliveredRevenue.String())
}

func TestBucketJSONIncludesMetrics(t *testing.T) {
	b := newBucket("AS1", "Adset 1")
	b.Spend = decimal.NewFromInt(100)
	Accumulate(b, &models.Order{TotalPrice: decimal.NewFromInt(300)}, models.StatusDelivered)

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "AS1", decoded["id"])
	assert.EqualValues(t, 1, decoded["total_orders"])
	require.Contains(t, decoded, "metrics")
	metrics := decoded["metrics"].(map[string]interface{})
	assert.Equal(t, "3", metrics["roas"])
}
