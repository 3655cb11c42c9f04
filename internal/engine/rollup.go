package engine

import (
	"encoding/json"
	"sort"

	"order-insights/internal/models"

	"github.com/shopspring/decimal"
)

// Counters accumulate order outcomes for one bucket
type Counters struct {
	TotalOrders       int             `json:"total_orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	DeliveredOrders   int             `json:"delivered_orders"`
	DeliveredRevenue  decimal.Decimal `json:"delivered_revenue"`
	RTOOrders         int             `json:"rto_orders"`
	CancelledOrders   int             `json:"cancelled_orders"`
	InTransitOrders   int             `json:"in_transit_orders"`
	ProcessingOrders  int             `json:"processing_orders"`
	ExceptionOrders   int             `json:"exception_orders"`
	UnfulfilledOrders int             `json:"unfulfilled_orders"`
}

// Add records one order with its reconciled status
func (c *Counters) Add(o *models.Order, status models.CanonicalStatus) {
	c.TotalOrders++
	if status != models.StatusCancelled && status != models.StatusRTO {
		c.Revenue = c.Revenue.Add(o.TotalPrice)
	}

	switch status {
	case models.StatusDelivered:
		c.DeliveredOrders++
		c.DeliveredRevenue = c.DeliveredRevenue.Add(o.TotalPrice)
	case models.StatusRTO:
		c.RTOOrders++
	case models.StatusCancelled:
		c.CancelledOrders++
	case models.StatusInTransit:
		c.InTransitOrders++
	case models.StatusProcessing:
		c.ProcessingOrders++
	case models.StatusException:
		c.ExceptionOrders++
	case models.StatusUnfulfilled:
		c.UnfulfilledOrders++
	}
}

// Metrics are derived from a bucket's spend and counters on read
type Metrics struct {
	RTORate          decimal.Decimal `json:"rto_rate"`
	CostPerOrder     decimal.Decimal `json:"cost_per_order"`
	ROAS             decimal.Decimal `json:"roas"`
	DeliveredAOV     decimal.Decimal `json:"delivered_aov"`
	ProjectedRevenue decimal.Decimal `json:"projected_revenue"`
	EffectiveROAS    decimal.Decimal `json:"effective_roas"`
}

// DeriveMetrics computes the performance ratios. Every ratio with a zero
// denominator is zero.
func DeriveMetrics(spend decimal.Decimal, c Counters) Metrics {
	var m Metrics

	delivered := decimal.NewFromInt(int64(c.DeliveredOrders))
	failed := decimal.NewFromInt(int64(c.RTOOrders + c.CancelledOrders))
	if settled := delivered.Add(failed); settled.IsPositive() {
		m.RTORate = failed.Div(settled)
	}

	if c.TotalOrders > 0 {
		m.CostPerOrder = spend.Div(decimal.NewFromInt(int64(c.TotalOrders)))
	}
	if c.DeliveredOrders > 0 {
		m.DeliveredAOV = c.DeliveredRevenue.Div(delivered)
	}

	inFlight := decimal.NewFromInt(int64(c.InTransitOrders + c.ProcessingOrders))
	m.ProjectedRevenue = c.DeliveredRevenue.Add(
		inFlight.Mul(decimal.NewFromInt(1).Sub(m.RTORate)).Mul(m.DeliveredAOV),
	)

	if spend.IsPositive() {
		m.ROAS = c.DeliveredRevenue.Div(spend)
		m.EffectiveROAS = m.ProjectedRevenue.Div(spend)
	}
	return m
}

// Bucket is a node in the rollup tree. Adset-level buckets carry Terms.
type Bucket struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Spend decimal.Decimal `json:"spend"`
	Counters
	Terms []*Bucket `json:"terms,omitempty"`

	termIndex map[string]*Bucket
}

func newBucket(id, name string) *Bucket {
	return &Bucket{ID: id, Name: name, termIndex: make(map[string]*Bucket)}
}

// Accumulate adds one routed order to the bucket's counters
func Accumulate(b *Bucket, o *models.Order, status models.CanonicalStatus) {
	b.Counters.Add(o, status)
}

// Metrics returns the derived metrics for the bucket
func (b *Bucket) Metrics() Metrics {
	return DeriveMetrics(b.Spend, b.Counters)
}

// Empty reports whether the bucket has neither orders nor spend
func (b *Bucket) Empty() bool {
	return b.TotalOrders == 0 && b.Spend.IsZero()
}

// MarshalJSON includes the derived metrics in the encoded bucket
func (b *Bucket) MarshalJSON() ([]byte, error) {
	type bucketJSON Bucket
	return json.Marshal(struct {
		*bucketJSON
		Metrics Metrics `json:"metrics"`
	}{(*bucketJSON)(b), b.Metrics()})
}

func (b *Bucket) term(id, name string) *Bucket {
	if t, ok := b.termIndex[id]; ok {
		return t
	}
	t := newBucket(id, name)
	b.termIndex[id] = t
	b.Terms = append(b.Terms, t)
	return t
}

// rollUpSpend sets the bucket's spend to the sum of its terms' spend
func (b *Bucket) rollUpSpend() {
	total := decimal.Zero
	for _, t := range b.Terms {
		total = total.Add(t.Spend)
	}
	b.Spend = total
}

// pruneAndSort drops empty buckets and applies the output order: adsets by
// spend descending, terms by order count descending. Ties fall back to ID so
// output is stable across runs.
func pruneAndSort(buckets []*Bucket) []*Bucket {
	out := make([]*Bucket, 0, len(buckets))
	for _, b := range buckets {
		if b.Empty() {
			continue
		}
		terms := make([]*Bucket, 0, len(b.Terms))
		for _, t := range b.Terms {
			if !t.Empty() {
				terms = append(terms, t)
			}
		}
		sort.SliceStable(terms, func(i, j int) bool {
			if terms[i].TotalOrders != terms[j].TotalOrders {
				return terms[i].TotalOrders > terms[j].TotalOrders
			}
			return terms[i].ID < terms[j].ID
		})
		b.Terms = terms
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Spend.Cmp(out[j].Spend); c != 0 {
			return c > 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
