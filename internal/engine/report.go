package engine

import (
	"time"

	"order-insights/internal/models"

	"github.com/shopspring/decimal"
)

// DateFilter selects which order timestamp is compared against a report range
type DateFilter string

// Date filters
const (
	FilterCreatedAt     DateFilter = "created_at"
	FilterShippedDate   DateFilter = "shipped_date"
	FilterDeliveredDate DateFilter = "delivered_date"
)

// DayLayout is the calendar date format used in queries and series
const DayLayout = "2006-01-02"

// ParseDateFilter accepts a filter name; empty selects created_at.
func ParseDateFilter(s string) (DateFilter, bool) {
	switch f := DateFilter(s); f {
	case "":
		return FilterCreatedAt, true
	case FilterCreatedAt, FilterShippedDate, FilterDeliveredDate:
		return f, true
	}
	return "", false
}

// Timestamp returns the order time the filter selects, falling back to CreatedAt.
func (f DateFilter) Timestamp(o *models.Order) time.Time {
	switch f {
	case FilterShippedDate:
		if o.ShippedAt != nil {
			return *o.ShippedAt
		}
	case FilterDeliveredDate:
		if o.DeliveredAt != nil {
			return *o.DeliveredAt
		}
	}
	return o.CreatedAt
}

// Snapshot is the consistent set of orders and spend a report is computed from
type Snapshot struct {
	Orders []models.Order
	Spend  []models.SpendRecord
}

// Query describes an inclusive calendar-day report range. Since and Until
// are read by their calendar date only. Location defaults to UTC.
type Query struct {
	Since      time.Time
	Until      time.Time
	DateFilter DateFilter
	Location   *time.Location
}

// DailyPoint is one day of the ad performance series
type DailyPoint struct {
	Date             string          `json:"date"`
	Spend            decimal.Decimal `json:"spend"`
	TotalOrders      int             `json:"total_orders"`
	Revenue          decimal.Decimal `json:"revenue"`
	DeliveredOrders  int             `json:"delivered_orders"`
	CancelledOrders  int             `json:"cancelled_orders"`
	RTOOrders        int             `json:"rto_orders"`
	InTransitOrders  int             `json:"in_transit_orders"`
	ProcessingOrders int             `json:"processing_orders"`
}

// Report is the result of one report query
type Report struct {
	Since      string       `json:"since"`
	Until      string       `json:"until"`
	DateFilter DateFilter   `json:"date_filter"`
	Totals     *Bucket      `json:"totals"`
	Buckets    []*Bucket    `json:"buckets"`
	Daily      []DailyPoint `json:"daily"`
}

// BuildReport filters the snapshot to the query range and rolls it up. It
// reads nothing but its arguments, so equal inputs give equal reports.
func BuildReport(snap Snapshot, q Query) *Report {
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}
	filter := q.DateFilter
	if filter == "" {
		filter = FilterCreatedAt
	}
	since := calendarDay(q.Since, loc)
	until := calendarDay(q.Until, loc)
	end := until.AddDate(0, 0, 1)

	days := make([]DailyPoint, 0)
	dayIndex := make(map[string]int)
	for d := since; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(DayLayout)
		dayIndex[key] = len(days)
		days = append(days, DailyPoint{Date: key})
	}

	totals := newBucket("total", "Total")

	evaluated := make([]Evaluated, 0, len(snap.Orders))
	for i := range snap.Orders {
		o := &snap.Orders[i]
		ts := filter.Timestamp(o)
		if ts.Before(since) || !ts.Before(end) {
			continue
		}
		e := Evaluate(o)
		evaluated = append(evaluated, e)
		totals.Counters.Add(o, e.Status)
		if idx, ok := dayIndex[ts.In(loc).Format(DayLayout)]; ok {
			days[idx].add(o, e.Status)
		}
	}

	sinceKey, untilKey := since.Format(DayLayout), until.Format(DayLayout)
	spend := make([]models.SpendRecord, 0, len(snap.Spend))
	for _, r := range snap.Spend {
		start, stop := recordDays(r)
		if stop < sinceKey || start > untilKey {
			continue
		}
		spend = append(spend, r)
		totals.Spend = totals.Spend.Add(r.Spend)
		// a record starting before the range lands on its first day
		if start < sinceKey {
			start = sinceKey
		}
		days[dayIndex[start]].Spend = days[dayIndex[start]].Spend.Add(r.Spend)
	}

	tree := BuildBucketTree(spend, evaluated)

	return &Report{
		Since:      sinceKey,
		Until:      untilKey,
		DateFilter: filter,
		Totals:     totals,
		Buckets:    tree.Output(),
		Daily:      days,
	}
}

func (p *DailyPoint) add(o *models.Order, status models.CanonicalStatus) {
	var c Counters
	c.Add(o, status)

	p.TotalOrders++
	p.Revenue = p.Revenue.Add(c.Revenue)
	p.DeliveredOrders += c.DeliveredOrders
	p.CancelledOrders += c.CancelledOrders
	p.RTOOrders += c.RTOOrders
	p.InTransitOrders += c.InTransitOrders
	p.ProcessingOrders += c.ProcessingOrders
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// recordDays returns the record's inclusive date range as day keys
func recordDays(r models.SpendRecord) (string, string) {
	start := r.DateStart.Format(DayLayout)
	if r.DateStop.IsZero() || r.DateStop.Before(r.DateStart) {
		return start, start
	}
	return start, r.DateStop.Format(DayLayout)
}
