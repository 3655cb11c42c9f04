package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-insights/internal/engine"
	"order-insights/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MaxReportDays bounds the inclusive length of one report range
const MaxReportDays = 366

// ErrInvalidQuery is returned for malformed report parameters
var ErrInvalidQuery = errors.New("invalid report query")

// SnapshotReader loads a consistent order and spend snapshot
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, start, end time.Time, filter engine.DateFilter) (engine.Snapshot, error)
}

// ReportService serves attribution and ad performance reports
type ReportService struct {
	snapshots SnapshotReader
	location  *time.Location
	logger    *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(snapshots SnapshotReader, location *time.Location) *ReportService {
	if location == nil {
		location = time.UTC
	}
	return &ReportService{
		snapshots: snapshots,
		location:  location,
		logger:    util.GetLogger(),
	}
}

// ReportQuery holds raw report parameters as they arrive from a caller
type ReportQuery struct {
	Since      string `form:"since" binding:"required"`
	Until      string `form:"until" binding:"required"`
	DateFilter string `form:"date_filter"`
}

// Parse validates the raw parameters into an engine query
func (s *ReportService) Parse(q ReportQuery) (engine.Query, error) {
	since, err := time.ParseInLocation(engine.DayLayout, q.Since, s.location)
	if err != nil {
		return engine.Query{}, fmt.Errorf("%w: since must be YYYY-MM-DD", ErrInvalidQuery)
	}
	until, err := time.ParseInLocation(engine.DayLayout, q.Until, s.location)
	if err != nil {
		return engine.Query{}, fmt.Errorf("%w: until must be YYYY-MM-DD", ErrInvalidQuery)
	}
	if until.Before(since) {
		return engine.Query{}, fmt.Errorf("%w: until is before since", ErrInvalidQuery)
	}
	if since.AddDate(0, 0, MaxReportDays).Before(until.AddDate(0, 0, 1)) {
		return engine.Query{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidQuery, MaxReportDays)
	}

	filter, ok := engine.ParseDateFilter(q.DateFilter)
	if !ok {
		return engine.Query{}, fmt.Errorf("%w: unknown date_filter %q", ErrInvalidQuery, q.DateFilter)
	}

	return engine.Query{Since: since, Until: until, DateFilter: filter, Location: s.location}, nil
}

// GetReport loads the snapshot for the query range and builds the report
func (s *ReportService) GetReport(ctx context.Context, q engine.Query) (*engine.Report, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.GetReport",
		attribute.String("since", q.Since.Format(engine.DayLayout)),
		attribute.String("until", q.Until.Format(engine.DayLayout)),
		attribute.String("date_filter", string(q.DateFilter)))
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReportLatency.Observe(time.Since(start).Seconds())
	}()

	rangeStart := time.Date(q.Since.Year(), q.Since.Month(), q.Since.Day(), 0, 0, 0, 0, s.location)
	rangeEnd := time.Date(q.Until.Year(), q.Until.Month(), q.Until.Day(), 0, 0, 0, 0, s.location).AddDate(0, 0, 1)

	snap, err := s.snapshots.ReadSnapshot(ctx, rangeStart, rangeEnd, q.DateFilter)
	if err != nil {
		util.ReportsFailedTotal.WithLabelValues("snapshot").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load report snapshot: %w", err)
	}
	util.ReportSnapshotOrders.Observe(float64(len(snap.Orders)))

	q.Location = s.location
	report := engine.BuildReport(snap, q)

	util.ReportsGeneratedTotal.WithLabelValues("attribution", string(report.DateFilter)).Inc()
	s.logger.Info("Report generated",
		zap.String("since", report.Since),
		zap.String("until", report.Until),
		zap.String("date_filter", string(report.DateFilter)),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("spend_records", len(snap.Spend)),
		zap.Int("buckets", len(report.Buckets)))

	return report, nil
}
