package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"order-insights/internal/engine"
	"order-insights/internal/models"
	"order-insights/internal/service"
	"order-insights/internal/store"
	"order-insights/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// OrderService ingests orders and spend and serves reconciled orders
type OrderService interface {
	IngestOrder(ctx context.Context, order *models.Order) error
	IngestSpend(ctx context.Context, records []models.SpendRecord) error
	GetOrder(ctx context.Context, id string) (*service.OrderView, error)
}

// ReportService builds attribution reports
type ReportService interface {
	Parse(q service.ReportQuery) (engine.Query, error)
	GetReport(ctx context.Context, q engine.Query) (*engine.Report, error)
}

// SignalPublisher forwards inbound signals to the event stream
type SignalPublisher interface {
	PublishCourierWebhook(ctx context.Context, awb, status string) (*models.CourierWebhookEvent, error)
	PublishPartnerStatus(ctx context.Context, orderID, status string) (*models.PartnerStatusEvent, error)
	PublishAWBAssigned(ctx context.Context, orderID, awb string) (*models.AWBAssignedEvent, error)
}

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	orderService  OrderService
	reportService ReportService
	publisher     SignalPublisher
	checks        map[string]ReadinessCheck
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService OrderService, reportService ReportService, publisher SignalPublisher, checks map[string]ReadinessCheck) *Handler {
	return &Handler{
		orderService:  orderService,
		reportService: reportService,
		publisher:     publisher,
		checks:        checks,
		logger:        util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.upsertOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/spend", h.upsertSpend)

		v1.POST("/webhooks/courier", h.courierWebhook)
		v1.POST("/signals/partner", h.partnerSignal)
		v1.POST("/signals/awb", h.awbSignal)

		v1.GET("/reports/attribution", h.attributionReport)
		v1.GET("/reports/ad-performance", h.adPerformanceReport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// upsertOrder handles order snapshot ingestion
func (h *Handler) upsertOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order := req.toModel()
	if err := h.orderService.IngestOrder(c.Request.Context(), order); err != nil {
		h.fail(c, "Failed to store order", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": order.ID})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	view, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get order", err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// upsertSpend handles spend record ingestion
func (h *Handler) upsertSpend(c *gin.Context) {
	var req SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	records, err := req.toModels()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid spend record",
			"details": err.Error(),
		})
		return
	}

	if err := h.orderService.IngestSpend(c.Request.Context(), records); err != nil {
		h.fail(c, "Failed to store spend", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": len(records)})
}

// courierWebhook accepts a courier push and queues it for the signal worker
func (h *Handler) courierWebhook(c *gin.Context) {
	var req CourierWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	util.WebhooksReceivedTotal.WithLabelValues("courier").Inc()

	event, err := h.publisher.PublishCourierWebhook(c.Request.Context(), req.AWB, req.Status)
	if err != nil {
		h.fail(c, "Failed to queue webhook", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"event_id": event.EventID})
}

// partnerSignal accepts a secondary partner status
func (h *Handler) partnerSignal(c *gin.Context) {
	var req PartnerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	util.WebhooksReceivedTotal.WithLabelValues("partner").Inc()

	event, err := h.publisher.PublishPartnerStatus(c.Request.Context(), req.OrderID, req.Status)
	if err != nil {
		h.fail(c, "Failed to queue partner status", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"event_id": event.EventID})
}

// awbSignal links a waybill to an order
func (h *Handler) awbSignal(c *gin.Context) {
	var req AWBAssignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	event, err := h.publisher.PublishAWBAssigned(c.Request.Context(), req.OrderID, req.AWB)
	if err != nil {
		h.fail(c, "Failed to queue waybill", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"event_id": event.EventID})
}

func (h *Handler) attributionReport(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"since":       report.Since,
		"until":       report.Until,
		"date_filter": report.DateFilter,
		"totals":      report.Totals,
		"buckets":     report.Buckets,
	})
}

func (h *Handler) adPerformanceReport(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"since":       report.Since,
		"until":       report.Until,
		"date_filter": report.DateFilter,
		"daily":       report.Daily,
	})
}

func (h *Handler) report(c *gin.Context) (*engine.Report, bool) {
	var raw service.ReportQuery
	if err := c.ShouldBindQuery(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return nil, false
	}

	q, err := h.reportService.Parse(raw)
	if err != nil {
		h.fail(c, "Invalid query parameters", err)
		return nil, false
	}

	report, err := h.reportService.GetReport(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "Failed to build report", err)
		return nil, false
	}
	return report, true
}

// fail maps service errors onto HTTP statuses
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidOrder), errors.Is(err, service.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrOrderNotFound):
		status = http.StatusNotFound
	default:
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
