package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"order-insights/internal/util"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// StatusNotAvailable is returned when the courier has no tracking data yet
const StatusNotAvailable = "NOT_AVAILABLE"

const tokenProvider = "courier"

// Tracker fetches the current courier status text for a waybill
type Tracker interface {
	Track(ctx context.Context, awb string) (string, error)
}

// TokenCache stores API tokens between calls
type TokenCache interface {
	GetToken(ctx context.Context, provider string) (string, bool, error)
	SetToken(ctx context.Context, provider, token string, ttl time.Duration) error
}

// StatusCache stores recent tracking results per waybill
type StatusCache interface {
	GetStatus(ctx context.Context, awb string) (string, bool, error)
	SetStatus(ctx context.Context, awb, status string, ttl time.Duration) error
}

// Config configures the courier tracking API client
type Config struct {
	BaseURL       string
	APIKey        string
	RatePerSecond float64
	Burst         int
	CacheTTL      time.Duration
	TokenTTL      time.Duration
	Timeout       time.Duration
}

// HTTPTracker polls the courier tracking API
type HTTPTracker struct {
	cfg      Config
	client   *http.Client
	limiter  *rate.Limiter
	tokens   TokenCache
	statuses StatusCache
	logger   *zap.Logger
}

// NewHTTPTracker creates a tracking client. Both caches are required.
func NewHTTPTracker(cfg Config, tokens TokenCache, statuses StatusCache) *HTTPTracker {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}

	return &HTTPTracker{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		tokens:   tokens,
		statuses: statuses,
		logger:   util.GetLogger(),
	}
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type trackingResponse struct {
	AWB    string `json:"awb"`
	Status string `json:"status"`
}

// Track returns the raw status text for a waybill. A waybill the courier
// does not know yet yields StatusNotAvailable rather than an error.
func (t *HTTPTracker) Track(ctx context.Context, awb string) (string, error) {
	ctx, span := util.StartSpan(ctx, "HTTPTracker.Track")
	defer span.End()

	if status, ok, err := t.statuses.GetStatus(ctx, awb); err != nil {
		t.logger.Warn("Tracking cache read failed", zap.String("awb", awb), zap.Error(err))
	} else if ok {
		return status, nil
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	token, err := t.token(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.cfg.BaseURL+"/tracking/"+url.PathEscape(awb), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build tracking request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tracking request failed: %w", err)
	}
	defer resp.Body.Close()

	var status string
	switch {
	case resp.StatusCode == http.StatusNotFound:
		status = StatusNotAvailable
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("tracking request for %s returned %d", awb, resp.StatusCode)
	default:
		var body trackingResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("failed to decode tracking response: %w", err)
		}
		status = strings.TrimSpace(body.Status)
		if status == "" {
			status = StatusNotAvailable
		}
	}

	if t.cfg.CacheTTL > 0 {
		if err := t.statuses.SetStatus(ctx, awb, status, t.cfg.CacheTTL); err != nil {
			t.logger.Warn("Tracking cache write failed", zap.String("awb", awb), zap.Error(err))
		}
	}
	return status, nil
}

func (t *HTTPTracker) token(ctx context.Context) (string, error) {
	if token, ok, err := t.tokens.GetToken(ctx, tokenProvider); err == nil && ok {
		return token, nil
	}

	payload, err := json.Marshal(map[string]string{"api_key": t.cfg.APIKey})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/auth", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("auth request returned %d", resp.StatusCode)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("auth response carried no token")
	}

	ttl := t.cfg.TokenTTL
	if body.ExpiresIn > 60 {
		ttl = time.Duration(body.ExpiresIn-60) * time.Second
	}
	if err := t.tokens.SetToken(ctx, tokenProvider, body.Token, ttl); err != nil {
		t.logger.Warn("Token cache write failed", zap.Error(err))
	}
	return body.Token, nil
}
