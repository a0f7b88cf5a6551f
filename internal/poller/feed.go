package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

const (
	defaultItemsField = "notifications"
	defaultTimeout    = 10 * time.Second
	defaultAckRate    = 5
	idPlaceholder     = "{id}"
)

// FeedConfig configures the two alerts endpoints consumed by [Feed].
type FeedConfig struct {
	// ListURL is the absolute URL of the pending-alerts listing.
	ListURL string

	// AckURLTemplate is the absolute acknowledge URL containing "{id}".
	AckURLTemplate string

	// ItemsField is the JSON field holding the alert array.
	// Defaults to "notifications".
	ItemsField string

	// Headers are sent with every request.
	Headers map[string]string

	// Cookies are attached to every request.
	Cookies []*http.Cookie

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout time.Duration

	// AckRate is the maximum acknowledge calls per second. Zero means 5.
	// Negative disables pacing.
	AckRate float64
}

// Feed talks to the alerts API: it lists pending alerts and acknowledges
// individual ones.
//
// Feed is safe for concurrent use.
type Feed struct {
	cfg      FeedConfig
	client   *Client
	validate *validator.Validate
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewFeed creates a [Feed]. A nil client gets a default pooled [Client].
func NewFeed(cfg FeedConfig, client *Client, logger *slog.Logger) (*Feed, error) {
	if cfg.ListURL == "" {
		return nil, errors.New("list url is required")
	}
	if !strings.Contains(cfg.AckURLTemplate, idPlaceholder) {
		return nil, fmt.Errorf("acknowledge url template must contain %s", idPlaceholder)
	}
	if cfg.ItemsField == "" {
		cfg.ItemsField = defaultItemsField
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AckRate == 0 {
		cfg.AckRate = defaultAckRate
	}
	if client == nil {
		client = NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.AckRate > 0 {
		// burst = rate so a short ClearAll is not delayed at all
		burst := int(cfg.AckRate)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.AckRate), burst)
	}

	return &Feed{
		cfg:      cfg,
		client:   client,
		validate: validator.New(),
		limiter:  limiter,
		logger:   logger,
	}, nil
}

// List fetches the pending alerts in server order.
//
// A missing, null, or empty items field yields an empty slice. Items that
// cannot be decoded or carry no id are logged and skipped; an unparseable
// timestamp only loses the age. Transport failures and non-2xx statuses
// are returned as errors.
func (f *Feed) List(ctx context.Context) ([]WireAlert, error) {
	resp := f.client.Do(ctx, Request{
		Method:  http.MethodGet,
		URL:     f.cfg.ListURL,
		Headers: f.withHeader("Accept", "application/json"),
		Cookies: f.cfg.Cookies,
		Timeout: f.cfg.Timeout,
	})
	if resp.Error != nil {
		return nil, resp.Error
	}
	if !resp.OK() {
		return nil, &StatusError{Op: "list", StatusCode: resp.StatusCode}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	raw, ok := envelope[f.cfg.ItemsField]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return []WireAlert{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", f.cfg.ItemsField, err)
	}

	alerts := make([]WireAlert, 0, len(items))
	for i, item := range items {
		var a WireAlert
		if err := json.Unmarshal(item, &a); err != nil {
			f.logger.Warn("skipping undecodable alert", "index", i, "error", err)
			continue
		}
		if err := f.validate.Struct(a); err != nil {
			f.logger.Warn("skipping invalid alert", "index", i, "id", string(a.ID), "error", err)
			continue
		}
		if a.Timestamp.Raw != "" {
			f.logger.Warn("unrecognised alert timestamp, age omitted", "id", string(a.ID), "timestamp", a.Timestamp.Raw)
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// Acknowledge marks one alert as read. The response body is ignored; only
// transport failures and non-2xx statuses are reported.
func (f *Feed) Acknowledge(ctx context.Context, id string) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("acknowledge %s: %w", id, err)
		}
	}

	target := strings.ReplaceAll(f.cfg.AckURLTemplate, idPlaceholder, url.PathEscape(id))
	resp := f.client.Do(ctx, Request{
		Method:  http.MethodPost,
		URL:     target,
		Headers: f.withHeader("Content-Type", "application/json"),
		Cookies: f.cfg.Cookies,
		Timeout: f.cfg.Timeout,
	})
	if resp.Error != nil {
		return fmt.Errorf("acknowledge %s: %w", id, resp.Error)
	}
	if !resp.OK() {
		return &StatusError{Op: "acknowledge " + id, StatusCode: resp.StatusCode}
	}
	return nil
}

// Close releases idle connections.
func (f *Feed) Close() {
	f.client.Close()
}

func (f *Feed) withHeader(key, value string) map[string]string {
	h := make(map[string]string, len(f.cfg.Headers)+1)
	h[key] = value
	for k, v := range f.cfg.Headers {
		h[k] = v
	}
	return h
}

// StatusError reports a non-2xx response from the alerts API.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}
