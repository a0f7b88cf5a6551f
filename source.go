package alertpop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/alertpop/internal/poller"
)

const (
	defaultListPath = "/api/notifications"
	defaultAckPath  = "/api/notifications/{id}/mark_read"
)

// Source is the server side of a [Client]: it lists pending alerts and
// acknowledges individual ones.
type Source interface {
	// Pending returns the pending alerts in server order.
	Pending(ctx context.Context) ([]Alert, error)

	// Acknowledge tells the server the alert has been seen.
	Acknowledge(ctx context.Context, id string) error
}

// SourceConfig configures an [HTTPSource].
type SourceConfig struct {
	// BaseURL is the alerts server, e.g. "https://ats.example.com". Required.
	BaseURL string

	// ListPath is the pending listing path. Defaults to "/api/notifications".
	ListPath string

	// AckPath is the acknowledge path containing "{id}".
	// Defaults to "/api/notifications/{id}/mark_read".
	AckPath string

	// ItemsField is the JSON field holding the alerts. Defaults to "notifications".
	ItemsField string

	// Headers are sent with every request.
	Headers map[string]string

	// Cookies are sent with every request, typically the session cookies.
	Cookies []*http.Cookie

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout time.Duration

	// AckRate caps acknowledge calls per second. Zero means 5; negative disables.
	AckRate float64

	// HTTPClient overrides the pooled default client.
	HTTPClient *http.Client

	// Logger receives warnings about skipped alerts. Defaults to slog.Default().
	Logger *slog.Logger
}

// HTTPSource is a [Source] backed by the JSON alerts API.
type HTTPSource struct {
	feed *poller.Feed
	base *url.URL
}

// NewHTTPSource creates an [HTTPSource].
//
// Returns an error if BaseURL is missing or not an http(s) URL, or if the
// acknowledge path lacks the "{id}" placeholder.
func NewHTTPSource(cfg SourceConfig) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("source base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("source base url scheme must be http or https, got %q", base.Scheme)
	}

	listPath := cfg.ListPath
	if listPath == "" {
		listPath = defaultListPath
	}
	ackPath := cfg.AckPath
	if ackPath == "" {
		ackPath = defaultAckPath
	}

	var client *poller.Client
	if cfg.HTTPClient != nil {
		client = poller.NewClientWith(cfg.HTTPClient)
	}

	feed, err := poller.NewFeed(poller.FeedConfig{
		ListURL:        joinURL(base, listPath),
		AckURLTemplate: joinURL(base, ackPath),
		ItemsField:     cfg.ItemsField,
		Headers:        cfg.Headers,
		Cookies:        cfg.Cookies,
		Timeout:        cfg.Timeout,
		AckRate:        cfg.AckRate,
	}, client, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &HTTPSource{feed: feed, base: base}, nil
}

// Pending fetches the pending listing and converts it to alerts.
func (s *HTTPSource) Pending(ctx context.Context) ([]Alert, error) {
	wire, err := s.feed.List(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, len(wire))
	for i, w := range wire {
		alerts[i] = Alert{
			ID:             string(w.ID),
			Kind:           Kind(w.Type),
			Priority:       ParsePriority(w.Priority),
			Message:        w.Message,
			SubjectName:    w.CandidateName,
			SubjectContext: w.Position,
			SubjectRef:     string(w.CandidateID),
			CreatedAt:      w.Timestamp.Time,
		}
	}
	return alerts, nil
}

// Acknowledge marks one alert as read on the server.
func (s *HTTPSource) Acknowledge(ctx context.Context, id string) error {
	return s.feed.Acknowledge(ctx, id)
}

// BaseURL returns the parsed server base URL, used to resolve card links.
func (s *HTTPSource) BaseURL() *url.URL {
	u := *s.base
	return &u
}

// Close releases idle connections.
func (s *HTTPSource) Close() {
	s.feed.Close()
}

// joinURL appends path to base without escaping the "{id}" placeholder.
func joinURL(base *url.URL, path string) string {
	return strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(path, "/")
}
