package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/alertpop"
	"github.com/jpalmerr/alertpop/internal/store"
	"golang.org/x/time/rate"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Alerts"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	defaultRefreshRate = 1.0
)

// Client is the alert client surface the server exposes over HTTP.
type Client interface {
	Actions
	Alerts() []alertpop.Alert
	Count() int
	Refresh(ctx context.Context)
	Subscribe() <-chan alertpop.RegistryEvent
	Unsubscribe(ch <-chan alertpop.RegistryEvent)
}

// Config holds the [Server] settings.
type Config struct {
	// Port is the TCP port to listen on. Zero picks a free port.
	Port int

	// Title is the page title. Defaults to "Alerts".
	Title string

	// Assets holds assets/index.html. May be nil, which disables "/".
	Assets fs.FS

	// RefreshRate caps manual refreshes per second. Zero means 1.
	RefreshRate float64
}

// Server handles HTTP requests for the alert page and API.
//
// Routes:
//   - GET /: the embedded alert page
//   - GET /ws: websocket card stream (see [Hub])
//   - GET /api/alerts: displayed alerts as JSON
//   - GET /api/count: number of displayed alerts
//   - POST /api/refresh: poll immediately (rate limited)
//   - POST /api/alerts/{id}/dismiss: dismiss one alert
//   - POST /api/alerts/clear: dismiss every alert
//   - POST /api/pause, POST /api/resume: polling switch
//   - GET /api/sse: Server-Sent Events stream of registry changes
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	client     Client
	hub        *Hub
	port       int
	httpServer *http.Server
	addr       net.Addr
	assets     fs.FS
	title      string
	refresh    *rate.Limiter
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server] and binds hub actions to client.
// hub may be nil, in which case "/ws" is not served.
//
// The server is not started until [Server.Start] is called.
func NewServer(client Client, hub *Hub, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := cfg.RefreshRate
	if r <= 0 {
		r = defaultRefreshRate
	}
	if hub != nil {
		hub.Bind(client)
	}
	return &Server{
		client:  client,
		hub:     hub,
		port:    cfg.Port,
		assets:  cfg.Assets,
		title:   cfg.Title,
		refresh: rate.NewLimiter(rate.Limit(r), 1),
		logger:  logger,
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/count", s.handleCount)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/alerts/clear", s.handleClearAll)
	mux.HandleFunc("POST /api/alerts/{id}/dismiss", s.handleDismiss)
	mux.HandleFunc("POST /api/pause", s.handlePause)
	mux.HandleFunc("POST /api/resume", s.handleResume)
	mux.HandleFunc("/api/sse", s.handleSSE)

	if s.hub != nil {
		mux.Handle("/ws", s.hub)
	}

	// serve the alert page
	if s.assets != nil {
		mux.HandleFunc("/", s.handlePage)
	}
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it disconnects websocket pages and initiates a
// graceful shutdown with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("alert page listening", "addr", s.addr.String())
	return nil
}

// Addr returns the listening address once [Server.Start] has succeeded.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// handlePage serves the alert page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write page response", "error", err)
	}
}

type alertsResponse struct {
	Alerts []alertpop.Alert `json:"alerts"`
	Count  int              `json:"count"`
}

type countResponse struct {
	Count int `json:"count"`
}

// handleAlerts returns the displayed alerts in display order.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	alerts := s.client.Alerts()
	if alerts == nil {
		alerts = []alertpop.Alert{}
	}
	s.writeJSON(w, http.StatusOK, alertsResponse{Alerts: alerts, Count: len(alerts)})
}

// handleCount returns the number of displayed alerts.
func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, countResponse{Count: s.client.Count()})
}

// handleRefresh polls out of band.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.refresh.Allow() {
		http.Error(w, "Too many refreshes", http.StatusTooManyRequests)
		return
	}

	s.client.Refresh(r.Context())
	s.writeJSON(w, http.StatusOK, countResponse{Count: s.client.Count()})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Missing alert id", http.StatusBadRequest)
		return
	}
	s.client.Dismiss(context.WithoutCancel(r.Context()), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	s.client.ClearAll(context.WithoutCancel(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.client.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.client.Resume()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams registry changes via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the snapshot so no change is lost in between
	ch := s.client.Subscribe()
	defer s.client.Unsubscribe(ch)

	alerts := s.client.Alerts()
	for i, a := range alerts {
		ev := alertpop.RegistryEvent{Type: store.EventAdded, ID: a.ID, Value: a, Count: i + 1}
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	// stream updates
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
