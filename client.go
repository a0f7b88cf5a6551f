package alertpop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/alertpop/clock"
	"github.com/jpalmerr/alertpop/internal/poller"
	"github.com/jpalmerr/alertpop/internal/store"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultAutoDismiss  = 15 * time.Second
	defaultRemovalDelay = 500 * time.Millisecond
)

var (
	// ErrNoSession is returned by [Client.Start] when the session check fails.
	ErrNoSession = errors.New("no session marker; alerts disabled")

	// ErrStopped is returned by [Client.Start] after [Client.Stop].
	ErrStopped = errors.New("client stopped")
)

// RegistryEvent is delivered to [Client.Subscribe] channels whenever an alert
// enters or leaves the registry.
type RegistryEvent = store.Event[Alert]

// entry tracks one alert id through its display lifecycle.
type entry struct {
	alert  Alert
	state  State
	handle Handle
}

// Client polls a [Source] and shows each pending alert exactly once through
// a [Renderer].
//
// Client owns the registry of displayed alerts, the poll timer, and the
// per-id state machine (unknown → displayed → dismissing → gone). It is
// created with [New] and started with [Client.Start]:
//
//	src, _ := alertpop.NewHTTPSource(alertpop.SourceConfig{BaseURL: "https://ats.example.com"})
//	c, _ := alertpop.New(src, render.NewTerminal(os.Stdout))
//	if err := c.Start(ctx); err != nil { ... }
//	defer c.Stop()
//
// Source failures never surface to callers: they are logged and the poll is
// treated as empty. The next scheduled poll is the only retry.
//
// All methods are safe for concurrent use.
type Client struct {
	source       Source
	renderer     Renderer
	sound        Sound
	clock        clock.Clock
	logger       *slog.Logger
	labels       Labels
	linkTemplate string
	linkBase     *url.URL
	autoDismiss  time.Duration
	removalDelay time.Duration
	sessionCheck func() bool

	scheduler *poller.Scheduler
	registry  *store.Registry[Alert]

	acks sync.WaitGroup

	mu       sync.Mutex
	entries  map[string]*entry
	started  bool
	stopped  bool
	prepared bool
	runCtx   context.Context
}

// New creates a [Client] for source and renderer.
//
// Defaults:
//   - Poll interval: 10 seconds
//   - Auto-dismiss for normal priority: 15 seconds
//   - Removal delay: 500 milliseconds
//   - Labels: [DefaultLabels]
//   - Link template: "/candidate/{ref}"
//
// When source is an [*HTTPSource] and no [WithLinkBase] is given, links are
// resolved against the source base URL.
func New(source Source, renderer Renderer, opts ...Option) (*Client, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}

	cfg := &clientConfig{
		pollInterval: defaultPollInterval,
		autoDismiss:  defaultAutoDismiss,
		removalDelay: defaultRemovalDelay,
		labels:       DefaultLabels(),
		linkTemplate: defaultLinkTemplate,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.clock
	if clk == nil {
		clk = clock.Real()
	}
	if cfg.linkBase == nil {
		if hs, ok := source.(*HTTPSource); ok {
			cfg.linkBase = hs.BaseURL()
		}
	}

	c := &Client{
		source:       source,
		renderer:     renderer,
		sound:        cfg.sound,
		clock:        clk,
		logger:       logger,
		labels:       cfg.labels,
		linkTemplate: cfg.linkTemplate,
		linkBase:     cfg.linkBase,
		autoDismiss:  cfg.autoDismiss,
		removalDelay: cfg.removalDelay,
		sessionCheck: cfg.sessionCheck,
		registry:     store.NewRegistry[Alert](),
		entries:      make(map[string]*entry),
		runCtx:       context.Background(),
	}
	c.scheduler = poller.NewScheduler(c.Poll, cfg.pollInterval, clk, logger)
	return c, nil
}

// Start checks the session marker, prepares the renderer, polls once, and
// then polls periodically until ctx is cancelled or [Client.Stop] is called.
//
// Returns [ErrNoSession] if the session check fails, in which case nothing
// is started. Start is idempotent; calls after the first return nil.
func (c *Client) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if c.sessionCheck != nil && !c.sessionCheck() {
		c.logger.Info("no session marker found, alerts disabled")
		return ErrNoSession
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	if !c.prepared {
		if p, ok := c.renderer.(Preparer); ok {
			if err := p.Prepare(); err != nil {
				c.mu.Unlock()
				return fmt.Errorf("failed to prepare renderer: %w", err)
			}
		}
		c.prepared = true
	}
	c.started = true
	c.runCtx = ctx
	c.mu.Unlock()

	c.logger.Info("alert client started")
	context.AfterFunc(ctx, c.Stop)
	c.scheduler.Start(ctx)
	return nil
}

// Poll fetches pending alerts and renders every id not already displayed,
// in server order.
//
// A failed fetch is logged and treated as an empty result.
func (c *Client) Poll(ctx context.Context) {
	alerts, err := c.source.Pending(ctx)
	if err != nil {
		c.logger.Warn("poll failed", "error", err)
		alerts = nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	var shown []string
	for _, a := range alerts {
		if c.registry.Has(a.ID) {
			continue
		}
		if c.showLocked(a) {
			shown = append(shown, a.ID)
		}
	}

	if err == nil {
		c.forgetGoneLocked(alerts)
	}
	displayed := c.registry.Len()
	c.mu.Unlock()

	// sounds may block for the length of the tone
	for _, id := range shown {
		c.playSound(id)
	}

	c.logger.Debug("poll completed",
		"received", len(alerts),
		"shown", len(shown),
		"displayed", displayed,
	)
}

// Refresh polls out of band. It is equivalent to [Client.Poll].
func (c *Client) Refresh(ctx context.Context) {
	c.Poll(ctx)
}

// Count returns the number of alerts currently in the registry.
func (c *Client) Count() int {
	return c.registry.Len()
}

// Alerts returns a snapshot of the registry in display order.
func (c *Client) Alerts() []Alert {
	return c.registry.All()
}

// State returns the lifecycle state of id.
func (c *Client) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.state
	}
	return StateUnknown
}

// Dismiss removes the card for id and acknowledges it to the source.
//
// The id leaves the registry immediately and the card is faded and detached
// after the removal delay. The acknowledgement is sent in the background and
// never delays the removal; ctx cancellation does not abort it. Failures are
// logged and do not undo the removal. Dismissing an id that is not displayed
// is a no-op and sends nothing.
func (c *Client) Dismiss(ctx context.Context, id string) {
	c.mu.Lock()
	ok := c.beginDismissLocked(id)
	tracked := ok && c.trackAcksLocked(1)
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("dismiss ignored, card not displayed", "alert_id", id)
		return
	}
	c.acknowledge(ctx, id, tracked)
}

// ClearAll dismisses every alert in the registry. All cards start fading
// together; acknowledgements follow in the background.
func (c *Client) ClearAll(ctx context.Context) {
	c.mu.Lock()
	var dismissed []string
	for _, id := range c.registry.IDs() {
		if c.beginDismissLocked(id) {
			dismissed = append(dismissed, id)
		}
	}
	tracked := c.trackAcksLocked(len(dismissed))
	c.mu.Unlock()

	for _, id := range dismissed {
		c.acknowledge(ctx, id, tracked)
	}
	c.logger.Debug("cleared all alerts", "count", len(dismissed))
}

// beginDismissLocked moves a displayed id to dismissing: it leaves the
// registry, the card fades, and detachment is scheduled.
func (c *Client) beginDismissLocked(id string) bool {
	e, ok := c.entries[id]
	if !ok || e.state != StateDisplayed || !c.renderer.Exists(id) {
		return false
	}

	e.state = StateDismissing
	c.registry.Remove(id)
	if f, ok := c.renderer.(Fader); ok {
		c.safeCall("fade", id, func() { f.Fade(e.handle) })
	}
	c.clock.AfterFunc(c.removalDelay, func() { c.detach(id, e) })
	return true
}

// trackAcksLocked registers n acknowledgements for [Client.Stop] to wait on.
// Once stopped, acknowledgements are no longer tracked.
func (c *Client) trackAcksLocked(n int) bool {
	if c.stopped || n == 0 {
		return false
	}
	c.acks.Add(n)
	return true
}

// acknowledge sends the acknowledgement for id on its own goroutine.
func (c *Client) acknowledge(ctx context.Context, id string, tracked bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)

	go func() {
		if tracked {
			defer c.acks.Done()
		}
		if err := c.source.Acknowledge(ctx, id); err != nil {
			c.logger.Warn("acknowledge failed", "alert_id", id, "error", err)
			return
		}
		c.logger.Debug("alert acknowledged", "alert_id", id)
	}()
}

// waitAcks blocks until every acknowledgement sent so far has returned.
func (c *Client) waitAcks() {
	c.acks.Wait()
}

// Pause suppresses future polls, e.g. while the display is hidden.
// A poll already in flight completes normally.
func (c *Client) Pause() {
	c.scheduler.Pause()
	c.logger.Debug("polling paused")
}

// Resume polls immediately and restarts the poll timer after [Client.Pause].
func (c *Client) Resume() {
	c.logger.Debug("polling resumed")
	c.scheduler.Resume()
}

// Stop ends polling permanently and waits for acknowledgements already in
// flight. Pending card timers become no-ops. Safe to call multiple times.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.scheduler.Stop()
	c.waitAcks()
	c.logger.Info("alert client stopped")
}

// Subscribe returns a channel of registry changes. Slow readers miss events.
// Call [Client.Unsubscribe] when done.
func (c *Client) Subscribe() <-chan RegistryEvent {
	return c.registry.Subscribe()
}

// Unsubscribe closes a channel returned by [Client.Subscribe].
func (c *Client) Unsubscribe(ch <-chan RegistryEvent) {
	c.registry.Unsubscribe(ch)
}

// showLocked renders a and registers it. It returns false if a card for the
// id is already drawn or rendering failed; the alert then stays unregistered
// and the next poll tries again.
func (c *Client) showLocked(a Alert) bool {
	if c.renderer.Exists(a.ID) {
		c.logger.Debug("card already drawn, skipping", "alert_id", a.ID)
		return false
	}

	card := BuildCard(a, c.clock.Now(), c.labels, c.linkTemplate, c.linkBase)

	var (
		h   Handle
		err error
	)
	c.safeCall("render", a.ID, func() { h, err = c.renderer.Render(card) })
	if err == nil && h == nil {
		err = errors.New("renderer returned no handle")
	}
	if err != nil {
		c.logger.Warn("render failed", "alert_id", a.ID, "error", err)
		return false
	}

	c.registry.Add(a.ID, a)
	e := &entry{alert: a, state: StateDisplayed, handle: h}
	c.entries[a.ID] = e

	if !a.HighPriority() {
		id := a.ID
		c.clock.AfterFunc(c.autoDismiss, func() { c.autoDismissCard(id, e) })
	}

	c.logger.Info("alert displayed",
		"alert_id", a.ID,
		"kind", string(a.Kind),
		"priority", string(a.Priority),
	)
	return true
}

// autoDismissCard fires from the auto-dismiss timer. If the card was already
// dismissed by another path, or the id has since been shown again as a new
// card, Dismiss finds nothing to do for this timer.
func (c *Client) autoDismissCard(id string, e *entry) {
	c.mu.Lock()
	current := c.entries[id] == e
	stopped := c.stopped
	ctx := c.runCtx
	c.mu.Unlock()

	if !current || stopped {
		return
	}
	c.Dismiss(context.WithoutCancel(ctx), id)
}

// detach completes a dismissal once the removal delay has elapsed.
func (c *Client) detach(id string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[id] != e || e.state != StateDismissing {
		return
	}
	c.safeCall("remove", id, func() { c.renderer.Remove(e.handle) })
	e.state = StateGone
}

// forgetGoneLocked drops gone entries that the server no longer reports, so
// the entry map does not grow without bound.
func (c *Client) forgetGoneLocked(latest []Alert) {
	pending := make(map[string]struct{}, len(latest))
	for _, a := range latest {
		pending[a.ID] = struct{}{}
	}
	for id, e := range c.entries {
		if e.state != StateGone {
			continue
		}
		if _, ok := pending[id]; !ok {
			delete(c.entries, id)
		}
	}
}

// playSound plays the new-card sound, if any, for id.
func (c *Client) playSound(id string) {
	if c.sound == nil {
		return
	}
	c.safeCall("sound", id, func() {
		if err := c.sound.Play(); err != nil {
			c.logger.Debug("sound unavailable", "error", err)
		}
	})
}

// safeCall runs a renderer or sound callback with panic recovery.
// A panic is logged with a correlation ID and the full stack trace.
func (c *Client) safeCall(op, id string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("display callback panicked",
				"correlation_id", uuid.NewString(),
				"op", op,
				"alert_id", id,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	f()
}
