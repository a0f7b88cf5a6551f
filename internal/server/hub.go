package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jpalmerr/alertpop"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadLimit    = 4096
	wsSendBuffer   = 64
)

// Message types exchanged with browser pages.
const (
	MsgRender     = "render"
	MsgFade       = "fade"
	MsgRemove     = "remove"
	MsgDismiss    = "dismiss"
	MsgClearAll   = "clear_all"
	MsgVisibility = "visibility"
)

// Actions are the client operations a browser page can trigger.
type Actions interface {
	Dismiss(ctx context.Context, id string)
	ClearAll(ctx context.Context)
	Pause()
	Resume()
}

// Message is the JSON frame sent over the websocket in both directions.
type Message struct {
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"`
	Card    *alertpop.Card `json:"card,omitempty"`
	Visible *bool          `json:"visible,omitempty"`
}

type hubCard struct {
	card   alertpop.Card
	handle *hubHandle
	faded  bool
}

type hubHandle struct{ id string }

func (h *hubHandle) CardID() string { return h.id }

type wsConn struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	visible bool
	closed  bool
}

// Hub is an [alertpop.Renderer] that draws cards in every connected browser
// page over a websocket.
//
// The hub keeps the current card set, so pages that connect late receive
// every card still on screen. Pages send dismiss, clear-all, and visibility
// frames back; these are forwarded to the bound [Actions] on the page's read
// goroutine, never under the client's lock.
//
// With pause-when-hidden enabled, the client is paused once every connected
// page reports itself hidden and resumed when one becomes visible again.
type Hub struct {
	logger          *slog.Logger
	pauseWhenHidden bool
	upgrader        websocket.Upgrader

	mu      sync.Mutex
	actions Actions
	conns   map[string]*wsConn
	order   []string
	cards   map[string]*hubCard
	paused  bool
}

// NewHub creates a [Hub]. Call [Hub.Bind] before serving pages.
func NewHub(pauseWhenHidden bool, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:          logger,
		pauseWhenHidden: pauseWhenHidden,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[string]*wsConn),
		cards: make(map[string]*hubCard),
	}
}

// Bind sets the target of page actions.
func (h *Hub) Bind(a Actions) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = a
}

// Render draws card in every connected page.
func (h *Hub) Render(card alertpop.Card) (alertpop.Handle, error) {
	c := card
	data, err := json.Marshal(Message{Type: MsgRender, Card: &c})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	hh := &hubHandle{id: card.ID}
	if _, ok := h.cards[card.ID]; !ok {
		h.order = append(h.order, card.ID)
	}
	h.cards[card.ID] = &hubCard{card: card, handle: hh}
	h.broadcastLocked(data)
	return hh, nil
}

// Fade starts the fade-out transition in every page.
func (h *Hub) Fade(handle alertpop.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	hc, ok := h.currentLocked(handle)
	if !ok {
		return
	}
	hc.faded = true
	h.broadcastLocked(mustMarshal(Message{Type: MsgFade, ID: handle.CardID()}))
}

// Remove detaches the card from every page.
func (h *Hub) Remove(handle alertpop.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.currentLocked(handle); !ok {
		return
	}
	id := handle.CardID()
	delete(h.cards, id)
	for i, cur := range h.order {
		if cur == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.broadcastLocked(mustMarshal(Message{Type: MsgRemove, ID: id}))
}

// Exists reports whether the hub holds a card for id, fading or not.
func (h *Hub) Exists(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.cards[id]
	return ok
}

// Connections returns the number of connected pages.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request to a websocket and serves one page.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, wsSendBuffer),
		visible: true,
	}

	h.mu.Lock()
	h.conns[c.id] = c
	for _, id := range h.order {
		hc := h.cards[id]
		card := hc.card
		h.sendLocked(c, mustMarshal(Message{Type: MsgRender, Card: &card}))
		if hc.faded {
			h.sendLocked(c, mustMarshal(Message{Type: MsgFade, ID: id}))
		}
	}
	h.mu.Unlock()

	h.logger.Info("page connected", "conn_id", c.id, "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(context.WithoutCancel(r.Context()), c)
}

// Close disconnects every page.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.conns {
		h.dropLocked(c)
	}
}

func (h *Hub) readPump(ctx context.Context, c *wsConn) {
	defer func() {
		h.mu.Lock()
		h.dropLocked(c)
		act := h.visibilityChangeLocked()
		h.mu.Unlock()
		act()
		c.conn.Close()
		h.logger.Info("page disconnected", "conn_id", c.id)
	}()

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "conn_id", c.id, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed frame", "conn_id", c.id, "error", err)
			continue
		}
		h.handle(ctx, c, msg)
	}
}

func (h *Hub) handle(ctx context.Context, c *wsConn, msg Message) {
	h.mu.Lock()
	actions := h.actions
	act := func() {}
	if msg.Type == MsgVisibility && msg.Visible != nil {
		c.visible = *msg.Visible
		act = h.visibilityChangeLocked()
	}
	h.mu.Unlock()

	if actions == nil {
		return
	}

	switch msg.Type {
	case MsgDismiss:
		if msg.ID != "" {
			actions.Dismiss(ctx, msg.ID)
		}
	case MsgClearAll:
		actions.ClearAll(ctx)
	case MsgVisibility:
		act()
	default:
		h.logger.Debug("ignoring unknown frame", "conn_id", c.id, "type", msg.Type)
	}
}

// visibilityChangeLocked returns the pause or resume call implied by the
// current page visibility, to be run after unlocking.
func (h *Hub) visibilityChangeLocked() func() {
	if !h.pauseWhenHidden || h.actions == nil {
		return func() {}
	}

	anyVisible := false
	for _, c := range h.conns {
		if c.visible {
			anyVisible = true
			break
		}
	}
	actions := h.actions

	switch {
	case len(h.conns) > 0 && !anyVisible && !h.paused:
		h.paused = true
		return actions.Pause
	case (anyVisible || len(h.conns) == 0) && h.paused:
		h.paused = false
		return actions.Resume
	}
	return func() {}
}

func (h *Hub) writePump(c *wsConn) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) broadcastLocked(data []byte) {
	for _, c := range h.conns {
		h.sendLocked(c, data)
	}
}

// sendLocked queues data for c, dropping the page if it cannot keep up.
func (h *Hub) sendLocked(c *wsConn, data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("page too slow, disconnecting", "conn_id", c.id)
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *wsConn) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	delete(h.conns, c.id)
}

func (h *Hub) currentLocked(handle alertpop.Handle) (*hubCard, bool) {
	if handle == nil {
		return nil, false
	}
	hc, ok := h.cards[handle.CardID()]
	if !ok || alertpop.Handle(hc.handle) != handle {
		return nil, false
	}
	return hc, true
}

func mustMarshal(m Message) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return data
}
