package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jpalmerr/alertpop"
	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiDim   = "\x1b[2m"
)

// Terminal draws cards as text blocks on a writer.
//
// A card counts as drawn from Render until Remove, including while it is
// fading, so a re-poll during the fade does not draw it twice.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	cards map[string]*termHandle
	seq   uint64
}

type termHandle struct {
	id  string
	seq uint64
}

func (h *termHandle) CardID() string { return h.id }

// TerminalOption configures a [Terminal].
type TerminalOption func(*Terminal)

// WithColor forces ANSI colors on or off. By default colors are used when
// the writer is a terminal.
func WithColor(enabled bool) TerminalOption {
	return func(t *Terminal) { t.color = enabled }
}

// NewTerminal creates a [Terminal] writing to w.
func NewTerminal(w io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		w:     w,
		cards: make(map[string]*termHandle),
	}
	if f, ok := w.(*os.File); ok {
		t.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Render prints the card.
func (t *Terminal) Render(card alertpop.Card) (alertpop.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := io.WriteString(t.w, t.format(card)); err != nil {
		return nil, fmt.Errorf("failed to write card: %w", err)
	}

	t.seq++
	h := &termHandle{id: card.ID, seq: t.seq}
	t.cards[card.ID] = h
	return h, nil
}

// Fade prints a one-line notice that the card is going away.
func (t *Terminal) Fade(h alertpop.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.currentLocked(h) {
		return
	}
	fmt.Fprintf(t.w, "%s  dismissed %s%s\n", t.style(ansiDim), h.CardID(), t.style(ansiReset))
}

// Remove forgets the card. Terminal output cannot be erased.
func (t *Terminal) Remove(h alertpop.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.currentLocked(h) {
		delete(t.cards, h.CardID())
	}
}

// Exists reports whether a card for id has been printed and not removed.
func (t *Terminal) Exists(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.cards[id]
	return ok
}

func (t *Terminal) currentLocked(h alertpop.Handle) bool {
	th, ok := h.(*termHandle)
	if !ok {
		return false
	}
	cur, ok := t.cards[th.id]
	return ok && cur == th
}

func (t *Terminal) format(c alertpop.Card) string {
	var b strings.Builder

	header := fmt.Sprintf("%s %s", c.Icon, c.Title)
	if c.HighPriority() {
		header = t.style(ansiBold+ansiRed) + header + " [high]" + t.style(ansiReset)
	} else {
		header = t.style(ansiBold) + header + t.style(ansiReset)
	}

	fmt.Fprintf(&b, "┌ %s  %s\n", header, c.CloseLabel)
	fmt.Fprintf(&b, "│ %s\n", c.Message)
	fmt.Fprintf(&b, "│ %s · %s\n", c.SubjectName, c.SubjectContext)
	fmt.Fprintf(&b, "│ %s: %s\n", c.ActionLabel, c.ActionURL)
	if c.Age != "" {
		fmt.Fprintf(&b, "│ %s%s%s\n", t.style(ansiDim), c.Age, t.style(ansiReset))
	}
	fmt.Fprintf(&b, "└ %s %s\n", c.DismissLabel, c.ID)
	return b.String()
}

func (t *Terminal) style(code string) string {
	if !t.color {
		return ""
	}
	return code
}
