package alertpop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/alertpop/clock"
)

var testStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource serves scripted poll results and records acknowledgements.
type fakeSource struct {
	mu       sync.Mutex
	pending  []Alert
	listErr  error
	ackErr   error
	polls    int
	acked    []string
	ackOnAck bool // remove acknowledged ids from pending
}

func (s *fakeSource) set(alerts ...Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = alerts
}

func (s *fakeSource) Pending(ctx context.Context) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Alert, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

func (s *fakeSource) Acknowledge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked = append(s.acked, id)
	if s.ackErr != nil {
		return s.ackErr
	}
	if s.ackOnAck {
		kept := s.pending[:0]
		for _, a := range s.pending {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		s.pending = kept
	}
	return nil
}

func (s *fakeSource) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func (s *fakeSource) acks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.acked...)
}

type fakeHandle struct {
	id  string
	seq int
}

func (h *fakeHandle) CardID() string { return h.id }

// fakeRenderer records every call and keeps cards until Remove.
type fakeRenderer struct {
	mu        sync.Mutex
	cards     map[string]*fakeHandle
	rendered  []Card
	faded     []string
	removed   []string
	prepared  int
	renderErr error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{cards: make(map[string]*fakeHandle)}
}

func (r *fakeRenderer) Prepare() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared++
	return nil
}

func (r *fakeRenderer) Render(card Card) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.renderErr != nil {
		return nil, r.renderErr
	}
	h := &fakeHandle{id: card.ID, seq: len(r.rendered)}
	r.cards[card.ID] = h
	r.rendered = append(r.rendered, card)
	return h, nil
}

func (r *fakeRenderer) Fade(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faded = append(r.faded, h.CardID())
}

func (r *fakeRenderer) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.cards[h.CardID()]; ok && cur == h {
		delete(r.cards, h.CardID())
	}
	r.removed = append(r.removed, h.CardID())
}

func (r *fakeRenderer) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cards[id]
	return ok
}

func (r *fakeRenderer) renderCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.rendered {
		if c.ID == id {
			n++
		}
	}
	return n
}

func (r *fakeRenderer) totalRendered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rendered)
}

func (r *fakeRenderer) visible() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cards)
}

var errBoom = errors.New("boom")

func normal(id string) Alert {
	return Alert{ID: id, Kind: KindCandidateShortlisted, Priority: PriorityNormal, Message: "msg " + id, SubjectRef: "c" + id}
}

func high(id string) Alert {
	return Alert{ID: id, Kind: KindCandidateSelected, Priority: PriorityHigh, Message: "msg " + id, SubjectRef: "c" + id}
}

// newTestClient builds a client on a fake clock with a scripted source.
func newTestClient(opts ...Option) (*Client, *fakeSource, *fakeRenderer, *clock.Fake) {
	src := &fakeSource{}
	r := newFakeRenderer()
	clk := clock.NewFake(testStart)

	all := append([]Option{WithClock(clk), WithLogger(testLogger())}, opts...)
	c, err := New(src, r, all...)
	if err != nil {
		panic(err)
	}
	return c, src, r, clk
}
