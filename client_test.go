package alertpop

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jpalmerr/alertpop/clock"
)

func TestNew_RequiresSourceAndRenderer(t *testing.T) {
	if _, err := New(nil, newFakeRenderer()); err == nil {
		t.Error("New(nil source) error = nil, want error")
	}
	if _, err := New(&fakeSource{}, nil); err == nil {
		t.Error("New(nil renderer) error = nil, want error")
	}
}

// TestClient_PollScenario walks the three-poll scenario: first sighting,
// repeat sighting, and a new high-priority id next to a known one.
func TestClient_PollScenario(t *testing.T) {
	c, src, r, _ := newTestClient()
	ctx := context.Background()

	src.set(normal("1"))
	c.Poll(ctx)
	if c.Count() != 1 || r.totalRendered() != 1 {
		t.Fatalf("after poll 1: Count() = %d, rendered = %d; want 1, 1", c.Count(), r.totalRendered())
	}

	c.Poll(ctx)
	if c.Count() != 1 || r.totalRendered() != 1 {
		t.Fatalf("after poll 2: Count() = %d, rendered = %d; want 1, 1", c.Count(), r.totalRendered())
	}

	src.set(normal("1"), high("2"))
	c.Poll(ctx)
	if c.Count() != 2 {
		t.Fatalf("after poll 3: Count() = %d, want 2", c.Count())
	}
	if r.renderCount("1") != 1 || r.renderCount("2") != 1 {
		t.Errorf("render counts = %d, %d; want 1, 1", r.renderCount("1"), r.renderCount("2"))
	}
	if c.State("2") != StateDisplayed {
		t.Errorf("State(2) = %s, want displayed", c.State("2"))
	}
}

// TestClient_RenderedAtMostOnce polls the same ids many times.
func TestClient_RenderedAtMostOnce(t *testing.T) {
	c, src, r, _ := newTestClient()
	src.set(high("a"), high("b"), high("a"))

	for i := 0; i < 20; i++ {
		c.Poll(context.Background())
	}

	if r.renderCount("a") != 1 || r.renderCount("b") != 1 {
		t.Errorf("render counts a=%d b=%d, want 1 each", r.renderCount("a"), r.renderCount("b"))
	}
	if c.Count() != 2 {
		t.Errorf("Count() = %d, want 2", c.Count())
	}
}

// TestClient_PollPreservesServerOrder verifies render order and Alerts() order.
func TestClient_PollPreservesServerOrder(t *testing.T) {
	c, src, r, _ := newTestClient()
	src.set(high("3"), high("1"), high("2"))

	c.Poll(context.Background())

	want := []string{"3", "1", "2"}
	for i, id := range want {
		if r.rendered[i].ID != id {
			t.Fatalf("render order = %v, want %v", r.rendered, want)
		}
		if c.Alerts()[i].ID != id {
			t.Fatalf("Alerts() order mismatch at %d", i)
		}
	}
}

// TestClient_PollErrorTreatedAsEmpty verifies that fetch failures leave the
// registry untouched and are not propagated.
func TestClient_PollErrorTreatedAsEmpty(t *testing.T) {
	c, src, r, _ := newTestClient()
	src.set(high("1"))
	c.Poll(context.Background())

	src.listErr = errBoom
	c.Poll(context.Background())

	if c.Count() != 1 || r.visible() != 1 {
		t.Errorf("Count() = %d, visible = %d after failed poll; want 1, 1", c.Count(), r.visible())
	}
}

// TestClient_HighPriorityNotAutoDismissed verifies high priority cards stay.
func TestClient_HighPriorityNotAutoDismissed(t *testing.T) {
	c, src, _, clk := newTestClient()
	src.set(high("h"))
	c.Poll(context.Background())

	clk.Advance(15 * time.Second)
	clk.Advance(time.Hour)

	if got := c.State("h"); got != StateDisplayed {
		t.Errorf("State(h) = %s, want displayed", got)
	}
	if len(src.acks()) != 0 {
		t.Errorf("acks = %v, want none", src.acks())
	}
}

// TestClient_NormalPriorityAutoDismissed verifies the 15s auto-dismiss and
// the 500ms removal delay.
func TestClient_NormalPriorityAutoDismissed(t *testing.T) {
	c, src, r, clk := newTestClient()
	src.set(normal("n"))
	c.Poll(context.Background())

	clk.Advance(14999 * time.Millisecond)
	if got := c.State("n"); got != StateDisplayed {
		t.Fatalf("State(n) at 14.999s = %s, want displayed", got)
	}

	clk.Advance(time.Millisecond)
	if got := c.State("n"); got != StateDismissing {
		t.Fatalf("State(n) at 15s = %s, want dismissing", got)
	}
	if c.Count() != 0 {
		t.Errorf("Count() while dismissing = %d, want 0", c.Count())
	}
	if !r.Exists("n") {
		t.Error("card detached before removal delay")
	}
	c.waitAcks()
	if acks := src.acks(); len(acks) != 1 || acks[0] != "n" {
		t.Errorf("acks = %v, want [n]", acks)
	}

	clk.Advance(500 * time.Millisecond)
	if got := c.State("n"); got != StateGone {
		t.Errorf("State(n) after removal delay = %s, want gone", got)
	}
	if r.Exists("n") {
		t.Error("card still drawn after removal delay")
	}
}

// TestClient_DismissTransitions verifies the manual dismissal path.
func TestClient_DismissTransitions(t *testing.T) {
	c, src, r, clk := newTestClient()
	src.set(high("1"))
	c.Poll(context.Background())

	c.Dismiss(context.Background(), "1")

	if got := c.State("1"); got != StateDismissing {
		t.Fatalf("State(1) = %s, want dismissing", got)
	}
	if len(r.faded) != 1 || r.faded[0] != "1" {
		t.Errorf("faded = %v, want [1]", r.faded)
	}

	clk.Advance(500 * time.Millisecond)
	if got := c.State("1"); got != StateGone {
		t.Errorf("State(1) = %s, want gone", got)
	}
	if len(r.removed) != 1 {
		t.Errorf("removed = %v, want one removal", r.removed)
	}
}

// TestClient_DismissTwiceIsNoop verifies a second dismissal sends nothing.
func TestClient_DismissTwiceIsNoop(t *testing.T) {
	c, src, _, clk := newTestClient()
	src.set(high("1"))
	c.Poll(context.Background())

	c.Dismiss(context.Background(), "1")
	c.Dismiss(context.Background(), "1")
	clk.Advance(time.Second)
	c.Dismiss(context.Background(), "1")
	c.waitAcks()

	if acks := src.acks(); len(acks) != 1 {
		t.Errorf("acks = %v, want exactly one", acks)
	}
}

// TestClient_DismissUnknownIsNoop verifies dismissing an id never shown.
func TestClient_DismissUnknownIsNoop(t *testing.T) {
	c, src, _, _ := newTestClient()

	c.Dismiss(context.Background(), "missing")

	if len(src.acks()) != 0 {
		t.Errorf("acks = %v, want none", src.acks())
	}
	if c.State("missing") != StateUnknown {
		t.Errorf("State(missing) = %s, want unknown", c.State("missing"))
	}
}

// TestClient_ManualDismissRacesAutoDismiss verifies that the auto-dismiss
// timer of an already dismissed card does nothing.
func TestClient_ManualDismissRacesAutoDismiss(t *testing.T) {
	c, src, r, clk := newTestClient()
	src.set(normal("1"))
	c.Poll(context.Background())

	clk.Advance(10 * time.Second)
	c.Dismiss(context.Background(), "1")
	clk.Advance(10 * time.Second) // auto-dismiss timer fires on an absent card
	c.waitAcks()

	if acks := src.acks(); len(acks) != 1 {
		t.Errorf("acks = %v, want exactly one", acks)
	}
	if len(r.removed) != 1 {
		t.Errorf("removed = %v, want one removal", r.removed)
	}
}

// TestClient_AckFailureStillRemoves verifies optimistic removal, and that an
// alert the server still reports comes back as a fresh card afterwards.
func TestClient_AckFailureStillRemoves(t *testing.T) {
	c, src, r, clk := newTestClient()
	src.set(high("1"))
	src.ackErr = errBoom
	c.Poll(context.Background())

	c.Dismiss(context.Background(), "1")
	if c.Count() != 0 {
		t.Fatalf("Count() = %d after failed ack, want 0", c.Count())
	}

	// still fading: the server's copy must not produce a second card
	c.Poll(context.Background())
	if r.renderCount("1") != 1 {
		t.Fatalf("render count during fade = %d, want 1", r.renderCount("1"))
	}

	clk.Advance(500 * time.Millisecond)
	c.Poll(context.Background())

	if r.renderCount("1") != 2 {
		t.Errorf("render count after removal = %d, want 2 (reappears as new)", r.renderCount("1"))
	}
	if c.State("1") != StateDisplayed {
		t.Errorf("State(1) = %s, want displayed", c.State("1"))
	}
}

// TestClient_ClearAll verifies every card is dismissed and the registry emptied.
func TestClient_ClearAll(t *testing.T) {
	c, src, _, clk := newTestClient()
	src.set(normal("1"), high("2"), high("3"))
	c.Poll(context.Background())

	c.ClearAll(context.Background())

	if c.Count() != 0 {
		t.Fatalf("Count() = %d after ClearAll, want 0", c.Count())
	}
	for _, id := range []string{"1", "2", "3"} {
		if s := c.State(id); s != StateDismissing {
			t.Errorf("State(%s) = %s, want dismissing", id, s)
		}
	}
	c.waitAcks()
	if len(src.acks()) != 3 {
		t.Errorf("acks = %v, want 3", src.acks())
	}

	clk.Advance(time.Second)
	for _, id := range []string{"1", "2", "3"} {
		if s := c.State(id); s != StateGone {
			t.Errorf("State(%s) = %s, want gone", id, s)
		}
	}
}

// TestClient_GoneForgottenWhenServerDropsIt verifies that gone entries are
// pruned once acknowledged on the server.
func TestClient_GoneForgottenWhenServerDropsIt(t *testing.T) {
	c, src, _, clk := newTestClient()
	src.ackOnAck = true
	src.set(high("1"))
	c.Poll(context.Background())

	c.Dismiss(context.Background(), "1")
	c.waitAcks()
	clk.Advance(time.Second)
	c.Poll(context.Background())

	if s := c.State("1"); s != StateUnknown {
		t.Errorf("State(1) = %s, want unknown", s)
	}
}

// TestClient_RenderFailureLeavesUnregistered verifies the next poll retries.
func TestClient_RenderFailureLeavesUnregistered(t *testing.T) {
	c, src, r, _ := newTestClient()
	src.set(high("1"))
	r.renderErr = errBoom

	c.Poll(context.Background())
	if c.Count() != 0 {
		t.Fatalf("Count() = %d after render failure, want 0", c.Count())
	}

	r.renderErr = nil
	c.Poll(context.Background())
	if c.Count() != 1 {
		t.Errorf("Count() = %d after retry, want 1", c.Count())
	}
}

// TestClient_StartPollsImmediatelyThenPeriodically verifies the schedule.
func TestClient_StartPollsImmediatelyThenPeriodically(t *testing.T) {
	c, src, r, clk := newTestClient(WithPollInterval(10 * time.Second))
	src.set(high("1"))

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	if src.pollCount() != 1 {
		t.Fatalf("polls after Start = %d, want 1", src.pollCount())
	}
	if r.prepared != 1 {
		t.Errorf("Prepare calls = %d, want 1", r.prepared)
	}

	clk.Advance(30 * time.Second)
	if src.pollCount() != 4 {
		t.Errorf("polls after 30s = %d, want 4", src.pollCount())
	}

	if err := c.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
	if r.prepared != 1 {
		t.Errorf("Prepare calls after second Start = %d, want 1", r.prepared)
	}
}

// TestClient_PauseResume verifies the visibility switch.
func TestClient_PauseResume(t *testing.T) {
	c, src, _, clk := newTestClient(WithPollInterval(10 * time.Second))
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	c.Pause()
	clk.Advance(time.Minute)
	if src.pollCount() != 1 {
		t.Fatalf("polls while paused = %d, want 1", src.pollCount())
	}

	c.Resume()
	if src.pollCount() != 2 {
		t.Fatalf("polls after Resume = %d, want 2", src.pollCount())
	}

	clk.Advance(10 * time.Second)
	if src.pollCount() != 3 {
		t.Errorf("polls 10s after Resume = %d, want 3", src.pollCount())
	}
}

// TestClient_PauseKeepsCardTimers verifies that pausing polls does not stop
// auto-dismissal of cards already on screen.
func TestClient_PauseKeepsCardTimers(t *testing.T) {
	c, src, _, clk := newTestClient()
	src.set(normal("1"))
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	c.Pause()
	clk.Advance(15 * time.Second)

	if s := c.State("1"); s != StateDismissing {
		t.Errorf("State(1) = %s, want dismissing", s)
	}
}

// TestClient_StopIsPermanent verifies that Stop ends polling and makes card
// timers inert.
func TestClient_StopIsPermanent(t *testing.T) {
	c, src, _, clk := newTestClient()
	src.set(normal("1"))
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c.Stop()
	c.Stop()
	c.Resume()
	clk.Advance(time.Minute)

	if src.pollCount() != 1 {
		t.Errorf("polls after Stop = %d, want 1", src.pollCount())
	}
	if len(src.acks()) != 0 {
		t.Errorf("acks after Stop = %v, want none", src.acks())
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
}

// TestClient_NoSessionDoesNotStart verifies the session gate.
func TestClient_NoSessionDoesNotStart(t *testing.T) {
	c, src, r, clk := newTestClient(
		WithSessionCheck(CookieSession([]*http.Cookie{{Name: "theme", Value: "dark"}}, "role")),
	)

	err := c.Start(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("Start() error = %v, want ErrNoSession", err)
	}

	clk.Advance(time.Minute)
	if src.pollCount() != 0 {
		t.Errorf("polls = %d, want 0", src.pollCount())
	}
	if r.prepared != 0 {
		t.Errorf("Prepare calls = %d, want 0", r.prepared)
	}
}

// TestClient_SessionPresentStarts verifies the positive session path.
func TestClient_SessionPresentStarts(t *testing.T) {
	c, src, _, _ := newTestClient(
		WithSessionCheck(CookieSession([]*http.Cookie{{Name: "role", Value: "recruiter"}}, "role")),
	)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	if src.pollCount() != 1 {
		t.Errorf("polls = %d, want 1", src.pollCount())
	}
}

// TestClient_SoundPlaysPerNewCard verifies the sound fires once per render.
func TestClient_SoundPlaysPerNewCard(t *testing.T) {
	plays := 0
	c, src, _, _ := newTestClient(WithSound(SoundFunc(func() error {
		plays++
		return nil
	})))
	src.set(high("1"), high("2"))

	c.Poll(context.Background())
	c.Poll(context.Background())

	if plays != 2 {
		t.Errorf("plays = %d, want 2", plays)
	}
}

// TestClient_RendererPanicRecovered verifies a panicking renderer does not
// crash the poll.
func TestClient_RendererPanicRecovered(t *testing.T) {
	src := &fakeSource{}
	src.set(high("1"))
	c, err := New(src, panicRenderer{}, WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c.Poll(context.Background())

	if c.Count() != 0 {
		t.Errorf("Count() = %d, want 0", c.Count())
	}
}

// TestClient_SubscribeSeesRegistryChanges verifies registry events.
func TestClient_SubscribeSeesRegistryChanges(t *testing.T) {
	c, src, _, _ := newTestClient()
	ch := c.Subscribe()
	defer c.Unsubscribe(ch)

	src.set(high("1"))
	c.Poll(context.Background())
	c.Dismiss(context.Background(), "1")

	for _, want := range []string{"added", "removed"} {
		select {
		case ev := <-ch:
			if string(ev.Type) != want || ev.ID != "1" {
				t.Errorf("event = %+v, want %s for id 1", ev, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", want)
		}
	}
}

type panicRenderer struct{}

func (panicRenderer) Render(Card) (Handle, error) { panic("render exploded") }
func (panicRenderer) Remove(Handle)               {}
func (panicRenderer) Exists(string) bool          { return false }

// blockingAckSource holds every Acknowledge until release is closed.
type blockingAckSource struct {
	*fakeSource
	entered chan string
	release chan struct{}
}

func (s *blockingAckSource) Acknowledge(ctx context.Context, id string) error {
	s.entered <- id
	<-s.release
	return s.fakeSource.Acknowledge(ctx, id)
}

func newBlockingAckClient(t *testing.T) (*Client, *blockingAckSource, *fakeRenderer, *clock.Fake) {
	t.Helper()
	src := &blockingAckSource{
		fakeSource: &fakeSource{},
		entered:    make(chan string, 16),
		release:    make(chan struct{}),
	}
	r := newFakeRenderer()
	clk := clock.NewFake(testStart)
	c, err := New(src, r, WithClock(clk), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, src, r, clk
}

// TestClient_ClearAllDoesNotWaitForAcks verifies every card starts fading at
// once while acknowledgements are still outstanding.
func TestClient_ClearAllDoesNotWaitForAcks(t *testing.T) {
	c, src, r, clk := newBlockingAckClient(t)
	src.set(high("1"), high("2"), high("3"))
	c.Poll(context.Background())

	c.ClearAll(context.Background())

	if c.Count() != 0 {
		t.Errorf("Count() with acks in flight = %d, want 0", c.Count())
	}
	for _, id := range []string{"1", "2", "3"} {
		if s := c.State(id); s != StateDismissing {
			t.Errorf("State(%s) with acks in flight = %s, want dismissing", id, s)
		}
	}
	if len(r.faded) != 3 {
		t.Errorf("faded = %v, want all three", r.faded)
	}

	clk.Advance(500 * time.Millisecond)
	if r.visible() != 0 {
		t.Errorf("visible cards = %d after removal delay, want 0", r.visible())
	}

	close(src.release)
	c.waitAcks()
	if len(src.acks()) != 3 {
		t.Errorf("acks = %v, want 3", src.acks())
	}
}

// TestClient_DismissReturnsBeforeAck verifies a hung acknowledgement does not
// hold up the caller or later dismissals.
func TestClient_DismissReturnsBeforeAck(t *testing.T) {
	c, src, _, _ := newBlockingAckClient(t)
	src.set(high("1"), high("2"))
	c.Poll(context.Background())

	c.Dismiss(context.Background(), "1")
	<-src.entered // first ack is now blocked
	c.Dismiss(context.Background(), "2")

	if s := c.State("2"); s != StateDismissing {
		t.Errorf("State(2) = %s, want dismissing", s)
	}

	close(src.release)
	c.Stop()
	if len(src.acks()) != 2 {
		t.Errorf("acks after Stop = %v, want 2", src.acks())
	}
}

// TestClient_AckSurvivesCancelledContext verifies a cancelled caller context
// does not abort the acknowledgement.
func TestClient_AckSurvivesCancelledContext(t *testing.T) {
	c, src, _, _ := newTestClient()
	src.set(high("1"))
	c.Poll(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	c.Dismiss(ctx, "1")
	cancel()
	c.waitAcks()

	if acks := src.acks(); len(acks) != 1 || acks[0] != "1" {
		t.Errorf("acks = %v, want [1]", acks)
	}
}

// TestClient_SoundPlaysOutsideLock verifies a slow sound does not block other
// client calls.
func TestClient_SoundPlaysOutsideLock(t *testing.T) {
	var c *Client
	var stateDuringSound State
	src := &fakeSource{}
	src.set(high("1"))

	c, err := New(src, newFakeRenderer(), WithLogger(testLogger()), WithSound(SoundFunc(func() error {
		stateDuringSound = c.State("1")
		return nil
	})))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		c.Poll(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Poll blocked: sound played while the client lock was held")
	}
	if stateDuringSound != StateDisplayed {
		t.Errorf("State during sound = %s, want displayed", stateDuringSound)
	}
}
