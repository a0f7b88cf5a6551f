package alertpop

// Handle identifies a rendered card to the [Renderer] that produced it.
type Handle interface {
	// CardID returns the alert id the card was rendered for.
	CardID() string
}

// Renderer displays cards. It is the display surface of a [Client]; the
// client owns the registry and state machine and only asks the renderer to
// draw and remove.
//
// Client calls Renderer methods while holding its internal lock, so
// implementations must not call back into the Client synchronously.
type Renderer interface {
	// Render draws the card and returns a handle to it.
	Render(card Card) (Handle, error)

	// Remove detaches the card. Removing an absent card is a no-op.
	Remove(h Handle)

	// Exists reports whether a card for the alert id is currently drawn.
	Exists(id string) bool
}

// Fader is implemented by renderers that can visually mark a card as going
// away before it is removed.
type Fader interface {
	Fade(h Handle)
}

// Preparer is implemented by renderers that need one-time setup, such as
// creating an on-screen container, before the first card.
type Preparer interface {
	Prepare() error
}

// Sound plays a short cue when a new card appears.
type Sound interface {
	Play() error
}

// SoundFunc adapts a function to [Sound].
type SoundFunc func() error

// Play calls f.
func (f SoundFunc) Play() error {
	return f()
}
