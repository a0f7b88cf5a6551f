package render

import (
	"errors"

	"github.com/jpalmerr/alertpop"
)

// Multi fans every card out to several renderers.
//
// A card is drawn if at least one renderer drew it. Renderers that fail are
// skipped for that card; Render fails only if all of them fail.
type Multi struct {
	renderers []alertpop.Renderer
}

type multiHandle struct {
	id    string
	parts []part
}

type part struct {
	r alertpop.Renderer
	h alertpop.Handle
}

func (h *multiHandle) CardID() string { return h.id }

// NewMulti creates a [Multi] over renderers, skipping nil entries.
func NewMulti(renderers ...alertpop.Renderer) *Multi {
	m := &Multi{}
	for _, r := range renderers {
		if r != nil {
			m.renderers = append(m.renderers, r)
		}
	}
	return m
}

// Prepare prepares every renderer that needs it.
func (m *Multi) Prepare() error {
	var errs []error
	for _, r := range m.renderers {
		if p, ok := r.(alertpop.Preparer); ok {
			if err := p.Prepare(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Render draws the card on every renderer.
func (m *Multi) Render(card alertpop.Card) (alertpop.Handle, error) {
	if len(m.renderers) == 0 {
		return nil, errors.New("no renderers configured")
	}

	h := &multiHandle{id: card.ID}
	var errs []error
	for _, r := range m.renderers {
		rh, err := r.Render(card)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		h.parts = append(h.parts, part{r: r, h: rh})
	}
	if len(h.parts) == 0 {
		return nil, errors.Join(errs...)
	}
	return h, nil
}

// Fade fades the card on renderers that support it.
func (m *Multi) Fade(h alertpop.Handle) {
	mh, ok := h.(*multiHandle)
	if !ok {
		return
	}
	for _, p := range mh.parts {
		if f, ok := p.r.(alertpop.Fader); ok {
			f.Fade(p.h)
		}
	}
}

// Remove removes the card from every renderer that drew it.
func (m *Multi) Remove(h alertpop.Handle) {
	mh, ok := h.(*multiHandle)
	if !ok {
		return
	}
	for _, p := range mh.parts {
		p.r.Remove(p.h)
	}
}

// Exists reports whether any renderer still shows a card for id.
func (m *Multi) Exists(id string) bool {
	for _, r := range m.renderers {
		if r.Exists(id) {
			return true
		}
	}
	return false
}
