package render

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/jpalmerr/alertpop"
)

type notifyFunc func(title, message, icon string) error

// Desktop shows cards as operating system notifications.
//
// Normal-priority cards use a plain notification, high-priority cards an
// alert with sound. Sent notifications cannot be withdrawn; Remove only
// forgets the card.
type Desktop struct {
	mu     sync.Mutex
	icon   string
	notify notifyFunc
	alert  notifyFunc
	cards  map[string]*desktopHandle
}

type desktopHandle struct{ id string }

func (h *desktopHandle) CardID() string { return h.id }

// NewDesktop creates a [Desktop] renderer. icon is a path to an image file
// and may be empty.
func NewDesktop(appName, icon string) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{
		icon:   icon,
		notify: func(title, message, icon string) error { return beeep.Notify(title, message, icon) },
		alert:  func(title, message, icon string) error { return beeep.Alert(title, message, icon) },
		cards:  make(map[string]*desktopHandle),
	}
}

// Render sends the notification.
func (d *Desktop) Render(card alertpop.Card) (alertpop.Handle, error) {
	title := fmt.Sprintf("%s %s", card.Icon, card.Title)
	body := fmt.Sprintf("%s\n%s · %s", card.Message, card.SubjectName, card.SubjectContext)
	if card.Age != "" {
		body += "\n" + card.Age
	}

	send := d.notify
	if card.HighPriority() {
		send = d.alert
	}
	if err := send(title, body, d.icon); err != nil {
		return nil, fmt.Errorf("failed to send desktop notification: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	h := &desktopHandle{id: card.ID}
	d.cards[card.ID] = h
	return h, nil
}

// Remove forgets the card.
func (d *Desktop) Remove(h alertpop.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cur, ok := d.cards[h.CardID()]; ok && alertpop.Handle(cur) == h {
		delete(d.cards, h.CardID())
	}
}

// Exists reports whether a notification was sent for id and not removed.
func (d *Desktop) Exists(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.cards[id]
	return ok
}
