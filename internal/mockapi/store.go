package mockapi

import (
	"sync"
	"time"
)

// Notification is one alert as served on the wire.
type Notification struct {
	ID            int       `json:"id"`
	Type          string    `json:"type" binding:"required"`
	Priority      string    `json:"priority" binding:"omitempty,oneof=normal high"`
	Message       string    `json:"message" binding:"required"`
	CandidateName string    `json:"candidate_name"`
	Position      string    `json:"position"`
	CandidateID   int       `json:"candidate_id"`
	Timestamp     time.Time `json:"timestamp"`
	Read          bool      `json:"-"`
}

// Store holds notifications in creation order.
type Store struct {
	mu     sync.Mutex
	nextID int
	items  []*Notification
	now    func() time.Time
}

// NewStore creates an empty [Store].
func NewStore() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// Add assigns an id and timestamp when missing and stores n.
func (s *Store) Add(n Notification) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == 0 {
		n.ID = s.nextID
	}
	if n.ID >= s.nextID {
		s.nextID = n.ID + 1
	}
	if n.Priority == "" {
		n.Priority = "normal"
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now().UTC()
	}
	n.Read = false

	stored := n
	s.items = append(s.items, &stored)
	return stored
}

// Pending returns unread notifications in creation order.
func (s *Store) Pending() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, 0, len(s.items))
	for _, n := range s.items {
		if !n.Read {
			out = append(out, *n)
		}
	}
	return out
}

// MarkRead flags id as read. It reports false for unknown ids.
func (s *Store) MarkRead(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		if n.ID == id {
			n.Read = true
			return true
		}
	}
	return false
}
