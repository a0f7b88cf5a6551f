package store

import (
	"sync"
)

// subscriberBuffer is the channel buffer size for each subscriber.
const subscriberBuffer = 100

// EventType identifies what happened to a registry entry.
type EventType string

const (
	// EventAdded is published when an id enters the registry.
	EventAdded EventType = "added"

	// EventRemoved is published when an id leaves the registry.
	EventRemoved EventType = "removed"
)

// Event describes a single registry change.
type Event[T any] struct {
	// Type is EventAdded or EventRemoved.
	Type EventType `json:"type"`

	// ID is the affected key.
	ID string `json:"id"`

	// Value is the entry that was added or removed.
	Value T `json:"value"`

	// Count is the registry size after the change.
	Count int `json:"count"`
}

// Registry is an insertion-ordered map from id to value with pub/sub.
//
// An id can be present at most once; [Registry.Add] on a present id is
// rejected rather than updating in place. Registry is safe for concurrent
// use.
type Registry[T any] struct {
	mu     sync.RWMutex
	order  []string
	values map[string]T

	subMu       sync.RWMutex
	subscribers map[chan Event[T]]struct{}
}

// NewRegistry creates an empty [Registry].
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		values:      make(map[string]T),
		subscribers: make(map[chan Event[T]]struct{}),
	}
}

// Add inserts value under id. It returns false, leaving the registry
// unchanged, if id is already present.
func (r *Registry[T]) Add(id string, value T) bool {
	r.mu.Lock()
	if _, exists := r.values[id]; exists {
		r.mu.Unlock()
		return false
	}
	r.values[id] = value
	r.order = append(r.order, id)
	count := len(r.order)
	r.mu.Unlock()

	r.notifySubscribers(Event[T]{Type: EventAdded, ID: id, Value: value, Count: count})
	return true
}

// Remove deletes id and returns the removed value.
// The second result is false if id was not present.
func (r *Registry[T]) Remove(id string) (T, bool) {
	r.mu.Lock()
	value, exists := r.values[id]
	if !exists {
		r.mu.Unlock()
		var zero T
		return zero, false
	}
	delete(r.values, id)
	for i, cand := range r.order {
		if cand == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	count := len(r.order)
	r.mu.Unlock()

	r.notifySubscribers(Event[T]{Type: EventRemoved, ID: id, Value: value, Count: count})
	return value, true
}

// Get returns the value stored under id.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[id]
	return v, ok
}

// Has reports whether id is present.
func (r *Registry[T]) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.values[id]
	return ok
}

// Len returns the number of entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// IDs returns a snapshot of the ids in insertion order.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// All returns a snapshot of the values in insertion order.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values := make([]T, 0, len(r.order))
	for _, id := range r.order {
		values = append(values, r.values[id])
	}
	return values
}

// Subscribe creates a new subscription and returns a channel for receiving
// events.
//
// The returned channel has a buffer of 100 events. If the buffer fills
// (slow consumer), new events are dropped for this subscriber.
//
// Caller must call [Registry.Unsubscribe] when done to prevent resource leaks.
func (r *Registry[T]) Subscribe() <-chan Event[T] {
	ch := make(chan Event[T], subscriberBuffer)

	r.subMu.Lock()
	r.subscribers[ch] = struct{}{}
	r.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (r *Registry[T]) Unsubscribe(ch <-chan Event[T]) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for subCh := range r.subscribers {
		if subCh == ch {
			delete(r.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the event to all active subscribers without blocking.
func (r *Registry[T]) notifySubscribers(ev Event[T]) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	for ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}
