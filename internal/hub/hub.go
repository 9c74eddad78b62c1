// Package hub fans messages out to independently attached subscribers.
package hub

import (
	"sync"

	"github.com/google/uuid"

	"router_dashboard/internal/metrics"
)

// Push message types.
const (
	TypeSystemStatus     = "system_status"
	TypeConnectionStatus = "connection_status"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 16

// Message is one push envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Subscriber receives published messages in order until it is unsubscribed,
// at which point its channel is closed.
type Subscriber struct {
	id string
	ch chan Message
}

func (s *Subscriber) ID() string { return s.id }

// Messages is closed when the subscriber is removed from the hub.
func (s *Subscriber) Messages() <-chan Message { return s.ch }

type Hub struct {
	mu     sync.Mutex
	subs   map[string]*Subscriber
	buffer int
}

func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[string]*Subscriber), buffer: buffer}
}

// Subscribe registers a new subscriber whose queue already holds initial, so
// the seeded messages precede anything published after registration.
func (h *Hub) Subscribe(initial ...Message) *Subscriber {
	size := h.buffer
	if len(initial) > size {
		size = len(initial)
	}
	s := &Subscriber{id: uuid.NewString(), ch: make(chan Message, size)}
	for _, m := range initial {
		s.ch <- m
	}

	h.mu.Lock()
	h.subs[s.id] = s
	n := len(h.subs)
	h.mu.Unlock()

	metrics.Subscribers.Set(float64(n))
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.subs[s.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, s.id)
	close(s.ch)
	n := len(h.subs)
	h.mu.Unlock()

	metrics.Subscribers.Set(float64(n))
}

// Publish delivers m to every subscriber without blocking. A subscriber whose
// queue is full loses its oldest unsent message.
func (h *Hub) Publish(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		select {
		case s.ch <- m:
			continue
		default:
		}
		select {
		case <-s.ch:
			metrics.MessagesDropped.Inc()
		default:
		}
		select {
		case s.ch <- m:
		default:
			metrics.MessagesDropped.Inc()
		}
	}
	metrics.MessagesPublished.WithLabelValues(m.Type).Inc()
}

// Len reports the number of attached subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
	h.mu.Unlock()

	metrics.Subscribers.Set(0)
}
