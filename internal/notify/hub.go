package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const DefaultListenerBuffer = 16

// Hub is the in-process broadcast channel. It must be initialised once with
// Init before listeners attach; using it earlier is a programming error and
// panics.
type Hub struct {
	log        logrus.FieldLogger
	bufferSize int

	mu          sync.RWMutex
	initialized bool
	nextID      uint64
	listeners   map[uint64]*Subscription
}

type Subscription struct {
	id     uint64
	hub    *Hub
	events chan Event
	once   sync.Once
}

func NewHub(log logrus.FieldLogger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultListenerBuffer
	}
	return &Hub{log: log, bufferSize: bufferSize}
}

// Init prepares the hub. Repeated calls are no-ops.
func (h *Hub) Init() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		h.log.Warn("Notification hub is already initialized, skipping Init")
		return
	}
	h.listeners = make(map[uint64]*Subscription)
	h.initialized = true
	h.log.Info("Notification hub initialized")
}

func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mustBeInitialized()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		hub:    h,
		events: make(chan Event, h.bufferSize),
	}
	h.listeners[sub.id] = sub
	h.log.WithField("listener_id", sub.id).Info("Listener connected")
	return sub
}

// Broadcast hands event to every attached listener without blocking. A
// listener whose buffer is full misses the event. It returns the number of
// listeners the event was delivered to.
func (h *Hub) Broadcast(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.mustBeInitialized()

	delivered := 0
	for id, sub := range h.listeners {
		select {
		case sub.events <- event:
			delivered++
		default:
			h.log.WithFields(logrus.Fields{
				"listener_id": id,
				"event":       event.Type,
			}).Warn("Listener buffer full, dropping event")
		}
	}
	return delivered
}

// Publish implements Broadcaster for a single-process deployment.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event)
	return nil
}

func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.listeners[sub.id]; !ok {
		return
	}
	delete(h.listeners, sub.id)
	close(sub.events)
	h.log.WithField("listener_id", sub.id).Info("Listener disconnected")
}

// mustBeInitialized must be called with mu held.
func (h *Hub) mustBeInitialized() {
	if !h.initialized {
		panic("notify: hub used before Init")
	}
}

// Events is closed once the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}
