package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DimasB1221/I-commerce/pkg/circuitbreaker"
	"github.com/DimasB1221/I-commerce/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type mockBroadcaster struct {
	mu     sync.Mutex
	calls  int
	err    error
	panics bool
}

func (m *mockBroadcaster) Publish(context.Context, Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.panics {
		panic("listener transport exploded")
	}
	return m.err
}

func (m *mockBroadcaster) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNotifier_PublishesToHub(t *testing.T) {
	hub := newTestHub(t, 1)
	sub := hub.Subscribe()
	defer sub.Close()

	order := testOrder()
	NewNotifier(hub, logger.Discard()).OrderCreated(context.Background(), order)

	evt := <-sub.Events()
	assert.Equal(t, order.ID, evt.Order.ID)
	assert.True(t, order.TotalPrice.Equal(evt.Order.TotalPrice))
}

func TestNotifier_SwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	b := &mockBroadcaster{err: errors.New("redis down")}
	order := testOrder()

	assert.NotPanics(t, func() {
		NewNotifier(b, log).OrderCreated(context.Background(), order)
	})
	assert.Equal(t, 1, b.callCount())
	assert.Contains(t, buf.String(), "redis down")
	assert.Contains(t, buf.String(), order.ID.String())
}

func TestNotifier_RecoversPanics(t *testing.T) {
	b := &mockBroadcaster{panics: true}

	assert.NotPanics(t, func() {
		NewNotifier(b, logger.Discard()).OrderCreated(context.Background(), testOrder())
	})
}

func TestNotifier_CancelledRequestStillPublishes(t *testing.T) {
	b := &mockBroadcaster{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewNotifier(b, logger.Discard()).OrderCreated(ctx, testOrder())
	assert.Equal(t, 1, b.callCount())
}

func TestNotifier_BreakerStopsCallingFailingBackend(t *testing.T) {
	b := &mockBroadcaster{err: errors.New("timeout")}
	n := NewNotifier(b, logger.Discard())

	for i := 0; i < breakerThreshold+3; i++ {
		n.OrderCreated(context.Background(), testOrder())
	}

	assert.Equal(t, breakerThreshold, b.callCount())
	assert.Equal(t, circuitbreaker.StateOpen, n.breaker.State())
}
