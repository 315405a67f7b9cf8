package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DimasB1221/I-commerce/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisBroadcaster_Publish(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	pubsub := client.Subscribe(ctx, DefaultRedisChannel)
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	order := testOrder()
	require.NoError(t, NewRedisBroadcaster(client, DefaultRedisChannel).Publish(ctx, OrderCreatedEvent(order)))

	select {
	case msg := <-pubsub.Channel():
		var evt Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		assert.Equal(t, EventOrderNew, evt.Type)
		assert.Equal(t, order.ID, evt.Order.ID)
		assert.True(t, order.TotalPrice.Equal(evt.Order.TotalPrice))
	case <-time.After(2 * time.Second):
		t.Fatal("no message on redis channel")
	}
}

func TestRedisBroadcaster_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	err := NewRedisBroadcaster(client, DefaultRedisChannel).Publish(context.Background(), OrderCreatedEvent(testOrder()))
	assert.Error(t, err)
}

func TestRedisRelay_FansOutToHub(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 4)
	sub := hub.Subscribe()
	defer sub.Close()

	relay := NewRedisRelay(client, DefaultRedisChannel, hub, logger.Discard())
	require.NoError(t, relay.Start(ctx))
	defer relay.Close()

	// malformed payloads are skipped
	require.NoError(t, client.Publish(ctx, DefaultRedisChannel, "not json").Err())

	order := testOrder()
	require.NoError(t, NewRedisBroadcaster(client, DefaultRedisChannel).Publish(ctx, OrderCreatedEvent(order)))

	select {
	case evt := <-sub.Events():
		assert.Equal(t, order.ID, evt.Order.ID)
		assert.Equal(t, order.Status, evt.Order.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not forward the event")
	}
}

func TestRedisRelay_CloseWithoutStart(t *testing.T) {
	client, _ := setupTestRedis(t)
	relay := NewRedisRelay(client, DefaultRedisChannel, newTestHub(t, 1), logger.Discard())
	assert.NoError(t, relay.Close())
}
