package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultRedisChannel = "orders:events"

// RedisBroadcaster publishes events on a Redis pub/sub channel so that every
// replica running a RedisRelay forwards them to its own listeners.
type RedisBroadcaster struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisBroadcaster(client redis.UniversalClient, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// RedisRelay subscribes to the Redis channel and rebroadcasts into a Hub.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
	log     logrus.FieldLogger

	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

func NewRedisRelay(client redis.UniversalClient, channel string, hub *Hub, log logrus.FieldLogger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, log: log}
}

// Start returns once the subscription is confirmed by the server; messages are
// then relayed in the background until ctx is done or Close is called.
func (r *RedisRelay) Start(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("redis subscribe failed: %w", err)
	}
	r.pubsub = pubsub

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, pubsub.Channel())
	}()
	return nil
}

func (r *RedisRelay) run(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.WithError(err).Warn("Discarding malformed event from redis")
				continue
			}
			r.hub.Broadcast(event)
		}
	}
}

func (r *RedisRelay) Close() error {
	if r.pubsub == nil {
		return nil
	}
	err := r.pubsub.Close()
	r.wg.Wait()
	return err
}
