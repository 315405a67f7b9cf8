package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const DefaultKafkaTopic = "order-events"

// relayPartition is the only partition relays read; every event is written
// there regardless of how many partitions the topic has.
const relayPartition = 0

var toRelayPartition = kafka.BalancerFunc(func(kafka.Message, ...int) int {
	return relayPartition
})

type KafkaBroadcaster struct {
	writer *kafka.Writer
}

func NewKafkaBroadcaster(topic string, brokers ...string) *KafkaBroadcaster {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               toRelayPartition,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaBroadcaster{writer: w}
}

func (b *KafkaBroadcaster) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	msg := kafka.Message{
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if event.Order != nil {
		msg.Key = []byte(event.Order.ID.String())
	}

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish failed: %w", err)
	}
	return nil
}

func (b *KafkaBroadcaster) Close() error {
	return b.writer.Close()
}

// KafkaRelay tails the event topic from its end without a consumer group, so
// every replica receives each event published after the relay started.
type KafkaRelay struct {
	reader *kafka.Reader
	hub    *Hub
	log    logrus.FieldLogger
}

func NewKafkaRelay(hub *Hub, log logrus.FieldLogger, topic string, brokers ...string) *KafkaRelay {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		Partition:   relayPartition,
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6, // 10MB
	})
	return &KafkaRelay{reader: reader, hub: hub, log: log}
}

func (r *KafkaRelay) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		r.relayMessage(ctx)
	}
}

func (r *KafkaRelay) relayMessage(ctx context.Context) {
	m, err := r.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		r.log.WithError(err).Warn("Error reading order event from kafka")
		return
	}

	var event Event
	if err := json.Unmarshal(m.Value, &event); err != nil {
		r.log.WithError(err).WithField("offset", m.Offset).Warn("Discarding malformed event from kafka")
		return
	}
	r.hub.Broadcast(event)
}

func (r *KafkaRelay) Close() {
	if err := r.reader.Close(); err != nil {
		r.log.WithError(err).Warn("Error closing kafka reader")
	}
}
