// Package notify delivers real-time order events to connected listeners.
package notify

import (
	"context"

	"github.com/DimasB1221/I-commerce/internal/domain"
)

const EventOrderNew = "order:new"

type Event struct {
	Type    string        `json:"type"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func OrderCreatedEvent(order *domain.Order) Event {
	return Event{
		Type:    EventOrderNew,
		Message: "New order created",
		Order:   order,
	}
}

// Broadcaster sends an event to every listener currently attached to the
// channel. Listeners that attach later never see it.
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
}
