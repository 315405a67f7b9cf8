package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/pkg/circuitbreaker"
	"github.com/sirupsen/logrus"
)

const (
	publishTimeout   = 2 * time.Second
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Notifier emits order events on a best-effort basis. Failures are logged and
// never returned to the caller.
type Notifier struct {
	broadcaster Broadcaster
	breaker     *circuitbreaker.Breaker
	log         logrus.FieldLogger
	timeout     time.Duration
}

func NewNotifier(broadcaster Broadcaster, log logrus.FieldLogger) *Notifier {
	onChange := func(from, to circuitbreaker.State) {
		log.WithFields(logrus.Fields{
			"from": from.String(),
			"to":   to.String(),
		}).Warn("Order notification breaker changed state")
	}
	return &Notifier{
		broadcaster: broadcaster,
		breaker:     circuitbreaker.New("order-notifications", breakerThreshold, breakerCooldown, onChange),
		log:         log,
		timeout:     publishTimeout,
	}
}

func (n *Notifier) OrderCreated(ctx context.Context, order *domain.Order) {
	fields := logrus.Fields{
		"order_id": order.ID.String(),
		"user_id":  order.UserID,
	}

	err := n.publish(ctx, OrderCreatedEvent(order))
	if err != nil {
		n.log.WithFields(fields).WithError(err).Error("Failed to emit order:new event")
		return
	}
	n.log.WithFields(fields).Info("New order event emitted")
}

func (n *Notifier) publish(ctx context.Context, event Event) error {
	// the request context may already be cancelled once the response is written
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	return n.breaker.Execute(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("publish panicked: %v", r)
			}
		}()
		return n.broadcaster.Publish(pubCtx, event)
	})
}
