package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderNotifier announces newly placed orders. Implementations must not fail
// the caller.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order *domain.Order)
}

type OrderService struct {
	orders   repository.OrderRepository
	carts    *CartService
	products ProductLookup
	notifier OrderNotifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewOrderService(orders repository.OrderRepository, carts *CartService, products ProductLookup, notifier OrderNotifier, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// PlaceOrder turns the user's cart into a pending order priced at the current
// catalog prices, announces it and drains the cart. The cart is left untouched
// when the order cannot be stored.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string) (*domain.Order, error) {
	var order *domain.Order

	err := s.carts.Checkout(ctx, userID, func(cart *domain.Cart) error {
		items, err := s.snapshot(ctx, cart)
		if err != nil {
			return err
		}

		placed := domain.NewOrder(userID, items, s.now().UTC())
		if err := s.orders.CreateOrder(ctx, placed); err != nil {
			return fmt.Errorf("create order for user %s: %w", userID, err)
		}
		order = placed

		s.log.WithFields(logrus.Fields{
			"user_id":  userID,
			"order_id": placed.ID.String(),
			"total":    placed.TotalPrice.String(),
			"items":    len(placed.Items),
		}).Info("Order placed")

		s.notifier.OrderCreated(ctx, placed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) snapshot(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("snapshot product %s for user %s: %w", line.ProductID, cart.UserID, err)
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
	}
	return items, nil
}

// ListOrders returns the user's orders newest first. A user without orders
// gets ErrNoOrders rather than an empty slice.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.orders.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %s: %w", userID, err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("list orders for user %s: %w", userID, ErrNoOrders)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

// UpdateStatus moves an order along the fulfilment lifecycle. The write only
// lands if the order still has the status it was validated against.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("update order %s to %q: %w", orderID, status, err)
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}

	current := order.Status
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("order %s from %s to %s: %w", orderID, current, next, ErrIllegalTransition)
	}

	err = s.orders.UpdateStatus(ctx, orderID, current, next)
	switch {
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, fmt.Errorf("order %s from %s to %s: %w: %w", orderID, current, next, ErrConcurrentModification, err)
	case err != nil:
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID.String(),
		"from":     current.String(),
		"to":       next.String(),
	}).Info("Order status updated")

	updated, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return updated, nil
}
