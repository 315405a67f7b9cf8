package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/google/uuid"
)

type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *MemoryOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *MemoryOrderRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (m *MemoryOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, copyOrder(order))
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (m *MemoryOrderRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Status != from {
		return ErrStatusChanged
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return nil
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}
