package repository

import (
	"context"
	"sync"
	"time"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/google/uuid"
)

// MemoryCartRepository keeps carts in process memory. It applies the same
// version check as the MongoDB repository.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return copyCart(cart), nil
}

func (m *MemoryCartRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	stored, ok := m.carts[cart.UserID]
	switch {
	case ok && stored.Version != cart.Version:
		return ErrConcurrentModification
	case !ok && cart.Version != 0:
		return ErrConcurrentModification
	}

	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.Version++
	cart.UpdatedAt = now

	m.carts[cart.UserID] = copyCart(cart)
	return nil
}

func (m *MemoryCartRepository) ClearItems(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[userID]
	if !ok {
		return ErrCartNotFound
	}
	cart.Items = []domain.CartItem{}
	cart.Version++
	cart.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[userID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	if cp.Items == nil {
		cp.Items = []domain.CartItem{}
	}
	return &cp
}
