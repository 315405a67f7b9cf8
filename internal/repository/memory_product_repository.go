package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/DimasB1221/I-commerce/internal/domain"
)

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewMemoryProductRepository(products ...*domain.Product) *MemoryProductRepository {
	m := &MemoryProductRepository{products: make(map[string]*domain.Product)}
	for _, p := range products {
		cp := *p
		m.products[p.ID] = &cp
	}
	return m
}

func (m *MemoryProductRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryProductRepository) GetAllProducts(_ context.Context) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		cp := *p
		products = append(products, &cp)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (m *MemoryProductRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.Name == p.Name {
			return ErrDuplicateProduct
		}
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

// UpdateProduct replaces a stored product, e.g. a catalog price change.
func (m *MemoryProductRepository) UpdateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; !ok {
		return ErrProductNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}
