package repository

import (
	"context"
	"errors"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrCartNotFound           = errors.New("cart not found")
	ErrConcurrentModification = errors.New("cart was modified concurrently")
	ErrOrderNotFound          = errors.New("order not found")
	ErrStatusChanged          = errors.New("order status changed concurrently")
	ErrProductNotFound        = errors.New("product not found")
	ErrDuplicateProduct       = errors.New("product already exists")
)

// CartRepository defines the interface for cart data operations
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// UpsertCart stores cart if its Version still matches the stored one and
	// bumps cart.Version on success.
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	// ClearItems empties the item list but keeps the cart record.
	ClearItems(ctx context.Context, userID string) error
	DeleteCart(ctx context.Context, userID string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	// UpdateStatus moves the order from one status to another and fails with
	// ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}
