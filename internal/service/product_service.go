package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/DimasB1221/I-commerce/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

type ProductService struct {
	repo repository.ProductRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewProductService(repo repository.ProductRepository, log logrus.FieldLogger) *ProductService {
	return &ProductService{repo: repo, log: log, now: time.Now}
}

// maxPriceDecimals matches the scale of stored order totals.
const maxPriceDecimals = 2

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case in.Price.IsNegative():
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case !in.Price.Equal(in.Price.Round(maxPriceDecimals)):
		return nil, fmt.Errorf("%w: price must have at most %d decimal places", ErrInvalidProduct, maxPriceDecimals)
	case in.Stock < 0:
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product %q: %w", name, err)
	}

	s.log.WithFields(logrus.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product created")
	return product, nil
}

// GetProduct also serves as the ProductLookup used by carts and orders.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
