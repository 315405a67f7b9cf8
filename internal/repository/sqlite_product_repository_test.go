package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSQLite(t *testing.T) *SQLiteProductRepository {
	repo, err := NewSQLiteProductRepository(filepath.Join(t.TempDir(), "products.db"))
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations("./migrations/products"))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testProduct(id, name, price string) *domain.Product {
	return &domain.Product{
		ID:          id,
		Name:        name,
		Description: "test product",
		Category:    "electronics",
		Price:       decimal.RequireFromString(price),
		Stock:       10,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteCreateAndGetProduct(t *testing.T) {
	repo := setupTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, testProduct("p1", "Macbook", "200000.50")))

	p, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Macbook", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("200000.50")))
	assert.Equal(t, 10, p.Stock)
}

func TestSQLiteGetProduct_NotFound(t *testing.T) {
	repo := setupTestSQLite(t)

	_, err := repo.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSQLiteCreateProduct_DuplicateName(t *testing.T) {
	repo := setupTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, testProduct("p1", "Macbook", "1")))
	err := repo.CreateProduct(ctx, testProduct("p2", "Macbook", "2"))
	assert.ErrorIs(t, err, ErrDuplicateProduct)
}

func TestSQLiteGetAllProducts(t *testing.T) {
	repo := setupTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, testProduct("p1", "Mouse", "10")))
	require.NoError(t, repo.CreateProduct(ctx, testProduct("p2", "Keyboard", "20")))

	products, err := repo.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}
