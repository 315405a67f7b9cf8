package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DimasB1221/I-commerce/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestPostgres(t *testing.T) (*PostgresOrderRepository, func()) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations/orders",
	}

	repo, err := NewPostgresOrderRepository(creds)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(creds))

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder(userID string, createdAt time.Time) *domain.Order {
	return domain.NewOrder(userID, []domain.OrderItem{
		{ProductID: "p1", Name: "Laptop", UnitPrice: decimal.RequireFromString("99.99"), Quantity: 2},
	}, createdAt)
}

func TestPostgresCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestPostgres(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("user-123", time.Now().UTC())

	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.UserID, fetched.UserID)
	assert.True(t, order.TotalPrice.Equal(fetched.TotalPrice), "total %s != %s", order.TotalPrice, fetched.TotalPrice)
	assert.Equal(t, domain.OrderStatusPending, fetched.Status)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "Laptop", fetched.Items[0].Name)
	assert.True(t, fetched.Items[0].UnitPrice.Equal(decimal.RequireFromString("99.99")))
}

func TestPostgresGetOrderByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestPostgres(t)
	defer cleanup()

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPostgresListOrdersByUserID_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestPostgres(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()
	older := newTestOrder("user-list", now.Add(-time.Minute))
	newer := newTestOrder("user-list", now)
	require.NoError(t, repo.CreateOrder(ctx, older))
	require.NoError(t, repo.CreateOrder(ctx, newer))
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("someone-else", now)))

	orders, err := repo.ListOrdersByUserID(ctx, "user-list")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestPostgresUpdateStatus(t *testing.T) {
	repo, cleanup := setupTestPostgres(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("user-123", time.Now().UTC())
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusPaid))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, fetched.Status)

	err = repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrStatusChanged)

	err = repo.UpdateStatus(ctx, uuid.New(), domain.OrderStatusPending, domain.OrderStatusPaid)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
