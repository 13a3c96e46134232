//go:build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/ikkim/shopcart-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shopcart"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Open(gormpostgres.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	t.Cleanup(func() { db.CleanupTestDB(conn) })

	return conn
}

func TestPostgres_CartLifecycle(t *testing.T) {
	conn := setupPostgres(t)
	ctx := context.Background()

	productRepo := repository.NewProductRepository(conn)
	cartRepo := repository.NewCartRepository(conn)

	product := &model.Product{
		ID:            uuid.NewString(),
		Name:          "Mechanical Keyboard",
		Price:         decimal.RequireFromString("89.90"),
		StockQuantity: 20,
		IsActive:      true,
	}
	require.NoError(t, productRepo.Create(ctx, product))

	cart := model.NewCart(uuid.NewString(), "user-1")
	require.NoError(t, cartRepo.Create(ctx, cart))

	duplicate := model.NewCart(uuid.NewString(), "user-1")
	assert.ErrorIs(t, cartRepo.Create(ctx, duplicate), gorm.ErrDuplicatedKey)

	loaded, err := cartRepo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	loaded.AppendItem(model.CartItem{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Quantity:  2,
		Price:     product.Price,
	})
	loaded.RecalculateTotals()
	require.NoError(t, cartRepo.Save(ctx, loaded))

	stored, err := cartRepo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "179.80", stored.Total.StringFixed(2))
}

func TestPostgres_StaleSaveRejected(t *testing.T) {
	conn := setupPostgres(t)
	ctx := context.Background()
	cartRepo := repository.NewCartRepository(conn)

	require.NoError(t, cartRepo.Create(ctx, model.NewCart(uuid.NewString(), "user-1")))

	first, err := cartRepo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	second, err := cartRepo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, cartRepo.Save(ctx, first))
	assert.ErrorIs(t, cartRepo.Save(ctx, second), repository.ErrStaleCart)
}
