package repository

import (
	"context"
	"testing"

	"github.com/ikkim/shopcart-backend/internal/app/model"
	"github.com/ikkim/shopcart-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	products := NewProductRepository(testDB)
	for _, p := range []*model.Product{
		newProduct("p-1", "Wireless Mouse", "29.99", 100, true),
		newProduct("p-2", "USB-C Cable", "9.90", 100, true),
	} {
		require.NoError(t, products.Create(context.Background(), p))
	}

	return testDB, NewCartRepository(testDB)
}

func TestCartRepository_FindByUserID_NotFound(t *testing.T) {
	_, repo := setupCartTest(t)

	_, err := repo.FindByUserID(context.Background(), "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_CreateEmptyCart(t *testing.T) {
	_, repo := setupCartTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, model.NewCart("cart-1", "user-1")))

	found, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", found.ID)
	assert.NotNil(t, found.Items)
	assert.Empty(t, found.Items)
	assert.True(t, found.Total.IsZero())
	assert.Equal(t, 1, found.Version)
}

func TestCartRepository_Create_OneCartPerUser(t *testing.T) {
	_, repo := setupCartTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, model.NewCart("cart-1", "user-1")))
	err := repo.Create(ctx, model.NewCart("cart-2", "user-1"))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCartRepository_SaveReplacesItemsInOrder(t *testing.T) {
	_, repo := setupCartTest(t)
	ctx := context.Background()

	cart := model.NewCart("cart-1", "user-1")
	require.NoError(t, repo.Create(ctx, cart))

	cart.AppendItem(model.CartItem{ID: "item-2", ProductID: "p-2", Quantity: 3, Price: decimal.RequireFromString("9.90")})
	cart.AppendItem(model.CartItem{ID: "item-1", ProductID: "p-1", Quantity: 2, Price: decimal.RequireFromString("29.99")})
	cart.RecalculateTotals()
	require.NoError(t, repo.Save(ctx, cart))
	assert.Equal(t, 2, cart.Version)

	found, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "item-2", found.Items[0].ID)
	assert.Equal(t, "item-1", found.Items[1].ID)
	assert.Equal(t, "89.68", found.Total.StringFixed(2))
	assert.Equal(t, 2, found.Version)

	found.RemoveItemAt(0)
	found.RecalculateTotals()
	require.NoError(t, repo.Save(ctx, found))

	again, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, again.Items, 1)
	assert.Equal(t, "item-1", again.Items[0].ID)
	assert.Equal(t, "59.98", again.Subtotal.StringFixed(2))
	assert.Equal(t, 3, again.Version)
}

func TestCartRepository_Save_StaleVersion(t *testing.T) {
	_, repo := setupCartTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, model.NewCart("cart-1", "user-1")))

	first, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	second, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)

	first.AppendItem(model.CartItem{ID: "item-1", ProductID: "p-1", Quantity: 1, Price: decimal.RequireFromString("29.99")})
	first.RecalculateTotals()
	require.NoError(t, repo.Save(ctx, first))

	second.AppendItem(model.CartItem{ID: "item-2", ProductID: "p-2", Quantity: 1, Price: decimal.RequireFromString("9.90")})
	second.RecalculateTotals()
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, ErrStaleCart)

	stored, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "item-1", stored.Items[0].ID)
}

func TestCartRepository_Save_ClearKeepsCart(t *testing.T) {
	_, repo := setupCartTest(t)
	ctx := context.Background()

	cart := model.NewCart("cart-1", "user-1")
	require.NoError(t, repo.Create(ctx, cart))
	cart.AppendItem(model.CartItem{ID: "item-1", ProductID: "p-1", Quantity: 1, Price: decimal.RequireFromString("29.99")})
	cart.RecalculateTotals()
	require.NoError(t, repo.Save(ctx, cart))

	cart.ClearItems()
	require.NoError(t, repo.Save(ctx, cart))

	found, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", found.ID)
	assert.Empty(t, found.Items)
	assert.True(t, found.Total.IsZero())
}

func TestCartRepository_Save_DuplicateProductRollsBack(t *testing.T) {
	_, repo := setupCartTest(t)
	ctx := context.Background()

	cart := model.NewCart("cart-1", "user-1")
	require.NoError(t, repo.Create(ctx, cart))

	cart.AppendItem(model.CartItem{ID: "item-1", ProductID: "p-1", Quantity: 1, Price: decimal.RequireFromString("29.99")})
	cart.AppendItem(model.CartItem{ID: "item-2", ProductID: "p-1", Quantity: 1, Price: decimal.RequireFromString("29.99")})
	cart.RecalculateTotals()

	err := repo.Save(ctx, cart)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	stored, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, stored.Items, "failed save must roll back")
	assert.Equal(t, 1, stored.Version)
}
