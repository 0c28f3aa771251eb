package services_test

import (
	"context"
	"testing"

	"petshop/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAdd_MergesLinesAndRefreshesPrice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)

	require.NoError(t, e.carts.Add(ctx, uid, milo, 1))
	_, err := e.db.Exec(`UPDATE pets SET sale_price = 80 WHERE id = ?`, milo)
	require.NoError(t, err)
	require.NoError(t, e.carts.Add(ctx, uid, milo, 2))

	v, err := e.carts.View(ctx, uid)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.True(t, v.Items[0].UnitPrice.Equal(decimal.NewFromInt(80)))
	assert.True(t, v.SubTotal.Equal(decimal.NewFromInt(240)))
	assert.True(t, v.Tax.Equal(decimal.NewFromInt(24)))
	assert.True(t, v.Total.Equal(decimal.NewFromInt(264)))
	assert.Equal(t, 3, v.Units)
}

func TestCartAdd_RejectsOverStockAndInactive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 2)

	err := e.carts.Add(ctx, uid, milo, 3)
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))

	require.NoError(t, e.carts.Add(ctx, uid, milo, 2))
	err = e.carts.Add(ctx, uid, milo, 1)
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))

	_, err = e.admin.TogglePetActive(ctx, milo)
	require.NoError(t, err)
	err = e.carts.Add(ctx, e.user(t), milo, 1)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	err = e.carts.Add(ctx, uid, 424242, 1)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCartUpdateAndRemove_AreUserScoped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, other := e.user(t), e.user(t)
	milo := e.pet(t, "Milo", "100", 4)

	require.NoError(t, e.carts.Add(ctx, owner, milo, 1))
	v, err := e.carts.View(ctx, owner)
	require.NoError(t, err)
	itemID := v.Items[0].ID

	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(e.carts.UpdateQuantity(ctx, other, itemID, 2)))
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(e.carts.Remove(ctx, other, itemID)))

	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(e.carts.UpdateQuantity(ctx, owner, itemID, 0)))
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(e.carts.UpdateQuantity(ctx, owner, itemID, 5)))
	require.NoError(t, e.carts.UpdateQuantity(ctx, owner, itemID, 4))

	n, err := e.carts.Count(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, e.carts.Remove(ctx, owner, itemID))
	v, err = e.carts.View(ctx, owner)
	require.NoError(t, err)
	assert.True(t, v.Empty())
	assert.True(t, v.Total.IsZero())
}

func TestCartClear(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	require.NoError(t, e.carts.Add(ctx, uid, e.pet(t, "Milo", "100", 4), 1))
	require.NoError(t, e.carts.Add(ctx, uid, e.pet(t, "Luna", "50", 4), 2))

	require.NoError(t, e.carts.Clear(ctx, uid))
	n, err := e.carts.Count(ctx, uid)
	require.NoError(t, err)
	assert.Zero(t, n)
}
