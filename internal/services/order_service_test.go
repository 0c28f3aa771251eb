package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"petshop/internal/apperr"
	"petshop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrder_WritesOrderDetailsAndStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	luna := e.pet(t, "Luna", "12.50", 2)

	require.NoError(t, e.carts.Add(ctx, uid, milo, 2))
	require.NoError(t, e.carts.Add(ctx, uid, luna, 2))

	o, err := e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.True(t, o.SubTotal.Equal(decimal.RequireFromString("225")), o.SubTotal.String())
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("247.5")), o.TotalAmount.String())
	assert.True(t, o.ShippingFee.IsZero())
	assert.LessOrEqual(t, len(o.OrderNumber), 20)
	assert.Regexp(t, `^PS[0-9A-Z]+$`, o.OrderNumber)
	require.Len(t, o.Details, 2)

	left, active := e.stock(t, milo)
	assert.Equal(t, 3, left)
	assert.True(t, active)

	// Selling the last units switches the pet off.
	left, active = e.stock(t, luna)
	assert.Equal(t, 0, left)
	assert.False(t, active)

	n, err := e.carts.Count(ctx, uid)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := e.orders.GetForUser(ctx, uid, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Details, 2)
	assert.Equal(t, "Milo", stored.Details[0].PetName)
	assert.True(t, stored.Details[1].TotalPrice.Equal(decimal.RequireFromString("25")))
	assert.True(t, stored.TotalAmount.Equal(o.TotalAmount))
}

func TestPlaceOrder_EmptyCartMutatesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)

	_, err := e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeEmptyCart, apperr.CodeOf(err))
	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM orders`))
}

func TestPlaceOrder_ValidationKeepsCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	require.NoError(t, e.carts.Add(ctx, uid, milo, 1))

	form := validCheckout()
	form.ShippingName = "  "
	form.PaymentMethod = "Barter"

	_, err := e.orders.PlaceOrder(ctx, uid, form)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code())
	assert.Contains(t, ae.Fields(), "shipping_name")
	assert.Contains(t, ae.Fields(), "payment_method")

	n, err := e.carts.Count(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	left, _ := e.stock(t, milo)
	assert.Equal(t, 5, left)
	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM orders`))
}

func TestPlaceOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	luna := e.pet(t, "Luna", "50", 3)

	require.NoError(t, e.carts.Add(ctx, uid, milo, 2))
	require.NoError(t, e.carts.Add(ctx, uid, luna, 3))
	// Stock drops after the cart was filled.
	_, err := e.db.Exec(`UPDATE pets SET stock_quantity = 1 WHERE id = ?`, luna)
	require.NoError(t, err)

	_, err = e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))

	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM order_details`))
	left, _ := e.stock(t, milo)
	assert.Equal(t, 5, left, "earlier decrement rolled back")
	n, err := e.carts.Count(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestPlaceOrder_StoreFailureRollsBackWithGenericError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	require.NoError(t, e.carts.Add(ctx, uid, milo, 2))

	// Fail the last statement of the transaction, after order, details and
	// stock were already written.
	_, err := e.db.Exec(`CREATE TRIGGER cart_clear_fails BEFORE DELETE ON cart_items
		BEGIN SELECT RAISE(ABORT, 'disk I/O error on cart_items'); END`)
	require.NoError(t, err)

	_, err = e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTransaction, apperr.CodeOf(err))
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.MetadataFor(apperr.CodeTransaction).PublicMessage, ae.Public())
	assert.NotContains(t, ae.Public(), "disk")

	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM order_details`))
	left, active := e.stock(t, milo)
	assert.Equal(t, 5, left)
	assert.True(t, active)
	n, err := e.carts.Count(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPlaceOrder_SecondPlaceFindsEmptyCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	require.NoError(t, e.carts.Add(ctx, uid, milo, 1))

	_, err := e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.NoError(t, err)

	_, err = e.orders.PlaceOrder(ctx, uid, validCheckout())
	assert.Equal(t, apperr.CodeEmptyCart, apperr.CodeOf(err))

	assert.Equal(t, 1, e.count(t, `SELECT COUNT(*) FROM orders`))
	left, _ := e.stock(t, milo)
	assert.Equal(t, 4, left)
}

func TestPlaceOrder_CartConsumedMidCheckout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	require.NoError(t, e.carts.Add(ctx, uid, milo, 2))

	// Another checkout empties the cart after this one took its snapshot.
	_, err := e.db.Exec(`CREATE TRIGGER cart_taken AFTER INSERT ON orders
		BEGIN DELETE FROM cart_items WHERE user_id = NEW.user_id; END`)
	require.NoError(t, err)

	_, err = e.orders.PlaceOrder(ctx, uid, validCheckout())
	assert.Equal(t, apperr.CodeEmptyCart, apperr.CodeOf(err))

	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM orders`))
	left, _ := e.stock(t, milo)
	assert.Equal(t, 5, left)
	n, err := e.carts.Count(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the trigger's delete rolls back with the order")
}

func TestPlaceOrder_CartChangedMidCheckout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	luna := e.pet(t, "Luna", "50", 5)
	require.NoError(t, e.carts.Add(ctx, uid, milo, 1))

	// A line appears after the snapshot was read.
	_, err := e.db.Exec(fmt.Sprintf(`CREATE TRIGGER cart_grows AFTER INSERT ON orders
		BEGIN INSERT INTO cart_items(user_id, pet_id, quantity, unit_price)
		VALUES (NEW.user_id, %d, 1, 50); END`, luna))
	require.NoError(t, err)

	_, err = e.orders.PlaceOrder(ctx, uid, validCheckout())
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	assert.Zero(t, e.count(t, `SELECT COUNT(*) FROM orders`))
	left, _ := e.stock(t, milo)
	assert.Equal(t, 5, left)
}

func TestPlaceOrder_ConcurrentSubmitsOfOneCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 5)
	require.NoError(t, e.carts.Add(ctx, uid, milo, 1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orders.PlaceOrder(ctx, uid, validCheckout())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperr.CodeEmptyCart, apperr.CodeOf(err))
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, e.count(t, `SELECT COUNT(*) FROM orders`))
	left, _ := e.stock(t, milo)
	assert.Equal(t, 4, left)
}

func TestPlaceOrder_LastUnitRaceHasOneWinner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	last := e.pet(t, "Solo", "300", 1)

	users := []string{e.user(t), e.user(t)}
	for _, uid := range users {
		require.NoError(t, e.carts.Add(ctx, uid, last, 1))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, uid := range users {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = e.orders.PlaceOrder(ctx, uid, validCheckout())
		}(i, uid)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))
	}
	assert.Equal(t, 1, wins)

	left, active := e.stock(t, last)
	assert.Equal(t, 0, left)
	assert.False(t, active)
	assert.Equal(t, 1, e.count(t, `SELECT COUNT(*) FROM orders`))
}

func TestCancelOrder_RestoresStockAndReactivates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 2)

	require.NoError(t, e.carts.Add(ctx, uid, milo, 2))
	o, err := e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.NoError(t, err)
	_, active := e.stock(t, milo)
	require.False(t, active)

	require.NoError(t, e.orders.CancelOrder(ctx, uid, o.ID))

	left, active := e.stock(t, milo)
	assert.Equal(t, 2, left)
	assert.True(t, active)

	got, err := e.orders.GetForUser(ctx, uid, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)
	assert.NotNil(t, got.UpdatedAt)

	err = e.orders.CancelOrder(ctx, uid, o.ID)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
	left, _ = e.stock(t, milo)
	assert.Equal(t, 2, left, "second cancel must not restore twice")
}

func TestCancelOrder_ReactivatesAdminHiddenPet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 4)

	require.NoError(t, e.carts.Add(ctx, uid, milo, 1))
	o, err := e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.NoError(t, err)

	active, err := e.admin.TogglePetActive(ctx, milo)
	require.NoError(t, err)
	require.False(t, active)

	require.NoError(t, e.orders.CancelOrder(ctx, uid, o.ID))
	_, active = e.stock(t, milo)
	assert.True(t, active)
}

func TestCancelOrder_OnlyPending(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "100", 4)

	require.NoError(t, e.carts.Add(ctx, uid, milo, 1))
	o, err := e.orders.PlaceOrder(ctx, uid, validCheckout())
	require.NoError(t, err)
	require.NoError(t, e.admin.UpdateOrderStatus(ctx, o.ID, "Shipping"))

	err = e.orders.CancelOrder(ctx, uid, o.ID)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
	left, _ := e.stock(t, milo)
	assert.Equal(t, 3, left)
}

func TestCancelOrder_ForeignOrderIsNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, other := e.user(t), e.user(t)
	milo := e.pet(t, "Milo", "100", 4)

	require.NoError(t, e.carts.Add(ctx, owner, milo, 1))
	o, err := e.orders.PlaceOrder(ctx, owner, validCheckout())
	require.NoError(t, err)

	err = e.orders.CancelOrder(ctx, other, o.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	_, err = e.orders.GetForUser(ctx, other, o.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	got, err := e.orders.GetForUser(ctx, owner, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, got.Status)
	left, _ := e.stock(t, milo)
	assert.Equal(t, 3, left)

	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(e.orders.CancelOrder(ctx, owner, 9999)))
}

func TestListForUser_PagesNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	uid := e.user(t)
	milo := e.pet(t, "Milo", "10", 50)

	var last int64
	for i := 0; i < 12; i++ {
		require.NoError(t, e.carts.Add(ctx, uid, milo, 1))
		o, err := e.orders.PlaceOrder(ctx, uid, validCheckout())
		require.NoError(t, err)
		last = o.ID
	}

	p1, err := e.orders.ListForUser(ctx, uid, 1)
	require.NoError(t, err)
	assert.Equal(t, 12, p1.Total)
	assert.Equal(t, 2, p1.TotalPages)
	require.Len(t, p1.Orders, 10)
	assert.Equal(t, last, p1.Orders[0].ID)
	assert.Equal(t, 1, p1.Orders[0].ItemCount())

	p2, err := e.orders.ListForUser(ctx, uid, 2)
	require.NoError(t, err)
	assert.Len(t, p2.Orders, 2)

	other, err := e.orders.ListForUser(ctx, e.user(t), 1)
	require.NoError(t, err)
	assert.Empty(t, other.Orders)
}

