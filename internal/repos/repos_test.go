package repos

import (
	"context"
	"testing"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB(context.Background(), Options{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seededDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, Seed(context.Background(), db))
	return db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db))

	var users, cats, pets int
	require.NoError(t, db.Get(&users, `SELECT COUNT(*) FROM users`))
	require.NoError(t, db.Get(&cats, `SELECT COUNT(*) FROM categories`))
	require.NoError(t, db.Get(&pets, `SELECT COUNT(*) FROM pets`))
	assert.Equal(t, len(DefaultAccounts), users)
	assert.Equal(t, len(seedCategories), cats)
	assert.Equal(t, len(seedPets), pets)
}

func TestAdjustStockGuard(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	inv := NewInventoryRepo(db)

	var petID int64
	require.NoError(t, db.Get(&petID, `SELECT id FROM pets WHERE name = 'Mochi'`))

	left, err := inv.AdjustStock(ctx, petID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	_, err = inv.AdjustStock(ctx, petID, -1)
	require.ErrorIs(t, err, ErrStockGuard)

	left, err = inv.AdjustStock(ctx, petID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, left)

	_, err = inv.AdjustStock(ctx, 999999, 1)
	require.ErrorIs(t, err, ErrStockGuard)
}

func TestStockCheckConstraint(t *testing.T) {
	db := seededDB(t)
	_, err := db.Exec(`UPDATE pets SET stock_quantity = -1 WHERE name = 'Mochi'`)
	require.Error(t, err)
}

func TestPetListFiltersAndSorts(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	pets := NewPetRepo(db)

	all, total, err := pets.List(ctx, PetFilter{})
	require.NoError(t, err)
	assert.Equal(t, len(seedPets), total)
	require.NotEmpty(t, all)
	assert.True(t, all[0].IsFeatured, "default sort puts featured first")

	asc, _, err := pets.List(ctx, PetFilter{Sort: SortPriceAsc})
	require.NoError(t, err)
	for i := 1; i < len(asc); i++ {
		assert.False(t, asc[i].EffectivePrice().LessThan(asc[i-1].EffectivePrice()))
	}

	// Golden Retriever lists at 1500 but sells at 1200.
	ranged, _, err := pets.List(ctx, PetFilter{
		MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(1250)),
	})
	require.NoError(t, err)
	names := []string{}
	for _, p := range ranged {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Golden Retriever", "Husky Pup"}, names)

	byBreed, total, err := pets.List(ctx, PetFilter{Search: "POODLE"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Milo", byBreed[0].Name)

	paged, total, err := pets.List(ctx, PetFilter{PageSize: 4, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, len(seedPets), total)
	assert.Len(t, paged, len(seedPets)-8)
}

func TestPetToggleAndInactiveHidden(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	pets := NewPetRepo(db)

	var id int64
	require.NoError(t, db.Get(&id, `SELECT id FROM pets WHERE name = 'Kiwi'`))

	active, err := pets.ToggleActive(ctx, id)
	require.NoError(t, err)
	assert.False(t, active)

	_, total, err := pets.List(ctx, PetFilter{Search: "kiwi"})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = pets.List(ctx, PetFilter{Search: "kiwi", IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	featured, err := pets.ToggleFeatured(ctx, id)
	require.NoError(t, err)
	assert.True(t, featured)
}

func TestCategoriesCountActivePets(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	_, err := db.Exec(`UPDATE pets SET is_active = 0 WHERE name = 'Milo'`)
	require.NoError(t, err)

	cats, err := NewCategoryRepo(db).ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(seedCategories))
	assert.Equal(t, "Dogs", cats[0].Name)
	assert.Equal(t, 2, cats[0].PetCount)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE pets SET stock_quantity = 0`); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var zero int
	require.NoError(t, db.Get(&zero, `SELECT COUNT(*) FROM pets WHERE stock_quantity = 0`))
	assert.Zero(t, zero)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = WithTx(ctx, db, func(tx *sqlx.Tx) error {
			_, _ = tx.ExecContext(ctx, `DELETE FROM pets`)
			panic("boom")
		})
	})

	n, err := NewPetRepo(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(seedPets), n)
}

func TestDeleteUserWithOrdersIsRestricted(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	u, err := users.ByEmail(ctx, "ALICE@petshop.test")
	require.NoError(t, err)

	_, err = NewOrderRepo(db).Create(ctx, domain.Order{
		OrderNumber: "PS1", UserID: u.ID, Status: domain.OrderPending,
		SubTotal: decimal.NewFromInt(1), TotalAmount: decimal.NewFromInt(1),
		ShippingName: "A", ShippingPhone: "0123456789", ShippingAddress: "x",
		PaymentMethod: domain.PaymentCOD, PaymentStatus: domain.PaymentPending,
	})
	require.NoError(t, err)

	require.Error(t, users.Delete(ctx, u.ID))
}
