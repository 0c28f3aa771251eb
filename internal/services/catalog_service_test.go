package services_test

import (
	"context"
	"testing"

	"petshop/internal/apperr"
	"petshop/internal/repos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogList_HidesInactiveAndNormalizesSort(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.pet(t, "Bravo", "200", 1)
	e.pet(t, "Alpha", "300", 1)
	hidden := e.pet(t, "Charlie", "100", 1)
	_, err := e.admin.TogglePetActive(ctx, hidden)
	require.NoError(t, err)

	pp, err := e.catalog.List(ctx, repos.PetFilter{Sort: "bogus", IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, pp.Total)
	assert.Equal(t, repos.SortDefault, pp.Filter.Sort)
	assert.Equal(t, 1, pp.Page)
	assert.Equal(t, 1, pp.TotalPages)

	pp, err = e.catalog.List(ctx, repos.PetFilter{Sort: repos.SortName})
	require.NoError(t, err)
	require.Len(t, pp.Pets, 2)
	assert.Equal(t, "Alpha", pp.Pets[0].Name)
}

func TestCatalogDetails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	milo := e.pet(t, "Milo", "100", 1)
	e.pet(t, "Luna", "100", 1)

	d, err := e.catalog.Details(ctx, milo)
	require.NoError(t, err)
	assert.Equal(t, "Milo", d.Pet.Name)
	assert.Equal(t, "Dogs", d.Pet.CategoryName)
	require.Len(t, d.Related, 1)
	assert.Equal(t, "Luna", d.Related[0].Name)

	_, err = e.admin.TogglePetActive(ctx, milo)
	require.NoError(t, err)
	_, err = e.catalog.Details(ctx, milo)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCatalogCategoryAndSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.pet(t, "Milo", "100", 1)

	cp, err := e.catalog.Category(ctx, e.catID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "Dogs", cp.Category.Name)
	assert.Len(t, cp.Pets, 1)

	_, err = e.catalog.Category(ctx, 9999, 1, "")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	sp, err := e.catalog.Search(ctx, "milo breed", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sp.Total)

	sp, err = e.catalog.Search(ctx, "parrot", 1)
	require.NoError(t, err)
	assert.Zero(t, sp.Total)

	cats, err := e.catalog.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 1, cats[0].PetCount)
}

func TestCatalogAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	milo := e.pet(t, "Milo", "100", 3)

	a, err := e.catalog.Availability(ctx, milo)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Stock)
	assert.True(t, a.Available)

	_, err = e.admin.TogglePetActive(ctx, milo)
	require.NoError(t, err)
	a, err = e.catalog.Availability(ctx, milo)
	require.NoError(t, err)
	assert.False(t, a.Available)
	assert.Zero(t, a.Stock)

	_, err = e.catalog.Availability(ctx, 9999)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
