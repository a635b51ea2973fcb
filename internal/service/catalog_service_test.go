package service

import (
	"context"
	"testing"

	"ravito/internal/dto"
	"ravito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flag() model.Product {
	return model.Product{
		Reference: "FLAG-65", Name: "Flag 65cl", Brand: "Solibra", Category: "Bière", CrateType: "C12",
		CratePrice: decimal.NewFromInt(7800), ConsignePrice: decimal.NewFromInt(3000), UnitPrice: decimal.NewFromInt(650),
	}
}

func TestCatalog_ListIsCached(t *testing.T) {
	products := newMemProducts()
	products.add(flag())
	cache := newMemCache()
	svc := NewCatalogService(products, cache, testConfig())
	ctx := context.Background()

	first, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Consignable)

	second, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, products.listed)
	assert.Equal(t, 1, cache.sets)
}

func TestCatalog_WritesInvalidateCache(t *testing.T) {
	products := newMemProducts()
	cache := newMemCache()
	svc := NewCatalogService(products, cache, testConfig())
	ctx := context.Background()

	_, _ = svc.ListProducts(ctx)
	_, err := svc.CreateProduct(ctx, dto.ProductRequest{
		Reference: " castel-65 ", Name: "Castel 65cl", Brand: "Solibra", Category: "Bière", CrateType: "c12",
		CratePrice: decimal.NewFromInt(8400), UnitPrice: decimal.NewFromInt(700),
	})
	require.NoError(t, err)
	_, ok := cache.data[catalogCacheKey]
	assert.False(t, ok)

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CASTEL-65", list[0].Reference)
	assert.Equal(t, "C12", list[0].CrateType)
	assert.False(t, list[0].Consignable)
	assert.Equal(t, 2, products.listed)
}

func TestCatalog_OrganizationPrices(t *testing.T) {
	products := newMemProducts()
	p := products.add(flag())
	svc := NewCatalogService(products, newMemCache(), testConfig())
	ctx := context.Background()
	org := uuid.New()

	_, err := svc.SetOrganizationPrice(ctx, org, p.ID, dto.OrganizationPriceRequest{SellingPrice: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	_, err = svc.SetOrganizationPrice(ctx, org, p.ID, dto.OrganizationPriceRequest{SellingPrice: decimal.NewFromInt(1100)})
	require.NoError(t, err)

	prices, err := svc.ListOrganizationPrices(ctx, org)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.True(t, prices[0].SellingPrice.Equal(decimal.NewFromInt(1100)))
	assert.Equal(t, "Flag 65cl", prices[0].ProductName)

	_, err = svc.SetOrganizationPrice(ctx, org, uuid.New(), dto.OrganizationPriceRequest{SellingPrice: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDirectory(t *testing.T) {
	orgs := newMemOrgs()
	o := orgs.add("Dépôt du Plateau", model.OrgTypeSupplier)
	reps := &memReps{reps: []model.SalesRepresentative{
		{ID: uuid.New(), Name: "Koné Ibrahim", Active: true},
		{ID: uuid.New(), Name: "Ancien", Active: false},
	}}
	svc := NewDirectoryService(orgs, reps)
	ctx := context.Background()

	name, err := svc.OrganizationName(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dépôt du Plateau", name.Name)

	_, err = svc.OrganizationName(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrOrgNotFound)

	list, err := svc.SalesRepresentatives(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Koné Ibrahim", list[0].Name)
}
