package bootstrap

import (
	"context"
	"testing"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStores_SQLite(t *testing.T) {
	ctx := context.Background()
	stores, err := OpenStores(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(stores.Close)

	require.NoError(t, stores.Ping(ctx))

	p := &domain.Product{Kind: domain.ProductKindVisa, Name: "Tourist visa", PriceCents: 6000, Currency: "usd", Active: true}
	require.NoError(t, stores.Products.Create(ctx, p))

	products, err := stores.Products.List(ctx, repository.ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	_, err := OpenStores(context.Background(), config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	assert.Error(t, err)
}
