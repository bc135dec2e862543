package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

func TestPriceCacheStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceCacheStore(pool)

	point := &domain.PricePoint{
		MintAddress: "MintP",
		Timestamp:   1000,
		PriceUsd:    0.0042,
		PriceSol:    0.000028,
		IsBonded:    true,
		Source:      "oracle",
		FetchedAt:   1700000000,
	}
	require.NoError(t, store.Upsert(ctx, point))

	got, err := store.Get(ctx, "MintP", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.0042, got.PriceUsd, 1e-12)
	assert.True(t, got.IsBonded)
	assert.Equal(t, "oracle", got.Source)
}

func TestPriceCacheStore_TimestampIsPartOfKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceCacheStore(pool)

	require.NoError(t, store.Upsert(ctx, &domain.PricePoint{MintAddress: "MintQ", Timestamp: 1000, PriceUsd: 1.0}))
	require.NoError(t, store.Upsert(ctx, &domain.PricePoint{MintAddress: "MintQ", Timestamp: 0, PriceUsd: 2.0}))

	_, err := store.Get(ctx, "MintQ", 5000)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	latest, err := store.Get(ctx, "MintQ", 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, latest.PriceUsd, 1e-12)
}

func TestPriceCacheStore_UpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceCacheStore(pool)

	require.NoError(t, store.Upsert(ctx, &domain.PricePoint{MintAddress: "MintR", Timestamp: 0, PriceUsd: 1.0, FetchedAt: 100}))
	require.NoError(t, store.Upsert(ctx, &domain.PricePoint{MintAddress: "MintR", Timestamp: 0, PriceUsd: 1.5, FetchedAt: 200}))

	got, err := store.Get(ctx, "MintR", 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got.PriceUsd, 1e-12)
	assert.Equal(t, int64(200), got.FetchedAt)
}

func TestMetadataCacheStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewMetadataCacheStore(pool)

	_, err := store.Get(ctx, "MintM")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Upsert(ctx, &domain.TokenMetadata{
		MintAddress: "MintM", Symbol: "BONK", Name: "Bonk", FetchedAt: 1700000000,
	}))
	require.NoError(t, store.Upsert(ctx, &domain.TokenMetadata{
		MintAddress: "MintM", Symbol: "BONK2", Name: "Bonk Two", FetchedAt: 1700000100,
	}))

	got, err := store.Get(ctx, "MintM")
	require.NoError(t, err)
	assert.Equal(t, "BONK2", got.Symbol)
	assert.Equal(t, "Bonk Two", got.Name)
}
