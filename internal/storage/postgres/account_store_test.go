package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

func TestAccountStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	acct := &domain.Account{
		ID:            "acct-001",
		Username:      "trader-one",
		WalletAddress: "WalletAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Active:        true,
		CreatedAt:     time.Now().Unix(),
	}
	require.NoError(t, store.Insert(ctx, acct))

	got, err := store.GetByID(ctx, "acct-001")
	require.NoError(t, err)
	assert.Equal(t, "trader-one", got.Username)
	assert.Equal(t, acct.WalletAddress, got.WalletAddress)
	assert.True(t, got.Active)
	assert.Zero(t, got.TotalTrades)
}

func TestAccountStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAccountStore_GetActiveSkipsWalletless(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	now := time.Now().Unix()
	require.NoError(t, store.Insert(ctx, &domain.Account{
		ID: "acct-active", Username: "active", WalletAddress: "WalletB", Active: true, CreatedAt: now,
	}))
	require.NoError(t, store.Insert(ctx, &domain.Account{
		ID: "acct-inactive", Username: "inactive", WalletAddress: "WalletC", Active: false, CreatedAt: now,
	}))
	require.NoError(t, store.Insert(ctx, &domain.Account{
		ID: "acct-nowallet", Username: "nowallet", WalletAddress: "", Active: true, CreatedAt: now,
	}))

	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "acct-active", active[0].ID)
}

func TestAccountStore_UpdateMetrics(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.Account{
		ID: "acct-metrics", Username: "m", WalletAddress: "WalletD", Active: true, CreatedAt: time.Now().Unix(),
	}))

	err := store.UpdateMetrics(ctx, "acct-metrics", &domain.AccountMetrics{
		PnlPercent:         12.5,
		TotalProfitUsd:     420.69,
		TotalTrades:        7,
		LastTradeTimestamp: 1700000000,
	})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "acct-metrics")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, got.PnlPercent, 1e-9)
	assert.InDelta(t, 420.69, got.TotalProfitUsd, 1e-9)
	assert.Equal(t, 7, got.TotalTrades)
	assert.Equal(t, int64(1700000000), got.LastTradeTimestamp)
}

func TestAccountStore_UpdateMetricsNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	err := store.UpdateMetrics(ctx, "missing", &domain.AccountMetrics{TotalTrades: 1})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAccountStore_DeactivateStale(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	now := time.Now().Unix()
	require.NoError(t, store.Insert(ctx, &domain.Account{
		ID: "acct-stale", Username: "stale", WalletAddress: "WalletE", Active: true, CreatedAt: now,
	}))
	require.NoError(t, store.Insert(ctx, &domain.Account{
		ID: "acct-fresh", Username: "fresh", WalletAddress: "WalletF", Active: true, CreatedAt: now,
	}))
	require.NoError(t, store.Insert(ctx, &domain.Account{
		ID: "acct-never", Username: "never", WalletAddress: "WalletG", Active: true, CreatedAt: now,
	}))

	require.NoError(t, store.UpdateMetrics(ctx, "acct-stale", &domain.AccountMetrics{LastTradeTimestamp: 1000}))
	require.NoError(t, store.UpdateMetrics(ctx, "acct-fresh", &domain.AccountMetrics{LastTradeTimestamp: 9000}))

	n, err := store.DeactivateStale(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stale, err := store.GetByID(ctx, "acct-stale")
	require.NoError(t, err)
	assert.False(t, stale.Active)

	// Accounts that never traded keep their active flag.
	never, err := store.GetByID(ctx, "acct-never")
	require.NoError(t, err)
	assert.True(t, never.Active)
}
