package memory

import (
	"context"
	"errors"
	"testing"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

func TestAccountStore_InsertAndGet(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	acct := &domain.Account{
		ID:            "acct1",
		Username:      "trader1",
		WalletAddress: "wallet1",
		Active:        true,
	}

	if err := store.Insert(ctx, acct); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "acct1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Username != "trader1" {
		t.Errorf("Username mismatch: got %q", got.Username)
	}
}

func TestAccountStore_NotFound(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAccountStore_GetActiveFiltersWalletless(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	accounts := []*domain.Account{
		{ID: "a1", WalletAddress: "w1", Active: true},
		{ID: "a2", WalletAddress: "", Active: true},
		{ID: "a3", WalletAddress: "w3", Active: false},
	}
	for _, a := range accounts {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert %s failed: %v", a.ID, err)
		}
	}

	got, err := store.GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("Expected only a1, got %d results", len(got))
	}
}

func TestAccountStore_UpdateMetrics(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Account{ID: "acct1", WalletAddress: "w1", Active: true}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	metrics := &domain.AccountMetrics{
		PnlPercent:         12.5,
		TotalProfitUsd:     420.69,
		TotalTrades:        7,
		LastTradeTimestamp: 1_700_000_000,
	}
	if err := store.UpdateMetrics(ctx, "acct1", metrics); err != nil {
		t.Fatalf("UpdateMetrics failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "acct1")
	if got.TotalProfitUsd != 420.69 || got.TotalTrades != 7 {
		t.Errorf("Metrics not applied: %+v", got)
	}

	if err := store.UpdateMetrics(ctx, "missing", metrics); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing account, got %v", err)
	}
}

func TestAccountStore_DeactivateStale(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	accounts := []*domain.Account{
		{ID: "old", WalletAddress: "w1", Active: true, LastTradeTimestamp: 1000},
		{ID: "fresh", WalletAddress: "w2", Active: true, LastTradeTimestamp: 9000},
		{ID: "never", WalletAddress: "w3", Active: true, LastTradeTimestamp: 0},
	}
	for _, a := range accounts {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert %s failed: %v", a.ID, err)
		}
	}

	changed, err := store.DeactivateStale(ctx, 5000)
	if err != nil {
		t.Fatalf("DeactivateStale failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("Expected 1 deactivated, got %d", changed)
	}

	old, _ := store.GetByID(ctx, "old")
	if old.Active {
		t.Errorf("Stale account still active")
	}
	never, _ := store.GetByID(ctx, "never")
	if !never.Active {
		t.Errorf("Account without trades must not be deactivated")
	}
}
