package memory

import (
	"context"
	"errors"
	"testing"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
)

func TestPriceHistoryStore_AppendAndLatest(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{MintAddress: "mint1", Timestamp: 1000, PriceUsd: 0.10, FetchedAt: 5000},
		{MintAddress: "mint1", Timestamp: 2000, PriceUsd: 0.25, FetchedAt: 6000},
		{MintAddress: "mint2", Timestamp: 1500, PriceUsd: 3.5, FetchedAt: 5500},
	}
	if err := store.AppendBulk(ctx, points); err != nil {
		t.Fatalf("AppendBulk failed: %v", err)
	}

	latest, err := store.Latest(ctx, []string{"mint1", "mint2", "mint3"})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 mints, got %d", len(latest))
	}
	if latest["mint1"].PriceUsd != 0.25 || latest["mint1"].Timestamp != 2000 {
		t.Errorf("mint1 latest: got %+v", latest["mint1"])
	}
	if latest["mint2"].PriceUsd != 3.5 {
		t.Errorf("mint2 latest: got %+v", latest["mint2"])
	}
}

func TestPriceHistoryStore_LatestTieBreaksOnFetchTime(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{MintAddress: "mint1", Timestamp: 1000, PriceUsd: 0.10, FetchedAt: 5000},
		{MintAddress: "mint1", Timestamp: 1000, PriceUsd: 0.12, FetchedAt: 9000},
	}
	if err := store.AppendBulk(ctx, points); err != nil {
		t.Fatalf("AppendBulk failed: %v", err)
	}

	latest, err := store.Latest(ctx, []string{"mint1"})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest["mint1"].PriceUsd != 0.12 {
		t.Errorf("expected re-resolved point to win, got %+v", latest["mint1"])
	}
}

func TestPriceHistoryStore_LatestEmptyAndInvalidInput(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	latest, err := store.Latest(ctx, nil)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(latest) != 0 {
		t.Errorf("expected empty result, got %d entries", len(latest))
	}

	if _, err := store.Latest(ctx, []string{""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty mint, got %v", err)
	}
}
