package tradesync

import (
	"context"
	"errors"
	"testing"

	"wallet-ledger/internal/domain"
	"wallet-ledger/internal/storage"
	"wallet-ledger/internal/storage/memory"
)

func seedAccount(t *testing.T, accounts *memory.AccountStore, id string) {
	t.Helper()
	err := accounts.Insert(context.Background(), &domain.Account{
		ID:            id,
		WalletAddress: "wallet-" + id,
		Active:        true,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestSyncer_InsertsNewTrades(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	accountStore := memory.NewAccountStore()
	seedAccount(t, accountStore, "acct1")

	syncer := NewSyncer(tradeStore, accountStore, nil)

	computed := []*domain.Trade{
		{Signature: "sig1", MintAddress: "mint1", Side: domain.TradeSideBuy, AmountUsd: 100, Timestamp: 1000},
		{Signature: "sig2", MintAddress: "mint1", Side: domain.TradeSideSell, AmountUsd: 60, ProfitLossUsd: 20, Timestamp: 2000},
	}

	result, summary, err := syncer.Sync(context.Background(), "acct1", computed)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Inserted != 2 {
		t.Errorf("inserted: got %d, want 2", result.Inserted)
	}
	if summary.TotalTrades != 2 {
		t.Errorf("summary trades: got %d, want 2", summary.TotalTrades)
	}
	if summary.TotalProfitUsd != 20 {
		t.Errorf("summary profit: got %f, want 20", summary.TotalProfitUsd)
	}

	acct, err := accountStore.GetByID(context.Background(), "acct1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if acct.TotalTrades != 2 || acct.TotalProfitUsd != 20 {
		t.Errorf("account summary not written: %+v", acct)
	}
	if acct.LastTradeTimestamp != 2000 {
		t.Errorf("last trade timestamp: got %d", acct.LastTradeTimestamp)
	}
}

func TestSyncer_SecondRunIsIdempotent(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	accountStore := memory.NewAccountStore()
	seedAccount(t, accountStore, "acct1")

	syncer := NewSyncer(tradeStore, accountStore, nil)

	computed := []*domain.Trade{
		{Signature: "sig1", MintAddress: "mint1", Side: domain.TradeSideBuy, AmountUsd: 100, Timestamp: 1000},
	}

	if _, _, err := syncer.Sync(context.Background(), "acct1", computed); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}
	result, summary, err := syncer.Sync(context.Background(), "acct1", computed)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if result.Inserted != 0 || result.Skipped != 1 {
		t.Errorf("second run must skip, got %+v", result)
	}
	if summary.TotalTrades != 1 {
		t.Errorf("trade count grew on resync: %d", summary.TotalTrades)
	}
}

func TestSyncer_UnsignedTradeDedupByTimestampMint(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	accountStore := memory.NewAccountStore()
	seedAccount(t, accountStore, "acct1")

	syncer := NewSyncer(tradeStore, accountStore, nil)

	computed := []*domain.Trade{
		{MintAddress: "mint1", Side: domain.TradeSideBuy, AmountUsd: 100, Timestamp: 1000},
	}

	if _, _, err := syncer.Sync(context.Background(), "acct1", computed); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}
	result, _, err := syncer.Sync(context.Background(), "acct1", computed)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if result.Skipped != 1 || result.Inserted != 0 {
		t.Errorf("unsigned trade must dedup by (timestamp, mint), got %+v", result)
	}
}

func TestSyncer_SignatureDedupIsGlobal(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	accountStore := memory.NewAccountStore()
	seedAccount(t, accountStore, "acct1")
	seedAccount(t, accountStore, "acct2")

	syncer := NewSyncer(tradeStore, accountStore, nil)

	computed := []*domain.Trade{
		{Signature: "sig1", MintAddress: "mint1", Side: domain.TradeSideBuy, AmountUsd: 100, Timestamp: 1000},
	}

	if _, _, err := syncer.Sync(context.Background(), "acct1", computed); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}

	// Same signature presented under a different account must not insert.
	result, _, err := syncer.Sync(context.Background(), "acct2", computed)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if result.Inserted != 0 || result.Skipped != 1 {
		t.Errorf("signature dedup must span accounts, got %+v", result)
	}
}

// oldSchemaStore wraps the memory trade store and rejects every
// extended Insert with a schema error, the way a store running an older
// migration set does. Only the reduced-column path can land trades.
type oldSchemaStore struct {
	*memory.TradeStore
	extendedAttempts int
	minimalAttempts  int
}

func (s *oldSchemaStore) Insert(_ context.Context, _ *domain.Trade) error {
	s.extendedAttempts++
	return errors.New(`column "price_source" of relation "trades" does not exist`)
}

func (s *oldSchemaStore) InsertMinimal(ctx context.Context, t *domain.Trade) error {
	s.minimalAttempts++
	return s.TradeStore.InsertMinimal(ctx, t)
}

func TestSyncer_RetriesWithMinimalColumns(t *testing.T) {
	tradeStore := &oldSchemaStore{TradeStore: memory.NewTradeStore()}
	accountStore := memory.NewAccountStore()
	seedAccount(t, accountStore, "acct1")

	syncer := NewSyncer(tradeStore, accountStore, nil)

	computed := []*domain.Trade{
		{Signature: "sig1", MintAddress: "mint1", Side: domain.TradeSideBuy, AmountUsd: 100, AmountSol: 0.5, Timestamp: 1000, PriceSource: domain.PriceSourceOracle},
	}

	result, _, err := syncer.Sync(context.Background(), "acct1", computed)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Inserted != 1 || result.Failed != 0 {
		t.Errorf("retry must recover the insert, got %+v", result)
	}
	if tradeStore.extendedAttempts != 1 || tradeStore.minimalAttempts != 1 {
		t.Errorf("expected 1 extended and 1 minimal attempt, got %d and %d",
			tradeStore.extendedAttempts, tradeStore.minimalAttempts)
	}

	stored, err := tradeStore.GetByAccount(context.Background(), "acct1")
	if err != nil {
		t.Fatalf("GetByAccount failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored trade, got %d", len(stored))
	}
	if stored[0].AmountSol != 0 || stored[0].PriceSource != "" {
		t.Errorf("retry must drop the optional columns, got amountSol=%f priceSource=%q",
			stored[0].AmountSol, stored[0].PriceSource)
	}
	if stored[0].AmountUsd != 100 {
		t.Errorf("retry must keep the required columns, got amountUsd=%f", stored[0].AmountUsd)
	}
}

func TestSyncer_DuplicateInsertIsNoOp(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	accountStore := memory.NewAccountStore()
	seedAccount(t, accountStore, "acct1")

	// Pre-insert behind the syncer's back: the pre-check set is stale by
	// the time Insert runs in a concurrent scenario; here we simulate it
	// by seeding the store under a different account id than the sync
	// pass uses for its key scan.
	pre := &domain.Trade{Signature: "sig1", AccountID: "other", MintAddress: "mint1", Timestamp: 1000}
	if err := tradeStore.Insert(context.Background(), pre); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	syncer := NewSyncer(tradeStore, accountStore, nil)
	computed := []*domain.Trade{
		{Signature: "sig1", MintAddress: "mint1", Side: domain.TradeSideBuy, AmountUsd: 100, Timestamp: 1000},
	}

	result, _, err := syncer.Sync(context.Background(), "acct1", computed)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("global signature pre-check should skip, got %+v", result)
	}
}

func TestSyncer_RequiresAccountID(t *testing.T) {
	syncer := NewSyncer(memory.NewTradeStore(), memory.NewAccountStore(), nil)
	_, _, err := syncer.Sync(context.Background(), "", nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
