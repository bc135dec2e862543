// Package pricing resolves USD/SOL unit prices, token metadata and bonding
// status for mints, with layered caching over a live provider.
package pricing

import (
	"context"
	"errors"

	"wallet-ledger/internal/domain"
)

// ErrMissingAPIKey indicates the provider credentials are absent.
// This is a configuration error and fatal for the whole reconstruction.
var ErrMissingAPIKey = errors.New("missing price provider api key")

// Provider is the live price/metadata source. All calls may fail; the
// Resolver degrades to zero values rather than propagating errors.
type Provider interface {
	// TokenPrice resolves the unit price of mint at timestamp
	// (0 means latest).
	TokenPrice(ctx context.Context, mint string, timestamp int64) (*domain.PricePoint, error)

	// TokenMetadata resolves symbol and name for a mint.
	TokenMetadata(ctx context.Context, mint string) (*domain.TokenMetadata, error)

	// BondingStatus reports whether the mint has on-chain liquidity.
	BondingStatus(ctx context.Context, mint string) (*domain.BondingStatus, error)

	// WalletBalances reads the wallet's native SOL and USDC balances.
	WalletBalances(ctx context.Context, wallet string) (*domain.WalletBalances, error)
}
