// Package feed fetches raw swap activity for a wallet from an external
// swap feed provider and normalizes the provider's loosely specified
// record shapes into domain.RawSwap values.
package feed

import (
	"context"
	"errors"

	"wallet-ledger/internal/domain"
)

// ErrMissingAPIKey is returned when a feed client is constructed without
// credentials.
var ErrMissingAPIKey = errors.New("feed: missing API key")

// Source supplies the swap history of one wallet, oldest first.
type Source interface {
	Swaps(ctx context.Context, wallet string) ([]*domain.RawSwap, error)
}
