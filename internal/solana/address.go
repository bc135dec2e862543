// Package solana provides wallet address validation helpers.
package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for addresses that are not base58-encoded
// 32-byte ed25519 public keys.
var ErrInvalidAddress = errors.New("invalid solana address")

// ValidateWalletAddress checks that addr is a plausible wallet address:
// base58, 32 bytes, and an on-curve ed25519 point. Program derived
// addresses are off-curve and rejected, since a PDA cannot sign swaps.
func ValidateWalletAddress(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: %q: expected 32 bytes, got %d", ErrInvalidAddress, addr, len(decoded))
	}
	if !isOnCurve(decoded) {
		return fmt.Errorf("%w: %q: off-curve point", ErrInvalidAddress, addr)
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
