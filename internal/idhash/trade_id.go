// Package idhash derives deterministic identifiers for trades that
// arrive without an on-chain signature.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TradeID computes a deterministic trade identifier using SHA256.
// Formula: SHA256(account_id|mint|timestamp)
// Returns hex-encoded hash (64 characters). Two unsigned trades on the
// same account, mint, and timestamp map to the same ID, which is the
// dedup contract for signatureless records.
func TradeID(accountID, mint string, timestamp int64) string {
	data := fmt.Sprintf("%s|%s|%d", accountID, mint, timestamp)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
