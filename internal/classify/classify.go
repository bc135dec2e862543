// Package classify decides which leg of a swap is the speculative position
// asset and which is the quote asset used to price it.
package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Class of a mint: quote assets (SOL, stables, blue chips) versus position
// assets (everything else).
type Class int

const (
	ClassQuote Class = iota
	ClassPosition
)

// Well-known quote mints.
const (
	WrappedSolMint = "So11111111111111111111111111111111111111112"
	UsdcMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	UsdtMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MsolMint       = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
	StsolMint      = "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL3qYk7RKV6x"
	JitosolMint    = "J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn"
)

// Classifier is a pure, deterministic membership check against a fixed
// quote-mint set. Unknown mints default to position.
type Classifier struct {
	quote map[string]struct{}
}

// New creates a classifier over the default quote set: wrapped SOL, USDC,
// USDT and known liquid-staking derivatives.
func New() *Classifier {
	c := &Classifier{quote: make(map[string]struct{})}
	for _, m := range []string{
		WrappedSolMint,
		UsdcMint,
		UsdtMint,
		MsolMint,
		StsolMint,
		JitosolMint,
	} {
		c.quote[m] = struct{}{}
	}
	return c
}

// Classify reports whether a mint is a quote or position asset.
// An empty mint is treated as quote so a missing leg never becomes
// the position side of a trade.
func (c *Classifier) Classify(mint string) Class {
	if mint == "" {
		return ClassQuote
	}
	if _, ok := c.quote[mint]; ok {
		return ClassQuote
	}
	return ClassPosition
}

// IsQuote is a convenience wrapper around Classify.
func (c *Classifier) IsQuote(mint string) bool {
	return c.Classify(mint) == ClassQuote
}

// quoteSetFile is the YAML shape for operator-supplied quote mints.
type quoteSetFile struct {
	QuoteMints []string `yaml:"quote_mints"`
}

// LoadQuoteSet merges additional quote mints from a YAML file into the
// classifier. The file extends the built-in set, it cannot shrink it.
func (c *Classifier) LoadQuoteSet(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read quote set %q: %w", path, err)
	}

	var file quoteSetFile
	if err := yaml.Unmarshal(body, &file); err != nil {
		return fmt.Errorf("parse quote set %q: %w", path, err)
	}

	for _, mint := range file.QuoteMints {
		if mint != "" {
			c.quote[mint] = struct{}{}
		}
	}
	return nil
}
