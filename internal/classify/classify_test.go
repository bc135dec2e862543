package classify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify_QuoteMints(t *testing.T) {
	c := New()

	for _, mint := range []string{WrappedSolMint, UsdcMint, UsdtMint, MsolMint, StsolMint, JitosolMint} {
		if c.Classify(mint) != ClassQuote {
			t.Errorf("expected %s to classify as quote", mint)
		}
	}
}

func TestClassify_UnknownMintDefaultsToPosition(t *testing.T) {
	c := New()

	if c.Classify("9BB6NFEcjBCtnNLFko2FqVQBq8HHM13kCyYcdQbgpump") != ClassPosition {
		t.Error("expected unknown mint to classify as position")
	}
}

func TestClassify_EmptyMintIsQuote(t *testing.T) {
	c := New()

	if c.Classify("") != ClassQuote {
		t.Error("expected empty mint to classify as quote")
	}
}

func TestLoadQuoteSet_MergesFile(t *testing.T) {
	extra := "BonK1YhkXEGLZzwtcvRTip3gAL9nCeQD7ppZBLXhtTs"

	dir := t.TempDir()
	path := filepath.Join(dir, "quotes.yaml")
	body := "quote_mints:\n  - " + extra + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write quote set: %v", err)
	}

	c := New()
	if c.Classify(extra) != ClassPosition {
		t.Fatal("extra mint should start as position")
	}

	if err := c.LoadQuoteSet(path); err != nil {
		t.Fatalf("LoadQuoteSet failed: %v", err)
	}

	if c.Classify(extra) != ClassQuote {
		t.Error("expected merged mint to classify as quote")
	}
	if c.Classify(UsdcMint) != ClassQuote {
		t.Error("built-in set must survive the merge")
	}
}
