package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgnsrekt/vcp_tinder/internal/market"
)

// SeedTicker is created when the market data root is completely empty, so
// downstream components never face an empty catalog.
const SeedTicker = "AAPL_TEST"

const (
	seedBars  = 100
	seedStart = 1577836800 // 2020-01-01T00:00:00Z
	daySecs   = 86400
)

// Catalog enumerates the tickers under the market data root. One
// subdirectory per ticker; anything else in the root is ignored.
type Catalog struct {
	root string
}

func New(root string) *Catalog {
	return &Catalog{root: root}
}

// List returns all ticker identifiers, lexicographically sorted. A missing
// root is an empty catalog, not an error.
func (c *Catalog) List() []string {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("catalog scan failed", "root", c.root, "error", err)
		}
		return []string{}
	}
	tickers := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			tickers = append(tickers, e.Name())
		}
	}
	sort.Strings(tickers)
	return tickers
}

// EnsureSeed writes a deterministic fallback series when the catalog is
// empty. Calling it again once any ticker exists is a no-op.
func (c *Catalog) EnsureSeed() error {
	if len(c.List()) > 0 {
		return nil
	}

	series := make([]market.Bar, seedBars)
	for i := range series {
		// Linear ramp from 100 to 150 with a fixed intrabar spread.
		price := 100.0 + 50.0*float64(i)/float64(seedBars-1)
		series[i] = market.Bar{
			T: seedStart + int64(i)*daySecs,
			O: price - 0.5,
			H: price + 2,
			L: price - 2,
			C: price,
			V: 1_000_000,
		}
	}

	dir := filepath.Join(c.root, SeedTicker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog seed: mkdir %s: %w", dir, err)
	}
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("catalog seed: marshal: %w", err)
	}
	path := filepath.Join(dir, market.SeriesFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("catalog seed: write %s: %w", path, err)
	}
	slog.Info("seeded fallback ticker", "ticker", SeedTicker, "bars", seedBars)
	return nil
}

