// Command datagen populates the data directories with synthetic labeled
// tickers. Running it again adds more tickers; existing ones are untouched.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/config"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/dgnsrekt/vcp_tinder/internal/synth"
)

func main() {
	count := flag.Int("count", 100, "samples to generate per class")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	gen := synth.NewGenerator(*seed)
	written := 0
	for i := 0; i < *count; i++ {
		for _, sample := range []synth.Sample{gen.VCP(), gen.Megaphone()} {
			if err := writeSample(cfg, sample); err != nil {
				slog.Error("failed to write sample", "ticker", sample.Ticker, "error", err)
				os.Exit(1)
			}
			written++
		}
	}
	slog.Info("synthetic tickers generated", "count", written, "market_dir", cfg.MarketDataDir, "anno_dir", cfg.AnnotationDir)
}

func writeSample(cfg *config.Config, sample synth.Sample) error {
	marketDir := filepath.Join(cfg.MarketDataDir, sample.Ticker)
	if err := os.MkdirAll(marketDir, 0o755); err != nil {
		return err
	}
	bars, err := json.Marshal(sample.Series)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(marketDir, market.SeriesFile), bars, 0o644); err != nil {
		return err
	}

	annoDir := filepath.Join(cfg.AnnotationDir, sample.Ticker)
	if err := os.MkdirAll(annoDir, 0o755); err != nil {
		return err
	}
	annos, err := json.MarshalIndent(sample.Annos, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(annoDir, annotation.File), annos, 0o644)
}
