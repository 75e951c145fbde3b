package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "0.0.0.0:8051" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if len(cfg.PortCandidates) != 2 {
		t.Fatalf("PortCandidates = %v", cfg.PortCandidates)
	}
	if cfg.SeriesCacheSize != 10 {
		t.Fatalf("SeriesCacheSize = %d", cfg.SeriesCacheSize)
	}
	if cfg.RescanCron != "@every 5m" {
		t.Fatalf("RescanCron = %q", cfg.RescanCron)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LABELER_BIND_ADDR", "127.0.0.1:9000")
	t.Setenv("LABELER_PORT_CANDIDATES", "127.0.0.1:9001, 127.0.0.1:9002 ,")
	t.Setenv("LABELER_SERIES_CACHE_SIZE", "25")
	t.Setenv("LABELER_PORT_AUTO_FALLBACK", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:9000" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if len(cfg.PortCandidates) != 2 || cfg.PortCandidates[1] != "127.0.0.1:9002" {
		t.Fatalf("PortCandidates = %v", cfg.PortCandidates)
	}
	if cfg.SeriesCacheSize != 25 {
		t.Fatalf("SeriesCacheSize = %d", cfg.SeriesCacheSize)
	}
	if cfg.PortAutoFallback {
		t.Fatal("PortAutoFallback = true, want false")
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("LABELER_SERIES_CACHE_SIZE", "lots")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SeriesCacheSize != 10 {
		t.Fatalf("SeriesCacheSize = %d, want default 10", cfg.SeriesCacheSize)
	}
}
