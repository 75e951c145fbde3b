package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the labeling service.
type Config struct {
	// HTTP settings
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Storage roots
	MarketDataDir string
	AnnotationDir string
	SnapshotDir   string
	StaticDir     string

	// Series cache
	SeriesCacheSize int

	// Catalog rescan schedule (cron spec)
	RescanCron string

	// Labeling profile file (optional)
	ProfilePath string

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:         getEnvOrDefault("LABELER_BIND_ADDR", "0.0.0.0:8051"),
		PortCandidates:   splitList(getEnvOrDefault("LABELER_PORT_CANDIDATES", "0.0.0.0:8052,0.0.0.0:8053")),
		PortAutoFallback: getEnvBoolOrDefault("LABELER_PORT_AUTO_FALLBACK", true),
		MarketDataDir:    getEnvOrDefault("LABELER_MARKET_DATA_DIR", "./data/market_cache"),
		AnnotationDir:    getEnvOrDefault("LABELER_ANNOTATION_DIR", "./data/anno"),
		SnapshotDir:      getEnvOrDefault("LABELER_SNAPSHOT_DIR", "./data/snapshots"),
		StaticDir:        getEnvOrDefault("LABELER_STATIC_DIR", "./static"),
		SeriesCacheSize:  getEnvIntOrDefault("LABELER_SERIES_CACHE_SIZE", 10),
		RescanCron:       getEnvOrDefault("LABELER_RESCAN_CRON", "@every 5m"),
		ProfilePath:      getEnvOrDefault("LABELER_PROFILE", ""),
		LogLevel:         getEnvOrDefault("LABELER_LOG_LEVEL", "info"),
		LogFile:          getEnvOrDefault("LABELER_LOG_FILE", "logs/labeler.log"),
	}

	return cfg, nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
