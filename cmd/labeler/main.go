package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/api"
	"github.com/dgnsrekt/vcp_tinder/internal/catalog"
	"github.com/dgnsrekt/vcp_tinder/internal/config"
	"github.com/dgnsrekt/vcp_tinder/internal/controller"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/dgnsrekt/vcp_tinder/internal/netutil"
	"github.com/dgnsrekt/vcp_tinder/internal/push"
	"github.com/dgnsrekt/vcp_tinder/internal/render"
	"github.com/dgnsrekt/vcp_tinder/internal/scheduler"
	"github.com/dgnsrekt/vcp_tinder/internal/session"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load labeler config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("labeler config loaded",
		"bind_addr", cfg.BindAddr,
		"market_data_dir", cfg.MarketDataDir,
		"annotation_dir", cfg.AnnotationDir,
		"snapshot_dir", cfg.SnapshotDir,
		"series_cache_size", cfg.SeriesCacheSize,
		"rescan_cron", cfg.RescanCron,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		slog.Error("failed to load labeling profile", "path", cfg.ProfilePath, "error", err)
		os.Exit(1)
	}

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	cat := catalog.New(cfg.MarketDataDir)
	if err := cat.EnsureSeed(); err != nil {
		slog.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}

	series := market.NewSeriesStore(cfg.MarketDataDir, cfg.SeriesCacheSize)
	annos := annotation.NewStore(cfg.AnnotationDir)
	snaps, err := render.NewStore(cfg.SnapshotDir)
	if err != nil {
		slog.Error("failed to open snapshot store", "dir", cfg.SnapshotDir, "error", err)
		os.Exit(1)
	}
	broker := push.NewBroker()
	sessions := session.NewController(cat, series, annos, profile)
	svc := controller.NewService(cat, series, annos, sessions, snaps, broker)

	sched := scheduler.New(cat, cfg.RescanCron)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start catalog rescan", "spec", cfg.RescanCron, "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	h := api.NewServer(svc, broker, cfg.StaticDir)
	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("labeler listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("labeler server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("labeler shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
