package market

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSeries(t *testing.T, root, ticker string, series Series) {
	t.Helper()
	dir := filepath.Join(root, ticker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("os.MkdirAll() failed: %v", err)
	}
	data, err := json.Marshal(series)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SeriesFile), data, 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
}

func TestSeriesStoreGetCachesResult(t *testing.T) {
	root := t.TempDir()
	writeSeries(t, root, "AAA", Series{{T: 1, O: 1, H: 2, L: 0.5, C: 1.5, V: 10}})

	store := NewSeriesStore(root, 2)
	first := store.Get("AAA")
	if len(first) != 1 {
		t.Fatalf("len = %d, want 1", len(first))
	}

	// Change the file under the store; the cached copy must win.
	writeSeries(t, root, "AAA", Series{})
	second := store.Get("AAA")
	if len(second) != 1 {
		t.Fatalf("cached series not returned, len = %d", len(second))
	}
}

func TestSeriesStoreEvictsLeastRecentlyUsed(t *testing.T) {
	root := t.TempDir()
	for _, ticker := range []string{"AAA", "BBB", "CCC"} {
		writeSeries(t, root, ticker, Series{{T: 1, O: 1, H: 2, L: 0.5, C: 1.5, V: 10}})
	}

	store := NewSeriesStore(root, 2)
	store.Get("AAA")
	store.Get("BBB")
	store.Get("AAA") // refresh AAA so BBB is the eviction candidate
	store.Get("CCC")

	if got := store.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	// BBB was evicted; a reload now sees the emptied file.
	writeSeries(t, root, "BBB", Series{})
	store.Get("AAA") // keep AAA most recent so the BBB reload evicts CCC
	if got := store.Get("BBB"); len(got) != 0 {
		t.Fatalf("expected BBB to be reloaded from disk, got %d bars", len(got))
	}
	// AAA survived both evictions and still serves the cached copy.
	writeSeries(t, root, "AAA", Series{})
	if got := store.Get("AAA"); len(got) != 1 {
		t.Fatalf("expected AAA to stay cached, got %d bars", len(got))
	}
}

func TestSeriesStoreMissingFileYieldsEmptyAndLogs(t *testing.T) {
	var buf bytes.Buffer
	oldLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(oldLogger)
	})

	store := NewSeriesStore(t.TempDir(), 2)
	series := store.Get("MISSING")
	if series == nil || len(series) != 0 {
		t.Fatalf("Get() = %v, want empty series", series)
	}
	if !strings.Contains(buf.String(), "series file unreadable") {
		t.Fatalf("expected unreadable warning, got %q", buf.String())
	}
}
