package market

import (
	"container/list"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SeriesFile is the per-ticker file name under the market data root.
const SeriesFile = "1D.json"

// DefaultCacheSize bounds the number of ticker series held in memory.
const DefaultCacheSize = 10

// SeriesStore loads per-ticker series files and keeps the most recently
// used ones in a bounded cache. Cached series are immutable, so an entry
// evicted while a caller still holds its snapshot stays safe to read.
type SeriesStore struct {
	root     string
	capacity int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
}

type cacheEntry struct {
	ticker string
	series Series
}

func NewSeriesStore(root string, capacity int) *SeriesStore {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &SeriesStore{
		root:     root,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the series for a ticker. A missing or unparseable file yields
// an empty series, logged but never an error; the result is cached either
// way so a broken file is not re-read on every request.
func (s *SeriesStore) Get(ticker string) Series {
	s.mu.Lock()
	if el, ok := s.entries[ticker]; ok {
		s.order.MoveToFront(el)
		series := el.Value.(*cacheEntry).series
		s.mu.Unlock()
		return series
	}
	s.mu.Unlock()

	series := s.load(ticker)

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[ticker]; ok {
		// Lost the race to another loader; keep the resident copy.
		s.order.MoveToFront(el)
		return el.Value.(*cacheEntry).series
	}
	s.entries[ticker] = s.order.PushFront(&cacheEntry{ticker: ticker, series: series})
	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*cacheEntry).ticker)
	}
	return series
}

// Len reports how many series are currently cached.
func (s *SeriesStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *SeriesStore) load(ticker string) Series {
	path := filepath.Join(s.root, ticker, SeriesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("series file unreadable", "ticker", ticker, "path", path, "error", err)
		return Series{}
	}
	series, err := Normalize(data)
	if err != nil {
		slog.Warn("series file unparseable", "ticker", ticker, "path", path, "error", err)
		return Series{}
	}
	return series
}
