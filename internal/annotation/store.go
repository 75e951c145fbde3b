package annotation

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File is the per-ticker document name under the annotation root.
const File = "annotations.json"

// Store persists annotation documents, one directory per ticker, decoupled
// from the market data root so series files can be regenerated without
// touching labels. Writes to one ticker are serialized by a lazily created
// per-ticker mutex; different tickers never contend. Reads take no lock and
// may observe a document one save behind.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(root string) *Store {
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) path(ticker string) string {
	return filepath.Join(s.root, ticker, File)
}

func (s *Store) lock(ticker string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[ticker]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ticker] = l
	}
	return l
}

// Load returns the stored document as-is, or the empty document when no
// file exists or it cannot be parsed. Load never validates entries.
func (s *Store) Load(ticker string) Set {
	data, err := os.ReadFile(s.path(ticker))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("annotation file unreadable", "ticker", ticker, "error", err)
		}
		return EmptySet()
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		slog.Warn("annotation file unparseable", "ticker", ticker, "error", err)
		return EmptySet()
	}
	if set.Human == nil {
		set.Human = []Annotation{}
	}
	if set.AI == nil {
		set.AI = []json.RawMessage{}
	}
	return set
}

// Save filters incomplete human entries, then writes the document to a
// temporary file and renames it over the target, so readers never see a
// torn document and a failed write leaves the previous file untouched.
// Returns false on any I/O failure.
func (s *Store) Save(ticker string, set Set) bool {
	filtered := make([]Annotation, 0, len(set.Human))
	for _, a := range set.Human {
		if a.Complete() {
			filtered = append(filtered, a)
		}
	}
	if dropped := len(set.Human) - len(filtered); dropped > 0 {
		slog.Debug("dropped incomplete annotations", "ticker", ticker, "dropped", dropped)
	}
	set.Human = filtered
	if set.AI == nil {
		set.AI = []json.RawMessage{}
	}

	data, err := json.MarshalIndent(set, "", "    ")
	if err != nil {
		slog.Error("annotation marshal failed", "ticker", ticker, "error", err)
		return false
	}

	target := s.path(ticker)
	tmp := target + ".tmp"

	l := s.lock(ticker)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		slog.Error("annotation dir create failed", "ticker", ticker, "error", err)
		return false
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		slog.Error("annotation temp write failed", "ticker", ticker, "error", err)
		s.removeTemp(tmp)
		return false
	}
	if err := os.Rename(tmp, target); err != nil {
		slog.Error("annotation rename failed", "ticker", ticker, "error", err)
		s.removeTemp(tmp)
		return false
	}
	return true
}

func (s *Store) removeTemp(tmp string) {
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		slog.Debug("annotation temp cleanup failed", "path", tmp, "error", err)
	}
}
