package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// TickerLister is the catalog surface the rescan job needs.
type TickerLister interface {
	List() []string
}

// Scheduler periodically rescans the market data root and logs catalog
// churn, so tickers dropped into the directory while the server runs show
// up without a restart.
type Scheduler struct {
	catalog TickerLister
	spec    string
	cron    *cron.Cron
	known   map[string]bool
}

func New(catalog TickerLister, spec string) *Scheduler {
	return &Scheduler{
		catalog: catalog,
		spec:    spec,
		cron:    cron.New(),
		known:   make(map[string]bool),
	}
}

// Start primes the known set from the current catalog and begins the cron
// loop. The returned error is only a bad cron expression.
func (s *Scheduler) Start() error {
	for _, t := range s.catalog.List() {
		s.known[t] = true
	}
	if _, err := s.cron.AddFunc(s.spec, s.rescan); err != nil {
		return fmt.Errorf("schedule catalog rescan: %w", err)
	}
	s.cron.Start()
	slog.Info("catalog rescan scheduled", "spec", s.spec, "tickers", len(s.known))
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) rescan() {
	current := make(map[string]bool)
	for _, t := range s.catalog.List() {
		current[t] = true
		if !s.known[t] {
			slog.Info("catalog ticker added", "ticker", t)
		}
	}
	for t := range s.known {
		if !current[t] {
			slog.Info("catalog ticker removed", "ticker", t)
		}
	}
	s.known = current
}
