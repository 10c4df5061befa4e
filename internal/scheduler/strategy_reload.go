// Package scheduler runs the background jobs of the server.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/placement"
)

// HeuristicSetter receives the heuristic rebuilt from the strategy file.
type HeuristicSetter interface {
	SetHeuristic(h *placement.Heuristic)
}

// StrategyReloader handles periodic reloading of the placement strategy file,
// so candidate selectors can be tuned without a restart.
type StrategyReloader struct {
	file          string
	strategy      string
	target        HeuristicSetter
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	lastReload    time.Time
	mu            sync.RWMutex
}

// NewStrategyReloader creates a reloader for the named strategy of file.
func NewStrategyReloader(
	file string,
	strategy string,
	target HeuristicSetter,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *StrategyReloader {
	return &StrategyReloader{
		file:          file,
		strategy:      strategy,
		target:        target,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the file once, then reloads it on every tick or manual trigger.
func (sr *StrategyReloader) Start(ctx context.Context) error {
	if err := sr.Reload(); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Reload(); err != nil {
					sr.logger.Error("failed to reload placement strategies", logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual reload triggered")
				if err := sr.Reload(); err != nil {
					sr.logger.Error("failed to reload placement strategies", logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader. It is safe to call more than once.
func (sr *StrategyReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
}

// Reload parses the file and swaps the heuristic. On error the previous
// heuristic stays in place.
func (sr *StrategyReloader) Reload() error {
	strategies, err := placement.LoadStrategies(sr.file)
	if err != nil {
		return err
	}
	st, err := strategies.Get(sr.strategy)
	if err != nil {
		return err
	}
	h, err := placement.NewHeuristic(st)
	if err != nil {
		return fmt.Errorf("invalid strategy %s: %w", sr.strategy, err)
	}

	sr.target.SetHeuristic(h)

	sr.mu.Lock()
	sr.lastReload = time.Now()
	sr.mu.Unlock()

	sr.logger.Info("placement strategy loaded",
		logger.String("file", sr.file),
		logger.String("strategy", st.Name),
		logger.Int("selectors", len(st.Selectors)))
	return nil
}

func (sr *StrategyReloader) LastReload() time.Time {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.lastReload
}
