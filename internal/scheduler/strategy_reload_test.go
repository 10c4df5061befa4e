package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/placement"
)

type recordingTarget struct {
	mu sync.Mutex
	hs []*placement.Heuristic
}

func (r *recordingTarget) SetHeuristic(h *placement.Heuristic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hs = append(r.hs, h)
}

func (r *recordingTarget) last() (*placement.Heuristic, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.hs) == 0 {
		return nil, 0
	}
	return r.hs[len(r.hs)-1], len(r.hs)
}

const strategiesV1 = `
strategies:
  - name: content-first
    limit: 2
    reasoning: first paragraph
    selectors: ["article p", "main p"]
`

const strategiesV2 = `
strategies:
  - name: content-first
    limit: 1
    reasoning: headline
    selectors: ["h1"]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestStrategyReloader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	writeFile(t, path, strategiesV1)

	target := &recordingTarget{}
	sr := NewStrategyReloader(path, "content-first", target, logger.NewNop(), time.Hour, nil)

	if err := sr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	h, n := target.last()
	if n != 1 || h.Strategy().Limit != 2 {
		t.Fatalf("expected first strategy to be applied, got %d swaps", n)
	}
	if sr.LastReload().IsZero() {
		t.Error("expected LastReload to be set")
	}

	// a broken file keeps the previous heuristic
	writeFile(t, path, "strategies: [")
	if err := sr.Reload(); err == nil {
		t.Fatal("expected error on invalid yaml")
	}
	if _, n := target.last(); n != 1 {
		t.Errorf("expected no swap on error, got %d swaps", n)
	}

	writeFile(t, path, strategiesV2)
	if err := sr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if h, _ := target.last(); h.Strategy().Reasoning != "headline" {
		t.Errorf("expected updated strategy, got %q", h.Strategy().Reasoning)
	}
}

func TestStrategyReloader_UnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	writeFile(t, path, strategiesV1)

	sr := NewStrategyReloader(path, "header-first", &recordingTarget{}, logger.NewNop(), time.Hour, nil)
	if err := sr.Start(context.Background()); err == nil {
		sr.Stop()
		t.Fatal("expected Start to fail for a strategy missing from the file")
	}
}

func TestStrategyReloader_ManualTrigger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	writeFile(t, path, strategiesV1)

	target := &recordingTarget{}
	trigger := make(chan struct{}, 1)
	sr := NewStrategyReloader(path, "content-first", target, logger.NewNop(), time.Hour, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sr.Stop()

	writeFile(t, path, strategiesV2)
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h, n := target.last(); n == 2 && h.Strategy().Reasoning == "headline" {
			sr.Stop() // second Stop must not panic
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("manual trigger did not reload the strategy file")
}
