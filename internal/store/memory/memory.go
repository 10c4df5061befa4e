// Package memory provides an in-process DemoStore used by the offline CLI
// and by tests of the packages built on top of the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

var _ store.DemoStore = (*Store)(nil)

// Store keeps demos in maps guarded by a single RWMutex. Returned records
// are copies, callers may mutate them freely.
type Store struct {
	mu     sync.RWMutex
	demos  map[string]*domain.DemoConfig // ID -> demo
	byURL  map[string]string             // domain.UniqueURL -> ID
	byPub  map[string]string             // publication -> ID
	newID  func() string
	writes int // mutations applied, exposed for tests
}

// New creates an empty memory store
func New() *Store {
	return &Store{
		demos: make(map[string]*domain.DemoConfig),
		byURL: make(map[string]string),
		byPub: make(map[string]string),
		newID: uuid.NewString,
	}
}

func clone(d *domain.DemoConfig) *domain.DemoConfig {
	cp := *d
	if d.Placement != nil {
		p := *d.Placement
		cp.Placement = &p
	}
	if d.InstalledAt != nil {
		t := *d.InstalledAt
		cp.InstalledAt = &t
	}
	return &cp
}

func (s *Store) Upsert(_ context.Context, in domain.DemoInput, now time.Time) (*domain.DemoConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	key := domain.UniqueURL(in.WebsiteURL)
	if id, ok := s.byURL[key]; ok {
		demo := s.demos[id]
		if s.byPub[demo.Publication] == id {
			delete(s.byPub, demo.Publication)
		}
		demo.Apply(in, now)
		s.byPub[demo.Publication] = id
		return clone(demo), false, nil
	}

	demo := domain.NewDemo(s.newID(), in, now)
	s.demos[demo.ID] = demo
	s.byURL[key] = demo.ID
	s.byPub[demo.Publication] = demo.ID
	return clone(demo), true, nil
}

func (s *Store) GetAndCountView(_ context.Context, id string) (*domain.DemoConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	demo, ok := s.demos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	demo.ViewCount++
	return clone(demo), nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.DemoConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	demo, ok := s.demos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(demo), nil
}

func (s *Store) FindByPublication(_ context.Context, publication string) (*domain.DemoConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPub[publication]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(s.demos[id]), nil
}

func (s *Store) List(_ context.Context) ([]*domain.DemoConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	demos := make([]*domain.DemoConfig, 0, len(s.demos))
	for _, demo := range s.demos {
		demos = append(demos, clone(demo))
	}
	sort.Slice(demos, func(i, j int) bool {
		return demos[i].UpdatedAt.After(demos[j].UpdatedAt)
	})
	return demos, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	demo, ok := s.demos[id]
	if !ok {
		return store.ErrNotFound
	}
	s.writes++
	delete(s.demos, id)
	if key := domain.UniqueURL(demo.WebsiteURL); s.byURL[key] == id {
		delete(s.byURL, key)
	}
	if s.byPub[demo.Publication] == id {
		delete(s.byPub, demo.Publication)
	}
	return nil
}

func (s *Store) MarkInstalled(_ context.Context, publication string, now time.Time) (*domain.DemoConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPub[publication]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	demo := s.demos[id]
	transitioned := demo.MarkInstalled(now)
	if transitioned {
		s.writes++
	}
	return clone(demo), transitioned, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Writes returns how many mutations the store applied.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.writes
}

// Count returns the number of demos in the store
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.demos)
}
