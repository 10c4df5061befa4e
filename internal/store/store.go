// Package store defines the Demo Record Store contract shared by the Redis
// and in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/domain"
)

var (
	// ErrNotFound is returned when no demo matches the id or publication.
	ErrNotFound = errors.New("demo not found")
	// ErrConflict is returned when an optimistic transaction kept losing races.
	ErrConflict = errors.New("demo store: too many concurrent writers")
)

// DemoStore persists DemoConfig records keyed by their normalized website URL.
type DemoStore interface {
	// Upsert creates or replaces the operator choices of the demo whose
	// domain.UniqueURL matches in.WebsiteURL. in must already be normalized.
	// created reports whether a new record was made.
	Upsert(ctx context.Context, in domain.DemoInput, now time.Time) (demo *domain.DemoConfig, created bool, err error)

	// GetAndCountView returns the demo and increments its view counter.
	GetAndCountView(ctx context.Context, id string) (*domain.DemoConfig, error)

	// Get returns the demo without touching the view counter.
	Get(ctx context.Context, id string) (*domain.DemoConfig, error)

	FindByPublication(ctx context.Context, publication string) (*domain.DemoConfig, error)

	// List returns every demo, most recently updated first.
	List(ctx context.Context) ([]*domain.DemoConfig, error)

	Delete(ctx context.Context, id string) error

	// MarkInstalled stamps the demo owning publication as installed.
	// transitioned is false when it already was.
	MarkInstalled(ctx context.Context, publication string, now time.Time) (demo *domain.DemoConfig, transitioned bool, err error)

	Ping(ctx context.Context) error
}
