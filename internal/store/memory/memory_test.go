package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/store"
	"github.com/MrSnakeDoc/demogen/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.DemoStore { return New() })
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	in := domain.DemoInput{
		WebsiteURL:  "https://copy.ext",
		Publication: "copy",
		Placement:   &domain.Placement{Selector: "h1", Position: domain.PositionAfter},
	}
	demo, _, err := s.Upsert(context.Background(), in, time.Now())
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	demo.Placement.Selector = "body"
	demo.Publication = "mutated"

	got, err := s.Get(context.Background(), demo.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Placement.Selector != "h1" || got.Publication != "copy" {
		t.Errorf("store leaked internal state: %+v", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	demo, _, _ := s.Upsert(ctx, domain.DemoInput{WebsiteURL: "https://c.ext", Publication: "c"}, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.GetAndCountView(ctx, demo.ID)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.List(ctx)
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, demo.ID)
	if got.ViewCount != 50 {
		t.Errorf("ViewCount = %d, want 50", got.ViewCount)
	}
}

func TestUnknownPublicationDoesNotWrite(t *testing.T) {
	s := New()
	before := s.Writes()
	if _, _, err := s.MarkInstalled(context.Background(), "ghost", time.Now()); err == nil {
		t.Fatal("MarkInstalled() should fail for unknown publication")
	}
	if s.Writes() != before {
		t.Errorf("Writes() = %d, want %d", s.Writes(), before)
	}
}
