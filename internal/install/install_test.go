package install

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/notify"
	"github.com/MrSnakeDoc/demogen/internal/store"
	"github.com/MrSnakeDoc/demogen/internal/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recMailer struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (r *recMailer) Send(_ context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return r.err
}

func (r *recMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type recTracker struct {
	mu        sync.Mutex
	installed []string
	err       error
	block     bool
}

func (r *recTracker) AppendDemo(context.Context, *domain.DemoConfig) error { return nil }

func (r *recTracker) MarkInstalled(ctx context.Context, d *domain.DemoConfig) error {
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.installed = append(r.installed, d.ID)
	return r.err
}

func (r *recTracker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.installed)
}

func seeded(t *testing.T) (*memory.Store, *domain.DemoConfig) {
	t.Helper()
	s := memory.New()
	in := domain.DemoInput{
		WebsiteURL:   "https://paper.example.com",
		Publication:  "paper",
		PlayerConfig: domain.PlayerConfig{Design: domain.DesignA},
	}
	require.NoError(t, in.Normalize())
	d, _, err := s.Upsert(context.Background(), in, time.Now())
	require.NoError(t, err)
	return s, d
}

func TestConfirmMissingPublication(t *testing.T) {
	s, _ := seeded(t)
	svc := NewService(s, nil, nil, Options{}, logger.NewNop())

	for _, pub := range []string{"", "   "} {
		_, err := svc.Confirm(context.Background(), pub)
		assert.ErrorIs(t, err, ErrMissingPublication)
	}
}

func TestConfirmUnknownPublicationDoesNotMutate(t *testing.T) {
	s, _ := seeded(t)
	m, tr := &recMailer{}, &recTracker{}
	svc := NewService(s, m, tr, Options{}, logger.NewNop())

	before := s.Writes()
	_, err := svc.Confirm(context.Background(), "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, before, s.Writes())
	assert.Zero(t, m.count())
	assert.Zero(t, tr.count())
}

func TestConfirmFirstInstallNotifies(t *testing.T) {
	s, demo := seeded(t)
	m, tr := &recMailer{}, &recTracker{}
	svc := NewService(s, m, tr, Options{NotifyTo: []string{"ops@example.com"}, PublicBaseURL: "https://demogen.test"}, logger.NewNop())

	out, err := svc.Confirm(context.Background(), "paper")
	require.NoError(t, err)
	assert.False(t, out.AlreadyInstalled)
	assert.True(t, out.Demo.IsInstalled)
	require.NotNil(t, out.Demo.InstalledAt)

	require.Equal(t, 1, m.count())
	assert.Equal(t, []string{"ops@example.com"}, m.msgs[0].To)
	assert.Contains(t, m.msgs[0].HTML, "https://demogen.test/demo/"+demo.ID)
	assert.Equal(t, []string{demo.ID}, tr.installed)
}

func TestConfirmIsIdempotent(t *testing.T) {
	s, _ := seeded(t)
	m, tr := &recMailer{}, &recTracker{}
	svc := NewService(s, m, tr, Options{}, logger.NewNop())

	first, err := svc.Confirm(context.Background(), "paper")
	require.NoError(t, err)

	second, err := svc.Confirm(context.Background(), "paper")
	require.NoError(t, err)
	assert.True(t, second.AlreadyInstalled)
	assert.True(t, first.Demo.InstalledAt.Equal(*second.Demo.InstalledAt))

	assert.Equal(t, 1, m.count())
	assert.Equal(t, 1, tr.count())
}

func TestConfirmSwallowsSideEffectFailures(t *testing.T) {
	s, _ := seeded(t)
	m := &recMailer{err: errors.New("smtp down")}
	tr := &recTracker{err: errors.New("quota exceeded")}
	svc := NewService(s, m, tr, Options{}, logger.NewNop())

	out, err := svc.Confirm(context.Background(), "paper")
	require.NoError(t, err)
	assert.True(t, out.Demo.IsInstalled)
	assert.Equal(t, 1, m.count())
	assert.Equal(t, 1, tr.count())
}

func TestConfirmBoundsSlowSideEffects(t *testing.T) {
	s, _ := seeded(t)
	m, tr := &recMailer{}, &recTracker{block: true}
	svc := NewService(s, m, tr, Options{SideEffectTimeout: 50 * time.Millisecond}, logger.NewNop())

	start := time.Now()
	out, err := svc.Confirm(context.Background(), "paper")
	require.NoError(t, err)
	assert.True(t, out.Demo.IsInstalled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, m.count())
}

func TestConfirmSurvivesCancelledRequest(t *testing.T) {
	s, _ := seeded(t)
	m, tr := &recMailer{}, &recTracker{}
	svc := NewService(s, m, tr, Options{}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	svc.now = func() time.Time { cancel(); return time.Now() }

	out, err := svc.Confirm(ctx, "paper")
	require.NoError(t, err)
	assert.False(t, out.AlreadyInstalled)
	assert.Equal(t, 1, m.count())
}
