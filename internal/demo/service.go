// Package demo orchestrates a demo from the partner URL to the rendered page:
// clone, analysis, placement suggestion, persistence and injection.
package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/demogen/internal/analysis"
	"github.com/MrSnakeDoc/demogen/internal/clone"
	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/inject"
	"github.com/MrSnakeDoc/demogen/internal/integration"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/notify"
	"github.com/MrSnakeDoc/demogen/internal/placement"
	"github.com/MrSnakeDoc/demogen/internal/player"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

const trackerTimeout = 10 * time.Second

// Cloner builds the visual clone of a page.
type Cloner interface {
	Build(ctx context.Context, rawURL string) (*clone.Clone, error)
}

// Suggester proposes placement selectors. It never fails.
type Suggester interface {
	Suggest(ctx context.Context, page string) placement.Suggestion
}

// Draft is what the operator starts from: the clone and the ways to place
// the player in it.
type Draft struct {
	URL         string               `json:"url"`
	Clone       *clone.Clone         `json:"clone"`
	Suggestion  placement.Suggestion `json:"suggestion"`
	Tokens      analysis.Tokens      `json:"tokens"`
	Recommended domain.PlayerConfig  `json:"recommendedPlayerConfig"`
}

type Snippets struct {
	HTML  string `json:"html"`
	React string `json:"react"`
}

type Deps struct {
	Store         store.DemoStore
	Cloner        Cloner
	Suggester     Suggester
	Tracker       notify.Tracker
	Builder       integration.PluginBuilder
	PublicBaseURL string
	Log           logger.Logger
}

type Service struct {
	store         store.DemoStore
	cloner        Cloner
	suggester     Suggester
	tracker       notify.Tracker
	builder       integration.PluginBuilder
	publicBaseURL string
	log           logger.Logger
	now           func() time.Time
}

func NewService(d Deps) *Service {
	if d.Tracker == nil {
		d.Tracker = notify.NopTracker{}
	}
	if d.Builder == nil {
		d.Builder = integration.OfflineBuilder{}
	}
	return &Service{
		store:         d.Store,
		cloner:        d.Cloner,
		suggester:     d.Suggester,
		tracker:       d.Tracker,
		builder:       d.Builder,
		publicBaseURL: d.PublicBaseURL,
		log:           d.Log,
		now:           time.Now,
	}
}

// ScriptURL is the versioned bootstrap URL injected in rendered pages.
func (s *Service) ScriptURL() string {
	return player.ScriptURL(s.publicBaseURL, s.now())
}

func (s *Service) injector() *inject.Injector {
	return inject.New(s.ScriptURL())
}

// Generate clones rawURL, then analyses the clone and asks for placement
// suggestions concurrently.
func (s *Service) Generate(ctx context.Context, rawURL string) (*Draft, error) {
	u, err := domain.CleanURL(rawURL)
	if err != nil {
		return nil, err
	}

	c, err := s.cloner.Build(ctx, u)
	if err != nil {
		return nil, err
	}

	d := &Draft{URL: u, Clone: c}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Tokens = analysis.Analyze(c.HTML)
		return nil
	})
	g.Go(func() error {
		d.Suggestion = s.suggester.Suggest(gctx, c.HTML)
		return nil
	})
	_ = g.Wait()

	d.Recommended = domain.PlayerConfig{Design: domain.DesignA, ColorType: d.Tokens.ColorType}
	d.Recommended.Normalize()

	s.log.Info("draft generated",
		logger.String("url", u),
		logger.String("source", string(d.Suggestion.Source)),
		logger.Int("candidates", len(d.Suggestion.SuggestedLocations)),
		logger.Bool("rendered", c.Rendered))
	return d, nil
}

func prepare(in *domain.DemoInput) error {
	if err := in.Normalize(); err != nil {
		return err
	}
	return in.Validate()
}

// Preview renders in without persisting anything.
func (s *Service) Preview(ctx context.Context, in domain.DemoInput) (inject.Result, error) {
	if err := prepare(&in); err != nil {
		return inject.Result{}, err
	}
	c, err := s.cloner.Build(ctx, in.WebsiteURL)
	if err != nil {
		return inject.Result{}, err
	}
	return s.injector().Inject(c.HTML, domain.NewDemo("preview", in, s.now().UTC()))
}

// Save creates or updates the demo of in.WebsiteURL. New demos are mirrored
// to the tracker; a tracker failure is logged only.
func (s *Service) Save(ctx context.Context, in domain.DemoInput) (*domain.DemoConfig, bool, error) {
	if err := prepare(&in); err != nil {
		return nil, false, err
	}

	d, created, err := s.store.Upsert(ctx, in, s.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("failed to save demo: %w", err)
	}

	log := s.log.With(logger.String("id", d.ID), logger.String("url", d.WebsiteURL))
	if !created {
		log.Info("demo updated")
		return d, false, nil
	}

	log.Info("demo created")
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trackerTimeout)
	defer cancel()
	if err := s.tracker.AppendDemo(tctx, d); err != nil {
		log.Warn("spreadsheet append failed", logger.Error(err))
	}
	return d, true, nil
}

// Render counts a view of id and returns its page with the player injected.
// Nothing is cached: the partner page is cloned again on every call.
func (s *Service) Render(ctx context.Context, id string) (inject.Result, *domain.DemoConfig, error) {
	d, err := s.store.GetAndCountView(ctx, id)
	if err != nil {
		return inject.Result{}, nil, err
	}

	c, err := s.cloner.Build(ctx, d.WebsiteURL)
	if err != nil {
		return inject.Result{}, d, err
	}

	res, err := s.injector().Inject(c.HTML, d)
	if err != nil {
		return inject.Result{}, d, err
	}
	if res.Warning != "" {
		s.log.Warn("demo rendered without player", logger.String("id", id), logger.String("warning", res.Warning))
	}
	return res, d, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.DemoConfig, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.DemoConfig, error) {
	return s.store.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("demo deleted", logger.String("id", id))
	return nil
}

func (s *Service) Snippets(ctx context.Context, id string) (Snippets, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return Snippets{}, err
	}
	h, err := integration.HTMLSnippet(d, s.ScriptURL())
	if err != nil {
		return Snippets{}, err
	}
	return Snippets{HTML: h, React: integration.ReactSnippet(d)}, nil
}

// BuildPlugin derives the plugin config of demo id and submits its build.
func (s *Service) BuildPlugin(ctx context.Context, id, version string, opts integration.PluginOptions) (*integration.Build, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := integration.PluginConfigFromDemo(d, version, opts)
	if err != nil {
		return nil, err
	}
	return s.builder.Submit(ctx, cfg)
}

func (s *Service) PluginStatus(ctx context.Context, partnerID, version string) (*integration.BuildStatus, error) {
	if !domain.ValidVersion(version) {
		return nil, fmt.Errorf("%w: version must be X.Y.Z, got %q", domain.ErrInvalidPlugin, version)
	}
	if partnerID == "" || domain.PartnerSlug(partnerID) != partnerID {
		return nil, fmt.Errorf("%w: bad partner id %q", domain.ErrInvalidPlugin, partnerID)
	}
	return s.builder.Status(ctx, partnerID, version)
}

// IsValidation reports whether err comes from rejected operator input.
func IsValidation(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidURL,
		domain.ErrInvalidPlacement,
		domain.ErrInvalidPlayer,
		domain.ErrInvalidPlugin,
		domain.ErrInvalidDemo,
		clone.ErrInvalidURL,
		integration.ErrNoPlacement,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
