// Package install handles the one-time confirmation ping sent by a deployed
// player and the notifications that follow a first install.
package install

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/notify"
	"github.com/MrSnakeDoc/demogen/internal/store"
)

var ErrMissingPublication = errors.New("publication is required")

const defaultSideEffectTimeout = 10 * time.Second

// Outcome reports the state of the demo after a confirmation.
type Outcome struct {
	Demo             *domain.DemoConfig
	AlreadyInstalled bool
}

type Service struct {
	store   store.DemoStore
	mailer  notify.Mailer
	tracker notify.Tracker
	log     logger.Logger

	notifyTo      []string
	publicBaseURL string
	timeout       time.Duration
	now           func() time.Time
}

type Options struct {
	NotifyTo      []string
	PublicBaseURL string
	// SideEffectTimeout bounds the email and spreadsheet calls together.
	SideEffectTimeout time.Duration
}

func NewService(s store.DemoStore, m notify.Mailer, t notify.Tracker, opts Options, log logger.Logger) *Service {
	if m == nil {
		m = notify.NopMailer{}
	}
	if t == nil {
		t = notify.NopTracker{}
	}
	timeout := opts.SideEffectTimeout
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	return &Service{
		store:         s,
		mailer:        m,
		tracker:       t,
		log:           log,
		notifyTo:      opts.NotifyTo,
		publicBaseURL: opts.PublicBaseURL,
		timeout:       timeout,
		now:           time.Now,
	}
}

// Confirm marks the demo of publication as installed. Only the first
// confirmation triggers the notifications; their failures are logged and
// never change the outcome.
func (s *Service) Confirm(ctx context.Context, publication string) (Outcome, error) {
	publication = strings.TrimSpace(publication)
	if publication == "" {
		return Outcome{}, ErrMissingPublication
	}

	demo, transitioned, err := s.store.MarkInstalled(ctx, publication, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Outcome{}, err
		}
		return Outcome{}, fmt.Errorf("failed to mark %q installed: %w", publication, err)
	}

	log := s.log.With(logger.String("publication", publication), logger.String("id", demo.ID))
	if !transitioned {
		log.Info("install already confirmed, skipping notifications")
		return Outcome{Demo: demo, AlreadyInstalled: true}, nil
	}

	log.Info("install confirmed")
	s.fanOut(ctx, demo, log)
	return Outcome{Demo: demo}, nil
}

// fanOut runs the side effects concurrently and waits for all of them, at
// most s.timeout. The request context is detached so a client hanging up
// does not cancel the notifications.
func (s *Service) fanOut(parent context.Context, demo *domain.DemoConfig, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.timeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		msg, err := notify.InstallMessage(demo, s.publicBaseURL, s.notifyTo)
		if err == nil {
			err = s.mailer.Send(ctx, msg)
		}
		if err != nil {
			log.Warn("install email failed", logger.Error(err))
		}
	}()

	go func() {
		defer wg.Done()
		if err := s.tracker.MarkInstalled(ctx, demo); err != nil {
			log.Warn("spreadsheet update failed", logger.Error(err))
		}
	}()

	wg.Wait()
}
