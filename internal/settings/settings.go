// Package settings keeps the presentation preferences and the onboarding flag.
// Neither carries invariants; both are loaded once at start-up and rewritten whole.
package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/trentd187/scorebook/internal/models"
	"github.com/trentd187/scorebook/internal/store"
)

// onboardingDone is the value written under store.KeyOnboardingComplete.
const onboardingDone = "true"

var accentPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ErrInvalidAccent is returned when an accent colour is not a #rrggbb hex string.
var ErrInvalidAccent = errors.New("accent colour must look like #rrggbb")

// Persister receives whole-document writes. store.Writer implements it.
type Persister interface {
	Save(key string, v any)
	SaveRaw(key string, value []byte)
}

// Service holds the current settings and onboarding state.
type Service struct {
	mu        sync.RWMutex
	settings  models.AppSettings
	onboarded bool
	persist   Persister
	onChange  func()
}

// Option configures a Service.
type Option func(*Service)

// WithChangeHook registers fn to run after every accepted change, outside the lock.
func WithChangeHook(fn func()) Option {
	return func(s *Service) { s.onChange = fn }
}

// Load reads both documents from s. A missing or unparsable settings document
// yields models.DefaultSettings; any onboarding value other than "true" counts as
// not onboarded.
func Load(ctx context.Context, s store.Store, p Persister, opts ...Option) *Service {
	svc := &Service{
		settings: store.LoadOr(ctx, s, store.KeySettings, models.DefaultSettings()),
		persist:  p,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if v, found, err := s.Get(ctx, store.KeyOnboardingComplete); err == nil && found {
		svc.onboarded = string(v) == onboardingDone
	}
	return svc
}

// Get returns the current settings.
func (s *Service) Get() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings wholesale.
func (s *Service) Update(next models.AppSettings) error {
	if !accentPattern.MatchString(next.AccentColor) {
		return fmt.Errorf("%w: %q", ErrInvalidAccent, next.AccentColor)
	}
	s.mu.Lock()
	s.settings = next
	s.persist.Save(store.KeySettings, next)
	s.mu.Unlock()
	s.changed()
	return nil
}

// OnboardingComplete reports whether the user already dismissed onboarding.
func (s *Service) OnboardingComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onboarded
}

// CompleteOnboarding records that onboarding was dismissed. Repeated calls write nothing.
func (s *Service) CompleteOnboarding() {
	s.mu.Lock()
	if s.onboarded {
		s.mu.Unlock()
		return
	}
	s.onboarded = true
	s.persist.SaveRaw(store.KeyOnboardingComplete, []byte(onboardingDone))
	s.mu.Unlock()
	s.changed()
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
