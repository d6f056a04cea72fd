// Package settings holds the process-wide snapshot of the automation settings.
package settings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// Provider caches the latest automation settings. Readers get an immutable snapshot;
// Replace swaps the whole value and notifies subscribers in registration order.
type Provider struct {
	current atomic.Pointer[automation.Settings]

	mu          sync.Mutex
	subscribers []func(automation.Settings)
}

// NewProvider starts with fallback, usually the configured defaults.
func NewProvider(fallback automation.Settings) (*Provider, error) {
	if err := fallback.Validate(); err != nil {
		return nil, err
	}
	p := &Provider{}
	p.current.Store(&fallback)
	return p, nil
}

// Current returns the settings snapshot in effect.
func (p *Provider) Current() automation.Settings {
	return *p.current.Load()
}

// Replace installs s. Versions never go backwards: an older or an already installed
// version is ignored and subscribers are not called.
func (p *Provider) Replace(s automation.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cur := p.current.Load(); s.Version <= cur.Version {
		return nil
	}
	p.current.Store(&s)
	for _, fn := range p.subscribers {
		fn(s)
	}
	return nil
}

// Subscribe registers fn to be called after every Replace that installs a newer version.
func (p *Provider) Subscribe(fn func(automation.Settings)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Load replaces the snapshot with the latest persisted version, if one exists. Other
// replicas save new versions, so the service calls it periodically as well as at startup.
func (p *Provider) Load(ctx context.Context, repo ports.SettingsRepository) error {
	s, err := repo.Latest(ctx)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return p.Replace(s)
}
