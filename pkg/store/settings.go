package store

import (
	"context"

	"github.com/opst/mlconsole/pkg/api/types/settings"
	"github.com/opst/mlconsole/pkg/rest"
)

// Settings is a store of system settings and user preferences.
type Settings struct {
	*state

	client rest.SettingsClient

	system      *settings.System
	preferences *settings.Preferences
	saveSuccess bool
}

func NewSettings(client rest.SettingsClient, opts ...Option) *Settings {
	conf := newConfig(DefaultPageSize, KeepStale, opts)
	return &Settings{state: newState(conf.log), client: client}
}

// System returns system settings fetched last. ok is false before fetching.
func (s *Settings) System() (sys settings.System, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.system == nil {
		return sys, false
	}
	return *s.system, true
}

// Preferences returns user preferences fetched last. ok is false before fetching.
func (s *Settings) Preferences() (p settings.Preferences, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preferences == nil {
		return p, false
	}
	return *s.preferences, true
}

// SaveSuccess tells whether the last update has been saved.
func (s *Settings) SaveSuccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSuccess
}

func (s *Settings) ClearSaveSuccess() {
	s.mu.Lock()
	s.saveSuccess = false
	s.mu.Unlock()
	s.notify()
}

func (s *Settings) FetchSystem(ctx context.Context) error {
	return s.fetchSystem(func() (settings.System, error) { return s.client.GetSystemSettings(ctx) })
}

func (s *Settings) ResetSystem(ctx context.Context) error {
	return s.fetchSystem(func() (settings.System, error) { return s.client.ResetSystemSettings(ctx) })
}

// UpdateSystem saves system settings. SaveSuccess tells the result.
func (s *Settings) UpdateSystem(ctx context.Context, change settings.SystemChange) error {
	s.beginSave()
	sys, err := s.client.UpdateSystemSettings(ctx, change)
	s.settle(func() error {
		s.saveSuccess = err == nil
		if err != nil {
			return err
		}
		s.system = &sys
		return nil
	})
	return err
}

func (s *Settings) FetchPreferences(ctx context.Context) error {
	s.begin()
	p, err := s.client.GetPreferences(ctx)
	s.settle(func() error {
		if err != nil {
			return err
		}
		s.preferences = &p
		return nil
	})
	return err
}

// UpdatePreferences saves user preferences. SaveSuccess tells the result.
func (s *Settings) UpdatePreferences(ctx context.Context, change settings.PreferencesChange) error {
	s.beginSave()
	p, err := s.client.UpdatePreferences(ctx, change)
	s.settle(func() error {
		s.saveSuccess = err == nil
		if err != nil {
			return err
		}
		s.preferences = &p
		return nil
	})
	return err
}

// TestConnection asks the server whether url is reachable.
func (s *Settings) TestConnection(ctx context.Context, url string) (settings.ConnectionTest, error) {
	return do(s.state, func() (settings.ConnectionTest, error) { return s.client.TestConnection(ctx, url) })
}

// CleanupStorage removes expired data, and refreshes system settings.
func (s *Settings) CleanupStorage(ctx context.Context) (settings.Cleanup, error) {
	c, err := do(s.state, func() (settings.Cleanup, error) { return s.client.CleanupStorage(ctx) })
	if err != nil {
		return settings.Cleanup{}, err
	}
	s.FetchSystem(ctx)
	return c, nil
}

func (s *Settings) fetchSystem(op func() (settings.System, error)) error {
	s.begin()
	sys, err := op()
	s.settle(func() error {
		if err != nil {
			return err
		}
		s.system = &sys
		return nil
	})
	return err
}

func (s *Settings) beginSave() {
	s.mu.Lock()
	s.saveSuccess = false
	s.mu.Unlock()
	s.begin()
}
