package rest

import (
	"context"
	"net/http"

	"github.com/opst/mlconsole/pkg/api/types/settings"
)

func (c *client) GetSystemSettings(ctx context.Context) (settings.System, error) {
	var sys settings.System
	if err := fetchJson(
		c, ctx, http.MethodGet, nil, nil, &sys,
		MessageFor{ServerFailed: "server error: cannot get system settings"},
		"settings", "system",
	); err != nil {
		return settings.System{}, err
	}
	return sys, nil
}

func (c *client) UpdateSystemSettings(ctx context.Context, change settings.SystemChange) (settings.System, error) {
	var sys settings.System
	if err := fetchJson(
		c, ctx, http.MethodPut, nil, change, &sys,
		MessageFor{
			Rejected:     "invalid system settings",
			ServerFailed: "server error: cannot update system settings",
		},
		"settings", "system",
	); err != nil {
		return settings.System{}, err
	}
	return sys, nil
}

func (c *client) ResetSystemSettings(ctx context.Context) (settings.System, error) {
	var sys settings.System
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, nil, &sys,
		MessageFor{ServerFailed: "server error: cannot reset system settings"},
		"settings", "system", "reset",
	); err != nil {
		return settings.System{}, err
	}
	return sys, nil
}

func (c *client) GetPreferences(ctx context.Context) (settings.Preferences, error) {
	var pref settings.Preferences
	if err := fetchJson(
		c, ctx, http.MethodGet, nil, nil, &pref,
		MessageFor{ServerFailed: "server error: cannot get preferences"},
		"settings", "preferences",
	); err != nil {
		return settings.Preferences{}, err
	}
	return pref, nil
}

func (c *client) UpdatePreferences(ctx context.Context, change settings.PreferencesChange) (settings.Preferences, error) {
	var pref settings.Preferences
	if err := fetchJson(
		c, ctx, http.MethodPut, nil, change, &pref,
		MessageFor{
			Rejected:     "invalid preferences",
			ServerFailed: "server error: cannot update preferences",
		},
		"settings", "preferences",
	); err != nil {
		return settings.Preferences{}, err
	}
	return pref, nil
}

func (c *client) TestConnection(ctx context.Context, url string) (settings.ConnectionTest, error) {
	var result settings.ConnectionTest
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, map[string]string{"url": url}, &result,
		MessageFor{ServerFailed: "server error: cannot test connection"},
		"settings", "test-connection",
	); err != nil {
		return settings.ConnectionTest{}, err
	}
	return result, nil
}

func (c *client) CleanupStorage(ctx context.Context) (settings.Cleanup, error) {
	var result settings.Cleanup
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, nil, &result,
		MessageFor{ServerFailed: "server error: cannot clean up storage"},
		"settings", "cleanup-storage",
	); err != nil {
		return settings.Cleanup{}, err
	}
	return result, nil
}
