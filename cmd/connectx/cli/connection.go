// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/auth"
	"github.com/connectx-campus/connectx/guard"
	"github.com/connectx-campus/connectx/lib/clock"
	"github.com/connectx-campus/connectx/lib/config"
	"github.com/connectx-campus/connectx/lib/sealed"
	"github.com/connectx-campus/connectx/query"
	"github.com/connectx-campus/connectx/review"
	"github.com/connectx-campus/connectx/router"
	"github.com/connectx-campus/connectx/session"
	"github.com/connectx-campus/connectx/verification"
)

// Connection holds the flags every networked command shares. Embed it
// in a parameter struct; [BindFlags] calls AddFlags.
type Connection struct {
	ConfigPath string
	APIURL     string
}

// AddFlags registers --config and --api-url.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.ConfigPath, "config", "", "config file (default $CONNECTX_CONFIG, else built-in defaults)")
	flagSet.StringVar(&c.APIURL, "api-url", "", "API root, overriding api.base_url")
}

// App is everything a command needs, built from config and the stored
// session. Close it when the command is done.
type App struct {
	Config    *config.Config
	Store     *session.Store
	Client    *api.Client
	Navigator *router.Navigator
	Resolver  *auth.Resolver
	Cache     *query.Cache
	Clock     clock.Clock
	Logger    *slog.Logger

	identity *sealed.Identity
}

// Open loads config, opens the session store and builds the client.
// route is the location the command acts from; empty means the stored
// user's landing route. Commands on the login and signup pages pass
// those paths so a 401 there does not count as a forced logout.
func (c *Connection) Open(route string, logger *slog.Logger) (*App, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, Validation("%w", err)
	}
	if c.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(c.APIURL, "/")
	}
	SetLevel(cfg.Log.Level)

	app := &App{Config: cfg, Clock: clock.Real(), Logger: logger}

	var backend session.Backend = session.FileBackend{Path: cfg.Session.Path}
	if cfg.Session.IdentityFile != "" {
		identity, err := sealed.LoadOrCreateIdentity(cfg.Session.IdentityFile)
		if err != nil {
			return nil, Internal("%w", err)
		}
		app.identity = identity
		backend = session.SealedBackend{Path: cfg.Session.Path, Identity: identity}
	}
	if app.Store, err = session.Open(backend, logger); err != nil {
		app.Close()
		return nil, Internal("%w", err)
	}

	if route == "" {
		route = guard.Landing(app.Store.User())
	}
	app.Navigator = router.New(route, logger)

	app.Client, err = api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout.Std(),
		Tokens:  app.Store,
		Unauthorized: &auth.ForcedLogout{
			Store:     app.Store,
			Navigator: app.Navigator,
			Logger:    logger,
		},
		Logger: logger,
	})
	if err != nil {
		app.Close()
		return nil, Validation("%w", err)
	}

	app.Resolver = auth.NewResolver(auth.Config{
		Gateway:      app.Client,
		Store:        app.Store,
		Navigator:    app.Navigator,
		Clock:        app.Clock,
		StallTimeout: cfg.Guard.StallTimeout.Std(),
		Logger:       logger,
	})

	app.Cache = query.New(app.Clock, logger)
	if path := cfg.Cache.SnapshotPath; path != "" && app.Store.HasToken() {
		if err := app.Cache.Load(path); err != nil {
			logger.Warn("ignoring query snapshot", "path", path, "error", err)
		}
	}
	return app, nil
}

// RequireUser returns the signed-in user or a forbidden error.
func (a *App) RequireUser() (*api.User, error) {
	user := a.Store.User()
	if user == nil || !a.Store.HasToken() {
		return nil, Classify(session.ErrNoSession)
	}
	return user, nil
}

// Flow returns the verification flow for the signed-in student. Every
// status report refreshes the stored user.
func (a *App) Flow(onChange func(verification.Screen)) *verification.Flow {
	return verification.NewFlow(verification.Config{
		Gateway:      a.Client,
		Cache:        a.Cache,
		Clock:        a.Clock,
		RefetchDelay: a.Config.Verification.RefetchDelay.Std(),
		OnUser:       a.Resolver.Refresh,
		OnChange:     onChange,
		Logger:       a.Logger,
	})
}

// Panel returns the review panel for the signed-in admin.
func (a *App) Panel(confirm review.Confirmer) (*review.Panel, error) {
	user, err := a.RequireUser()
	if err != nil {
		return nil, err
	}
	panel, err := review.NewPanel(review.Config{
		Gateway: a.Client,
		Role:    user.Role,
		Confirm: confirm,
		Cache:   a.Cache,
		Clock:   a.Clock,
		Logger:  a.Logger,
	})
	if err != nil {
		return nil, Classify(err)
	}
	return panel, nil
}

// DropSnapshot removes the persisted query cache, so a different
// account never sees the previous one's results.
func (a *App) DropSnapshot() {
	path := a.Config.Cache.SnapshotPath
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.Logger.Warn("removing query snapshot", "path", path, "error", err)
	}
}

// Close persists the query cache while signed in and releases the
// session's memory.
func (a *App) Close() {
	if a.Cache != nil && a.Store != nil && a.Store.HasToken() {
		if path := a.Config.Cache.SnapshotPath; path != "" {
			if err := a.Cache.Save(path); err != nil {
				a.Logger.Warn("saving query snapshot", "path", path, "error", err)
			}
		}
	}
	if a.Client != nil {
		a.Client.CloseIdleConnections()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.identity != nil {
		a.identity.Close()
	}
}
