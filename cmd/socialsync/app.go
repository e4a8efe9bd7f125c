package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"socialsync/internal/auth"
	"socialsync/internal/config"
	"socialsync/internal/demo"
	"socialsync/internal/ics"
	appLog "socialsync/internal/log"
	"socialsync/internal/media"
	"socialsync/internal/services"
	"socialsync/internal/store"
	"socialsync/internal/store/backend"
)

// app holds everything a command needs, wired from one config.
type app struct {
	cfg      *config.Config
	live     store.Store
	demo     store.Store
	svc      *services.Services
	provider *auth.LocalProvider
	auth     *auth.Manager
}

func loadConfig(ro *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", ro.configPath, err)
	}
	if ro.logLevel != "" {
		cfg.LogLevel = ro.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// openApp opens the configured backend and builds the services on top of
// it. Without a backend, sign-in and writes go to the demo workspace.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc := cfg.Location()
	demoStore, err := demo.NewStore(ctx, time.Now, loc)
	if err != nil {
		return nil, fmt.Errorf("load demo workspace: %w", err)
	}

	var live store.Store
	if cfg.HasBackend() {
		live, err = backend.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
	} else {
		appLog.Info("no backend configured, serving demo data")
	}

	authStore := store.Store(demoStore)
	if live != nil {
		authStore = live
	}
	bus := auth.NewBus(64)
	provider := auth.NewLocalProvider(authStore, bus, cfg.SessionTTL)

	return &app{
		cfg:      cfg,
		live:     live,
		demo:     demoStore,
		provider: provider,
		auth:     auth.NewManager(provider, authStore, bus),
		svc: services.New(services.Options{
			Live:     live,
			Demo:     demoStore,
			Media:    media.New(cfg.Media.Dir, cfg.Media.PublicBaseURL),
			Fetcher:  ics.NewFetcher(filepath.Join(cfg.DataDir, "ics-cache")),
			Location: loc,
		}),
	}, nil
}

func (a *app) Close() error {
	if a.live == nil {
		return nil
	}
	return a.live.Close()
}

// scope is the workspace a CLI command acts for. Without a backend the
// services always use the demo workspace.
func scope(org, user string) services.Scope {
	return services.Scope{OrganizationID: org, UserID: user}
}
