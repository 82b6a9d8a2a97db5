package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/learn-cache/pkg/api"
	"github.com/Sternrassler/learn-cache/pkg/assets"
	"github.com/Sternrassler/learn-cache/pkg/cacheditem"
	"github.com/Sternrassler/learn-cache/pkg/config"
	"github.com/Sternrassler/learn-cache/pkg/form"
	"github.com/Sternrassler/learn-cache/pkg/kvstore"
	"github.com/Sternrassler/learn-cache/pkg/logging"
	"github.com/Sternrassler/learn-cache/pkg/systemsettings"
	"github.com/Sternrassler/learn-cache/pkg/warmup"
)

// app wires the configured stores, client and services.
type app struct {
	config   config.Config
	logger   zerolog.Logger
	content  kvstore.Store
	flags    kvstore.Store
	forms    *form.Service
	settings *systemsettings.Service
	warmer   *warmup.Warmer
}

func newApp(ctx context.Context, opts *rootFlags) (*app, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger := logging.Setup(cfg.Log.Logging())

	content, err := kvstore.Open(ctx, cfg.Store.Content.KVStore())
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}

	flags := content
	if flagsCfg, separate := cfg.Store.FlagsBackend(); separate {
		flags, err = kvstore.Open(ctx, flagsCfg.KVStore())
		if err != nil {
			content.Close()
			return nil, fmt.Errorf("open flag store: %w", err)
		}
	}

	client, err := api.New(cfg.API.Client())
	if err != nil {
		content.Close()
		if flags != content {
			flags.Close()
		}
		return nil, err
	}

	var bundled *assets.Reader
	if cfg.Assets.Dir != "" {
		bundled = assets.Dir(cfg.Assets.Dir)
	}

	storeCfg := cacheditem.DefaultConfig()
	storeCfg.DefaultTTL = cfg.Cache.DefaultTTL
	store := cacheditem.New(content, flags, storeCfg)

	forms := form.NewService(client, bundled, store, form.Config{
		APIPath:  cfg.API.FormPath,
		AssetDir: cfg.Assets.FormDir,
	})
	settings := systemsettings.NewService(client, bundled, store, systemsettings.Config{
		APIPath:  cfg.API.SettingsPath,
		AssetDir: cfg.Assets.SettingsDir,
	})

	var jobs []warmup.Job
	for _, f := range cfg.Warmup.Forms {
		jobs = append(jobs, warmup.FormJob(forms, form.Request{
			Type:      f.Type,
			SubType:   f.SubType,
			Action:    f.Action,
			Component: f.Component,
			RootOrgID: f.RootOrgID,
			Framework: f.Framework,
		}))
	}
	for _, id := range cfg.Warmup.Settings {
		jobs = append(jobs, warmup.SettingsJob(settings, id))
	}

	warmCfg := warmup.DefaultConfig()
	warmCfg.Concurrency = cfg.Warmup.Concurrency

	logger.Info().
		Str("content_backend", cfg.Store.Content.Backend).
		Str("api", cfg.API.BaseURL).
		Int("warmup_jobs", len(jobs)).
		Msg("learncache initialised")

	return &app{
		config:   cfg,
		logger:   logger,
		content:  content,
		flags:    flags,
		forms:    forms,
		settings: settings,
		warmer:   warmup.NewWarmer(jobs, warmCfg),
	}, nil
}

// Close closes the stores.
func (a *app) Close() error {
	err := a.content.Close()
	if a.flags != a.content {
		err = errors.Join(err, a.flags.Close())
	}
	return err
}
