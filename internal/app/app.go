// Package app wires configuration, storage and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"invitopia/internal/assets"
	"invitopia/internal/config"
	"invitopia/internal/docstore"
	"invitopia/internal/domain"
	"invitopia/internal/guests"
	"invitopia/internal/secret"
	"invitopia/internal/service"
	"invitopia/internal/storage"
)

// passwordKey is the secret holding the password of an external backend.
const passwordKey = "storage/password"

// App holds the long-lived services of a running invitopia process.
type App struct {
	cfg config.Config
	log *slog.Logger

	store    domain.TemplateStore
	versions domain.VersionStore

	Templates *service.TemplateService
	Autosave  *service.Autosaver
	Images    *assets.ImageLibrary // nil when the image directory can't be watched
	Fonts     *assets.FontCatalog
	Guests    *guests.Engine
}

// Options tune New.
type Options struct {
	Secrets secret.SecretStore
	Emitter service.EventEmitter
}

// New opens storage and builds the services described by cfg. The
// autosaver is created but not started.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if opts.Secrets == nil {
		opts.Secrets = secret.Chain{secret.NewEnvStore(), secret.NewKeychainStore()}
	}
	if opts.Emitter == nil {
		opts.Emitter = service.LogEmitter{}
	}

	a := &App{cfg: cfg, log: slog.Default().With("component", "app")}

	store, versions, err := openStore(ctx, cfg, opts.Secrets)
	if err != nil {
		return nil, err
	}
	a.store, a.versions = store, versions

	a.Templates = service.NewTemplateService(store, versions, opts.Emitter)
	a.Autosave = service.NewAutosaver(a.Templates, cfg.Autosave.Schedule)
	a.Fonts = assets.NewFontCatalog(cfg.Assets.Fonts...)
	a.Guests = guests.NewEngine(a.Templates)

	images, err := assets.NewImageLibrary(cfg.Assets.ImageDir, cfg.Assets.ImageBaseURL)
	if err != nil {
		a.log.Warn("image library disabled", "dir", cfg.Assets.ImageDir, "err", err)
	} else {
		a.Images = images
	}
	return a, nil
}

// openStore picks the template store for the configured driver. The
// document backend keeps no version log.
func openStore(ctx context.Context, cfg config.Config, secrets secret.SecretStore) (domain.TemplateStore, domain.VersionStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := storage.New(cfg.SQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		slog.Debug("storage opened", "driver", cfg.Storage.Driver, "path", cfg.SQLitePath())
		return storage.NewTemplateStore(db), storage.NewVersionStore(db, cfg.History.Limit), nil

	case config.DriverPostgres, config.DriverMySQL:
		password, err := secrets.Get(passwordKey)
		if err != nil {
			return nil, nil, fmt.Errorf("read storage password: %w", err)
		}
		db, err := storage.Open(storage.Driver(cfg.Storage.Driver), cfg.Storage.BuildDSN(string(password)))
		if err != nil {
			return nil, nil, err
		}
		if err := db.Conn().PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping %s: %w", cfg.Storage.Driver, err)
		}
		slog.Debug("storage opened", "driver", cfg.Storage.Driver, "host", cfg.Storage.Host)
		return storage.NewTemplateStore(db), storage.NewVersionStore(db, cfg.History.Limit), nil

	case config.DriverMongo:
		password, err := secrets.Get(passwordKey)
		if err != nil {
			return nil, nil, fmt.Errorf("read storage password: %w", err)
		}
		store, err := docstore.Open(ctx, cfg.Storage.BuildDSN(string(password)), cfg.Storage.Database)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Start begins background work: the autosave schedule when enabled.
func (a *App) Start(ctx context.Context) error {
	if !a.cfg.Autosave.Enabled {
		return nil
	}
	return a.Autosave.Start(ctx)
}

// Shutdown stops autosave, saves open templates and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Autosave.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("final autosave: %w", err))
	}
	if err := a.Templates.CloseAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.Images != nil {
		if err := a.Images.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
