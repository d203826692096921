// Package app 依設定組裝目錄、解析器、快取與客製化服務
package app

import (
	"context"
	"errors"

	"recipe-customizer/internal/api"
	"recipe-customizer/internal/client"
	"recipe-customizer/internal/core/cache"
	"recipe-customizer/internal/core/catalog"
	"recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/core/narrator"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/infrastructure/config"
	"recipe-customizer/internal/pkg/common"

	"go.uber.org/zap"
)

// App 已組裝的依賴
type App struct {
	Catalog  catalog.Store
	Resolver substitution.Resolver
	Cache    cache.Store
	Service  *customize.Service
	Narrator *narrator.Queue

	closers []func() error
}

// Build 依設定建立所有依賴，失敗時釋放已建立的資源
func Build(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.Catalog, err = a.buildCatalog(ctx, cfg); err != nil {
		return nil, err
	}
	if a.Resolver, err = buildResolver(cfg); err != nil {
		return nil, err
	}

	c, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		return nil, err
	}
	opts := []customize.Option{}
	if c != nil {
		a.Cache = c
		a.closers = append(a.closers, c.Close)
		opts = append(opts, customize.WithCache(c))
	}

	if cfg.Narrator.Enabled {
		common.LogInfo("Narrator enabled",
			zap.String("model", cfg.Narrator.Model),
			zap.String("api_key", config.MaskSecret(cfg.Narrator.APIKey)),
			zap.Int("workers", cfg.Narrator.Workers),
		)
		q := narrator.NewQueue(narrator.NewOpenRouter(&cfg.Narrator), cfg.Narrator.Workers, cfg.Narrator.QueueSize)
		a.Narrator = q
		a.closers = append(a.closers, q.Close)
		opts = append(opts, customize.WithNarrator(q))
	}

	a.Service = customize.NewService(a.Catalog, a.Resolver, opts...)

	common.LogInfo("Dependencies ready",
		zap.String("catalog", cfg.Catalog.Driver),
		zap.String("resolver", a.Resolver.Name()),
		zap.Bool("cache", a.Cache != nil),
	)
	return a, nil
}

func (a *App) buildCatalog(ctx context.Context, cfg *config.Config) (catalog.Store, error) {
	switch cfg.Catalog.Driver {
	case config.CatalogPostgres:
		store, err := catalog.NewPostgresStore(ctx, cfg.Catalog.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if cfg.Catalog.Seed {
			seed, err := catalog.SeedRecipes()
			if err != nil {
				return nil, err
			}
			if err := store.Seed(ctx, seed); err != nil {
				return nil, err
			}
		}
		return store, nil
	case config.CatalogRemote:
		return client.New(cfg.Resolver.UpstreamURL, cfg.Resolver.Timeout), nil
	default:
		return catalog.NewSeededMemoryStore()
	}
}

func buildResolver(cfg *config.Config) (substitution.Resolver, error) {
	if cfg.Resolver.Mode == config.ResolverRemote {
		return client.NewResolver(client.New(cfg.Resolver.UpstreamURL, cfg.Resolver.Timeout)), nil
	}
	return substitution.NewLocalResolver(nil)
}

// Dependencies 轉為路由使用的依賴
func (a *App) Dependencies() api.Dependencies {
	deps := api.Dependencies{
		Catalog:   a.Catalog,
		Customize: a.Service,
		Cache:     a.Cache,
	}
	// 避免以帶型別的 nil 填入介面
	if a.Narrator != nil {
		deps.Narrator = a.Narrator
	}
	return deps
}

// Close 依建立的相反順序釋放資源
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
