package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jekabolt/grbpwr-catalog/config"
	httpapi "github.com/jekabolt/grbpwr-catalog/internal/api/http"
	"github.com/jekabolt/grbpwr-catalog/internal/auth/jwt"
	"github.com/jekabolt/grbpwr-catalog/internal/cache"
	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/jekabolt/grbpwr-catalog/internal/ratelimit"
	"github.com/jekabolt/grbpwr-catalog/internal/search"
	"github.com/jekabolt/grbpwr-catalog/internal/store"
)

const defaultCacheTTL = 30 * time.Second

// App is the main application
type App struct {
	hs     *httpapi.Server
	db     dependency.Repository
	redis  *cache.RedisCache
	memory *cache.MemoryCache
	limits *ratelimit.MultiKeyLimiter
	c      *config.Config
	done   chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

func (a *App) registryCache(ctx context.Context) (dependency.RegistryCache, error) {
	ttl, err := time.ParseDuration(a.c.Cache.TTL)
	if err != nil || ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if a.c.Cache.RedisURL == "" {
		a.memory = cache.NewMemoryCache(ttl, a.c.Cache.MaxEntries)
		return a.memory, nil
	}
	a.redis, err = cache.NewRedisCache(ctx, a.c.Cache.RedisURL, a.c.Cache.Prefix, ttl)
	if err != nil {
		return nil, err
	}
	return a.redis, nil
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	slog.Default().InfoContext(ctx, "starting catalog")

	db, err := store.New(ctx, a.c.DB)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't connect to mysql", slog.String("err", err.Error()))
		return err
	}
	return a.startWith(ctx, db)
}

// startWith starts everything on top of an open store. On failure every
// resource opened so far, the store included, is released.
func (a *App) startWith(ctx context.Context, db dependency.Repository) error {
	a.db = db
	if err := a.startServices(ctx); err != nil {
		a.hs = nil
		a.release()
		return err
	}

	go func() {
		<-a.hs.Done()
		a.stop()
	}()
	return nil
}

func (a *App) startServices(ctx context.Context) error {
	rc, err := a.registryCache(ctx)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't create registry cache", slog.String("err", err.Error()))
		return err
	}
	registry := cache.NewRegistry(a.db.Filters(), rc)

	auth, err := jwt.New(a.c.Auth)
	if err != nil {
		return fmt.Errorf("can't create jwt auth: %w", err)
	}

	searcher := search.New(a.c.Search, registry, a.db.Catalog())
	a.limits = ratelimit.NewMultiKeyLimiter(a.c.RateLimit)

	a.hs = httpapi.New(&a.c.HTTP, searcher, registry, a.db, auth, a.limits, a.c.RateLimit.RequestsPerMinute)
	if err = a.hs.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server", slog.String("err", err.Error()))
		return err
	}
	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "http server shutdown failed", slog.String("err", err.Error()))
		}
		<-a.hs.Done()
		return
	}
	a.stop()
}

func (a *App) stop() {
	a.release()
	close(a.done)
}

func (a *App) release() {
	a.limits.Stop()
	if a.memory != nil {
		a.memory.Stop()
	}
	if a.redis != nil {
		a.redis.Close()
		a.redis = nil
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}
