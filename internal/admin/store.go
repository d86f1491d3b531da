// Package admin provides operations on the session store shared by the
// server and the command line.
package admin

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenStore connects to PostgreSQL when DATABASE_URL is set and falls back
// to process memory otherwise. The returned func releases the store.
func OpenStore(ctx context.Context, cfg *config.Config) (core.Store, func(), error) {
	if !cfg.Database.Enabled() {
		slog.Info("no database configured, sessions are kept in memory")
		return core.NewMemoryStore(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	store := core.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return store, pool.Close, nil
}
