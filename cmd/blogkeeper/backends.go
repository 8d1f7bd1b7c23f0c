package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/api"
	"github.com/sirpyerre/blogkeeper/internal/api/handler"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/config"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/db/memory"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/db/redis"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/mail"
	"github.com/sirpyerre/blogkeeper/pkg/logger"
)

// adapters holds the infrastructure opened for one process and how to close it.
type adapters struct {
	backends api.Backends
	checks   map[string]handler.Check
	closers  []func(context.Context) error
}

func (r *adapters) Close(ctx context.Context) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i](ctx)
	}
}

// openAdapters connects the store, lock and mail adapters selected by cfg.
func openAdapters(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*adapters, error) {
	rt := &adapters{checks: map[string]handler.Check{}}
	storeLog := logger.Tag(log, logger.ComponentStore)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		store := memory.New()
		rt.backends.Repos = store.Repositories()
		rt.checks["store"] = store.Ping
		storeLog.Warn().Msg("using in-memory store, data is lost on exit")
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Disconnect)
		store := mongo.NewStore(client, db)
		if err := store.EnsureIndexes(ctx); err != nil {
			rt.Close(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		rt.backends.Repos = store.Repositories()
		rt.checks["mongodb"] = store.Ping
		storeLog.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	}

	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			rt.Close(ctx)
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })
		rt.backends.Locker = redis.NewAggregateLock(client, logger.Component(logger.ComponentLock))
		rt.checks["redis"] = redis.Ping(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("aggregate locks backed by redis")
	} else {
		rt.backends.Locker = ports.NopLocker{}
		log.Info().Msg("REDIS_ADDR unset, aggregate locks are process-local")
	}

	// A nil *SMTPDispatcher must not be stored in the interface.
	if d := mail.NewSMTPDispatcher(cfg.SMTP.Mail(), logger.Component(logger.ComponentMail)); d != nil {
		rt.backends.Dispatcher = d
	}

	return rt, nil
}

func settingsFrom(cfg *config.Config) api.Settings {
	return api.Settings{
		JWTSecret:   cfg.JWTSecret,
		TokenSecret: cfg.TokenSecret,
		BaseURL:     cfg.BaseURL,
		SessionTTL:  cfg.SessionTTL,
		LockTTL:     cfg.LockTTL,
		TokenAges:   cfg.Tokens.Ages(),
	}
}

func initLogger(cfg *config.Config) zerolog.Logger {
	return logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "blogkeeper",
	})
}
