// Package app composes the letschatd daemon: the fixture-backed backend
// service exposed over HTTP, with its store, logging and instance lock.
package app

import (
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"letschat/internal/backend"
	"letschat/internal/backend/store"
	"letschat/internal/config"
	"letschat/internal/lock"
	"letschat/internal/logging"
	"letschat/internal/session"
)

// Params holds the resolved daemon configuration passed to the fx module.
type Params struct {
	ConfigPath string
	Listen     string // optional override; empty = config value
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideLock,
			provideStore,
			provideService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if p.Listen != "" {
		cfg.Listen = p.Listen
	}
	return cfg, nil
}

func provideLogger() (*zap.Logger, error) {
	return logging.New(session.LogPath("letschatd"))
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDirs(); err != nil {
		return nil, err
	}
	logger.Info("acquiring instance lock", zap.String("dir", session.BaseDir()))
	l, err := lock.Acquire(session.BaseDir())
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return l, nil
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", cfg.DBPath))
	return db, nil
}

func provideService(db *store.DB, logger *zap.Logger) (*backend.Service, error) {
	svc := backend.NewService(db, logger)
	if err := svc.Seed(); err != nil {
		return nil, err
	}
	return svc, nil
}

// latencyFor maps configured milliseconds onto the middleware knobs. A
// negative value disables that delay.
func latencyFor(cfg *config.Config) backend.LatencyConfig {
	ms := func(v int) time.Duration {
		if v < 0 {
			return 0
		}
		return time.Duration(v) * time.Millisecond
	}
	return backend.LatencyConfig{
		Read:     ms(cfg.ReadLatencyMS),
		WriteMin: ms(cfg.WriteMinMS),
		WriteMax: ms(cfg.WriteMaxMS),
	}
}

func routerConfig(cfg *config.Config) backend.RouterConfig {
	return backend.RouterConfig{
		Latency:   latencyFor(cfg),
		RateLimit: rate.Limit(cfg.RateLimitRPS),
		RateBurst: cfg.RateBurst,
	}
}
