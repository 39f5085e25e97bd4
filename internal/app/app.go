package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/CDTO-DENKART/app-visualizer/internal/cache"
	"github.com/CDTO-DENKART/app-visualizer/internal/config"
	"github.com/CDTO-DENKART/app-visualizer/internal/domains"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/deps"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/mw"
	"github.com/CDTO-DENKART/app-visualizer/internal/inventory"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/probe"
	"github.com/CDTO-DENKART/app-visualizer/internal/redis"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	"github.com/CDTO-DENKART/app-visualizer/internal/scheduler"
	redisstore "github.com/CDTO-DENKART/app-visualizer/internal/store/redis"
	"github.com/CDTO-DENKART/app-visualizer/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	warmer      *scheduler.Warmer
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	ruleSet, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	directory, err := domains.Load(cfg.DomainsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load domains: %w", err)
	}
	loggerClient.Info("domain directory loaded",
		logger.Int("entries", directory.Len()),
		logger.String("file", cfg.DomainsFile))

	inv := inventory.Setup{
		Runner:         runner.NewShell(loggerClient),
		Rules:          ruleSet,
		Domains:        directory,
		Prober:         probe.NewHTTPProber(cfg.ProbeInsecureTLS),
		Backends:       cfg.Backends,
		HostAddress:    cfg.HostAddress,
		CommandTimeout: cfg.CommandTimeout,
		ProbeTimeout:   cfg.ProbeTimeout,
		ProbeWorkers:   cfg.ProbeWorkers,
		Log:            loggerClient,
	}.Build()

	cacheOpts := []cache.Option{cache.WithLogger(loggerClient)}

	// Redis is optional: without it the service runs memory-only.
	var (
		redisClient *goredis.Client
		store       *redisstore.Store
	)
	redisOpts := redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
	if redisOpts.Enabled() {
		redisClient, err = redis.New(context.Background(), redisOpts, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, snapshot history disabled", logger.Error(err))
		} else {
			store = redisstore.NewStore(redisClient).WithRetention(cfg.SnapshotTTL, cfg.SnapshotHistory)
			cacheOpts = append(cacheOpts, cache.WithStore(store))
		}
	} else {
		loggerClient.Info("redis not configured, snapshot history disabled")
	}

	snapshots := cache.New(inv, cfg.CacheTTL, cacheOpts...)

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)
	warmer := scheduler.NewWarmer(snapshots, loggerClient, cfg.RefreshInterval, reloadTrigger)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		Snapshots:     snapshots,
		Domains:       directory,
		ReloadTrigger: reloadTrigger,
		RateLimit: mw.RateLimitConfig{
			Burst:             cfg.RunnerBurst,
			RefillPerIPPerMin: cfg.RunnerRefillPerMin,
			MaxEntries:        cfg.RunnerMaxRateEntries,
			TrustProxy:        cfg.TrustProxy,
		},
	}
	if store != nil {
		d.History = store
	}
	if cfg.RunnerEnabled {
		loggerClient.Warn("command runner endpoint enabled")
		d.Spawner = runner.NewSpawner(loggerClient)
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		warmer:      warmer,
	}, nil
}

func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	a.logger.Infof("🚀 Starting appvis v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("appvis %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Preload the snapshot before serving and start the refresh loop
	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start warmer: %w", err)
	}
	a.logger.Info("warmer started",
		logger.Duration("interval", a.cfg.RefreshInterval),
		logger.Duration("cache_ttl", a.cfg.CacheTTL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.warmer.Stop()
		return err
	}

	a.warmer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ appvis stopped cleanly")
	return nil
}
