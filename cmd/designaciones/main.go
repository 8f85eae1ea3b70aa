package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/arbitros/designaciones/pkg/api"
	"github.com/arbitros/designaciones/pkg/auth"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/config"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/httputil"
	"github.com/arbitros/designaciones/pkg/middleware"
	"github.com/arbitros/designaciones/pkg/observability"
	"github.com/arbitros/designaciones/pkg/repository"
	"github.com/arbitros/designaciones/pkg/scope"
	"github.com/arbitros/designaciones/pkg/stats"
	"github.com/arbitros/designaciones/pkg/suggest"
)

var version = "dev"

var (
	configPath  = flag.String("config", os.Getenv(config.FileEnv), "Path to YAML configuration file")
	migrateOnly = flag.Bool("migrate-only", false, "Apply database migrations and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("designaciones exited with error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := observability.SignalContext(context.Background())
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	otelCfg := cfg.Observability.OTel()
	otelCfg.ServiceVersion = version
	providers, err := observability.InitOTel(ctx, otelCfg, logger)
	if err != nil {
		return err
	}
	if providers != nil {
		shutdown.RegisterShutdownFunc(providers.Shutdown)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	db, dialect, err := docstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Pool())
	if err != nil {
		return err
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return db.Close()
	})

	store := docstore.New(db, dialect, docstore.WithMetrics(metrics))
	if err := store.Migrate(ctx); err != nil {
		shutdown.Shutdown()
		return fmt.Errorf("failed to migrate: %w", err)
	}
	logger.WithField("driver", dialect.Name()).Info("document store ready")
	if *migrateOnly {
		return shutdown.Shutdown()
	}

	var (
		redisClient *redis.Client
		readCache   cache.Cache = cache.NewMemoryCache(cache.Config{
			MaxEntries: cfg.Cache.MaxEntries,
			TTL:        cfg.Cache.TTL,
		}, metrics)
	)
	if cfg.Cache.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			shutdown.Shutdown()
			return err
		}
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
		shared := cache.NewRedisCache(redisClient, cfg.Cache.RedisNamespace, cfg.Cache.TTL, metrics)
		readCache = cache.NewTieredCache(readCache, shared)
		logger.Info("shared redis cache enabled")
	}

	resolver, err := newResolver(ctx, cfg.Auth)
	if err != nil {
		shutdown.Shutdown()
		return err
	}

	repos := repository.New(store, readCache)
	switcher := scope.NewSwitcher(readCache, cfg.Scope.Cookie(), metrics)
	server := api.NewServer(repos, suggest.NewService(repos, metrics), switcher, metrics)

	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware,
		httputil.CORSMiddleware(cfg.Server.AllowedOrigins),
		httputil.MaxBytesMiddleware(cfg.Server.MaxBodyBytes),
		middleware.NewAuthMiddleware(resolver, false).Handler,
	}
	if cfg.RateLimit.Enabled {
		chain = append(chain, newRateLimiter(ctx, cfg.RateLimit, redisClient).Handler)
	}
	chain = append(chain, scope.Middleware)

	var handler http.Handler = httputil.Chain(chain...)(server)
	if providers != nil {
		handler = observability.TraceHandler(handler, "designaciones")
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	probes := []observability.Probe{observability.SQLProbe("database", db, docstore.ProbeQuery)}
	if redisClient != nil {
		probes = append(probes, observability.RedisProbe(redisClient))
	}
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(version, probes...))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	// Drained before the shutdown manager closes the db and redis.
	drain := []observability.ShutdownFunc{apiServer.Shutdown, healthServer.Shutdown}

	if cfg.Stats.Enabled {
		scheduler := stats.NewScheduler(stats.NewAggregator(store, metrics), logger)
		if err := scheduler.Start(ctx, cfg.Stats.Schedule); err != nil {
			shutdown.Shutdown()
			return err
		}
		drain = append(drain, scheduler.Shutdown)
	}

	g, gctx := errgroup.WithContext(ctx)

	if *configPath != "" {
		g.Go(func() error {
			defer observability.RecoverPanic(logger, "config watcher")
			if err := config.Watch(gctx, *configPath, logger, config.LogLevelReloader(logger)); err != nil {
				logger.WithError(err).Warn("configuration watcher stopped")
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdown.Timeout())
		defer cancel()
		for _, fn := range drain {
			if err := fn(drainCtx); err != nil {
				logger.WithError(err).Warn("drain failed")
			}
		}
		return shutdown.Shutdown()
	})

	return g.Wait()
}

func newResolver(ctx context.Context, cfg config.AuthConfig) (auth.Resolver, error) {
	if cfg.Mode == config.AuthModeHeader {
		return auth.NewHeaderResolver(), nil
	}
	verifier, err := auth.DiscoverOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	if err != nil {
		return nil, err
	}
	return auth.NewOIDCResolver(verifier), nil
}

// newRateLimiter shares counters through redis when a client is configured
func newRateLimiter(ctx context.Context, cfg config.RateLimitConfig, redisClient *redis.Client) *middleware.RateLimitMiddleware {
	limits := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RequestsPerWindow,
		WindowDuration:    cfg.Window,
		BurstSize:         cfg.BurstSize,
	}
	if redisClient != nil {
		return middleware.NewRateLimitMiddleware(middleware.NewDistributedRateLimiter(redisClient, limits, "designaciones:ratelimit"))
	}
	limiter := middleware.NewRateLimiter(limits)
	limiter.StartCleanup(ctx)
	return middleware.NewRateLimitMiddleware(limiter)
}
