package main

import (
	"context"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/anipi/internal/platform/analytics"
	"github.com/example/anipi/internal/platform/config"
	"github.com/example/anipi/internal/platform/db"
	"github.com/example/anipi/internal/platform/httpserver"
	"github.com/example/anipi/internal/platform/logging"
	"github.com/example/anipi/internal/platform/natsconn"
	"github.com/example/anipi/internal/platform/ratelimit"
	"github.com/example/anipi/internal/platform/run"
	catalogconfig "github.com/example/anipi/services/catalog/internal/config"
	"github.com/example/anipi/services/catalog/internal/handlers"
	"github.com/example/anipi/services/catalog/internal/store"
)

const (
	healthService   = "anipi.catalog"
	limiterSweepGap = time.Minute
)

func main() {
	cfg, err := config.Load("catalog")
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	catCfg, err := catalogconfig.LoadCatalog()
	if err != nil {
		log.Error("load catalog config", zap.Error(err))
		run.Exit(1)
	}

	src, closeSrc, err := openSource(catCfg, log)
	if err != nil {
		log.Error("open dataset source", zap.String("source", catCfg.DatasetSource), zap.Error(err))
		run.Exit(1)
	}
	// run.Exit skips defers, so resources are released through cleanup.
	var closers cleanup
	closers.add(closeSrc)

	// grpc health mirrors dataset readiness
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)
	catalog := store.New(src, log, store.WithOnLoad(func(err error) {
		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		healthSrv.SetServingStatus(healthService, status)
	}))

	if _, err := catalog.Load(context.Background()); err != nil {
		log.Warn("initial dataset load failed; serving degraded until it succeeds", zap.Error(err))
	}

	cache := handlers.NewTTLCache(catCfg.CacheTTL)
	deps := handlers.Deps{Catalog: catalog, Cache: cache, Log: log}

	var nc *nats.Conn
	if catCfg.NATSURL != "" {
		nc, err = natsconn.Connect(natsconn.Options{URL: catCfg.NATSURL, Name: cfg.ServiceName, Logger: log})
		if err != nil {
			log.Warn("nats unavailable; analytics and cache invalidation disabled", zap.Error(err))
		}
	}
	if nc != nil {
		closers.add(nc.Close)
		if err := cache.SubscribeInvalidation(nc, catCfg.CacheInvalidateSubject); err != nil {
			log.Warn("cache invalidation subscribe", zap.String("subject", catCfg.CacheInvalidateSubject), zap.Error(err))
		}
		closers.add(func() { _ = cache.Close() })
		if catCfg.AnalyticsEnabled {
			js, err := nc.JetStream()
			if err != nil {
				log.Warn("jetstream unavailable; analytics disabled", zap.Error(err))
			} else {
				deps.Events = analytics.New(js, log)
			}
		}
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		Logger:      log,
		CORSOrigins: cfg.HTTP.CORSAllowedOrigins,
		// Load ignores caller cancellation, so readiness waits for an in-flight load.
		ReadyFunc: func() error {
			_, err := catalog.Load(context.Background())
			return err
		},
	})

	var limiter *ratelimit.Limiter
	if catCfg.RateLimitRPS > 0 {
		limiter = ratelimit.New(catCfg.RateLimitRPS, catCfg.RateLimitBurst)
	}
	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		handlers.Register(r, deps)
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)
	lis, err := net.Listen("tcp", catCfg.GRPCAddr)
	if err != nil {
		log.Error("listen grpc", zap.String("addr", catCfg.GRPCAddr), zap.Error(err))
		closers.run()
		run.Exit(1)
	}

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			log.Info("grpc server starting", zap.String("addr", catCfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error("grpc serve", zap.Error(err))
			}
		}()
		if limiter != nil {
			go sweepLimiter(ctx, limiter)
		}
		return srv.Start(log)
	})

	healthSrv.Shutdown()
	runner.Graceful("http", srv.Shutdown)
	runner.Graceful("grpc", func(ctx context.Context) error {
		stopped := make(chan struct{})
		go func() {
			grpcSrv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			grpcSrv.Stop()
			return ctx.Err()
		}
	})

	closers.run()
	log.Info("exit", zap.Int("code", code))
	_ = log.Sync()
	run.Exit(code)
}

// openSource builds the configured dataset source. The returned func releases
// any resources the source holds.
func openSource(cfg catalogconfig.CatalogConfig, log *zap.Logger) (store.Source, func(), error) {
	switch cfg.DatasetSource {
	case catalogconfig.SourcePostgres:
		pool, err := db.Open(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("dataset source", zap.String("source", catalogconfig.SourcePostgres))
		return store.NewPostgresSource(pool), pool.Close, nil
	default:
		log.Info("dataset source", zap.String("source", catalogconfig.SourceFile), zap.String("path", cfg.DataFile))
		return store.NewFileSource(cfg.DataFile), func() {}, nil
	}
}

func sweepLimiter(ctx context.Context, l *ratelimit.Limiter) {
	t := time.NewTicker(limiterSweepGap)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// cleanup releases resources in reverse registration order. run is idempotent.
type cleanup struct {
	fns []func()
}

func (c *cleanup) add(fn func()) {
	c.fns = append(c.fns, fn)
}

func (c *cleanup) run() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
	c.fns = nil
}
