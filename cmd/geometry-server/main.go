package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammed-shakir/geometry-operators/internal/auditevents"
	"github.com/mohammed-shakir/geometry-operators/internal/core/config"
	"github.com/mohammed-shakir/geometry-operators/internal/core/health"
	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
	"github.com/mohammed-shakir/geometry-operators/internal/core/server"
	"github.com/mohammed-shakir/geometry-operators/internal/engine/planar"
	"github.com/mohammed-shakir/geometry-operators/internal/invalidation"
	"github.com/mohammed-shakir/geometry-operators/internal/invalidation/kafkaconsumer"
	"github.com/mohammed-shakir/geometry-operators/internal/logger"
	"github.com/mohammed-shakir/geometry-operators/internal/metrics"
	"github.com/mohammed-shakir/geometry-operators/internal/pipeline"
	"github.com/mohammed-shakir/geometry-operators/internal/refs"
	"github.com/mohammed-shakir/geometry-operators/internal/service"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref/registry"
	"github.com/mohammed-shakir/geometry-operators/internal/transport/grpcapi"
	"github.com/mohammed-shakir/geometry-operators/internal/transport/httpapi"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.Log.Level,
		Console:   cfg.Log.Console,
		SampleN:   cfg.Log.SampleN,
		Service:   "geometry-operators",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSrv, metricsHandler := metricsServer(cfg)
	appLog.Info("starting geometry server",
		"http", cfg.HTTPAddr,
		"grpc", cfg.GRPCAddr,
		"version", Version,
		"metrics", cfg.Metrics.Enabled,
		"registry", cfg.Registry.Enabled,
		"audit", cfg.Audit.Enabled)

	srOpts := spatialref.Options{CacheSize: cfg.SRCacheSize, Logger: appLog}
	deps := httpapi.Deps{Logger: appLog, FlushEvery: cfg.StreamFlushEvery, Metrics: metricsHandler}

	if cfg.Registry.Enabled {
		reg, err := registry.Dial(ctx, appLog, cfg.Registry.RedisAddr, 30*time.Second,
			registry.WithKeyPrefix(cfg.Registry.KeyPrefix),
			registry.WithOpTimeout(cfg.Registry.OpTimeout),
			registry.WithValidator(spatialref.Validate),
		)
		if err != nil {
			appLog.Error("spatial reference registry unavailable", "addr", cfg.Registry.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = reg.Close() }()
		srOpts.Registry = reg
		deps.Registry = reg
		deps.Ready = map[string]health.Checker{"registry": reg.Ping}
	}

	frames, err := spatialref.NewResolver(srOpts)
	if err != nil {
		appLog.Error("spatial reference resolver setup failed", "err", err)
		return 1
	}
	var workers []func(context.Context) error
	if cfg.Registry.Enabled {
		deps.Cache = frames
		if cfg.Invalidation.Enabled {
			pub, err := invalidation.NewPublisher(cfg.Audit.BrokerList(), cfg.Invalidation.Topic, cfg.Invalidation.GroupID)
			if err != nil {
				appLog.Error("invalidation publisher setup failed", "brokers", cfg.Audit.Brokers, "err", err)
				return 1
			}
			defer func() { _ = pub.Close() }()
			deps.Notify = pub

			cons := kafkaconsumer.New(kafkaconsumer.Config{
				Brokers: cfg.Audit.BrokerList(),
				Topic:   cfg.Invalidation.Topic,
				GroupID: cfg.Invalidation.GroupID,
			}, appLog, frames)
			workers = append(workers, cons.Start)
		}
	}

	pipe, err := pipeline.New(pipeline.Options{
		Engine: planar.New(planar.WithLogger(appLog)),
		Refs:   refs.New(cfg.MaxRequestDepth, cfg.MismatchPolicy, appLog),
		Frames: frames,
		Logger: appLog,
	})
	if err != nil {
		appLog.Error("pipeline setup failed", "err", err)
		return 1
	}

	svcOpts := service.Options{Pipeline: pipe, Logger: appLog}
	if cfg.Audit.Enabled {
		pub, err := auditevents.NewPublisher(cfg.Audit.BrokerList(), cfg.Audit.Topic, cfg.Audit.Queue, appLog)
		if err != nil {
			appLog.Error("audit publisher setup failed", "brokers", cfg.Audit.Brokers, "err", err)
			return 1
		}
		defer func() { _ = pub.Close() }()
		svcOpts.Audit = pub
	}
	svc := service.New(svcOpts)
	deps.Ops = svc

	err = server.Run(ctx, appLog, server.Listeners{
		HTTP:     httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(deps)),
		GRPC:     grpcapi.NewServer(appLog, svc),
		GRPCAddr: cfg.GRPCAddr,
		Metrics:  metricsSrv,
		Workers:  workers,
	}, cfg.ShutdownTimeout)
	if err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// metricsServer wires the collectors and returns the dedicated metrics
// listener with its handler, both nil when metrics are disabled.
func metricsServer(cfg config.Config) (*http.Server, http.Handler) {
	if !cfg.Metrics.Enabled {
		observability.Init(nil, false)
		return nil, nil
	}
	p := metrics.Init(metrics.Config{
		Enabled: true,
		Addr:    cfg.Metrics.Addr,
		Path:    cfg.Metrics.Path,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	observability.Init(p.Registerer(), true)
	observability.ExposeBuildInfo(Version)
	return p.Server(), p.Handler()
}
