package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"urlguard/internal/api"
	"urlguard/internal/checker"
	"urlguard/internal/config"
	"urlguard/internal/domain"
	"urlguard/internal/logging"
	"urlguard/internal/metrics"
	"urlguard/internal/registry"
	"urlguard/internal/report"
	"urlguard/internal/transport/grpc"
	httpgw "urlguard/internal/transport/http"
)

// maxStaleness is how long the last good registry keeps the service ready
// while updates fail.
const maxStaleness = 48 * time.Hour

// Sources builds the blocklist sources named in cfg.
func Sources(cfg config.Config) (registry.Sources, *registry.FileSource) {
	var (
		srcs registry.Sources
		file *registry.FileSource
	)
	if cfg.Feed.Enabled && cfg.Feed.URL != "" {
		srcs = append(srcs, registry.NewFeedClient(cfg.Feed.URL))
	}
	if cfg.Blocklist.File != "" {
		file = registry.NewFileSource(cfg.Blocklist.File)
		srcs = append(srcs, file)
	}
	return srcs, file
}

func Run(ctx context.Context, cfg config.Config) error {
	log := logging.FromContext(ctx)

	if !cfg.HasSource() {
		return errors.New("no blocklist source configured: enable feed or set blocklist.file")
	}

	m := metrics.New()
	holder := registry.NewHolder()
	srcs, file := Sources(cfg)

	allow, err := checker.NewAllowlist(cfg.Allowlist)
	if err != nil {
		return err
	}

	reporters := []report.Reporter{report.NewLogReporter(*log)}
	if cfg.NATS.URL != "" {
		conn, err := report.DialNATS(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Drain(); err != nil {
				log.Warn().Err(err).Msg("nats drain")
			}
		}()
		reporters = append(reporters, report.NewNATSReporter(conn, cfg.NATS.Subject))
		log.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.Subject).Msg("publishing verdicts to NATS")
	}

	chk := checker.New(holder,
		checker.WithOptions(cfg.Canonical.Options()),
		checker.WithAllowlist(allow),
		checker.WithReporter(report.Multi(reporters...)),
		checker.WithMetrics(m),
	)

	hs := health.NewServer()
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	trigger := make(chan struct{}, 1)
	updCfg := registry.Config{
		Interval:       cfg.UpdateInterval,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     30 * time.Minute,
		Trigger:        trigger,
		OnUpdate:       onUpdate(m, hs, holder),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return registry.Start(logging.WithComponent(ctx, "registry"), updCfg, srcs, holder)
	})

	if file != nil && cfg.Blocklist.Watch {
		g.Go(func() error {
			return registry.Watch(ctx, file.Path(), trigger)
		})
	}

	g.Go(func() error {
		return grpc.RunGRPCServer(logging.WithComponent(ctx, "grpc"), cfg.GRPCAddr, grpc.NewServer(chk), hs)
	})

	g.Go(func() error {
		return httpgw.RunHTTPGatewayServer(logging.WithComponent(ctx, "http"), cfg.HTTPAddr, cfg.GRPCAddr, m)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servers stopped with error")
		return err
	}

	log.Info().Msg("servers stopped gracefully")
	return nil
}

// onUpdate keeps metrics and the health status in step with the registry.
// A failed refresh only flips the service to NOT_SERVING once the last good
// registry is older than maxStaleness.
func onUpdate(m *metrics.Metrics, hs *health.Server, holder *registry.Holder) func(*domain.Registry, error) {
	return func(reg *domain.Registry, err error) {
		m.ObserveUpdate(err, reg.Len())
		switch {
		case err == nil:
			hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
		case !holder.Fresh(maxStaleness):
			hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		}
	}
}
