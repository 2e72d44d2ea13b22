package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/moodhome/moodhome/internal/bus"
	"github.com/moodhome/moodhome/internal/metrics"
)

// pipeline bundles what every long-running component needs.
type pipeline struct {
	bus      *bus.Client
	topics   bus.Topics
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newPipeline(ctx context.Context, role string) (*pipeline, error) {
	client, err := bus.Connect(ctx, bus.Options{
		BrokerURL:      Cfg.BrokerURL,
		Role:           role,
		ConnectTimeout: Cfg.ConnectTimeout,
		PublishTimeout: Cfg.PublishTimeout,
		Logger:         Logger,
	})
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	return &pipeline{
		bus:      client,
		topics:   bus.Topics{Prefix: Cfg.TopicPrefix},
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

// run starts the metrics endpoint next to the given loops and blocks until ctx is cancelled or
// one of them fails.
func (p *pipeline) run(ctx context.Context, loops ...func(context.Context) error) error {
	defer p.bus.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metrics.Serve(ctx, Cfg.MetricsAddr, p.registry, Logger)
	})
	for _, loop := range loops {
		g.Go(func() error { return loop(ctx) })
	}

	Logger.Info("running, press Ctrl+C to stop")
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pipeline stopped: %w", err)
	}
	Logger.Info("shut down cleanly")
	return nil
}
