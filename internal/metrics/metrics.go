// Package metrics holds the Prometheus counters shared by the pipeline components and serves them
// over HTTP.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moodhome"

// Metrics groups every collector the pipeline records into.
type Metrics struct {
	FacecamPublishes *prometheus.CounterVec
	FacecamJitter    *prometheus.CounterVec
	FacecamVisible   *prometheus.GaugeVec

	ResolverBatches *prometheus.CounterVec
	ResolverFaces   prometheus.Counter

	AggregatorPublished prometheus.Counter
	AggregatorDropped   *prometheus.CounterVec
	AggregatorExcluded  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FacecamPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "facecam",
			Name:      "publishes_total",
			Help:      "Face state messages published per room.",
		}, []string{"room"}),
		FacecamJitter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "facecam",
			Name:      "jitter_total",
			Help:      "Jitter step outcomes per room.",
		}, []string{"room", "outcome"}),
		FacecamVisible: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "facecam",
			Name:      "visible_faces",
			Help:      "Faces currently visible per room.",
		}, []string{"room"}),
		ResolverBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "batches_total",
			Help:      "Face batches handled by outcome.",
		}, []string{"outcome"}),
		ResolverFaces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "faces_total",
			Help:      "Faces resolved to a name and mood.",
		}),
		AggregatorPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "published_total",
			Help:      "Room setpoints published.",
		}),
		AggregatorDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "dropped_total",
			Help:      "Aggregation requests that produced no output, by reason.",
		}, []string{"reason"}),
		AggregatorExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "excluded_users_total",
			Help:      "Users left out of an average, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.FacecamPublishes,
		m.FacecamJitter,
		m.FacecamVisible,
		m.ResolverBatches,
		m.ResolverFaces,
		m.AggregatorPublished,
		m.AggregatorDropped,
		m.AggregatorExcluded,
	)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr disables it.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
