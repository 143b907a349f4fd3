package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
)

// HealthChecker probes the memory provider
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// HealthProbeWorker probes the memory provider once at start and then
// periodically, publishing the result as a gauge. HealthCheck serves the last
// result so readiness checks do not wait on the provider's retry loop.
//
// Architecture assumptions:
// - One worker per process; every instance probes independently
type HealthProbeWorker struct {
	checker  HealthChecker
	interval time.Duration
	up       prometheus.Gauge
	healthy  atomic.Bool
	probed   atomic.Bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// NewHealthProbeWorker creates a worker. The gauge is registered to reg when
// it is not nil. A non-positive interval disables periodic probes.
func NewHealthProbeWorker(checker HealthChecker, interval time.Duration, namespace string, reg prometheus.Registerer) *HealthProbeWorker {
	gaugeOpts := prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "up",
		Help:      "Whether the last memory provider health probe succeeded (1) or not (0).",
	}

	var up prometheus.Gauge
	if reg != nil {
		up = promauto.With(reg).NewGauge(gaugeOpts)
	} else {
		up = prometheus.NewGauge(gaugeOpts)
	}

	return &HealthProbeWorker{
		checker:  checker,
		interval: interval,
		up:       up,
		doneCh:   make(chan struct{}),
	}
}

// Start runs the startup probe and the probe loop in the background
func (w *HealthProbeWorker) Start(ctx context.Context) {
	logging.Default().Info("Provider health probe worker starting",
		"interval", w.interval.String())

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
}

// Stop cancels an in-flight probe and waits for the loop to exit
func (w *HealthProbeWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.doneCh
	logging.Default().Info("Provider health probe worker stopped")
}

// HealthCheck returns the last probe result. Before any probe has finished
// it probes synchronously.
func (w *HealthProbeWorker) HealthCheck(ctx context.Context) bool {
	if !w.probed.Load() {
		return w.Probe(ctx)
	}
	return w.healthy.Load()
}

func (w *HealthProbeWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if !w.Probe(ctx) && ctx.Err() == nil {
		logging.From(ctx).Warn("memory provider is not reachable at startup")
	}

	if w.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Probe(ctx)

		case <-ctx.Done():
			return
		}
	}
}

// Probe runs one health check and records the outcome
func (w *HealthProbeWorker) Probe(ctx context.Context) bool {
	healthy := w.checker.HealthCheck(ctx)
	if ctx.Err() != nil {
		// an aborted probe says nothing about the provider
		return w.healthy.Load()
	}

	prev := w.healthy.Swap(healthy)
	if w.probed.Swap(true) && prev != healthy {
		logging.From(ctx).Info("Memory provider health changed", "healthy", healthy)
	}
	if healthy {
		w.up.Set(1)
	} else {
		w.up.Set(0)
	}
	return healthy
}
